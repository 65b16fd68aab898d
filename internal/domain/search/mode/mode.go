package mode

// Mode is the search strategy.
type Mode string

// Search mode constants.
const (
	// Keyword sends the weighted text query only.
	Keyword Mode = "keyword"
	// Hybrid adds a vector query built from the normalized text and falls
	// back to Keyword when no embedding is available.
	Hybrid Mode = "hybrid"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Keyword || m == Hybrid
}
