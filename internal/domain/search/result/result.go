package result

import "github.com/maktaba-labs/maktaba/internal/domain"

// Hit is a single engine hit.
type Hit struct {
	document  domain.Document
	textMatch int64
}

// NewHit creates a hit.
func NewHit(doc domain.Document, textMatch int64) Hit {
	return Hit{document: doc, textMatch: textMatch}
}

// Document returns the hit's document.
func (h Hit) Document() domain.Document { return h.document }

// ID returns the document identifier.
func (h Hit) ID() string { return h.document.ID() }

// TextMatch returns the engine's text-match score.
func (h Hit) TextMatch() int64 { return h.textMatch }

// Raw is one engine result as returned, before composition.
type Raw struct {
	Found int
	Page  int
	Hits  []Hit
}
