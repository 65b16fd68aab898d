package filter

import "fmt"

// MaxValuesPerFacet is the maximum number of ids accepted for a single facet kind.
const MaxValuesPerFacet = 256

// YearRange is an inclusive [From, To] range.
type YearRange struct {
	from int
	to   int
}

// NewYearRange validates and creates a YearRange.
func NewYearRange(from, to int) (YearRange, error) {
	if from > to {
		return YearRange{}, fmt.Errorf("year range start %d is after end %d", from, to)
	}
	return YearRange{from: from, to: to}, nil
}

// From returns the lower inclusive bound.
func (r YearRange) From() int { return r.from }

// To returns the upper inclusive bound.
func (r YearRange) To() int { return r.to }

// FacetFilter holds the facet selections of one request.
// A nil or empty field means "no constraint", never "match nothing".
type FacetFilter struct {
	YearRange   *YearRange
	Genres      []string
	Authors     []string
	Regions     []string
	Geographies []string
	IDs         []string
}

// Validate checks per-facet size limits.
func (f FacetFilter) Validate() error {
	lists := []struct {
		name   string
		values []string
	}{
		{"genres", f.Genres},
		{"authors", f.Authors},
		{"regions", f.Regions},
		{"geographies", f.Geographies},
		{"ids", f.IDs},
	}
	for _, l := range lists {
		if len(l.values) > MaxValuesPerFacet {
			return fmt.Errorf("too many %s values (max %d)", l.name, MaxValuesPerFacet)
		}
	}
	return nil
}

// IsEmpty reports whether the filter constrains nothing.
func (f FacetFilter) IsEmpty() bool {
	return f.YearRange == nil &&
		len(nonEmpty(f.Genres)) == 0 &&
		len(nonEmpty(f.Authors)) == 0 &&
		len(nonEmpty(f.Regions)) == 0 &&
		len(nonEmpty(f.Geographies)) == 0 &&
		len(nonEmpty(f.IDs)) == 0
}

// Fields names the engine document fields each facet kind filters on.
type Fields struct {
	Year        string `yaml:"year"`
	Genres      string `yaml:"genres"`
	Authors     string `yaml:"authors"`
	Regions     string `yaml:"regions"`
	Geographies string `yaml:"geographies"`
	IDs         string `yaml:"ids"`
}

// DefaultFields returns the field names used by the book and author collections.
func DefaultFields() Fields {
	return Fields{
		Year:        "year",
		Genres:      "genreTags",
		Authors:     "authorId",
		Regions:     "regions",
		Geographies: "geographies",
		IDs:         "id",
	}
}

// WithDefaults fills blank field names from DefaultFields.
func (fs Fields) WithDefaults() Fields {
	d := DefaultFields()
	if fs.Year == "" {
		fs.Year = d.Year
	}
	if fs.Genres == "" {
		fs.Genres = d.Genres
	}
	if fs.Authors == "" {
		fs.Authors = d.Authors
	}
	if fs.Regions == "" {
		fs.Regions = d.Regions
	}
	if fs.Geographies == "" {
		fs.Geographies = d.Geographies
	}
	if fs.IDs == "" {
		fs.IDs = d.IDs
	}
	return fs
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
