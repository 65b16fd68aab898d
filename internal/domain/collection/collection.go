// Package collection describes the searchable entity kinds and how each maps
// onto an engine collection.
package collection

import (
	"fmt"
	"regexp"

	"github.com/maktaba-labs/maktaba/internal/domain/search/filter"
	"github.com/maktaba-labs/maktaba/internal/domain/search/weight"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Kind is a searchable entity type.
type Kind string

const (
	Authors Kind = "authors"
	Books   Kind = "books"
	Genres  Kind = "genres"
	Regions Kind = "regions"
	// Global searches the combined index with the unweighted free-text query.
	Global Kind = "global"
)

// Kinds lists every supported kind.
func Kinds() []Kind { return []Kind{Authors, Books, Genres, Regions, Global} }

// IsValid checks if the kind is supported.
func (k Kind) IsValid() bool {
	switch k {
	case Authors, Books, Genres, Regions, Global:
		return true
	}
	return false
}

// Facet names a facet kind an auxiliary lookup resolves.
type Facet string

const (
	FacetAuthors Facet = "authors"
	FacetRegions Facet = "regions"
	FacetGenres  Facet = "genres"
)

// IsValid checks if the facet can back an auxiliary lookup.
func (facet Facet) IsValid() bool {
	return facet == FacetAuthors || facet == FacetRegions || facet == FacetGenres
}

// Select returns the ids f selects for facet.
func (facet Facet) Select(f filter.FacetFilter) []string {
	switch facet {
	case FacetAuthors:
		return f.Authors
	case FacetRegions:
		return f.Regions
	case FacetGenres:
		return f.Genres
	}
	return nil
}

// MaxLookupLimit caps the documents a single auxiliary lookup may return.
const MaxLookupLimit = 100

// LookupSpec declares an auxiliary lookup that materializes the documents a
// facet selection refers to, whether or not they appear in the primary page.
type LookupSpec struct {
	// Purpose tags the sub-result, e.g. "selectedAuthors".
	Purpose string
	Facet   Facet
	// Collection is the engine collection holding the selected entities.
	Collection string
	// IDField is the field the selected ids are matched against.
	IDField string
	// CandidateField is the primary hit field holding facet values of this kind.
	CandidateField string
	QueryBy        string
	Limit          int
}

// Collection is the immutable search definition of one kind.
type Collection struct {
	kind         Kind
	name         string
	weights      weight.Map
	filterFields filter.Fields
	lookups      []LookupSpec
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("collection name is required")
	}
	if len(name) > 64 {
		return fmt.Errorf("collection name too long (max 64)")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("collection name must be alphanumeric with underscores and hyphens")
	}
	return nil
}

func validateLookups(lookups []LookupSpec) error {
	seen := make(map[string]bool, len(lookups))
	for _, l := range lookups {
		if l.Purpose == "" {
			return fmt.Errorf("lookup purpose is required")
		}
		if seen[l.Purpose] {
			return fmt.Errorf("duplicate lookup purpose: %s", l.Purpose)
		}
		seen[l.Purpose] = true
		if err := validateName(l.Collection); err != nil {
			return fmt.Errorf("lookup %s: %w", l.Purpose, err)
		}
		if !l.Facet.IsValid() {
			return fmt.Errorf("lookup %s: unsupported facet %q", l.Purpose, l.Facet)
		}
		if l.Limit < 0 {
			return fmt.Errorf("lookup %s: limit must not be negative", l.Purpose)
		}
	}
	return nil
}

// New validates and creates a Collection. Blank filter field names take
// their defaults; lookup limits are capped at MaxLookupLimit.
func New(kind Kind, name string, weights weight.Map, fields filter.Fields, lookups []LookupSpec) (Collection, error) {
	if !kind.IsValid() {
		return Collection{}, fmt.Errorf("invalid collection kind: %q", kind)
	}
	if err := validateName(name); err != nil {
		return Collection{}, err
	}
	if weights.IsEmpty() {
		return Collection{}, fmt.Errorf("%s: weighted fields are required", kind)
	}
	if err := validateLookups(lookups); err != nil {
		return Collection{}, err
	}

	copied := make([]LookupSpec, len(lookups))
	for i, l := range lookups {
		if l.IDField == "" {
			l.IDField = "id"
		}
		if l.Limit == 0 || l.Limit > MaxLookupLimit {
			l.Limit = MaxLookupLimit
		}
		copied[i] = l
	}

	return Collection{
		kind:         kind,
		name:         name,
		weights:      weights,
		filterFields: fields.WithDefaults(),
		lookups:      copied,
	}, nil
}

// Kind returns the entity kind.
func (c Collection) Kind() Kind { return c.kind }

// Name returns the engine collection name.
func (c Collection) Name() string { return c.name }

// Weights returns the field weight map.
func (c Collection) Weights() weight.Map { return c.weights }

// FilterFields returns the engine field names used by the filter compiler.
func (c Collection) FilterFields() filter.Fields { return c.filterFields }

// Lookups returns a copy of the auxiliary lookup declarations.
func (c Collection) Lookups() []LookupSpec {
	return append([]LookupSpec(nil), c.lookups...)
}

// LookupByPurpose finds the lookup declared for purpose.
func (c Collection) LookupByPurpose(purpose string) (LookupSpec, bool) {
	for _, l := range c.lookups {
		if l.Purpose == purpose {
			return l, true
		}
	}
	return LookupSpec{}, false
}
