package config

import "github.com/maktaba-labs/maktaba/internal/domain/search/weight"

// DefaultKinds returns the catalog's standard search kinds.
func DefaultKinds() map[string]KindConfig {
	return map[string]KindConfig{
		"authors": {
			Collection: "authors",
			Weights: []weight.Bucket{
				{Weight: 3, Fields: []string{"transliteration", "primaryNames.text"}},
				{Weight: 2, Fields: []string{"otherNames.text"}},
				{Weight: 1, Fields: []string{"bio"}},
			},
			Lookups: []LookupConfig{{
				Purpose:        "selectedRegions",
				Facet:          "regions",
				Collection:     "regions",
				CandidateField: "regions",
				QueryBy:        "name",
			}},
		},
		"books": {
			Collection: "books",
			Weights: []weight.Bucket{
				{Weight: 4, Fields: []string{"transliteration", "primaryNames.text"}},
				{Weight: 3, Fields: []string{"otherNames.text"}},
				{Weight: 2, Fields: []string{"author.transliteration", "author.primaryNames.text"}},
				{Weight: 1, Fields: []string{"author.otherNames.text"}},
			},
			Lookups: []LookupConfig{{
				Purpose:        "selectedAuthors",
				Facet:          "authors",
				Collection:     "authors",
				CandidateField: "author",
				QueryBy:        "transliteration,primaryNames.text",
			}},
		},
		"genres": {
			Collection: "genres",
			Weights: []weight.Bucket{
				{Weight: 2, Fields: []string{"name", "transliteration"}},
				{Weight: 1, Fields: []string{"description"}},
			},
		},
		"regions": {
			Collection: "regions",
			Weights: []weight.Bucket{
				{Weight: 2, Fields: []string{"name", "transliteration"}},
				{Weight: 1, Fields: []string{"subRegions"}},
			},
		},
		"global": {
			Collection: "all_documents",
			Weights: []weight.Bucket{
				{Weight: 1, Fields: []string{"transliteration", "primaryNames.text", "otherNames.text", "author"}},
			},
		},
	}
}

// DefaultSortAliases maps UI sort names to engine sort expressions.
func DefaultSortAliases() map[string]string {
	return map[string]string{
		"year-asc":        "year:asc",
		"year-desc":       "year:desc",
		"alphabetical":    "transliteration:asc",
		"alphabetical-za": "transliteration:desc",
	}
}
