package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/maktaba-labs/maktaba/internal/domain/collection"
	"github.com/maktaba-labs/maktaba/internal/domain/search/filter"
	"github.com/maktaba-labs/maktaba/internal/domain/search/mode"
	"github.com/maktaba-labs/maktaba/internal/domain/search/request"
	chiTransport "github.com/maktaba-labs/maktaba/internal/transport/chi"
	searchuc "github.com/maktaba-labs/maktaba/internal/usecase/search"
)

// explainOptions holds CLI flags for explain.
type explainOptions struct {
	kind        string
	query       string
	advanced    string
	page        int
	perPage     int
	sort        string
	mode        string
	yearFrom    int
	yearTo      int
	genres      []string
	authors     []string
	regions     []string
	geographies []string
	ids         []string
}

func newExplainCmd(root *rootOptions) *cobra.Command {
	var opts explainOptions

	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Print the engine queries a search request compiles to",
		Long: `Compile a search request with the configured collections and print
the resulting engine plan as JSON. The engine is never contacted.

Examples:
  maktaba explain --kind books --q "Sahih al-Bukhari"
  maktaba explain --kind books --q fiqh --genres hadith,fiqh --authors a1
  maktaba explain --kind authors --advanced 'a AND (b OR "c")' --year-from 200 --year-to 300`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExplain(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.kind, "kind", "k", string(collection.Books), "Search kind: authors, books, genres, regions, global")
	cmd.Flags().StringVar(&opts.query, "q", "", "Free-text query")
	cmd.Flags().StringVar(&opts.advanced, "advanced", "", "Advanced boolean expression (overrides --q)")
	cmd.Flags().IntVar(&opts.page, "page", 1, "Page number")
	cmd.Flags().IntVar(&opts.perPage, "per-page", 0, "Hits per page (0 uses the default)")
	cmd.Flags().StringVar(&opts.sort, "sort", "", "Sort alias or engine sort expression")
	cmd.Flags().StringVar(&opts.mode, "mode", string(mode.Keyword), "Search mode: keyword, hybrid")
	cmd.Flags().IntVar(&opts.yearFrom, "year-from", 0, "Inclusive lower year bound")
	cmd.Flags().IntVar(&opts.yearTo, "year-to", 0, "Inclusive upper year bound")
	cmd.Flags().StringSliceVar(&opts.genres, "genres", nil, "Genre ids")
	cmd.Flags().StringSliceVar(&opts.authors, "authors", nil, "Author ids")
	cmd.Flags().StringSliceVar(&opts.regions, "regions", nil, "Region ids")
	cmd.Flags().StringSliceVar(&opts.geographies, "geographies", nil, "Geography ids")
	cmd.Flags().StringSliceVar(&opts.ids, "ids", nil, "Document ids")

	return cmd
}

func runExplain(cmd *cobra.Command, root *rootOptions, opts explainOptions) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	cols, err := cfg.Collections()
	if err != nil {
		return fmt.Errorf("build collections: %w", err)
	}

	params := request.Params{
		Query:    opts.query,
		Advanced: opts.advanced,
		Page:     opts.page,
		PerPage:  opts.perPage,
		Sort:     opts.sort,
		Mode:     mode.Mode(opts.mode),
		Facets: filter.FacetFilter{
			Genres:      opts.genres,
			Authors:     opts.authors,
			Regions:     opts.regions,
			Geographies: opts.geographies,
			IDs:         opts.ids,
		},
	}
	if cmd.Flags().Changed("year-from") || cmd.Flags().Changed("year-to") {
		yr, err := filter.NewYearRange(opts.yearFrom, opts.yearTo)
		if err != nil {
			return err
		}
		params.Facets.YearRange = &yr
	}

	svc := searchuc.New(nil, cols, nil, searchuc.Options{
		SortAliases: cfg.Search.SortAliases,
		Batched:     cfg.Search.Batched,
		Vector:      cfg.Embedding.Vector(),
	}, zap.NewNop())

	req, plan, err := svc.Plan(collection.Kind(opts.kind), params)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(chiTransport.NewPlanResponse(req, plan))
}
