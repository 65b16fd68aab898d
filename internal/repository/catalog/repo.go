// Package catalog lists facet options (genres, regions) from the relational catalog.
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/maktaba-labs/maktaba/internal/domain"
	"github.com/maktaba-labs/maktaba/internal/domain/collection"
)

// DefaultLimit caps List when the caller passes no limit.
const DefaultLimit = 500

// Option is one selectable facet value.
type Option struct {
	ID        string
	Name      string
	BookCount int
}

// queries per facet: list all, and fetch by ids.
type queries struct {
	list  string
	byIDs string
}

var facetQueries = map[collection.Facet]queries{
	collection.FacetGenres: {
		list: `
			SELECT g.id, g.name, COUNT(bg.book_id)
			FROM genres g
			LEFT JOIN book_genres bg ON bg.genre_id = g.id
			GROUP BY g.id, g.name
			ORDER BY COUNT(bg.book_id) DESC, g.name
			LIMIT $1`,
		byIDs: `
			SELECT g.id, g.name, COUNT(bg.book_id)
			FROM genres g
			LEFT JOIN book_genres bg ON bg.genre_id = g.id
			WHERE g.id = ANY($1)
			GROUP BY g.id, g.name
			ORDER BY g.name`,
	},
	collection.FacetRegions: {
		list: `
			SELECT r.id, r.name, COUNT(DISTINCT b.id)
			FROM regions r
			LEFT JOIN author_regions ar ON ar.region_id = r.id
			LEFT JOIN books b ON b.author_id = ar.author_id
			GROUP BY r.id, r.name
			ORDER BY COUNT(DISTINCT b.id) DESC, r.name
			LIMIT $1`,
		byIDs: `
			SELECT r.id, r.name, COUNT(DISTINCT b.id)
			FROM regions r
			LEFT JOIN author_regions ar ON ar.region_id = r.id
			LEFT JOIN books b ON b.author_id = ar.author_id
			WHERE r.id = ANY($1)
			GROUP BY r.id, r.name
			ORDER BY r.name`,
	},
}

// Repo reads facet options from PostgreSQL.
type Repo struct {
	db *sql.DB
}

// New creates a catalog repository.
func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// Supports reports whether facet has a catalog table.
func Supports(facet collection.Facet) bool {
	_, ok := facetQueries[facet]
	return ok
}

// List returns up to limit options for facet, most used first.
func (r *Repo) List(ctx context.Context, facet collection.Facet, limit int) ([]Option, error) {
	q, ok := facetQueries[facet]
	if !ok {
		return nil, fmt.Errorf("facet %q has no catalog: %w", facet, domain.ErrNotFound)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := r.db.QueryContext(ctx, q.list, limit)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", facet, err)
	}
	return scanOptions(rows, facet)
}

// Lookup returns the options with the given ids, ordered by name.
// Unknown ids are skipped.
func (r *Repo) Lookup(ctx context.Context, facet collection.Facet, ids []string) ([]Option, error) {
	q, ok := facetQueries[facet]
	if !ok {
		return nil, fmt.Errorf("facet %q has no catalog: %w", facet, domain.ErrNotFound)
	}
	if len(ids) == 0 {
		return []Option{}, nil
	}

	rows, err := r.db.QueryContext(ctx, q.byIDs, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", facet, err)
	}
	return scanOptions(rows, facet)
}

// HealthCheck pings the database.
func (r *Repo) HealthCheck(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("catalog ping: %w", err)
	}
	return nil
}

func scanOptions(rows *sql.Rows, facet collection.Facet) ([]Option, error) {
	defer rows.Close()

	options := []Option{}
	for rows.Next() {
		var o Option
		if err := rows.Scan(&o.ID, &o.Name, &o.BookCount); err != nil {
			return nil, fmt.Errorf("scan %s: %w", facet, err)
		}
		options = append(options, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", facet, err)
	}
	return options, nil
}
