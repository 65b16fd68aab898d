package filter

import (
	"strconv"
	"strings"
)

// AndJoin is the engine's logical-AND token between filter kinds.
const AndJoin = " && "

// RegionRelations are the author-to-region relation types a region facet covers.
var RegionRelations = []string{"born", "died", "visited", "resided"}

// Compile translates f into engine filter clauses, one per constrained facet
// kind, in a fixed order: year, genres, authors, regions, geographies, ids.
func Compile(f FacetFilter, fields Fields) []string {
	fields = fields.WithDefaults()
	var clauses []string

	if f.YearRange != nil {
		clauses = append(clauses, fields.Year+":["+
			strconv.Itoa(f.YearRange.From())+".."+strconv.Itoa(f.YearRange.To())+"]")
	}
	if c := membership(fields.Genres, f.Genres); c != "" {
		clauses = append(clauses, c)
	}
	if c := membership(fields.Authors, f.Authors); c != "" {
		clauses = append(clauses, c)
	}
	if c := membership(fields.Regions, expandRegions(f.Regions)); c != "" {
		clauses = append(clauses, c)
	}
	if c := membership(fields.Geographies, f.Geographies); c != "" {
		clauses = append(clauses, c)
	}
	if c := membership(fields.IDs, f.IDs); c != "" {
		clauses = append(clauses, c)
	}
	return clauses
}

// Expression returns the compiled clauses joined with AndJoin, or "" when f is empty.
func Expression(f FacetFilter, fields Fields) string {
	return strings.Join(Compile(f, fields), AndJoin)
}

// membership builds `field:[`a`, `b`]`, or "" when no value is non-empty.
func membership(field string, values []string) string {
	values = nonEmpty(values)
	if len(values) == 0 {
		return ""
	}
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quote(v)
	}
	return field + ":[" + strings.Join(quoted, ", ") + "]"
}

// quote wraps v in back-ticks. Back-ticks inside v are dropped since the
// engine grammar has no escape for them.
func quote(v string) string {
	return "`" + strings.ReplaceAll(v, "`", "") + "`"
}

func expandRegions(regions []string) []string {
	regions = nonEmpty(regions)
	out := make([]string, 0, len(regions)*len(RegionRelations))
	for _, r := range regions {
		for _, rel := range RegionRelations {
			out = append(out, rel+"@"+r)
		}
	}
	return out
}
