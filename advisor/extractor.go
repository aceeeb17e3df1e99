package advisor

import (
	"regexp"
	"strings"

	"github.com/amolj/index_alerter/utils"
)

// Shape extraction is deliberately syntactic: a pair of regular expressions,
// not a SQL parser. Subqueries, CTEs and unqualified column references yield
// empty results, and callers must treat an empty table or column set as
// "not indexable" and skip the query.
var (
	tableRegexp        = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+([a-zA-Z_][a-zA-Z0-9_]*)`)
	qualifiedColRegexp = regexp.MustCompile(`\b([a-zA-Z_][a-zA-Z0-9_]*)\.([a-zA-Z_][a-zA-Z0-9_]*)\b`)
)

// columnStoplist holds tokens that appear in the column position of an
// alias-qualified reference but are functions or aggregates, never columns.
var columnStoplist = map[string]struct{}{
	"*": {}, "count": {}, "sum": {}, "max": {}, "min": {},
	"avg": {}, "date": {}, "extract": {}, "cast": {},
}

// ExtractTables returns the table names following FROM/JOIN keywords,
// case-insensitive.
func ExtractTables(query string) utils.Set[utils.LowerString] {
	tables := utils.NewSet[utils.LowerString]()
	for _, m := range tableRegexp.FindAllStringSubmatch(query, -1) {
		tables.Add(utils.NewLowerString(m[1]))
	}
	return tables
}

// ExtractColumns returns the column names of alias-qualified references
// (`alias.column`), excluding function and aggregate tokens.
func ExtractColumns(query string) utils.Set[utils.LowerString] {
	columns := utils.NewSet[utils.LowerString]()
	for _, m := range qualifiedColRegexp.FindAllStringSubmatch(query, -1) {
		col := strings.ToLower(m[2])
		if _, stopped := columnStoplist[col]; stopped {
			continue
		}
		columns.Add(utils.LowerString(col))
	}
	return columns
}

// shapeKeyLen is the length of the truncated query prefix used as the
// canonical aggregation key of a query shape.
const shapeKeyLen = 100

// QueryShape is the canonical form of a sampled query: a stable truncated
// key, the full text, and the referenced tables and candidate columns.
type QueryShape struct {
	Key     string
	Text    string
	Tables  []string
	Columns []string
}

// NewQueryShape extracts the shape of a raw query string.
func NewQueryShape(query string) QueryShape {
	key := query
	if len(key) > shapeKeyLen {
		key = key[:shapeKeyLen]
	}
	return QueryShape{
		Key:     key,
		Text:    query,
		Tables:  ExtractTables(query).ToKeyList(),
		Columns: ExtractColumns(query).ToKeyList(),
	}
}

// Indexable reports whether the shape carries enough structure to sample.
func (s QueryShape) Indexable() bool {
	return len(s.Tables) > 0 && len(s.Columns) > 0
}
