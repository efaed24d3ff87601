// Package query turns raw list parameters into GORM clause expressions.
// Every filter key must be declared by the resource's Schema; values are
// always bound as parameters, never spliced into SQL.
package query

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/yukikurage/issue-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/issue-tracker-api/internal/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Structural parameters, removed from the filter set.
const (
	ParamSortBy    = "sortBy"
	ParamSortOrder = "sortOrder"
	ParamLimit     = "limit"
	ParamPage      = "page"
	ParamSearch    = "search"
)

// FieldKind decides how a filter value is parsed.
type FieldKind int

const (
	Int FieldKind = iota
	String
)

// Field maps a public filter key to a column.
type Field struct {
	Column string
	Kind   FieldKind
}

// Schema declares what a resource can be filtered, sorted and searched by.
type Schema struct {
	Table         string
	Fields        map[string]Field
	Sortable      map[string]string
	DefaultSort   string
	OrGroup       []string
	SearchColumns []string
}

// Query is the parsed, validated form of a list request.
type Query struct {
	Page   int
	Limit  int
	Offset int

	conds []clause.Expression
	order clause.OrderByColumn
}

// Conditions returns the WHERE expressions, all AND-ed together.
func (q *Query) Conditions() []clause.Expression {
	return q.conds
}

// Order returns the ORDER BY column.
func (q *Query) Order() clause.OrderByColumn {
	return q.order
}

// And adds a condition that must hold alongside the parsed filters.
func (q *Query) And(expr clause.Expression) {
	q.conds = append(q.conds, expr)
}

// Filter applies only the WHERE conditions, for counting.
func (q *Query) Filter() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, c := range q.conds {
			db = db.Where(c)
		}
		return db
	}
}

// Scope applies conditions, ordering and pagination.
func (q *Query) Scope() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Scopes(q.Filter()).
			Order(q.order).
			Offset(q.Offset).
			Limit(q.Limit)
	}
}

// FromValues flattens URL query values. Repeated keys are joined with
// commas so they behave like a membership list.
func FromValues(values url.Values) map[string]string {
	params := make(map[string]string, len(values))
	for k, v := range values {
		params[k] = strings.Join(v, ",")
	}
	return params
}

func badRequest(format string, args ...any) error {
	return apierrors.New(apierrors.KindBadRequest, fmt.Sprintf(format, args...))
}

// Build validates params against schema. Single values become equality
// predicates, comma lists become IN predicates. Keys in the OR group are
// OR-ed with each other; everything else is AND-ed. search expands to an OR
// of literal substring matches over the schema's search columns.
func Build(params map[string]string, schema Schema) (*Query, error) {
	q := &Query{}

	if err := q.paginate(params); err != nil {
		return nil, err
	}
	if err := q.sort(params, schema); err != nil {
		return nil, err
	}

	orGroup := make(map[string]bool, len(schema.OrGroup))
	for _, k := range schema.OrGroup {
		orGroup[k] = true
	}

	// sorted for a stable SQL shape
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var ors []clause.Expression
	for _, key := range keys {
		switch key {
		case ParamSortBy, ParamSortOrder, ParamLimit, ParamPage, ParamSearch:
			continue
		}
		field, ok := schema.Fields[key]
		if !ok {
			return nil, badRequest("unknown filter %q", key)
		}
		expr, err := predicate(schema.Table, key, field, params[key])
		if err != nil {
			return nil, err
		}
		if orGroup[key] {
			ors = append(ors, expr)
		} else {
			q.conds = append(q.conds, expr)
		}
	}
	if expr := anyOf(ors); expr != nil {
		q.conds = append(q.conds, expr)
	}

	if term := strings.TrimSpace(params[ParamSearch]); term != "" && len(schema.SearchColumns) > 0 {
		likes := make([]clause.Expression, 0, len(schema.SearchColumns))
		for _, col := range schema.SearchColumns {
			likes = append(likes, clause.Expr{
				SQL:  "? LIKE ? ESCAPE ?",
				Vars: []any{clause.Column{Table: schema.Table, Name: col}, "%" + likeEscaper.Replace(term) + "%", likeEscape},
			})
		}
		q.conds = append(q.conds, anyOf(likes))
	}

	return q, nil
}

// search terms match literally, so LIKE wildcards in them are escaped
const likeEscape = "!"

var likeEscaper = strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")

// anyOf ORs exprs. A single expression is returned as is, since a one-item
// OR group would be joined to its neighbour with OR.
func anyOf(exprs []clause.Expression) clause.Expression {
	switch len(exprs) {
	case 0:
		return nil
	case 1:
		return exprs[0]
	default:
		return clause.Or(exprs...)
	}
}

func predicate(table, key string, field Field, raw string) (clause.Expression, error) {
	parts := strings.Split(raw, ",")
	values := make([]any, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, badRequest("empty value for %q", key)
		}
		switch field.Kind {
		case Int:
			n, err := strconv.ParseUint(p, 10, 64)
			if err != nil {
				return nil, badRequest("%q must be a list of integers", key)
			}
			values = append(values, n)
		default:
			values = append(values, p)
		}
	}

	col := clause.Column{Table: table, Name: field.Column}
	if len(values) == 1 {
		return clause.Eq{Column: col, Value: values[0]}, nil
	}
	return clause.IN{Column: col, Values: values}, nil
}

func (q *Query) paginate(params map[string]string) error {
	q.Page = 1
	q.Limit = constants.MaxListLimit

	if raw, ok := params[ParamLimit]; ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < constants.MinPageSize {
			return badRequest("limit must be a positive integer")
		}
		if n > constants.MaxListLimit {
			n = constants.MaxListLimit
		}
		q.Limit = n
	}
	if raw, ok := params[ParamPage]; ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return badRequest("page must be a positive integer")
		}
		if n-1 > math.MaxInt/q.Limit {
			return badRequest("page is out of range")
		}
		q.Page = n
	}

	q.Offset = (q.Page - 1) * q.Limit
	return nil
}

func (q *Query) sort(params map[string]string, schema Schema) error {
	key := schema.DefaultSort
	if raw, ok := params[ParamSortBy]; ok {
		key = raw
	}
	col, ok := schema.Sortable[key]
	if !ok {
		return badRequest("cannot sort by %q", key)
	}

	desc := false
	switch strings.ToLower(params[ParamSortOrder]) {
	case "", "asc":
	case "desc":
		desc = true
	default:
		return badRequest("sortOrder must be asc or desc")
	}

	q.order = clause.OrderByColumn{
		Column: clause.Column{Table: schema.Table, Name: col},
		Desc:   desc,
	}
	return nil
}
