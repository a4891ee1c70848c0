// internal/pkg/query/gorm.go
package query

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Pagination is returned alongside every list response
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Where applies the filter and search predicates only
func (q *Query) Where(db *gorm.DB) *gorm.DB {
	for _, cond := range q.Conditions {
		db = db.Where(cond.expression())
	}
	if q.Search != "" && len(q.SearchFields) > 0 {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(q.Search)) + "%"
		exprs := make([]clause.Expression, 0, len(q.SearchFields))
		for _, field := range q.SearchFields {
			exprs = append(exprs, clause.Expr{
				SQL:  `LOWER(?) LIKE ? ESCAPE '\'`,
				Vars: []interface{}{clause.Column{Name: field}, pattern},
			})
		}
		db = db.Where(clause.Or(exprs...))
	}
	return db
}

// Apply adds projection, ordering and the page window on top of Where
func (q *Query) Apply(db *gorm.DB) *gorm.DB {
	db = q.Where(db)
	if len(q.Select) > 0 {
		db = db.Select(q.Select)
	}
	for _, o := range q.Sort {
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: o.Field}, Desc: o.Desc})
	}
	if q.PageSize > 0 {
		db = db.Offset(q.Offset()).Limit(q.PageSize)
	}
	return db
}

// Find counts the matching records and loads the current page into dest.
// db must carry a Model so the count knows its table.
func Find(db *gorm.DB, q *Query, dest interface{}) (Pagination, error) {
	base := db.Session(&gorm.Session{})

	var total int64
	if err := q.Where(base).Count(&total).Error; err != nil {
		return Pagination{}, fmt.Errorf("failed to count records: %w", err)
	}
	if err := q.Apply(base).Find(dest).Error; err != nil {
		return Pagination{}, fmt.Errorf("failed to retrieve records: %w", err)
	}
	return q.Pagination(total), nil
}

// Pagination describes the current page against a total record count
func (q *Query) Pagination(total int64) Pagination {
	limit := q.PageSize
	totalPages := 1
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	} else {
		limit = int(total)
	}
	return Pagination{
		Page:       q.Page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    q.Page < totalPages,
		HasPrev:    q.Page > 1,
	}
}

func (c Condition) expression() clause.Expression {
	column := clause.Column{Name: c.Field}
	switch c.Op {
	case OpGt:
		return clause.Gt{Column: column, Value: c.Value}
	case OpGte:
		return clause.Gte{Column: column, Value: c.Value}
	case OpLt:
		return clause.Lt{Column: column, Value: c.Value}
	case OpLte:
		return clause.Lte{Column: column, Value: c.Value}
	default:
		return clause.Eq{Column: column, Value: c.Value}
	}
}
