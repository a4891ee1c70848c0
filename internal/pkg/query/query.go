// internal/pkg/query/query.go
package query

import (
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopcore/ecommerce-backend/internal/config"
)

// Reserved query-string keys. Every other key is a filter.
const (
	KeyPage   = "page"
	KeySelect = "select"
	KeySort   = "sort"
	KeySearch = "search"
)

// Operator is a comparison accepted in the field[op]=value form
type Operator string

const (
	OpEq  Operator = "eq"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
)

// FieldKind drives how a raw filter value is coerced before it reaches the store
type FieldKind int

const (
	String FieldKind = iota
	Number
	Bool
	Time
)

var (
	filterKeyPattern  = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)(?:\[([a-z]+)\])?$`)
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	operators         = map[string]Operator{"eq": OpEq, "gt": OpGt, "gte": OpGte, "lt": OpLt, "lte": OpLte}
	defaultSearchable = []string{"title", "description"}
)

// Schema declares which fields of a collection may be filtered, selected and
// sorted. A schema with no Fields accepts any well-formed field name.
type Schema struct {
	Fields     map[string]FieldKind
	Searchable []string
	PrimaryKey string
}

// Loose drops the field allow-list but keeps search fields and primary key,
// so every well-formed key passes through as a filter
func (s Schema) Loose() Schema {
	return Schema{Searchable: s.Searchable, PrimaryKey: s.PrimaryKey}
}

func (s Schema) permissive() bool {
	return len(s.Fields) == 0
}

func (s Schema) primaryKey() string {
	if s.PrimaryKey == "" {
		return "id"
	}
	return s.PrimaryKey
}

func (s Schema) searchable() []string {
	if len(s.Searchable) == 0 {
		return defaultSearchable
	}
	return s.Searchable
}

func (s Schema) allows(field string) bool {
	if !identifierPattern.MatchString(field) {
		return false
	}
	if s.permissive() || field == s.primaryKey() {
		return true
	}
	_, ok := s.Fields[field]
	return ok
}

func (s Schema) coerce(field, raw string) interface{} {
	kind, ok := s.Fields[field]
	if !ok {
		return raw
	}
	switch kind {
	case Number:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	case Bool:
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
	case Time:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t
			}
		}
	}
	// Left as-is; the store rejects it at execution time.
	return raw
}

// Condition is one filter predicate
type Condition struct {
	Field string
	Op    Operator
	Value interface{}
}

// Order is one sort key
type Order struct {
	Field string
	Desc  bool
}

// Query describes a list read. Nothing touches the store until Apply or Find.
type Query struct {
	Conditions   []Condition
	Search       string
	SearchFields []string
	Select       []string
	Sort         []Order
	Page         int
	PageSize     int
	// Ignored lists input keys and fields the schema rejected.
	Ignored []string
}

// Offset is the number of records skipped before the current page
func (q *Query) Offset() int {
	if q.PageSize <= 0 {
		return 0
	}
	return (q.Page - 1) * q.PageSize
}

// Builder composes the pipeline stages. Each stage reads only its own keys,
// so stages may be applied in any order or skipped.
type Builder struct {
	values url.Values
	schema Schema
	query  *Query
}

func New(values url.Values, schema Schema) *Builder {
	if values == nil {
		values = url.Values{}
	}
	return &Builder{
		values: values,
		schema: schema,
		query:  &Query{Page: 1},
	}
}

// Parse runs every stage with the given page size
func Parse(values url.Values, schema Schema, pageSize int) *Query {
	return New(values, schema).Filter().Search().Select().Sort().Paginate(pageSize).Query()
}

// Parser applies the configured page size and strictness to every list call
type Parser struct {
	PageSize   int
	Permissive bool
}

func NewParser(cfg config.QueryConfig) Parser {
	return Parser{PageSize: cfg.PageSize, Permissive: cfg.Permissive}
}

func (p Parser) Parse(values url.Values, schema Schema) *Query {
	if p.Permissive {
		schema = schema.Loose()
	}
	return Parse(values, schema, p.PageSize)
}

// Filter turns each non-reserved key into a condition
func (b *Builder) Filter() *Builder {
	keys := make([]string, 0, len(b.values))
	for key := range b.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if isReserved(key) {
			continue
		}
		match := filterKeyPattern.FindStringSubmatch(key)
		if match == nil {
			b.ignore(key)
			continue
		}
		field := match[1]
		op := OpEq
		if match[2] != "" {
			parsed, ok := operators[match[2]]
			if !ok {
				b.ignore(key)
				continue
			}
			op = parsed
		}
		if !b.schema.allows(field) {
			b.ignore(key)
			continue
		}
		for _, raw := range b.values[key] {
			b.query.Conditions = append(b.query.Conditions, Condition{
				Field: field,
				Op:    op,
				Value: b.schema.coerce(field, raw),
			})
		}
	}
	return b
}

// Search sets a case-insensitive substring match over the searchable fields
func (b *Builder) Search() *Builder {
	term := strings.TrimSpace(b.values.Get(KeySearch))
	if term == "" {
		return b
	}
	b.query.Search = term
	b.query.SearchFields = append([]string(nil), b.schema.searchable()...)
	return b
}

// Select restricts the projection. The primary key is always kept.
func (b *Builder) Select() *Builder {
	raw := b.values.Get(KeySelect)
	if raw == "" {
		return b
	}
	pk := b.schema.primaryKey()
	fields := []string{pk}
	seen := map[string]bool{pk: true}
	for _, field := range splitList(raw) {
		if seen[field] {
			continue
		}
		if !b.schema.allows(field) {
			b.ignore(field)
			continue
		}
		seen[field] = true
		fields = append(fields, field)
	}
	b.query.Select = fields
	return b
}

// Sort orders by the listed fields, then by primary key so that page windows
// never overlap when the listed fields tie.
func (b *Builder) Sort() *Builder {
	pk := b.schema.primaryKey()
	var orders []Order
	hasPK := false
	for _, field := range splitList(b.values.Get(KeySort)) {
		desc := strings.HasPrefix(field, "-")
		field = strings.TrimPrefix(field, "-")
		if !b.schema.allows(field) {
			b.ignore(field)
			continue
		}
		if field == pk {
			hasPK = true
		}
		orders = append(orders, Order{Field: field, Desc: desc})
	}
	if !hasPK {
		orders = append(orders, Order{Field: pk})
	}
	b.query.Sort = orders
	return b
}

// Paginate sets the page window; invalid or missing pages become 1 and
// pages past the last addressable offset are capped
func (b *Builder) Paginate(size int) *Builder {
	page, err := strconv.Atoi(b.values.Get(KeyPage))
	if err != nil || page < 1 {
		page = 1
	}
	if size > 0 && page > math.MaxInt32/size {
		page = math.MaxInt32 / size
	}
	b.query.Page = page
	b.query.PageSize = size
	return b
}

// Query returns the composed description
func (b *Builder) Query() *Query {
	return b.query
}

func (b *Builder) ignore(key string) {
	b.query.Ignored = append(b.query.Ignored, key)
}

func isReserved(key string) bool {
	switch key {
	case KeyPage, KeySelect, KeySort, KeySearch:
		return true
	}
	return false
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
