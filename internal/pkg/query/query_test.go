package query

import (
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

var itemSchema = Schema{
	Fields: map[string]FieldKind{
		"title":    String,
		"price":    Number,
		"in_stock": Bool,
	},
}

func TestFilterOperators(t *testing.T) {
	values := url.Values{
		"price[gte]": {"100"},
		"price[lt]":  {"500"},
		"title":      {"Red Shoes"},
		"page":       {"2"},
	}

	q := New(values, itemSchema).Filter().Query()

	assert.Equal(t, []Condition{
		{Field: "price", Op: OpGte, Value: int64(100)},
		{Field: "price", Op: OpLt, Value: int64(500)},
		{Field: "title", Op: OpEq, Value: "Red Shoes"},
	}, q.Conditions)
}

func TestFilterDropsUnknownFieldsUnderSchema(t *testing.T) {
	values := url.Values{
		"password":  {"x"},
		"price[ne]": {"1"},
		"in_stock":  {"true"},
	}

	q := New(values, itemSchema).Filter().Query()

	assert.Equal(t, []Condition{{Field: "in_stock", Op: OpEq, Value: true}}, q.Conditions)
	assert.ElementsMatch(t, []string{"password", "price[ne]"}, q.Ignored)
}

func TestPermissiveSchemaPassesThrough(t *testing.T) {
	values := url.Values{"anything": {"goes"}, "bad key;": {"1"}}

	q := New(values, Schema{}).Filter().Query()

	assert.Equal(t, []Condition{{Field: "anything", Op: OpEq, Value: "goes"}}, q.Conditions)
	assert.Equal(t, []string{"bad key;"}, q.Ignored)
}

func TestParserLoosensSchemaWhenPermissive(t *testing.T) {
	values := url.Values{"password": {"x"}, "page": {"2"}}

	strict := Parser{PageSize: 5}.Parse(values, itemSchema)
	assert.Empty(t, strict.Conditions)
	assert.Equal(t, 5, strict.Offset())

	loose := Parser{PageSize: 5, Permissive: true}.Parse(values, itemSchema)
	assert.Equal(t, []Condition{{Field: "password", Op: OpEq, Value: "x"}}, loose.Conditions)
}

func TestSearchUsesDeclaredFields(t *testing.T) {
	q := New(url.Values{"search": {" red "}}, Schema{}).Search().Query()
	assert.Equal(t, "red", q.Search)
	assert.Equal(t, []string{"title", "description"}, q.SearchFields)

	schema := Schema{Searchable: []string{"name"}}
	q = New(url.Values{"search": {"red"}}, schema).Search().Query()
	assert.Equal(t, []string{"name"}, q.SearchFields)
}

func TestSelectKeepsPrimaryKey(t *testing.T) {
	q := New(url.Values{"select": {"title, price,title,secret"}}, itemSchema).Select().Query()

	assert.Equal(t, []string{"id", "title", "price"}, q.Select)
	assert.Equal(t, []string{"secret"}, q.Ignored)
}

func TestSortAppendsTieBreaker(t *testing.T) {
	q := New(url.Values{"sort": {"-price,title"}}, itemSchema).Sort().Query()
	assert.Equal(t, []Order{{Field: "price", Desc: true}, {Field: "title"}, {Field: "id"}}, q.Sort)

	q = New(url.Values{"sort": {"-id"}}, itemSchema).Sort().Query()
	assert.Equal(t, []Order{{Field: "id", Desc: true}}, q.Sort)
}

func TestPaginateClampsPage(t *testing.T) {
	tests := map[string]int{"": 1, "0": 1, "-4": 1, "abc": 1, "3": 3}
	for raw, want := range tests {
		q := New(url.Values{"page": {raw}}, itemSchema).Paginate(3).Query()
		assert.Equal(t, want, q.Page, raw)
		assert.Equal(t, (want-1)*3, q.Offset())
	}
}

func TestPaginateCapsHugePage(t *testing.T) {
	for _, raw := range []string{"2147483647", "9000000000000000000"} {
		q := New(url.Values{"page": {raw}}, itemSchema).Paginate(3).Query()
		assert.Equal(t, math.MaxInt32/3, q.Page, raw)
		assert.Positive(t, q.Offset(), raw)
		assert.LessOrEqual(t, q.Offset(), math.MaxInt32, raw)
	}

	q := New(url.Values{"page": {"99999999999999999999"}}, itemSchema).Paginate(3).Query()
	assert.Equal(t, 1, q.Page, "out of int range")
}

func TestStagesAreIndependent(t *testing.T) {
	values := url.Values{"title": {"a"}, "search": {"b"}, "sort": {"price"}}

	q := New(values, itemSchema).Search().Query()

	assert.Empty(t, q.Conditions)
	assert.Empty(t, q.Sort)
	assert.Equal(t, "b", q.Search)
}
