package query

import (
	"fmt"
	"net/url"
	"testing"

	"github.com/shopcore/ecommerce-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type item struct {
	ID          uint
	Title       string
	Description string
	Price       int64
	InStock     bool
}

func seedItems(t *testing.T, db *gorm.DB, items ...item) {
	t.Helper()
	require.NoError(t, db.Create(&items).Error)
}

func TestFindPagesCoverEveryRecordOnce(t *testing.T) {
	for _, n := range []int{0, 1, 3, 7, 9} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			db := testutil.NewDB(t, &item{})
			for i := 0; i < n; i++ {
				// Equal prices force the tie-breaker to decide page boundaries.
				seedItems(t, db, item{Title: fmt.Sprintf("item %d", i), Price: 100})
			}

			seen := map[uint]bool{}
			pages := 0
			for page := 1; ; page++ {
				q := Parse(url.Values{"page": {fmt.Sprint(page)}, "sort": {"price"}}, itemSchema, 3)
				var got []item
				p, err := Find(db.Model(&item{}), q, &got)
				require.NoError(t, err)
				if len(got) == 0 {
					break
				}
				pages++
				for _, it := range got {
					assert.False(t, seen[it.ID], "duplicate id %d", it.ID)
					seen[it.ID] = true
				}
				assert.Equal(t, int64(n), p.Total)
			}

			assert.Len(t, seen, n)
			assert.Equal(t, (n+2)/3, pages)
		})
	}
}

func TestFindSearchIsCaseInsensitive(t *testing.T) {
	db := testutil.NewDB(t, &item{})
	seedItems(t, db,
		item{Title: "Red Shoes", Description: "running"},
		item{Title: "Blue Hat", Description: "a reddish band"},
		item{Title: "Green Socks", Description: "wool"},
	)

	for _, term := range []string{"red", "RED", "Red"} {
		var got []item
		_, err := Find(db.Model(&item{}), Parse(url.Values{"search": {term}}, itemSchema, 10), &got)
		require.NoError(t, err)
		assert.Len(t, got, 2, term)
	}
}

func TestFindSearchEscapesWildcards(t *testing.T) {
	db := testutil.NewDB(t, &item{})
	seedItems(t, db, item{Title: "100% cotton"}, item{Title: "1000 threads"})

	var got []item
	_, err := Find(db.Model(&item{}), Parse(url.Values{"search": {"100%"}}, itemSchema, 10), &got)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "100% cotton", got[0].Title)
}

func TestFindFilterAndSearchCombine(t *testing.T) {
	db := testutil.NewDB(t, &item{})
	seedItems(t, db,
		item{Title: "red cap", Price: 50},
		item{Title: "red coat", Price: 500},
		item{Title: "blue coat", Price: 600},
	)

	values := url.Values{"search": {"red"}, "price[gt]": {"100"}}
	var got []item
	p, err := Find(db.Model(&item{}), Parse(values, itemSchema, 10), &got)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "red coat", got[0].Title)
	assert.Equal(t, int64(1), p.Total)
}

func TestFindSortAndSelect(t *testing.T) {
	db := testutil.NewDB(t, &item{})
	seedItems(t, db,
		item{Title: "b", Description: "x", Price: 20},
		item{Title: "a", Description: "y", Price: 30},
		item{Title: "c", Description: "z", Price: 10},
	)

	values := url.Values{"sort": {"-price"}, "select": {"title"}}
	var got []item
	_, err := Find(db.Model(&item{}), Parse(values, itemSchema, 10), &got)
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{got[0].Title, got[1].Title, got[2].Title})
	assert.NotZero(t, got[0].ID)
	assert.Empty(t, got[0].Description)
	assert.Zero(t, got[0].Price)
}

func TestPaginationMetadata(t *testing.T) {
	q := Parse(url.Values{"page": {"2"}}, itemSchema, 3)
	p := q.Pagination(7)

	assert.Equal(t, Pagination{Page: 2, Limit: 3, Total: 7, TotalPages: 3, HasNext: true, HasPrev: true}, p)
}
