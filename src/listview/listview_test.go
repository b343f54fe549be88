package listview

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type account struct {
	id          uint
	name        string
	accountType string
	status      string
	createdAt   time.Time
}

func sampleAccounts() []account {
	base := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	return []account{
		{id: 1, name: "Apex Futures", accountType: "topstep", status: "active", createdAt: base},
		{id: 2, name: "Blue Horizon", accountType: "ibkr", status: "active", createdAt: base.Add(24 * time.Hour)},
		{id: 3, name: "Cobalt Swing", accountType: "ibkr", status: "inactive", createdAt: base.Add(48 * time.Hour)},
		{id: 4, name: "delta scalps", accountType: "tradovate", status: "active", createdAt: base.Add(72 * time.Hour)},
		{id: 5, name: "Echo Paper", accountType: "other", status: "archived", createdAt: base.Add(96 * time.Hour)},
	}
}

func TestFilterConjunctive(t *testing.T) {
	accounts := sampleAccounts()

	filtered := Filter(accounts,
		Equals("ibkr", func(a account) string { return a.accountType }),
		Equals("active", func(a account) string { return a.status }),
	)

	require.Len(t, filtered, 1)
	assert.Equal(t, uint(2), filtered[0].id)

	// Every filtered element satisfies all active predicates and is a member
	// of the original collection.
	for _, got := range filtered {
		assert.Equal(t, "ibkr", got.accountType)
		assert.Equal(t, "active", got.status)
		assert.Contains(t, accounts, got)
	}
}

func TestFilterEmptyValueMatchesEverything(t *testing.T) {
	accounts := sampleAccounts()

	filtered := Filter(accounts,
		Equals("", func(a account) string { return a.accountType }),
		Search("", func(a account) string { return a.name }),
	)

	assert.Equal(t, accounts, filtered)
}

func TestSearchCaseInsensitiveAcrossFields(t *testing.T) {
	accounts := sampleAccounts()

	filtered := Filter(accounts, Search("DELTA",
		func(a account) string { return a.name },
		func(a account) string { return a.accountType },
	))

	require.Len(t, filtered, 1)
	assert.Equal(t, "delta scalps", filtered[0].name)

	// Term matching a second field keeps rows whose name misses it.
	filtered = Filter(accounts, Search("ibkr",
		func(a account) string { return a.name },
		func(a account) string { return a.accountType },
	))
	assert.Len(t, filtered, 2)
}

func TestSortItemsStringCaseFolded(t *testing.T) {
	accounts := sampleAccounts()
	nameField := Field[account]{String: func(a account) string { return a.name }}

	asc := SortItems(accounts, nameField, Asc)
	require.Len(t, asc, len(accounts))
	assert.Equal(t, "Apex Futures", asc[0].name)
	assert.Equal(t, "delta scalps", asc[3].name, "lowercase name sorts by letter, not by byte")

	// Descending is exactly the reverse of ascending.
	desc := SortItems(accounts, nameField, Desc)
	for i := range asc {
		assert.Equal(t, asc[len(asc)-1-i].name, desc[i].name)
	}
}

func TestSortItemsStableTies(t *testing.T) {
	accounts := sampleAccounts()
	statusField := Field[account]{String: func(a account) string { return a.status }}

	sorted := SortItems(accounts, statusField, Asc)

	// The three active accounts tie; insertion order 1, 2, 4 must survive.
	var activeIDs []uint
	for _, a := range sorted {
		if a.status == "active" {
			activeIDs = append(activeIDs, a.id)
		}
	}
	assert.Equal(t, []uint{1, 2, 4}, activeIDs)
}

func TestSortItemsTimeField(t *testing.T) {
	accounts := sampleAccounts()
	createdField := Field[account]{Time: func(a account) time.Time { return a.createdAt }}

	sorted := SortItems(accounts, createdField, Desc)
	assert.Equal(t, uint(5), sorted[0].id)
	assert.Equal(t, uint(1), sorted[len(sorted)-1].id)
}

func TestSortItemsDoesNotMutateInput(t *testing.T) {
	accounts := sampleAccounts()
	idField := Field[account]{Number: func(a account) float64 { return float64(a.id) }}

	_ = SortItems(accounts, idField, Desc)

	assert.Equal(t, sampleAccounts(), accounts)
}

func TestNextSort(t *testing.T) {
	// sortField="id" desc is the resting state; clicking "name" once resets
	// to that field's default direction (ascending).
	current := Sort{Field: "id", Direction: Desc}

	next := NextSort(current, "name")
	assert.Equal(t, Sort{Field: "name", Direction: Asc}, next)

	// Clicking the active field flips direction, both ways.
	next = NextSort(next, "name")
	assert.Equal(t, Sort{Field: "name", Direction: Desc}, next)
	next = NextSort(next, "name")
	assert.Equal(t, Sort{Field: "name", Direction: Asc}, next)

	// Back to id: identity defaults to descending.
	next = NextSort(next, "id")
	assert.Equal(t, Sort{Field: "id", Direction: Desc}, next)
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		count    int
		pageSize int
		want     int
	}{
		{count: 0, pageSize: 20, want: 1},
		{count: 1, pageSize: 20, want: 1},
		{count: 20, pageSize: 20, want: 1},
		{count: 21, pageSize: 20, want: 2},
		{count: 100, pageSize: 10, want: 10},
		{count: 3, pageSize: 1, want: 3},
		{count: 5, pageSize: 0, want: 1},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("count=%d size=%d", tc.count, tc.pageSize), func(t *testing.T) {
			got := TotalPages(tc.count, tc.pageSize)
			assert.Equal(t, tc.want, got)
			assert.GreaterOrEqual(t, got, 1)
		})
	}
}

func TestSlice(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i + 1
	}

	first := Slice(items, 1, 10)
	require.Len(t, first, 10)
	assert.Equal(t, 1, first[0])

	last := Slice(items, 3, 10)
	require.Len(t, last, 5)
	assert.Equal(t, 21, last[0])

	// Out-of-range page clamps to the last page instead of vanishing.
	clamped := Slice(items, 9, 10)
	assert.Equal(t, last, clamped)

	empty := Slice([]int{}, 1, 10)
	assert.Empty(t, empty)
}

func TestPageAfterDelete(t *testing.T) {
	// Deleting the only item of page 3 (21 items, size 10) steps back to 2.
	assert.Equal(t, 2, PageAfterDelete(3, 20, 10))

	// Deleting mid-page keeps the page.
	assert.Equal(t, 2, PageAfterDelete(2, 15, 10))

	// First page never goes below 1, even when emptied.
	assert.Equal(t, 1, PageAfterDelete(1, 0, 10))
}

func TestFilterSortPaginateScenario(t *testing.T) {
	// 25 accounts, pageSize=20, filter type="ibkr" matching 3 accounts:
	// one total page with exactly 3 rows, current page reset to 1.
	accounts := make([]account, 0, 25)
	for i := 1; i <= 25; i++ {
		accountType := "topstep"
		if i%8 == 0 { // 8, 16, 24
			accountType = "ibkr"
		}
		accounts = append(accounts, account{
			id:          uint(i),
			name:        fmt.Sprintf("Account %02d", i),
			accountType: accountType,
			status:      "active",
		})
	}

	filtered := Filter(accounts, Equals("ibkr", func(a account) string { return a.accountType }))
	require.Len(t, filtered, 3)

	page := 1 // filters changed, page resets
	assert.Equal(t, 1, TotalPages(len(filtered), 20))

	visible := Slice(filtered, page, 20)
	assert.Len(t, visible, 3)
}
