package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlice_TwentyFourItems(t *testing.T) {
	items := make([]int, 24)
	for i := range items {
		items[i] = i
	}

	tests := []struct {
		raw      string
		wantLen  int
		wantNum  int
		wantNext bool
		wantPrev bool
	}{
		{"1", 10, 1, true, false},
		{"2", 10, 2, true, true},
		{"3", 4, 3, false, true},
	}

	for _, tt := range tests {
		t.Run("page "+tt.raw, func(t *testing.T) {
			res := Slice(items, PostsPerPage, tt.raw)
			assert.Len(t, res.Items, tt.wantLen)
			assert.Equal(t, tt.wantNum, res.Page.Number)
			assert.Equal(t, 3, res.Page.NumPages)
			assert.Equal(t, tt.wantNext, res.Page.HasNext())
			assert.Equal(t, tt.wantPrev, res.Page.HasPrevious())
		})
	}

	assert.Equal(t, 20, Slice(items, PostsPerPage, "3").Items[0])
}

func TestNew_ClampsAndDefaults(t *testing.T) {
	tests := []struct {
		name    string
		total   int64
		raw     string
		wantNum int
	}{
		{"missing page", 24, "", 1},
		{"garbage page", 24, "abc", 1},
		{"zero page", 24, "0", 1},
		{"negative page", 24, "-3", 1},
		{"too high", 24, "99", 3},
		{"whitespace", 24, " 2 ", 2},
		{"empty listing", 0, "5", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.total, PostsPerPage, tt.raw)
			assert.Equal(t, tt.wantNum, p.Number)
		})
	}
}

func TestPage_Navigation(t *testing.T) {
	p := New(24, 10, "2")
	assert.Equal(t, 10, p.Offset())
	assert.Equal(t, 10, p.Limit())
	assert.Equal(t, 3, p.NextNumber())
	assert.Equal(t, 1, p.PreviousNumber())

	first := New(24, 10, "1")
	assert.Equal(t, 0, first.PreviousNumber())

	empty := New(0, 10, "")
	assert.Equal(t, 1, empty.NumPages)
	assert.False(t, empty.HasNext())
	assert.Equal(t, 0, empty.Offset())
}

func TestForNumber_InvalidPerPageFallsBack(t *testing.T) {
	p := ForNumber(15, 0, 2)
	assert.Equal(t, PostsPerPage, p.PerPage)
	assert.Equal(t, 2, p.Number)
}
