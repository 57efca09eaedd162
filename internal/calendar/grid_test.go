package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadingBlanksMondayFirst(t *testing.T) {
	tests := []struct {
		name   string
		year   int
		month  time.Month
		blanks int
	}{
		{"feb 2024 starts thursday", 2024, time.February, 3},
		{"jul 2024 starts monday", 2024, time.July, 0},
		{"sep 2024 starts sunday", 2024, time.September, 6},
		{"apr 2024 starts monday", 2024, time.April, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.blanks, LeadingBlanks(tt.year, tt.month))
		})
	}
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 29, DaysInMonth(2024, time.February))
	assert.Equal(t, 28, DaysInMonth(2023, time.February))
	assert.Equal(t, 31, DaysInMonth(2024, time.July))
	assert.Equal(t, 30, DaysInMonth(2024, time.April))
}

func TestCellsLeapFebruary(t *testing.T) {
	w := NewWidget(time.Date(2024, 2, 14, 0, 0, 0, 0, time.Local))

	cells := w.Cells()
	require.Len(t, cells, 3+29)
	for i := 0; i < 3; i++ {
		assert.Zero(t, cells[i].Day)
		assert.True(t, cells[i].Disabled)
	}
	assert.Equal(t, 1, cells[3].Day)
	assert.Equal(t, 29, cells[len(cells)-1].Day)

	var selected int
	for _, c := range cells {
		if c.Selected {
			selected = c.Day
		}
	}
	assert.Equal(t, 14, selected)
}

func TestBoundsDisableOutsideDays(t *testing.T) {
	min := time.Date(2024, 7, 10, 23, 0, 0, 0, time.Local)
	max := time.Date(2024, 7, 20, 1, 0, 0, 0, time.Local)
	w := NewWidget(time.Date(2024, 7, 15, 0, 0, 0, 0, time.Local), WithBounds(min, max))

	cells := w.Cells()
	byDay := map[int]Cell{}
	for _, c := range cells {
		if c.Day > 0 {
			byDay[c.Day] = c
		}
	}

	assert.True(t, byDay[9].Disabled)
	// Boundary days themselves are selectable regardless of time-of-day.
	assert.False(t, byDay[10].Disabled)
	assert.False(t, byDay[20].Disabled)
	assert.True(t, byDay[21].Disabled)
}

func TestSelectDisabledIsNoOp(t *testing.T) {
	min := time.Date(2024, 7, 10, 0, 0, 0, 0, time.Local)
	w := NewWidget(time.Date(2024, 7, 15, 0, 0, 0, 0, time.Local), WithBounds(min, time.Time{}))

	before := w.Selected()

	_, ok := w.Select(5)
	assert.False(t, ok)
	_, ok = w.Select(0)
	assert.False(t, ok)
	_, ok = w.Select(32)
	assert.False(t, ok)
	assert.True(t, w.Selected().Equal(before))

	picked, ok := w.Select(12)
	assert.True(t, ok)
	assert.Equal(t, 12, picked.Day())
}

func TestSelectKeepsLocation(t *testing.T) {
	loc := time.FixedZone("ART", -3*60*60)
	w := NewWidget(time.Date(2024, 7, 15, 0, 0, 0, 0, loc))

	picked, ok := w.Select(12)
	require.True(t, ok)
	assert.Equal(t, 12, picked.Day())
	assert.Equal(t, loc, picked.Location())
}

func TestMonthNavigationNotifiesAndClearsIndicators(t *testing.T) {
	var gotYear int
	var gotMonth time.Month
	w := NewWidget(time.Date(2024, 1, 15, 0, 0, 0, 0, time.Local),
		WithMonthChange(func(year int, month time.Month) {
			gotYear = year
			gotMonth = month
		}))
	w.SetIndicators([]int{3, 12})

	w.Prev()
	assert.Equal(t, 2023, w.Year())
	assert.Equal(t, time.December, w.Month())
	assert.Equal(t, 2023, gotYear)
	assert.Equal(t, time.December, gotMonth)

	for _, c := range w.Cells() {
		assert.False(t, c.Indicator)
	}

	w.Next()
	assert.Equal(t, 2024, w.Year())
	assert.Equal(t, time.January, w.Month())
}

func TestIndicatorsMarkCells(t *testing.T) {
	w := NewWidget(time.Date(2024, 7, 1, 0, 0, 0, 0, time.Local))
	w.SetIndicators([]int{3, 24})

	marked := map[int]bool{}
	for _, c := range w.Cells() {
		if c.Indicator {
			marked[c.Day] = true
		}
	}
	assert.Equal(t, map[int]bool{3: true, 24: true}, marked)
}

func TestTitle(t *testing.T) {
	w := NewWidget(time.Date(2024, 2, 1, 0, 0, 0, 0, time.Local))
	assert.Equal(t, "Febrero 2024", w.Title())

	w.Next()
	assert.Equal(t, "Marzo 2024", w.Title())
}
