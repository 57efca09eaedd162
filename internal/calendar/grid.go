// Package calendar renders month grids for date pickers. The grid is a pure
// function of its inputs; it never fetches data. Month navigation notifies
// the owner so indicator sets can be refreshed for the new month.
package calendar

import "time"

// WeekdayHeaders is the Monday-first header row.
var WeekdayHeaders = []string{"LU", "MA", "MI", "JU", "VI", "SA", "DO"}

var monthNames = []string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// Cell is one slot in the month grid. Day 0 marks a leading blank.
type Cell struct {
	Day       int
	Disabled  bool
	Selected  bool
	Indicator bool
}

// Truncate drops the time-of-day component. All min/max bound comparisons
// are date-only; mixing in time-of-day was a bug in earlier renditions.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// LeadingBlanks returns how many empty cells precede day 1 in a
// Monday-first grid.
func LeadingBlanks(year int, month time.Month) int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return (int(first.Weekday()) + 6) % 7
}

// Widget is a month view over a selected date with optional selectable
// bounds and indicator days.
type Widget struct {
	year       int
	month      time.Month
	selected   time.Time
	min, max   time.Time
	indicators map[int]bool

	// onMonthChange fires after Prev/Next so the owner can load the new
	// month's indicators. The widget itself never fetches.
	onMonthChange func(year int, month time.Month)
}

// Option configures a Widget.
type Option func(*Widget)

// WithBounds limits selection to [min, max]. Zero values leave the
// corresponding side unbounded. Boundary dates themselves are selectable.
func WithBounds(min, max time.Time) Option {
	return func(w *Widget) {
		if !min.IsZero() {
			w.min = Truncate(min)
		}
		if !max.IsZero() {
			w.max = Truncate(max)
		}
	}
}

// WithMonthChange registers the indicator-refresh callback.
func WithMonthChange(fn func(year int, month time.Month)) Option {
	return func(w *Widget) {
		w.onMonthChange = fn
	}
}

// NewWidget shows the month containing selected.
func NewWidget(selected time.Time, opts ...Option) *Widget {
	w := &Widget{
		year:       selected.Year(),
		month:      selected.Month(),
		selected:   Truncate(selected),
		indicators: map[int]bool{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Year returns the displayed year.
func (w *Widget) Year() int { return w.year }

// Month returns the displayed month.
func (w *Widget) Month() time.Month { return w.month }

// Selected returns the selected date, midnight-truncated.
func (w *Widget) Selected() time.Time { return w.selected }

// Title formats the displayed month, e.g. "Febrero 2024".
func (w *Widget) Title() string {
	return monthNames[int(w.month)-1] + " " + time.Date(w.year, w.month, 1, 0, 0, 0, 0, time.UTC).Format("2006")
}

// SetIndicators replaces the indicator day set for the displayed month.
func (w *Widget) SetIndicators(days []int) {
	w.indicators = make(map[int]bool, len(days))
	for _, d := range days {
		w.indicators[d] = true
	}
}

// Cells builds the grid: leading blanks for the Monday-first offset of
// day 1, then one cell per day of the month. Renderers wrap rows of seven;
// no trailing padding is emitted.
func (w *Widget) Cells() []Cell {
	blanks := LeadingBlanks(w.year, w.month)
	days := DaysInMonth(w.year, w.month)

	cells := make([]Cell, 0, blanks+days)
	for i := 0; i < blanks; i++ {
		cells = append(cells, Cell{Disabled: true})
	}
	for day := 1; day <= days; day++ {
		cells = append(cells, Cell{
			Day:       day,
			Disabled:  w.dayDisabled(day),
			Selected:  w.daySelected(day),
			Indicator: w.indicators[day],
		})
	}
	return cells
}

// Select picks a day of the displayed month. Blank and disabled days are
// no-ops; ok reports whether the selection changed.
func (w *Widget) Select(day int) (time.Time, bool) {
	if day < 1 || day > DaysInMonth(w.year, w.month) || w.dayDisabled(day) {
		return w.selected, false
	}
	w.selected = time.Date(w.year, w.month, day, 0, 0, 0, 0, w.selected.Location())
	return w.selected, true
}

// Prev navigates to the previous month and requests an indicator refresh.
func (w *Widget) Prev() {
	w.shiftMonth(-1)
}

// Next navigates to the following month and requests an indicator refresh.
func (w *Widget) Next() {
	w.shiftMonth(1)
}

func (w *Widget) shiftMonth(delta int) {
	shifted := time.Date(w.year, w.month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, delta, 0)
	w.year = shifted.Year()
	w.month = shifted.Month()
	w.indicators = map[int]bool{}
	if w.onMonthChange != nil {
		w.onMonthChange(w.year, w.month)
	}
}

// dateKey orders calendar dates without involving time zones.
func dateKey(year int, month time.Month, day int) int {
	return year*10000 + int(month)*100 + day
}

func (w *Widget) dayDisabled(day int) bool {
	key := dateKey(w.year, w.month, day)
	if !w.min.IsZero() && key < dateKey(w.min.Year(), w.min.Month(), w.min.Day()) {
		return true
	}
	if !w.max.IsZero() && key > dateKey(w.max.Year(), w.max.Month(), w.max.Day()) {
		return true
	}
	return false
}

func (w *Widget) daySelected(day int) bool {
	return day == w.selected.Day() && w.month == w.selected.Month() && w.year == w.selected.Year()
}
