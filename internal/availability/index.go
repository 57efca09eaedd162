// Package availability derives day-level bookability from slot queries: a
// per-month index for calendar shading and a look-ahead probe for the
// "next available turn" hint on professional cards.
package availability

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ordema/turnos-client/internal/calendar"
	"github.com/ordema/turnos-client/internal/turnos"
	"github.com/ordema/turnos-client/pkg/logging"
)

// SlotSource queries bookable start times. *turnos.Client satisfies it.
type SlotSource interface {
	Slots(ctx context.Context, professionalID, serviceID int, date time.Time) turnos.SlotsResult
}

type monthKey struct {
	professionalID int
	serviceID      int
	year           int
	month          time.Month
}

// MonthIndex maps days of a viewed month to has-bookable-slots. It is
// populated lazily per month view and holds nothing across navigation;
// concurrent loads resolve by generation, last view wins.
type MonthIndex struct {
	source SlotSource
	logger *logging.Logger

	mu     sync.Mutex
	gen    uint64
	key    monthKey
	days   map[int]bool
	loaded bool
}

// NewMonthIndex creates an empty index over the given slot source.
func NewMonthIndex(source SlotSource, logger *logging.Logger) *MonthIndex {
	if logger == nil {
		logger = logging.Default()
	}
	return &MonthIndex{
		source: source,
		logger: logger.Component("availability"),
	}
}

// View points the index at a month and invalidates any previous content.
// The returned generation ties an in-flight load to this view; a load
// finishing after another View call is discarded on Apply.
func (ix *MonthIndex) View(professionalID, serviceID, year int, month time.Month) uint64 {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.gen++
	ix.key = monthKey{professionalID, serviceID, year, month}
	ix.days = nil
	ix.loaded = false
	return ix.gen
}

// Apply installs a day set for the given generation. Stale generations
// are dropped.
func (ix *MonthIndex) Apply(gen uint64, days map[int]bool) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if gen != ix.gen {
		ix.logger.Debug("discarding stale month index load", "gen", gen, "current", ix.gen)
		return false
	}
	ix.days = days
	ix.loaded = true
	return true
}

// Load views the month and scans each of its days for slots, stopping
// early when ctx is done. The result only lands if no newer View
// happened meanwhile.
func (ix *MonthIndex) Load(ctx context.Context, professionalID, serviceID, year int, month time.Month) error {
	gen := ix.View(professionalID, serviceID, year, month)

	days := make(map[int]bool)
	total := calendar.DaysInMonth(year, month)
	for day := 1; day <= total; day++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		date := time.Date(year, month, day, 0, 0, 0, 0, time.Local)
		result := ix.source.Slots(ctx, professionalID, serviceID, date)
		if len(result.Slots) > 0 {
			days[day] = true
		}
	}
	ix.Apply(gen, days)
	return nil
}

// Loaded reports whether the current view has its day set.
func (ix *MonthIndex) Loaded() bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.loaded
}

// HasSlots reports whether the given day of the viewed month has at
// least one bookable slot. False while unloaded.
func (ix *MonthIndex) HasSlots(day int) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.loaded && ix.days[day]
}

// Days returns the sorted day numbers with slots, ready for
// calendar.Widget.SetIndicators.
func (ix *MonthIndex) Days() []int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	days := make([]int, 0, len(ix.days))
	for d, has := range ix.days {
		if has {
			days = append(days, d)
		}
	}
	sort.Ints(days)
	return days
}
