package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ordema/turnos-client/internal/turnos"
)

// daySource answers with slots only on the configured days of month.
type daySource struct {
	open  map[int]bool
	delay time.Duration
	calls int
}

func (s *daySource) Slots(ctx context.Context, _, _ int, date time.Time) turnos.SlotsResult {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return turnos.SlotsResult{Message: "timeout"}
		}
	}
	if s.open[date.Day()] {
		return turnos.SlotsResult{Slots: []turnos.Slot{{Start: "10:00", End: "10:30"}}}
	}
	return turnos.SlotsResult{}
}

func TestMonthIndexLoad(t *testing.T) {
	src := &daySource{open: map[int]bool{3: true, 17: true}}
	ix := NewMonthIndex(src, nil)

	require.NoError(t, ix.Load(context.Background(), 1, 2, 2024, time.February))

	assert.True(t, ix.Loaded())
	assert.True(t, ix.HasSlots(3))
	assert.True(t, ix.HasSlots(17))
	assert.False(t, ix.HasSlots(4))
	assert.Equal(t, []int{3, 17}, ix.Days())
	// Leap February scans all 29 days.
	assert.Equal(t, 29, src.calls)
}

func TestMonthIndexStaleLoadDiscarded(t *testing.T) {
	ix := NewMonthIndex(&daySource{}, nil)

	gen := ix.View(1, 2, 2024, time.March)
	ix.View(1, 2, 2024, time.April)

	assert.False(t, ix.Apply(gen, map[int]bool{5: true}))
	assert.False(t, ix.Loaded())
	assert.False(t, ix.HasSlots(5))
}

func TestMonthIndexViewInvalidates(t *testing.T) {
	src := &daySource{open: map[int]bool{10: true}}
	ix := NewMonthIndex(src, nil)

	require.NoError(t, ix.Load(context.Background(), 1, 2, 2024, time.March))
	require.True(t, ix.HasSlots(10))

	ix.View(1, 2, 2024, time.April)
	assert.False(t, ix.Loaded())
	assert.Empty(t, ix.Days())
}

func TestProberFindsFirstOpenDay(t *testing.T) {
	src := &daySource{open: map[int]bool{5: true}}
	p := NewProber(src, 7, time.Second, nil)

	from := time.Date(2024, 7, 3, 0, 0, 0, 0, time.Local)
	hint := p.NextSlot(context.Background(), 1, 2, from)

	require.True(t, hint.Found)
	assert.Equal(t, 5, hint.Date.Day())
	assert.Equal(t, "10:00", hint.Start)
	// Days 3 and 4 were probed and skipped.
	assert.Equal(t, 3, src.calls)
}

func TestProberExhaustsLookahead(t *testing.T) {
	src := &daySource{}
	p := NewProber(src, 4, time.Second, nil)

	hint := p.NextSlot(context.Background(), 1, 2, time.Date(2024, 7, 3, 0, 0, 0, 0, time.Local))

	assert.False(t, hint.Found)
	assert.Equal(t, 4, src.calls)
	assert.Equal(t, FallbackLabel, hint.Label(time.Now()))
}

func TestProberTimeoutFallsBack(t *testing.T) {
	src := &daySource{delay: 50 * time.Millisecond}
	p := NewProber(src, 30, 10*time.Millisecond, nil)

	hint := p.NextSlot(context.Background(), 1, 2, time.Date(2024, 7, 3, 0, 0, 0, 0, time.Local))

	assert.False(t, hint.Found)
	assert.Less(t, src.calls, 30)
}

func TestHintLabels(t *testing.T) {
	now := time.Date(2024, 7, 3, 18, 0, 0, 0, time.Local)

	tests := []struct {
		name string
		hint Hint
		want string
	}{
		{"today", Hint{Date: time.Date(2024, 7, 3, 0, 0, 0, 0, time.Local), Start: "19:00", Found: true}, "Hoy 19:00"},
		{"tomorrow", Hint{Date: time.Date(2024, 7, 4, 0, 0, 0, 0, time.Local), Start: "09:00", Found: true}, "Mañana 09:00"},
		{"later", Hint{Date: time.Date(2024, 7, 12, 0, 0, 0, 0, time.Local), Start: "09:00", Found: true}, "12/07 09:00"},
		{"not found", Hint{}, FallbackLabel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.hint.Label(now))
		})
	}
}
