package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/ordema/turnos-client/pkg/logging"
)

// FallbackLabel is shown when the probe cannot name a concrete next slot.
const FallbackLabel = "Consultar disponibilidad"

// Hint is the outcome of a next-slot probe.
type Hint struct {
	Date  time.Time
	Start string // "HH:MM"
	Found bool
}

// Label renders the hint relative to now, e.g. "Hoy 14:30",
// "Mañana 10:00" or "03/07 10:00".
func (h Hint) Label(now time.Time) string {
	if !h.Found {
		return FallbackLabel
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch {
	case sameDay(h.Date, today):
		return "Hoy " + h.Start
	case sameDay(h.Date, today.AddDate(0, 0, 1)):
		return "Mañana " + h.Start
	default:
		return fmt.Sprintf("%s %s", h.Date.Format("02/01"), h.Start)
	}
}

// Prober finds the first upcoming day with a bookable slot for a
// professional/service pair. Each probe is bounded by its own timeout so
// a slow backend degrades to the fallback label instead of stalling the
// list.
type Prober struct {
	source    SlotSource
	lookahead int
	timeout   time.Duration
	logger    *logging.Logger
}

// NewProber scans up to lookahead days per probe, spending at most
// timeout per probe.
func NewProber(source SlotSource, lookahead int, timeout time.Duration, logger *logging.Logger) *Prober {
	if logger == nil {
		logger = logging.Default()
	}
	if lookahead < 1 {
		lookahead = 1
	}
	return &Prober{
		source:    source,
		lookahead: lookahead,
		timeout:   timeout,
		logger:    logger.Component("prober"),
	}
}

// NextSlot scans from the given day forward and returns the first slot
// found. Timeout or cancellation yields a not-found hint.
func (p *Prober) NextSlot(ctx context.Context, professionalID, serviceID int, from time.Time) Hint {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	for i := 0; i < p.lookahead; i++ {
		if ctx.Err() != nil {
			p.logger.Debug("next-slot probe timed out",
				"profesional", professionalID, "dias_revisados", i)
			return Hint{}
		}
		result := p.source.Slots(ctx, professionalID, serviceID, day)
		if len(result.Slots) > 0 {
			return Hint{Date: day, Start: result.Slots[0].Start, Found: true}
		}
		day = day.AddDate(0, 0, 1)
	}
	return Hint{}
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
