// Package booking drives the four-step reservation flow: professional,
// service, date, time. Each step unlocks the next and changing an upstream
// step resets everything after it. The backend owns every scheduling
// decision; the wizard only sequences selections and submits the result.
package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ordema/turnos-client/internal/observability/metrics"
	"github.com/ordema/turnos-client/internal/turnos"
	"github.com/ordema/turnos-client/pkg/logging"
)

// State is the wizard's progress through the selection steps.
type State int

const (
	Empty State = iota
	ProfessionalSet
	ServiceSet
	DateSet
	TimeSet
)

func (s State) String() string {
	switch s {
	case ProfessionalSet:
		return "professional_set"
	case ServiceSet:
		return "service_set"
	case DateSet:
		return "date_set"
	case TimeSet:
		return "time_set"
	default:
		return "empty"
	}
}

var (
	// ErrOutOfOrder means a step was attempted before its upstream steps.
	ErrOutOfOrder = errors.New("booking: upstream selection missing")
	// ErrSlotUnavailable means the chosen time is not in the current slot list.
	ErrSlotUnavailable = errors.New("booking: time not in available slots")
	// ErrSlotsPending means the slot list for the selected date has not arrived.
	ErrSlotsPending = errors.New("booking: slots not loaded for selected date")
	// ErrIncomplete means Submit was called before all four steps were set.
	ErrIncomplete = errors.New("booking: selection incomplete")
)

// SlotSource queries bookable start times. *turnos.Client satisfies it.
type SlotSource interface {
	Slots(ctx context.Context, professionalID, serviceID int, date time.Time) turnos.SlotsResult
}

// Reserver submits the completed selection. *turnos.Client satisfies it.
type Reserver interface {
	Reserve(ctx context.Context, req turnos.ReserveRequest) (*turnos.Booking, error)
}

// Selection is the wizard's partially-filled tuple.
type Selection struct {
	Professional *turnos.Professional
	Service      *turnos.Service
	Date         time.Time // zero when unset
	Time         string    // "HH:MM", empty when unset
}

// Wizard is the reservation flow state machine. Safe for the single
// screen-owner plus asynchronous slot responses arriving on other
// goroutines.
type Wizard struct {
	source   SlotSource
	reserver Reserver
	logger   *logging.Logger
	metrics  *metrics.BookingMetrics

	mu          sync.Mutex
	sel         Selection
	slots       turnos.SlotsResult
	slotsLoaded bool
}

// NewWizard creates a wizard over the given slot source and reserver.
func NewWizard(source SlotSource, reserver Reserver, logger *logging.Logger, m *metrics.BookingMetrics) *Wizard {
	if logger == nil {
		logger = logging.Default()
	}
	return &Wizard{
		source:   source,
		reserver: reserver,
		logger:   logger.Component("wizard"),
		metrics:  m,
	}
}

// State derives the current step from the filled fields.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stateLocked()
}

func (w *Wizard) stateLocked() State {
	switch {
	case w.sel.Professional == nil:
		return Empty
	case w.sel.Service == nil:
		return ProfessionalSet
	case w.sel.Date.IsZero():
		return ServiceSet
	case w.sel.Time == "":
		return DateSet
	default:
		return TimeSet
	}
}

// Selection returns a copy of the current tuple.
func (w *Wizard) Selection() Selection {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sel
}

// SelectProfessional is a hard reset of everything downstream, regardless
// of the current state.
func (w *Wizard) SelectProfessional(p turnos.Professional) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sel = Selection{Professional: &p}
	w.slots = turnos.SlotsResult{}
	w.slotsLoaded = false
}

// SelectService requires a professional and clears date/time.
func (w *Wizard) SelectService(s turnos.Service) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sel.Professional == nil {
		return ErrOutOfOrder
	}
	w.sel.Service = &s
	w.sel.Date = time.Time{}
	w.sel.Time = ""
	w.slots = turnos.SlotsResult{}
	w.slotsLoaded = false
	return nil
}

// SelectDate requires a service, clears the time and invalidates the slot
// list. The caller follows up with LoadSlots (or an async Slots query
// applied through ApplySlots).
func (w *Wizard) SelectDate(date time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sel.Professional == nil || w.sel.Service == nil {
		return ErrOutOfOrder
	}
	w.sel.Date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	w.sel.Time = ""
	w.slots = turnos.SlotsResult{}
	w.slotsLoaded = false
	return nil
}

// LoadSlots queries the slot source for the currently selected date and
// applies the result. The query is keyed by the date it was issued for, so
// a response that outlives its selection is discarded.
func (w *Wizard) LoadSlots(ctx context.Context) error {
	w.mu.Lock()
	if w.sel.Professional == nil || w.sel.Service == nil || w.sel.Date.IsZero() {
		w.mu.Unlock()
		return ErrOutOfOrder
	}
	professionalID := w.sel.Professional.Details.ID
	serviceID := w.sel.Service.ID
	date := w.sel.Date
	w.mu.Unlock()

	result := w.source.Slots(ctx, professionalID, serviceID, date)
	w.ApplySlots(date, result)
	return nil
}

// ApplySlots installs a slot response if its date still matches the
// selection. Stale responses for abandoned dates are dropped so a fast
// sequence of date taps always ends on the last date's slots.
func (w *Wizard) ApplySlots(date time.Time, result turnos.SlotsResult) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sel.Date.IsZero() || !sameDay(w.sel.Date, date) {
		w.metrics.ObserveStaleSlots()
		w.logger.Debug("discarding stale slot response", "fecha", date.Format("2006-01-02"))
		return false
	}
	w.slots = result
	w.slotsLoaded = true
	return true
}

// CurrentSlots returns the applied slot list and whether one has arrived
// for the selected date.
func (w *Wizard) CurrentSlots() (turnos.SlotsResult, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.slots, w.slotsLoaded
}

// NotWorking reports the "professional does not work this day" branch for
// the selected date. Time selection must stay blocked while it holds.
func (w *Wizard) NotWorking() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.slotsLoaded && w.slots.NotWorking
}

// SelectTime requires a date and membership in the most recent slot list
// for the current triple.
func (w *Wizard) SelectTime(start string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stateLocked() < DateSet {
		return ErrOutOfOrder
	}
	if !w.slotsLoaded {
		return ErrSlotsPending
	}
	if w.slots.NotWorking || !w.slots.Has(start) {
		return ErrSlotUnavailable
	}
	w.sel.Time = start
	return nil
}

// Submit hands the completed tuple to the reserver. On a business-rule
// rejection (e.g. the slot was taken between query and submit) the wizard
// keeps professional, service and date, clears only the time and returns
// the rejection so its message can be shown verbatim; the user picks
// another time without re-entering upstream steps.
func (w *Wizard) Submit(ctx context.Context) (*turnos.Booking, error) {
	w.mu.Lock()
	if w.stateLocked() != TimeSet {
		w.mu.Unlock()
		return nil, ErrIncomplete
	}
	req := turnos.ReserveRequest{
		Profesional:   w.sel.Professional.Details.ID,
		Servicio:      w.sel.Service.ID,
		StartDatetime: fmt.Sprintf("%sT%s:00", w.sel.Date.Format("2006-01-02"), w.sel.Time),
	}
	w.mu.Unlock()

	booking, err := w.reserver.Reserve(ctx, req)
	if err != nil {
		if _, rejected := turnos.Rejection(err); rejected {
			w.mu.Lock()
			w.sel.Time = ""
			w.mu.Unlock()
			w.logger.Info("reservation rejected", "start", req.StartDatetime)
		}
		return nil, err
	}
	return booking, nil
}

// Reset clears the whole selection.
func (w *Wizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sel = Selection{}
	w.slots = turnos.SlotsResult{}
	w.slotsLoaded = false
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
