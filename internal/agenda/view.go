// Package agenda is the professional's day view: the turns of one date,
// the action each allows, and optimistic cancel/complete transitions that
// roll back when the backend says no.
package agenda

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ordema/turnos-client/internal/observability/metrics"
	"github.com/ordema/turnos-client/internal/turnos"
	"github.com/ordema/turnos-client/pkg/logging"
)

// MsgActionFailed is the generic fallback when an agenda action fails for
// non-business reasons. Business rejections show the server's message.
const MsgActionFailed = "No se pudo actualizar el turno. Intentá de nuevo."

// Client is the slice of the API the agenda needs.
type Client interface {
	Agenda(ctx context.Context, date time.Time) ([]turnos.AgendaBooking, error)
	DaysWithBookings(ctx context.Context, year int, month time.Month) ([]int, error)
	CancelBooking(ctx context.Context, bookingID int) error
	CompleteBooking(ctx context.Context, bookingID int) error
}

// Action is what a turn's status allows the professional to do.
type Action int

const (
	ActionNone Action = iota
	ActionCancel
	ActionComplete
)

func (a Action) String() string {
	switch a {
	case ActionCancel:
		return "cancel"
	case ActionComplete:
		return "complete"
	default:
		return "none"
	}
}

// UpdateState tracks one optimistic transition.
type UpdateState int

const (
	// UpdateApplied means the local status changed and the server call is
	// in flight.
	UpdateApplied UpdateState = iota
	// UpdateConfirmed means the server accepted the transition.
	UpdateConfirmed
	// UpdateRolledBack means the server refused and the prior status was
	// restored.
	UpdateRolledBack
)

// Update is the outcome of a cancel or complete attempt. PrevStatus and
// PrevPuedeCancelar snapshot the turn before the optimistic transition so
// a rollback restores it exactly.
type Update struct {
	BookingID         int
	Action            Action
	PrevStatus        string
	PrevPuedeCancelar bool
	State             UpdateState
	// Rejected marks a business refusal (e.g. inside the cancellation
	// window); Message then carries the server's wording. Otherwise
	// Message is the generic fallback.
	Rejected bool
	Message  string
}

// View holds one day of the professional's agenda.
type View struct {
	client  Client
	logger  *logging.Logger
	metrics *metrics.BookingMetrics

	mu         sync.Mutex
	date       time.Time
	bookings   []turnos.AgendaBooking
	loaded     bool
	indGen     uint64
	indicators []int
}

// NewView creates an unloaded agenda view.
func NewView(client Client, logger *logging.Logger, m *metrics.BookingMetrics) *View {
	if logger == nil {
		logger = logging.Default()
	}
	return &View{
		client:  client,
		logger:  logger.Component("agenda"),
		metrics: m,
	}
}

// Load fetches the given day's turns, ordered by start time. Any local
// optimistic state from a previous day is gone after a load.
func (v *View) Load(ctx context.Context, date time.Time) error {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	bookings, err := v.client.Agenda(ctx, day)
	if err != nil {
		return err
	}
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].HoraInicio < bookings[j].HoraInicio
	})

	v.mu.Lock()
	defer v.mu.Unlock()
	v.date = day
	v.bookings = bookings
	v.loaded = true
	return nil
}

// PrevDay reloads the view one day back.
func (v *View) PrevDay(ctx context.Context) error {
	return v.shiftDay(ctx, -1)
}

// NextDay reloads the view one day forward.
func (v *View) NextDay(ctx context.Context) error {
	return v.shiftDay(ctx, 1)
}

func (v *View) shiftDay(ctx context.Context, delta int) error {
	v.mu.Lock()
	date := v.date
	v.mu.Unlock()
	return v.Load(ctx, date.AddDate(0, 0, delta))
}

// Date returns the loaded day.
func (v *View) Date() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.date
}

// Bookings returns a copy of the day's turns.
func (v *View) Bookings() []turnos.AgendaBooking {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]turnos.AgendaBooking, len(v.bookings))
	copy(out, v.bookings)
	return out
}

// ActionFor derives the allowed action from a turn's status. Confirmed
// turns cancel while the backend still permits it and complete once the
// cancellation window has closed; finished and cancelled turns are
// read-only.
func ActionFor(b turnos.AgendaBooking) Action {
	if b.Status != turnos.StatusConfirmado {
		return ActionNone
	}
	if b.PuedeCancelar {
		return ActionCancel
	}
	return ActionComplete
}

// Cancel optimistically marks the turn cancelled, then asks the server.
// On refusal the prior status is restored and the update reports whether
// the refusal was a business rejection with its own message.
func (v *View) Cancel(ctx context.Context, bookingID int) Update {
	return v.apply(ctx, bookingID, ActionCancel, turnos.StatusCancelado, v.client.CancelBooking)
}

// Complete optimistically marks the turn done, then asks the server.
func (v *View) Complete(ctx context.Context, bookingID int) Update {
	return v.apply(ctx, bookingID, ActionComplete, turnos.StatusCompletado, v.client.CompleteBooking)
}

func (v *View) apply(ctx context.Context, bookingID int, action Action, newStatus string, call func(context.Context, int) error) Update {
	v.mu.Lock()
	idx := -1
	for i := range v.bookings {
		if v.bookings[i].ID == bookingID {
			idx = i
			break
		}
	}
	if idx < 0 {
		v.mu.Unlock()
		return Update{BookingID: bookingID, Action: action, State: UpdateRolledBack, Message: MsgActionFailed}
	}
	update := Update{
		BookingID:         bookingID,
		Action:            action,
		PrevStatus:        v.bookings[idx].Status,
		PrevPuedeCancelar: v.bookings[idx].PuedeCancelar,
		State:             UpdateApplied,
	}
	v.bookings[idx].Status = newStatus
	v.bookings[idx].PuedeCancelar = false
	v.mu.Unlock()

	err := call(ctx, bookingID)
	if err == nil {
		update.State = UpdateConfirmed
		return update
	}

	v.mu.Lock()
	for i := range v.bookings {
		if v.bookings[i].ID == bookingID {
			v.bookings[i].Status = update.PrevStatus
			v.bookings[i].PuedeCancelar = update.PrevPuedeCancelar
			break
		}
	}
	v.mu.Unlock()

	update.State = UpdateRolledBack
	if rejection, ok := turnos.Rejection(err); ok {
		update.Rejected = true
		update.Message = rejection.Message
	} else {
		update.Message = MsgActionFailed
	}
	v.metrics.ObserveRollback(action.String())
	v.logger.Info("agenda action rolled back",
		"turno_id", bookingID,
		"action", action.String(),
		"rejected", update.Rejected,
	)
	return update
}

// BeginIndicators starts an indicator load for a month and returns its
// generation. Navigating again before the response lands makes the old
// generation stale.
func (v *View) BeginIndicators() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.indGen++
	v.indicators = nil
	return v.indGen
}

// ApplyIndicators installs a day set for the given generation, dropping
// stale ones.
func (v *View) ApplyIndicators(gen uint64, days []int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.indGen {
		v.logger.Debug("discarding stale indicator load", "gen", gen, "current", v.indGen)
		return false
	}
	v.indicators = days
	return true
}

// LoadIndicators fetches the month's days with turns and applies them,
// subject to the stale-generation check.
func (v *View) LoadIndicators(ctx context.Context, year int, month time.Month) error {
	gen := v.BeginIndicators()
	days, err := v.client.DaysWithBookings(ctx, year, month)
	if err != nil {
		return err
	}
	v.ApplyIndicators(gen, days)
	return nil
}

// Indicators returns the current month's indicator days.
func (v *View) Indicators() []int {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]int, len(v.indicators))
	copy(out, v.indicators)
	return out
}
