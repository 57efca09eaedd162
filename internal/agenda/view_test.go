package agenda

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ordema/turnos-client/internal/turnos"
)

type fakeClient struct {
	byDate      map[string][]turnos.AgendaBooking
	days        []int
	daysErr     error
	cancelErr   error
	completeErr error
	cancelled   []int
	completed   []int
}

func (f *fakeClient) Agenda(_ context.Context, date time.Time) ([]turnos.AgendaBooking, error) {
	out := f.byDate[date.Format("2006-01-02")]
	cp := make([]turnos.AgendaBooking, len(out))
	copy(cp, out)
	return cp, nil
}

func (f *fakeClient) DaysWithBookings(_ context.Context, _ int, _ time.Month) ([]int, error) {
	return f.days, f.daysErr
}

func (f *fakeClient) CancelBooking(_ context.Context, id int) error {
	f.cancelled = append(f.cancelled, id)
	return f.cancelErr
}

func (f *fakeClient) CompleteBooking(_ context.Context, id int) error {
	f.completed = append(f.completed, id)
	return f.completeErr
}

func confirmedTurn(id int, start string, canCancel bool) turnos.AgendaBooking {
	return turnos.AgendaBooking{
		ID:            id,
		HoraInicio:    start,
		Cliente:       "Ana Diaz",
		Servicio:      "Corte",
		Status:        turnos.StatusConfirmado,
		PuedeCancelar: canCancel,
	}
}

func TestLoadSortsByStartTime(t *testing.T) {
	fc := &fakeClient{byDate: map[string][]turnos.AgendaBooking{
		"2024-07-03": {
			confirmedTurn(2, "15:00", true),
			confirmedTurn(1, "09:30", true),
			confirmedTurn(3, "11:00", true),
		},
	}}
	v := NewView(fc, nil, nil)

	require.NoError(t, v.Load(context.Background(), time.Date(2024, 7, 3, 14, 0, 0, 0, time.Local)))

	bookings := v.Bookings()
	require.Len(t, bookings, 3)
	assert.Equal(t, "09:30", bookings[0].HoraInicio)
	assert.Equal(t, "11:00", bookings[1].HoraInicio)
	assert.Equal(t, "15:00", bookings[2].HoraInicio)
}

func TestDayNavigationReloads(t *testing.T) {
	fc := &fakeClient{byDate: map[string][]turnos.AgendaBooking{
		"2024-07-03": {confirmedTurn(1, "09:00", true)},
		"2024-07-04": {confirmedTurn(2, "10:00", true)},
	}}
	v := NewView(fc, nil, nil)
	require.NoError(t, v.Load(context.Background(), time.Date(2024, 7, 3, 0, 0, 0, 0, time.Local)))

	require.NoError(t, v.NextDay(context.Background()))
	assert.Equal(t, 4, v.Date().Day())
	require.Len(t, v.Bookings(), 1)
	assert.Equal(t, 2, v.Bookings()[0].ID)

	require.NoError(t, v.PrevDay(context.Background()))
	assert.Equal(t, 3, v.Date().Day())
	assert.Equal(t, 1, v.Bookings()[0].ID)
}

func TestActionFor(t *testing.T) {
	tests := []struct {
		name   string
		turn   turnos.AgendaBooking
		action Action
	}{
		{"confirmed cancellable", confirmedTurn(1, "09:00", true), ActionCancel},
		{"confirmed past window", confirmedTurn(1, "09:00", false), ActionComplete},
		{"completed", turnos.AgendaBooking{Status: turnos.StatusCompletado}, ActionNone},
		{"cancelled", turnos.AgendaBooking{Status: turnos.StatusCancelado}, ActionNone},
		{"pending", turnos.AgendaBooking{Status: turnos.StatusPendiente}, ActionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.action, ActionFor(tt.turn))
		})
	}
}

func TestCancelConfirmed(t *testing.T) {
	fc := &fakeClient{byDate: map[string][]turnos.AgendaBooking{
		"2024-07-03": {confirmedTurn(1, "09:00", true)},
	}}
	v := NewView(fc, nil, nil)
	require.NoError(t, v.Load(context.Background(), time.Date(2024, 7, 3, 0, 0, 0, 0, time.Local)))

	update := v.Cancel(context.Background(), 1)

	assert.Equal(t, UpdateConfirmed, update.State)
	assert.Equal(t, turnos.StatusConfirmado, update.PrevStatus)
	assert.Equal(t, []int{1}, fc.cancelled)
	assert.Equal(t, turnos.StatusCancelado, v.Bookings()[0].Status)
}

func TestCancelRejectionRollsBackWithServerMessage(t *testing.T) {
	fc := &fakeClient{
		byDate: map[string][]turnos.AgendaBooking{
			"2024-07-03": {confirmedTurn(1, "09:00", true)},
		},
		cancelErr: &turnos.APIError{
			Kind:    turnos.KindRejected,
			Op:      "cancel_booking",
			Message: "No se puede cancelar con menos de 2 horas de anticipación",
		},
	}
	v := NewView(fc, nil, nil)
	require.NoError(t, v.Load(context.Background(), time.Date(2024, 7, 3, 0, 0, 0, 0, time.Local)))

	update := v.Cancel(context.Background(), 1)

	assert.Equal(t, UpdateRolledBack, update.State)
	assert.True(t, update.Rejected)
	assert.Equal(t, "No se puede cancelar con menos de 2 horas de anticipación", update.Message)

	turn := v.Bookings()[0]
	assert.Equal(t, turnos.StatusConfirmado, turn.Status)
	assert.True(t, turn.PuedeCancelar)
}

func TestCancelRejectionOnNonCancellableTurnRestoresFlag(t *testing.T) {
	// A cancel issued directly against a turn past its window: the server
	// rejects it and the rollback must leave the turn exactly as loaded.
	fc := &fakeClient{
		byDate: map[string][]turnos.AgendaBooking{
			"2024-07-03": {confirmedTurn(1, "09:00", false)},
		},
		cancelErr: &turnos.APIError{
			Kind:    turnos.KindRejected,
			Op:      "cancel_booking",
			Message: "No se puede cancelar con menos de 2 horas de anticipación",
		},
	}
	v := NewView(fc, nil, nil)
	require.NoError(t, v.Load(context.Background(), time.Date(2024, 7, 3, 0, 0, 0, 0, time.Local)))

	update := v.Cancel(context.Background(), 1)
	require.Equal(t, UpdateRolledBack, update.State)
	assert.False(t, update.PrevPuedeCancelar)

	turn := v.Bookings()[0]
	assert.Equal(t, turnos.StatusConfirmado, turn.Status)
	assert.False(t, turn.PuedeCancelar)
	assert.Equal(t, ActionComplete, ActionFor(turn))
}

func TestCompleteTransportErrorRollsBackGeneric(t *testing.T) {
	fc := &fakeClient{
		byDate: map[string][]turnos.AgendaBooking{
			"2024-07-03": {confirmedTurn(1, "09:00", false)},
		},
		completeErr: &turnos.APIError{Kind: turnos.KindTransport, Op: "complete_booking", Message: "request failed"},
	}
	v := NewView(fc, nil, nil)
	require.NoError(t, v.Load(context.Background(), time.Date(2024, 7, 3, 0, 0, 0, 0, time.Local)))

	update := v.Complete(context.Background(), 1)

	assert.Equal(t, UpdateRolledBack, update.State)
	assert.False(t, update.Rejected)
	assert.Equal(t, MsgActionFailed, update.Message)
	assert.Equal(t, turnos.StatusConfirmado, v.Bookings()[0].Status)
}

func TestCancelUnknownBooking(t *testing.T) {
	fc := &fakeClient{byDate: map[string][]turnos.AgendaBooking{}}
	v := NewView(fc, nil, nil)
	require.NoError(t, v.Load(context.Background(), time.Date(2024, 7, 3, 0, 0, 0, 0, time.Local)))

	update := v.Cancel(context.Background(), 99)

	assert.Equal(t, UpdateRolledBack, update.State)
	assert.Empty(t, fc.cancelled)
}

func TestIndicatorsStaleGenerationDiscarded(t *testing.T) {
	v := NewView(&fakeClient{}, nil, nil)

	gen := v.BeginIndicators()
	v.BeginIndicators()

	assert.False(t, v.ApplyIndicators(gen, []int{1, 2}))
	assert.Empty(t, v.Indicators())
}

func TestLoadIndicators(t *testing.T) {
	fc := &fakeClient{days: []int{3, 12, 24}}
	v := NewView(fc, nil, nil)

	require.NoError(t, v.LoadIndicators(context.Background(), 2024, time.July))
	assert.Equal(t, []int{3, 12, 24}, v.Indicators())
}
