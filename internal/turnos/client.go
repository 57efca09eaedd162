// Package turnos is a typed client for the barbería reservation REST API.
// All scheduling decisions (slot availability, booking conflicts,
// cancellation windows) live on the backend; this package only shapes
// requests, classifies failures and decodes the wire envelopes.
package turnos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ordema/turnos-client/internal/observability/metrics"
	"github.com/ordema/turnos-client/pkg/logging"
)

const defaultTimeout = 15 * time.Second

// MsgScheduleUnavailable is the generic degraded-slot-query message shown
// when the backend cannot be reached. Business messages come verbatim from
// the server instead.
const MsgScheduleUnavailable = "No se pudo cargar la disponibilidad. Probá con otra fecha."

var tracer = otel.Tracer("turnos/client")

// Client talks to the turnos backend.
type Client struct {
	baseURL    string
	negocioID  string
	httpClient *http.Client
	logger     *logging.Logger
	metrics    *metrics.BookingMetrics
	token      string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client. Tests use this
// together with httptest servers.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMetrics attaches request metrics.
func WithMetrics(m *metrics.BookingMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithToken sets the bearer token for authenticated calls.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// NewClient creates a turnos API client rooted at baseURL
// (e.g. "https://api.example.com/api/v1").
func NewClient(baseURL, negocioID string, logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		baseURL:   baseURL,
		negocioID: negocioID,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger.Component("turnos"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token, e.g. after login or session restore.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Login authenticates and returns the session to persist. Invalid
// credentials come back as KindRejected with the server's message.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	var out loginResponse
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, "login", http.MethodPost, "/auth/login/", nil, body, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, &APIError{Kind: KindRejected, Op: "login", Message: out.Message, Fields: out.Errors}
	}
	c.token = out.Tokens.Access
	return &Session{User: out.User, Tokens: out.Tokens}, nil
}

// Register creates a client account and returns its ready-to-use session;
// the backend issues tokens on registration so no follow-up login is
// needed. Validation failures (password mismatch, taken username) come
// back as KindRejected with per-field details.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	var out loginResponse
	if err := c.do(ctx, "register", http.MethodPost, "/auth/registro/", nil, req, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, &APIError{Kind: KindRejected, Op: "register", Message: out.Message, Fields: out.Errors}
	}
	c.token = out.Tokens.Access
	return &Session{User: out.User, Tokens: out.Tokens}, nil
}

// Professionals returns the bookable staff of the business.
func (c *Client) Professionals(ctx context.Context) ([]Professional, error) {
	var out professionalsResponse
	if err := c.do(ctx, "professionals", http.MethodGet, "/profesionales-disponibles/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Profesionales, nil
}

// Services returns the public service catalog.
func (c *Client) Services(ctx context.Context) ([]Service, error) {
	var out servicesResponse
	if err := c.do(ctx, "services", http.MethodGet, "/servicios-publicos/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Servicios, nil
}

// Slots queries bookable start times for one (professional, service, date)
// triple. It never returns an error: transport and server failures degrade
// to an empty result with a generic message so the reservation flow can
// keep running, and "the professional does not work this day" is reported
// through NotWorking.
func (c *Client) Slots(ctx context.Context, professionalID, serviceID int, date time.Time) SlotsResult {
	q := url.Values{}
	q.Set("profesional_id", strconv.Itoa(professionalID))
	q.Set("servicio_id", strconv.Itoa(serviceID))
	q.Set("fecha", date.Format("2006-01-02"))
	if c.negocioID != "" {
		q.Set("negocio_id", c.negocioID)
	}

	var out slotsResponse
	if err := c.do(ctx, "slots", http.MethodGet, "/reservas/disponibilidad/", q, nil, &out); err != nil {
		c.logger.Warn("slot query degraded", "error", err, "fecha", date.Format("2006-01-02"))
		return SlotsResult{Message: MsgScheduleUnavailable}
	}
	return SlotsResult{
		Slots:      out.Slots,
		NotWorking: len(out.Slots) == 0 && out.Message != "",
		Message:    out.Message,
	}
}

// DaysWithBookings returns the day numbers of the professional's month that
// hold active turns, for calendar indicator dots. Month is 1-based.
func (c *Client) DaysWithBookings(ctx context.Context, year int, month time.Month) ([]int, error) {
	q := url.Values{}
	q.Set("año", strconv.Itoa(year))
	q.Set("mes", strconv.Itoa(int(month)))

	var out daysResponse
	if err := c.do(ctx, "days_with_bookings", http.MethodGet, "/reservas/dias-con-turnos/", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Dias, nil
}

// Reserve creates a booking. Business rejections (slot taken between query
// and submit, validation failures) surface as KindRejected with the
// server's message and field details verbatim.
func (c *Client) Reserve(ctx context.Context, req ReserveRequest) (*Booking, error) {
	var out reserveResponse
	if err := c.do(ctx, "reserve", http.MethodPost, "/reservas/crear/", nil, req, &out); err != nil {
		return nil, err
	}
	if !out.Success || out.Turno == nil {
		return nil, &APIError{Kind: KindRejected, Op: "reserve", Message: out.Message, Fields: out.Errors}
	}
	return out.Turno, nil
}

// MyBookings returns the caller's turns bucketed by the backend.
func (c *Client) MyBookings(ctx context.Context) (*MyBookings, error) {
	var out myBookingsResponse
	if err := c.do(ctx, "my_bookings", http.MethodGet, "/reservas/mis-turnos/", nil, nil, &out); err != nil {
		return nil, err
	}
	return &MyBookings{
		Resumen:    out.Resumen,
		Proximos:   out.Turnos.Proximos,
		Pasados:    out.Turnos.Pasados,
		Cancelados: out.Turnos.Cancelados,
	}, nil
}

// CancelMyBooking cancels one of the caller's own turns.
func (c *Client) CancelMyBooking(ctx context.Context, bookingID int) error {
	var out statusChangeResponse
	path := fmt.Sprintf("/reservas/cancelar/%d/", bookingID)
	if err := c.do(ctx, "cancel_my_booking", http.MethodPost, path, nil, struct{}{}, &out); err != nil {
		return err
	}
	if !out.Success {
		return &APIError{Kind: KindRejected, Op: "cancel_my_booking", Message: out.Message}
	}
	return nil
}

// Agenda returns the professional's turns for one day, ordered by start time.
func (c *Client) Agenda(ctx context.Context, date time.Time) ([]AgendaBooking, error) {
	q := url.Values{}
	q.Set("fecha", date.Format("2006-01-02"))

	var out agendaResponse
	if err := c.do(ctx, "agenda", http.MethodGet, "/reservas/agenda/", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Turnos, nil
}

// CancelBooking cancels a turn from the professional's agenda. The backend
// rejects cancellations inside the 2-hour window; that rejection carries
// the server's message and must be shown as-is.
func (c *Client) CancelBooking(ctx context.Context, bookingID int) error {
	var out statusChangeResponse
	path := fmt.Sprintf("/reservas/cancelar-profesional/%d/", bookingID)
	if err := c.do(ctx, "cancel_booking", http.MethodPost, path, nil, struct{}{}, &out); err != nil {
		return err
	}
	if !out.Success {
		return &APIError{Kind: KindRejected, Op: "cancel_booking", Message: out.Message}
	}
	return nil
}

// CompleteBooking marks an agenda turn as done.
func (c *Client) CompleteBooking(ctx context.Context, bookingID int) error {
	var out statusChangeResponse
	path := fmt.Sprintf("/reservas/completar/%d/", bookingID)
	if err := c.do(ctx, "complete_booking", http.MethodPost, path, nil, struct{}{}, &out); err != nil {
		return err
	}
	if !out.Success {
		return &APIError{Kind: KindRejected, Op: "complete_booking", Message: out.Message}
	}
	return nil
}

// WeeklyAvailability returns the professional's recurring working windows.
func (c *Client) WeeklyAvailability(ctx context.Context) ([]AvailabilityWindow, error) {
	var out []AvailabilityWindow
	if err := c.do(ctx, "weekly_availability", http.MethodGet, "/disponibilidad/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveWeeklyAvailability replaces the professional's recurring windows.
func (c *Client) SaveWeeklyAvailability(ctx context.Context, windows []AvailabilityWindow) ([]AvailabilityWindow, error) {
	var out []AvailabilityWindow
	if err := c.do(ctx, "save_weekly_availability", http.MethodPut, "/disponibilidad/", nil, windows, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// errorEnvelope is the shape every backend error response shares.
type errorEnvelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Detail  string              `json:"detail"`
	Errors  map[string][]string `json:"errors"`
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "turnos."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	status := "transport"
	defer func() {
		c.metrics.ObserveRequest(op, status, time.Since(start).Seconds())
	}()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("turnos: marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("turnos: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)
	span.SetAttributes(
		attribute.String("request_id", requestID),
		attribute.String("http.method", method),
		attribute.String("http.path", path),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Kind: KindTransport, Op: op, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Kind: KindTransport, Op: op, Message: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode >= 400 {
		apiErr := classify(op, resp.StatusCode, respBody)
		status = apiErr.Kind.String()
		c.logger.Warn("backend rejected request",
			"operation", op,
			"status_code", resp.StatusCode,
			"kind", apiErr.Kind.String(),
			"request_id", requestID,
		)
		return apiErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &APIError{Kind: KindTransport, Op: op, Message: fmt.Sprintf("unmarshal response: %v", err)}
	}

	status = "ok"
	c.logger.Debug("request complete", "operation", op, "request_id", requestID, "elapsed", time.Since(start))
	return nil
}

// classify maps an error response to the taxonomy. 4xx responses carrying a
// backend envelope are business rejections; everything else degrades to the
// generic transport branch.
func classify(op string, statusCode int, body []byte) *APIError {
	var env errorEnvelope
	_ = json.Unmarshal(body, &env)
	msg := env.Message
	if msg == "" {
		msg = env.Detail
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		if msg == "" {
			msg = "sesión inválida o sin permisos"
		}
		return &APIError{Kind: KindAuth, Op: op, Message: msg}
	case statusCode == http.StatusNotFound:
		if msg == "" {
			msg = "no encontrado"
		}
		return &APIError{Kind: KindNotFound, Op: op, Message: msg}
	case statusCode >= 400 && statusCode < 500 && msg != "":
		return &APIError{Kind: KindRejected, Op: op, Message: msg, Fields: env.Errors}
	default:
		raw := string(body)
		if len(raw) > 200 {
			raw = raw[:200]
		}
		return &APIError{Kind: KindTransport, Op: op, Message: fmt.Sprintf("status %d: %s", statusCode, raw)}
	}
}
