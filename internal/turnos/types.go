package turnos

// Booking statuses as the backend reports them.
const (
	StatusPendiente  = "pendiente"
	StatusConfirmado = "confirmado"
	StatusCompletado = "completado"
	StatusCancelado  = "cancelado"
)

// User is the account behind a session or a professional profile.
type User struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Role        string `json:"role"`
	IsActive    bool   `json:"is_active"`
	DateJoined  string `json:"date_joined"`
}

// FullName returns the display name for pickers and agenda cards.
func (u User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	return u.FirstName + " " + u.LastName
}

// Tokens is the bearer token pair issued at login.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Professional is a bookable staff member.
type Professional struct {
	UserID    int     `json:"user"`
	Details   User    `json:"user_details"`
	Bio       string  `json:"bio"`
	PhotoURL  *string `json:"profile_picture_url"`
	Available bool    `json:"is_available"`
}

// Service is a bookable service from the public catalog.
type Service struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"duration_minutes"`
	Price           string `json:"price"`
	Active          bool   `json:"is_active"`
}

// Slot is one bookable start time for a (professional, service, date) triple.
// Times are "HH:MM" strings exactly as the backend emits them.
type Slot struct {
	Start string `json:"hora_inicio"`
	End   string `json:"hora_fin"`
}

// SlotsResult is the outcome of a slot query. NotWorking marks the
// "professional does not work this day" branch, which is data, not an error.
type SlotsResult struct {
	Slots      []Slot
	NotWorking bool
	Message    string
}

// Has reports whether start is a member of the slot list.
func (r SlotsResult) Has(start string) bool {
	for _, s := range r.Slots {
		if s.Start == start {
			return true
		}
	}
	return false
}

// Booking is a reserved turn as seen by the client who owns it.
type Booking struct {
	ID             int     `json:"id"`
	StartDatetime  string  `json:"start_datetime"`
	EndDatetime    string  `json:"end_datetime"`
	Status         string  `json:"status"`
	Notes          *string `json:"notes"`
	CreatedAt      string  `json:"created_at"`
	ProfesionalBio string  `json:"profesional_bio"`
	Profesional    string  `json:"profesional_name"`
	Servicio       string  `json:"servicio_name"`
	ServicioDesc   string  `json:"servicio_description"`
	Price          string  `json:"servicio_price"`
	Duration       int     `json:"servicio_duration"`
	Fecha          string  `json:"fecha"`
	HoraInicio     string  `json:"hora_inicio"`
	HoraFin        string  `json:"hora_fin"`
	PuedeCancelar  bool    `json:"puede_cancelar"`
}

// AgendaBooking is a turn in the professional's day agenda.
type AgendaBooking struct {
	ID            int    `json:"id"`
	HoraInicio    string `json:"hora_inicio"`
	HoraFin       string `json:"hora_fin"`
	Cliente       string `json:"cliente_name"`
	Servicio      string `json:"servicio_name"`
	Price         string `json:"servicio_price"`
	Status        string `json:"status"`
	PuedeCancelar bool   `json:"puede_cancelar"`
}

// BookingsSummary totals the caller's bookings by bucket.
type BookingsSummary struct {
	Total      int `json:"total_turnos"`
	Proximos   int `json:"proximos"`
	Pasados    int `json:"pasados"`
	Cancelados int `json:"cancelados"`
}

// MyBookings groups the caller's bookings the way the backend buckets them.
type MyBookings struct {
	Resumen    BookingsSummary
	Proximos   []Booking
	Pasados    []Booking
	Cancelados []Booking
}

// AvailabilityWindow is one recurring weekly working window.
// DayOfWeek is Monday-indexed: 0=Monday .. 6=Sunday.
type AvailabilityWindow struct {
	ID          *int   `json:"id,omitempty"`
	DayOfWeek   int    `json:"day_of_week"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsRecurring bool   `json:"is_recurring"`
}

// RegisterRequest creates a client account. The backend forces the
// cliente role and checks that both passwords match.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	PhoneNumber     string `json:"phone_number"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// ReserveRequest creates a booking. StartDatetime is local ISO without
// timezone ("2006-01-02T15:04:05"), matching what the backend stores.
type ReserveRequest struct {
	Profesional   int    `json:"profesional"`
	Servicio      int    `json:"servicio"`
	StartDatetime string `json:"start_datetime"`
}

// Session is the authenticated identity persisted between runs.
type Session struct {
	User   User   `json:"user"`
	Tokens Tokens `json:"tokens"`
}

// Narrow response envelopes for each API operation.
type loginResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	User    User                `json:"user"`
	Tokens  Tokens              `json:"tokens"`
	Errors  map[string][]string `json:"errors"`
}

type professionalsResponse struct {
	Success       bool           `json:"success"`
	Count         int            `json:"count"`
	Profesionales []Professional `json:"profesionales"`
}

type servicesResponse struct {
	Success   bool      `json:"success"`
	Count     int       `json:"count"`
	Servicios []Service `json:"servicios"`
}

type slotsResponse struct {
	Success bool   `json:"success"`
	Fecha   string `json:"fecha"`
	Slots   []Slot `json:"horarios_disponibles"`
	Total   int    `json:"total_disponibles"`
	Message string `json:"message"`
}

type daysResponse struct {
	Success bool  `json:"success"`
	Dias    []int `json:"dias"`
	Total   int   `json:"total_dias"`
}

type reserveResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Turno   *Booking            `json:"turno"`
	Errors  map[string][]string `json:"errors"`
}

type myBookingsResponse struct {
	Success bool            `json:"success"`
	Resumen BookingsSummary `json:"resumen"`
	Turnos  struct {
		Proximos   []Booking `json:"proximos"`
		Pasados    []Booking `json:"pasados"`
		Cancelados []Booking `json:"cancelados"`
	} `json:"turnos"`
}

type agendaResponse struct {
	Success bool            `json:"success"`
	Fecha   string          `json:"fecha"`
	Turnos  []AgendaBooking `json:"turnos"`
	Total   int             `json:"total_turnos"`
}

type statusChangeResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	TurnoID     int    `json:"turno_id"`
	NuevoStatus string `json:"nuevo_status"`
}
