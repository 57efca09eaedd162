// Command turnos is a terminal client for the barbería reservation API:
// login, browse professionals and services, check slots, reserve a turn
// and work the professional's agenda.
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/ordema/turnos-client/internal/agenda"
	"github.com/ordema/turnos-client/internal/availability"
	"github.com/ordema/turnos-client/internal/booking"
	"github.com/ordema/turnos-client/internal/calendar"
	"github.com/ordema/turnos-client/internal/config"
	"github.com/ordema/turnos-client/internal/observability/metrics"
	"github.com/ordema/turnos-client/internal/session"
	"github.com/ordema/turnos-client/internal/turnos"
	"github.com/ordema/turnos-client/pkg/logging"
)

const usage = `uso: turnos <comando> [flags]

comandos:
  register       crear cuenta de cliente (-user, -pass, -email, -first, -last, -phone)
  login          iniciar sesión (-user, -pass)
  logout         cerrar sesión (-user)
  professionals  listar profesionales disponibles (-service para el próximo turno)
  services       listar servicios
  slots          horarios disponibles (-professional, -service, -date)
  month          calendario del mes con días con turnos libres (-professional, -service, -year, -month)
  reserve        reservar un turno (-professional, -service, -date, -time)
  my-bookings    mis turnos
  cancel-mine    cancelar un turno propio (-id)
  agenda         agenda del día (-date)
  cancel         cancelar un turno de la agenda (-id, -date)
  complete       completar un turno de la agenda (-id, -date)
  availability   ver o reemplazar la disponibilidad semanal (-set "0=09:00-18:00,2=10:00-14:00")
`

type app struct {
	cfg    *config.Config
	logger *logging.Logger
	client *turnos.Client
	store  *session.Store
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	rdb := newRedisClient(cfg)
	defer rdb.Close()

	m := metrics.NewBookingMetrics(prometheus.NewRegistry())
	client := turnos.NewClient(cfg.APIBaseURL, cfg.NegocioID, logger, turnos.WithMetrics(m))
	a := &app{
		cfg:    cfg,
		logger: logger,
		client: client,
		store:  session.NewStore(rdb, cfg.SessionTTL, logger),
	}

	ctx := context.Background()
	cmd := os.Args[1]
	args := os.Args[2:]
	if cmd != "login" && cmd != "register" {
		a.restoreSession(ctx)
	}

	if err := a.run(ctx, cmd, args, m); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string, m *metrics.BookingMetrics) error {
	switch cmd {
	case "register":
		return a.register(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.logout(ctx, args)
	case "professionals":
		return a.professionals(ctx, args)
	case "services":
		return a.services(ctx)
	case "slots":
		return a.slots(ctx, args)
	case "month":
		return a.month(ctx, args)
	case "reserve":
		return a.reserve(ctx, args, m)
	case "my-bookings":
		return a.myBookings(ctx)
	case "cancel-mine":
		return a.cancelMine(ctx, args)
	case "agenda":
		return a.agendaDay(ctx, args, m)
	case "cancel":
		return a.agendaAction(ctx, args, m, agenda.ActionCancel)
	case "complete":
		return a.agendaAction(ctx, args, m, agenda.ActionComplete)
	case "availability":
		return a.availability(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("comando desconocido: %s", cmd)
	}
}

func newRedisClient(cfg *config.Config) *redis.Client {
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return redis.NewClient(opts)
}

// restoreSession loads the persisted session for TURNOS_USER, if any, and
// arms the client with its token. An expired session just means the next
// call will ask for a fresh login.
func (a *app) restoreSession(ctx context.Context) {
	username := os.Getenv("TURNOS_USER")
	if username == "" {
		return
	}
	sess, err := a.store.Load(ctx, username)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			a.logger.Warn("session restore failed", "error", err)
		}
		return
	}
	if session.Expired(sess, time.Now()) {
		fmt.Println("La sesión expiró. Iniciá sesión de nuevo con: turnos login")
		return
	}
	a.client.SetToken(sess.Tokens.Access)
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	user := fs.String("user", "", "nombre de usuario")
	pass := fs.String("pass", "", "contraseña")
	email := fs.String("email", "", "email")
	first := fs.String("first", "", "nombre")
	last := fs.String("last", "", "apellido")
	phone := fs.String("phone", "", "teléfono")
	_ = fs.Parse(args)

	sess, err := a.client.Register(ctx, turnos.RegisterRequest{
		Username:        *user,
		Email:           *email,
		FirstName:       *first,
		LastName:        *last,
		PhoneNumber:     *phone,
		Password:        *pass,
		PasswordConfirm: *pass,
	})
	if err != nil {
		return err
	}
	if err := a.store.Save(ctx, sess); err != nil {
		a.logger.Warn("session not persisted", "error", err)
	}
	fmt.Printf("Cuenta creada. Hola %s, sesión iniciada.\n", sess.User.FullName())
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	user := fs.String("user", os.Getenv("TURNOS_USER"), "nombre de usuario")
	pass := fs.String("pass", "", "contraseña")
	_ = fs.Parse(args)

	sess, err := a.client.Login(ctx, *user, *pass)
	if err != nil {
		return err
	}
	if err := a.store.Save(ctx, sess); err != nil {
		a.logger.Warn("session not persisted", "error", err)
	}
	fmt.Printf("Hola %s, sesión iniciada.\n", sess.User.FullName())
	return nil
}

func (a *app) logout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	user := fs.String("user", os.Getenv("TURNOS_USER"), "nombre de usuario")
	_ = fs.Parse(args)

	if err := a.store.Delete(ctx, *user); err != nil {
		return err
	}
	fmt.Println("Sesión cerrada.")
	return nil
}

func (a *app) professionals(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("professionals", flag.ExitOnError)
	serviceID := fs.Int("service", 0, "servicio para estimar el próximo turno")
	_ = fs.Parse(args)

	pros, err := a.client.Professionals(ctx)
	if err != nil {
		return err
	}

	var prober *availability.Prober
	if *serviceID > 0 {
		prober = availability.NewProber(a.client, a.cfg.ProbeLookaheadDays, a.cfg.ProbeTimeout, a.logger)
	}
	now := time.Now()
	for _, p := range pros {
		line := fmt.Sprintf("[%d] %s", p.Details.ID, p.Details.FullName())
		if p.Bio != "" {
			line += " — " + p.Bio
		}
		if prober != nil {
			hint := prober.NextSlot(ctx, p.Details.ID, *serviceID, now)
			line += " (Próximo turno: " + hint.Label(now) + ")"
		}
		fmt.Println(line)
	}
	return nil
}

func (a *app) services(ctx context.Context) error {
	services, err := a.client.Services(ctx)
	if err != nil {
		return err
	}
	for _, s := range services {
		fmt.Printf("[%d] %s — %d min — $%s\n", s.ID, s.Name, s.DurationMinutes, s.Price)
	}
	return nil
}

func (a *app) slots(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("slots", flag.ExitOnError)
	professionalID := fs.Int("professional", 0, "id del profesional")
	serviceID := fs.Int("service", 0, "id del servicio")
	dateStr := fs.String("date", time.Now().Format("2006-01-02"), "fecha AAAA-MM-DD")
	_ = fs.Parse(args)

	date, err := time.ParseInLocation("2006-01-02", *dateStr, time.Local)
	if err != nil {
		return fmt.Errorf("fecha inválida: %s", *dateStr)
	}

	result := a.client.Slots(ctx, *professionalID, *serviceID, date)
	if len(result.Slots) == 0 {
		if result.Message != "" {
			fmt.Println(result.Message)
		} else {
			fmt.Println("No hay horarios disponibles para esa fecha.")
		}
		return nil
	}
	for _, s := range result.Slots {
		fmt.Printf("%s - %s\n", s.Start, s.End)
	}
	return nil
}

// month renders the calendar grid for a month, marking the days that
// still have bookable slots for the professional/service pair.
func (a *app) month(ctx context.Context, args []string) error {
	now := time.Now()
	fs := flag.NewFlagSet("month", flag.ExitOnError)
	professionalID := fs.Int("professional", 0, "id del profesional")
	serviceID := fs.Int("service", 0, "id del servicio")
	year := fs.Int("year", now.Year(), "año")
	month := fs.Int("month", int(now.Month()), "mes (1-12)")
	_ = fs.Parse(args)

	ix := availability.NewMonthIndex(a.client, a.logger)
	if err := ix.Load(ctx, *professionalID, *serviceID, *year, time.Month(*month)); err != nil {
		return err
	}

	w := calendar.NewWidget(time.Date(*year, time.Month(*month), 1, 0, 0, 0, 0, time.Local),
		calendar.WithBounds(now, now.AddDate(0, 0, a.cfg.MaxBookingDays)))
	w.SetIndicators(ix.Days())
	printGrid(w)
	return nil
}

func printGrid(w *calendar.Widget) {
	fmt.Println(w.Title())
	fmt.Println(strings.Join(calendar.WeekdayHeaders, "  "))
	col := 0
	for _, c := range w.Cells() {
		switch {
		case c.Day == 0:
			fmt.Print("    ")
		case c.Disabled:
			fmt.Printf(" .  ")
		case c.Indicator:
			fmt.Printf("%2d* ", c.Day)
		default:
			fmt.Printf("%2d  ", c.Day)
		}
		col++
		if col%7 == 0 {
			fmt.Println()
		}
	}
	if col%7 != 0 {
		fmt.Println()
	}
}

// reserve runs the whole wizard in one shot: professional, service, date,
// time, submit. A rejected submit leaves date and slot list on screen so
// the user can retry with another -time.
func (a *app) reserve(ctx context.Context, args []string, m *metrics.BookingMetrics) error {
	fs := flag.NewFlagSet("reserve", flag.ExitOnError)
	professionalID := fs.Int("professional", 0, "id del profesional")
	serviceID := fs.Int("service", 0, "id del servicio")
	dateStr := fs.String("date", "", "fecha AAAA-MM-DD")
	timeStr := fs.String("time", "", "hora HH:MM")
	_ = fs.Parse(args)

	date, err := time.ParseInLocation("2006-01-02", *dateStr, time.Local)
	if err != nil {
		return fmt.Errorf("fecha inválida: %s", *dateStr)
	}

	pros, err := a.client.Professionals(ctx)
	if err != nil {
		return err
	}
	var professional *turnos.Professional
	for i := range pros {
		if pros[i].Details.ID == *professionalID {
			professional = &pros[i]
			break
		}
	}
	if professional == nil {
		return fmt.Errorf("profesional %d no encontrado", *professionalID)
	}

	services, err := a.client.Services(ctx)
	if err != nil {
		return err
	}
	var service *turnos.Service
	for i := range services {
		if services[i].ID == *serviceID {
			service = &services[i]
			break
		}
	}
	if service == nil {
		return fmt.Errorf("servicio %d no encontrado", *serviceID)
	}

	w := booking.NewWizard(a.client, a.client, a.logger, m)
	w.SelectProfessional(*professional)
	if err := w.SelectService(*service); err != nil {
		return err
	}
	if err := w.SelectDate(date); err != nil {
		return err
	}
	if err := w.LoadSlots(ctx); err != nil {
		return err
	}
	if w.NotWorking() {
		slots, _ := w.CurrentSlots()
		fmt.Println(slots.Message)
		return nil
	}
	if err := w.SelectTime(*timeStr); err != nil {
		if errors.Is(err, booking.ErrSlotUnavailable) {
			slots, _ := w.CurrentSlots()
			fmt.Println("Ese horario no está disponible. Horarios libres:")
			for _, s := range slots.Slots {
				fmt.Printf("  %s\n", s.Start)
			}
			return nil
		}
		return err
	}

	bk, err := w.Submit(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Turno #%d reservado: %s %s con %s (%s)\n",
		bk.ID, bk.Fecha, bk.HoraInicio, bk.Profesional, bk.Servicio)
	return nil
}

func (a *app) myBookings(ctx context.Context) error {
	mine, err := a.client.MyBookings(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Turnos: %d (próximos %d, pasados %d, cancelados %d)\n",
		mine.Resumen.Total, mine.Resumen.Proximos, mine.Resumen.Pasados, mine.Resumen.Cancelados)
	printBookings("Próximos", mine.Proximos)
	printBookings("Pasados", mine.Pasados)
	printBookings("Cancelados", mine.Cancelados)
	return nil
}

func printBookings(title string, bookings []turnos.Booking) {
	if len(bookings) == 0 {
		return
	}
	fmt.Println(title + ":")
	for _, b := range bookings {
		fmt.Printf("  #%d %s %s-%s %s (%s) [%s]\n",
			b.ID, b.Fecha, b.HoraInicio, b.HoraFin, b.Servicio, b.Profesional, b.Status)
	}
}

func (a *app) cancelMine(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cancel-mine", flag.ExitOnError)
	id := fs.Int("id", 0, "id del turno")
	_ = fs.Parse(args)

	if err := a.client.CancelMyBooking(ctx, *id); err != nil {
		return err
	}
	fmt.Printf("Turno #%d cancelado.\n", *id)
	return nil
}

func (a *app) agendaDay(ctx context.Context, args []string, m *metrics.BookingMetrics) error {
	fs := flag.NewFlagSet("agenda", flag.ExitOnError)
	dateStr := fs.String("date", time.Now().Format("2006-01-02"), "fecha AAAA-MM-DD")
	_ = fs.Parse(args)

	date, err := time.ParseInLocation("2006-01-02", *dateStr, time.Local)
	if err != nil {
		return fmt.Errorf("fecha inválida: %s", *dateStr)
	}

	v := agenda.NewView(a.client, a.logger, m)
	if err := v.Load(ctx, date); err != nil {
		return err
	}
	if err := v.LoadIndicators(ctx, date.Year(), date.Month()); err != nil {
		a.logger.Warn("month indicators unavailable", "error", err)
	}

	turns := v.Bookings()
	if len(turns) == 0 {
		fmt.Printf("Sin turnos para el %s.\n", *dateStr)
	}
	for _, t := range turns {
		action := ""
		switch agenda.ActionFor(t) {
		case agenda.ActionCancel:
			action = " (se puede cancelar)"
		case agenda.ActionComplete:
			action = " (se puede completar)"
		}
		fmt.Printf("#%d %s-%s %s — %s [%s]%s\n",
			t.ID, t.HoraInicio, t.HoraFin, t.Cliente, t.Servicio, t.Status, action)
	}
	if days := v.Indicators(); len(days) > 0 {
		strs := make([]string, len(days))
		for i, d := range days {
			strs[i] = strconv.Itoa(d)
		}
		fmt.Printf("Días con turnos este mes: %s\n", strings.Join(strs, ", "))
	}
	return nil
}

func (a *app) agendaAction(ctx context.Context, args []string, m *metrics.BookingMetrics, action agenda.Action) error {
	fs := flag.NewFlagSet(action.String(), flag.ExitOnError)
	id := fs.Int("id", 0, "id del turno")
	dateStr := fs.String("date", time.Now().Format("2006-01-02"), "fecha AAAA-MM-DD")
	_ = fs.Parse(args)

	date, err := time.ParseInLocation("2006-01-02", *dateStr, time.Local)
	if err != nil {
		return fmt.Errorf("fecha inválida: %s", *dateStr)
	}

	v := agenda.NewView(a.client, a.logger, m)
	if err := v.Load(ctx, date); err != nil {
		return err
	}

	var update agenda.Update
	if action == agenda.ActionCancel {
		update = v.Cancel(ctx, *id)
	} else {
		update = v.Complete(ctx, *id)
	}

	switch update.State {
	case agenda.UpdateConfirmed:
		fmt.Printf("Turno #%d actualizado.\n", *id)
	case agenda.UpdateRolledBack:
		fmt.Println(update.Message)
	}
	return nil
}

func (a *app) availability(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("availability", flag.ExitOnError)
	set := fs.String("set", "", `ventanas "0=09:00-18:00,2=10:00-14:00" (0=lunes)`)
	_ = fs.Parse(args)

	if *set != "" {
		windows, err := parseWindows(*set)
		if err != nil {
			return err
		}
		saved, err := a.client.SaveWeeklyAvailability(ctx, windows)
		if err != nil {
			return err
		}
		fmt.Printf("Disponibilidad guardada: %d ventanas.\n", len(saved))
		return nil
	}

	windows, err := a.client.WeeklyAvailability(ctx)
	if err != nil {
		return err
	}
	dayNames := []string{"Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado", "Domingo"}
	for _, w := range windows {
		name := "?"
		if w.DayOfWeek >= 0 && w.DayOfWeek < len(dayNames) {
			name = dayNames[w.DayOfWeek]
		}
		fmt.Printf("%s %s-%s\n", name, w.StartTime, w.EndTime)
	}
	return nil
}

// parseWindows reads "day=HH:MM-HH:MM" pairs separated by commas, with
// day 0 meaning Monday.
func parseWindows(expr string) ([]turnos.AvailabilityWindow, error) {
	var windows []turnos.AvailabilityWindow
	for _, part := range strings.Split(expr, ",") {
		day, span, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return nil, fmt.Errorf("ventana inválida: %s", part)
		}
		start, end, ok := strings.Cut(span, "-")
		if !ok {
			return nil, fmt.Errorf("ventana inválida: %s", part)
		}
		dow, err := strconv.Atoi(day)
		if err != nil || dow < 0 || dow > 6 {
			return nil, fmt.Errorf("día inválido: %s", day)
		}
		windows = append(windows, turnos.AvailabilityWindow{
			DayOfWeek:   dow,
			StartTime:   start,
			EndTime:     end,
			IsRecurring: true,
		})
	}
	return windows, nil
}

func renderError(err error) string {
	var apiErr *turnos.APIError
	if !errors.As(err, &apiErr) {
		return err.Error()
	}
	switch apiErr.Kind {
	case turnos.KindRejected, turnos.KindNotFound:
		return apiErr.Message
	case turnos.KindAuth:
		return "Sesión inválida o expirada. Iniciá sesión con: turnos login"
	default:
		return "No se pudo conectar con el servidor. Intentá de nuevo."
	}
}
