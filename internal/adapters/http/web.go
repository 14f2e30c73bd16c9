package web

import (
	"net/http"
	"time"

	"eventdesk/internal/adapters/broker"
	"eventdesk/internal/adapters/email"
	"eventdesk/internal/adapters/http/middleware"
	"eventdesk/internal/adapters/http/perf"
	attendanceStore "eventdesk/internal/adapters/storage/attendance"
	eventStore "eventdesk/internal/adapters/storage/event"
	pageStore "eventdesk/internal/adapters/storage/page"
	patronStore "eventdesk/internal/adapters/storage/patron"
)

// CSRFFieldName is the form field that carries the anti-forgery token.
const CSRFFieldName = "event_add_meta_form_nonce"

// Request body caps. A check-in token is four short fields; the largest
// form is the walk-in registration.
const (
	maxBodyBytes   = 16 << 10
	maxTokenBytes  = 1 << 10
	maxPatronBytes = 4 << 10
)

var bodyLimits = map[string]int64{
	"/api/v1/checkin": maxTokenBytes,
	"/api/v1/patrons": maxPatronBytes,
}

// Stores holds all storage dependencies.
type Stores struct {
	EventStore      eventStore.Store
	PatronStore     patronStore.Store
	AttendanceStore attendanceStore.Store
	PageStore       pageStore.Store
}

// Services holds the outbound collaborators. Nil senders and publishers are
// replaced with no-op implementations.
type Services struct {
	EmailSender email.Sender
	Publisher   broker.Publisher
	GenerateID  func() string
	Now         func() time.Time
}

// Config holds the HTTP-facing settings.
type Config struct {
	CSRFKey            []byte
	SecureCookies      bool
	TrustedOrigins     []string
	RateLimitPerSecond int
	SlowRequestMs      int
	CheckinTimeout     time.Duration
}

// app carries the dependencies every handler needs. It replaces
// process-wide state so two muxes can coexist in one test binary.
type app struct {
	stores    Stores
	services  Services
	collector *perf.Collector
	renderer  Renderer
}

func newApp(cfg Config, s Stores, svc Services, collector *perf.Collector) *app {
	if svc.EmailSender == nil {
		svc.EmailSender = email.NewNoopSender()
	}
	if svc.Publisher == nil {
		svc.Publisher = broker.NewNoopPublisher()
	}
	if svc.GenerateID == nil {
		svc.GenerateID = generateID
	}
	if svc.Now == nil {
		svc.Now = time.Now
	}
	return &app{
		stores:    s,
		services:  svc,
		collector: collector,
		renderer: Renderer{
			Events:     s.EventStore,
			Patrons:    s.PatronStore,
			Attendance: s.AttendanceStore,
			TimeoutMs:  int(cfg.CheckinTimeout / time.Millisecond),
		},
	}
}

func (a *app) registerRoutes(mux *http.ServeMux) {
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticAssets())))
	mux.HandleFunc("GET /{$}", a.handleRoot)
	mux.HandleFunc("GET /admin", a.handleAdmin)
	mux.HandleFunc("GET /{slug}", a.handlePage)
	mux.HandleFunc("POST /admin-post", a.handleAdminPost)
	mux.HandleFunc("POST /api/v1/checkin", a.handleCheckin)
	mux.HandleFunc("POST /api/v1/patrons", a.handleRegisterPatron)
}

// NewMux wires HTTP handlers for the app.
func NewMux(cfg Config, s Stores, svc Services, collector *perf.Collector) http.Handler {
	a := newApp(cfg, s, svc, collector)

	mux := http.NewServeMux()
	a.registerRoutes(mux)

	rate := cfg.RateLimitPerSecond
	if rate <= 0 {
		rate = 10
	}
	// Rate limiter: configurable requests per second per IP (OWASP A04)
	limiter := middleware.NewRateLimiter(rate, time.Second)

	// Apply middleware: RequestID -> Timing -> RateLimit -> BodyLimit -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(middleware.CSRFOptions{
			Key:            cfg.CSRFKey,
			FieldName:      CSRFFieldName,
			Secure:         cfg.SecureCookies,
			TrustedOrigins: cfg.TrustedOrigins,
			ErrorHandler:   http.HandlerFunc(handleCSRFFailure),
		}),
		middleware.BodyLimit(maxBodyBytes, bodyLimits),
		middleware.RateLimit(limiter),
		middleware.Timing(collector, cfg.SlowRequestMs),
		middleware.RequestID,
	)
}
