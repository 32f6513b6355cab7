package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Znbmels/keremet/internal/http/handlers"
	httpmiddleware "github.com/Znbmels/keremet/internal/http/middleware"
	"github.com/Znbmels/keremet/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Auth               *handlers.AuthHandler
	Directory          *handlers.DirectoryHandler
	Booking            *handlers.BookingHandler
	Schedule           *handlers.ScheduleHandler
	Dashboard          *handlers.DashboardHandler
	Ratings            *handlers.RatingsHandler
	Records            *handlers.RecordsHandler
	Profile            *handlers.ProfileHandler
	Events             http.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	if cfg.Events != nil {
		r.Handle("/ws/events", cfg.Events)
	}

	r.Route("/auth", func(auth chi.Router) {
		auth.Post("/login", cfg.Auth.Login)
		auth.Post("/logout", cfg.Auth.Logout)
		auth.Post("/register", cfg.Auth.Register)
		auth.Get("/session", cfg.Auth.Session)
	})

	r.Route("/doctors", func(doctors chi.Router) {
		doctors.Get("/", cfg.Directory.ListDoctors)
		doctors.Get("/specialties", cfg.Directory.ListSpecialties)
		doctors.Get("/{doctorID}", cfg.Directory.GetDoctor)
		doctors.Get("/{doctorID}/rating", cfg.Directory.GetDoctorRating)
	})

	r.Route("/booking", func(booking chi.Router) {
		booking.Get("/", cfg.Booking.GetState)
		booking.Post("/start", cfg.Booking.Start)
		booking.Post("/doctor", cfg.Booking.SelectDoctor)
		booking.Get("/slots", cfg.Booking.ListSlots)
		booking.Post("/slots/refresh", cfg.Booking.RefreshSlots)
		booking.Post("/slot", cfg.Booking.SelectSlot)
		booking.Post("/confirm", cfg.Booking.Confirm)
		booking.Post("/back", cfg.Booking.Back)
	})

	r.Route("/schedule", func(sched chi.Router) {
		sched.Get("/slots", cfg.Schedule.ListSlots)
		sched.Post("/slots", cfg.Schedule.CreateSlot)
		sched.Delete("/slots/{slotID}", cfg.Schedule.DeleteSlot)
		sched.Patch("/appointments/{appointmentID}", cfg.Schedule.UpdateAppointment)
		sched.Get("/appointments/{appointmentID}/transitions", cfg.Schedule.ListTransitions)
	})

	r.Route("/dashboard", func(dash chi.Router) {
		dash.Get("/upcoming", cfg.Dashboard.Upcoming)
		dash.Get("/history", cfg.Dashboard.History)
	})

	r.Route("/ratings", func(ratings chi.Router) {
		ratings.Get("/", cfg.Ratings.List)
		ratings.Post("/", cfg.Ratings.Submit)
	})

	r.Route("/records", func(records chi.Router) {
		records.Get("/", cfg.Records.ListRecords)
		records.Post("/", cfg.Records.CreateRecord)
	})
	r.Route("/analyses", func(analyses chi.Router) {
		analyses.Get("/", cfg.Records.ListAnalyses)
		analyses.Post("/", cfg.Records.CreateAnalysis)
	})

	r.Route("/profile", func(profile chi.Router) {
		profile.Get("/", cfg.Profile.Get)
		profile.Put("/", cfg.Profile.Update)
	})

	return r
}
