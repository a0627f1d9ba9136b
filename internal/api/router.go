package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	apimiddleware "github.com/phrazzld/hotel-ops-api/internal/api/middleware"
	"github.com/phrazzld/hotel-ops-api/internal/service"
	"github.com/phrazzld/hotel-ops-api/internal/service/auth"
)

// RouterDeps carries everything NewRouter wires into handlers.
type RouterDeps struct {
	Tasks    service.TaskService
	Requests service.GuestRequestService
	Tokens   auth.TokenService
	Logger   *slog.Logger

	// Ready reports readiness for /health; nil means always ready.
	Ready func() error
}

// NewRouter builds the HTTP handler: /health is public, everything under
// /api requires a bearer token.
func NewRouter(deps RouterDeps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.NewTraceMiddleware(log))

	tasks := NewTaskHandler(deps.Tasks, log)
	requests := NewGuestRequestHandler(deps.Requests, log)
	authMiddleware := apimiddleware.NewAuthMiddleware(deps.Tokens)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", tasks.CreateTask)
			r.Get("/", tasks.ListTasks)
			r.Get("/{id}", tasks.GetTask)
			r.Patch("/{id}", tasks.UpdateTask)
			r.Delete("/{id}", tasks.DeleteTask)
			r.Post("/{id}/status", tasks.ChangeStatus)
			r.Post("/{id}/assign", tasks.AssignTask)
			r.Post("/{id}/handoff", tasks.HandoffTask)
		})

		r.Route("/guest-requests", func(r chi.Router) {
			r.Post("/", requests.SubmitRequest)
			r.Get("/", requests.ListRequests)
			r.Get("/{id}", requests.GetRequest)
			r.Patch("/{id}/status", requests.UpdateStatus)
			r.Post("/{id}/feedback", requests.SubmitFeedback)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if deps.Ready != nil {
			if err := deps.Ready(); err != nil {
				log.Warn("health check failed", slog.String("error", err.Error()))
				http.Error(w, "UNAVAILABLE", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
