package server

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mehmetcc/agora/internal/admin"
	"github.com/mehmetcc/agora/internal/auth"
	"github.com/mehmetcc/agora/internal/course"
	"github.com/mehmetcc/agora/internal/gate"
	"github.com/mehmetcc/agora/internal/guard"
	"go.uber.org/zap"
	"moul.io/chizap"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth    auth.AuthenticationHandler
	Courses course.CourseHandler
	Admin   admin.AdminHandler
}

// NewRouter assembles the middleware chain and mounts the API. The gate runs
// after logging/recovery but before any handler, so every request gets a
// pass-or-redirect decision exactly once.
func NewRouter(h Handlers, g guard.Guard, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(chizap.New(logger, &chizap.Opts{
		WithReferer:   true,
		WithUserAgent: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(gate.Middleware(g, logger))

	r.Route("/api", func(r chi.Router) {
		r.Mount("/auth", h.Auth.Routes())
		r.Mount("/courses", h.Courses.Routes())
		r.Mount("/admin", h.Admin.Routes())
	})

	mountPages(r)

	return r
}

// mountPages serves the browser-facing shell. The UI itself is a prebuilt
// bundle; every page route falls back to its index so client-side routing
// works after the gate has had its say.
func mountPages(r chi.Router) {
	staticDir := os.Getenv("STATIC_DIR")
	if staticDir == "" {
		staticDir = "./static"
	}

	fs := http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir)))
	r.Get("/static/*", fs.ServeHTTP)
	r.Get("/favicon.ico", func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, filepath.Join(staticDir, "favicon.ico"))
	})

	index := func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, filepath.Join(staticDir, "index.html"))
	}
	for _, route := range []string{
		gate.RouteLogin,
		gate.RouteRegister,
		gate.RouteHome,
		gate.RouteMyCourses,
		gate.RouteCourse + "/{id}",
		gate.RouteAdmin + "/*",
	} {
		r.Get(route, index)
	}
}
