package http

import (
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/nikgitofficial/timetracker-sub001/internal/handler/http/middleware"
	"github.com/nikgitofficial/timetracker-sub001/internal/pkg/jwt"
)

// RouterOptions carries the deployment settings the router needs
type RouterOptions struct {
	Env             string
	LogLevel        slog.Level
	AllowedOrigins  []string
	StorageBasePath string
}

func NewRouter(JWTService jwt.Service, attendanceHandler AttendanceHandler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(opts.Env != "development")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "timetracker"),
		slog.String("version", "v1.0.0"),
		slog.String("env", opts.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
		// Stream connections stay open for minutes; logging them on close is noise.
		Skip: func(req *http.Request, respStatus int) bool {
			return strings.HasSuffix(req.URL.Path, "/stream")
		},
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	if opts.StorageBasePath != "" {
		fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(opts.StorageBasePath)))
		r.Get("/uploads/*", fs.ServeHTTP)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			// EventSource cannot set headers, so the stream also accepts ?jwt=
			r.Use(jwtauth.Verify(JWTService.JWTAuth(), jwtauth.TokenFromHeader, jwtauth.TokenFromQuery))
			r.Use(middleware.AuthRequired)

			r.Route("/attendance", func(r chi.Router) {
				r.Get("/", attendanceHandler.Get)
				r.Get("/stream", attendanceHandler.Stream)

				r.Group(func(r chi.Router) {
					r.Use(chiMiddleware.AllowContentType("application/json"))
					r.Post("/punch", attendanceHandler.Punch)
					r.Post("/evidence", attendanceHandler.AttachEvidence)
				})

				r.With(chiMiddleware.AllowContentType("multipart/form-data")).Post("/evidence/upload", attendanceHandler.UploadEvidence)
			})
		})
	})
	return r
}
