package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nikgitofficial/timetracker-sub001/internal/config"
	"github.com/nikgitofficial/timetracker-sub001/internal/domain/attendance"
	appHTTP "github.com/nikgitofficial/timetracker-sub001/internal/handler/http"
	"github.com/nikgitofficial/timetracker-sub001/internal/pkg/database"
	"github.com/nikgitofficial/timetracker-sub001/internal/pkg/jwt"
	"github.com/nikgitofficial/timetracker-sub001/internal/pkg/sse"
	"github.com/nikgitofficial/timetracker-sub001/internal/pkg/storage"
	"github.com/nikgitofficial/timetracker-sub001/internal/repository/memory"
	"github.com/nikgitofficial/timetracker-sub001/internal/repository/postgresql"
	attendanceService "github.com/nikgitofficial/timetracker-sub001/internal/service/attendance"
	"github.com/nikgitofficial/timetracker-sub001/internal/service/file"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	var (
		recordRepo   attendance.RecordRepository
		evidenceRepo attendance.EvidenceRepository
	)
	switch cfg.Attendance.Backend {
	case config.BackendPostgres:
		db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
		if err != nil {
			fmt.Println("Error connecting to database:", err)
			return
		}
		defer db.Close()

		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = db.Migrate(migrateCtx)
		cancel()
		if err != nil {
			slog.Error("Failed to apply attendance schema", "error", err)
			return
		}

		recordRepo = postgresql.NewAttendanceRepository(db)
		evidenceRepo = postgresql.NewEvidenceRepository(db)
	case config.BackendMemory:
		store := memory.NewStore()
		recordRepo = store
		evidenceRepo = store
	}

	var fileStorage storage.FileStorage
	switch cfg.Storage.Type {
	case "local":
		fileStorage, err = storage.NewLocalStorage(
			cfg.Storage.BasePath,
			cfg.Storage.BaseURL,
		)
		if err != nil {
			slog.Error("Failed to initialize local storage", "error", err)
			return
		}
	default:
		slog.Error("Unsupported storage type", "type", cfg.Storage.Type)
		return
	}

	hub := sse.NewHub(sse.DefaultBufferSize)
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	fileService := file.NewFileService(fileStorage)
	attendanceSvc := attendanceService.NewAttendanceService(
		recordRepo,
		evidenceRepo,
		hub,
		nil,
		cfg.Attendance.StorageTimeout,
	)

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc, fileService, hub)

	router := appHTTP.NewRouter(JWTService, attendanceHandler, appHTTP.RouterOptions{
		Env:             cfg.App.Env,
		LogLevel:        cfg.SlogLevel(),
		AllowedOrigins:  cfg.App.AllowedOrigins,
		StorageBasePath: cfg.Storage.BasePath,
	})

	srv := appHTTP.NewServer(fmt.Sprintf(":%d", cfg.App.Port), router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Server running", "addr", "http://localhost"+srv.Addr, "backend", cfg.Attendance.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}
