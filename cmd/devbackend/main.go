package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"course-admin/internal/config"
	"course-admin/internal/devserver"
	"course-admin/internal/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	var (
		addr      = flag.String("addr", ":3000", "listen address")
		uploadDir = flag.String("upload-dir", "uploads", "directory for uploaded images")
		publicURL = flag.String("public-url", "", "base URL for image links (default: derived from request Host)")
		seed      = flag.Bool("seed", false, "start with a sample catalog")
	)
	flag.Parse()

	logger := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: logging.ParseFormat(cfg.LogFormat),
	})
	if logging.ParseLevel(cfg.LogLevel) > logging.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	srv, err := devserver.New(devserver.Config{
		UploadDir: *uploadDir,
		PublicURL: *publicURL,
		Logger:    logger,
	})
	if err != nil {
		log.Fatal(err)
	}
	if *seed {
		srv.Seed(devserver.SampleCatalog()...)
	}

	hs := &http.Server{
		Addr:              *addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("dev backend listening", "addr", *addr, "api", "/api/course")
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
