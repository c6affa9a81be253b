package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/Brownie44l1/waste-api/internal/config"
	"github.com/Brownie44l1/waste-api/internal/handlers"
	"github.com/Brownie44l1/waste-api/internal/model"
	"github.com/Brownie44l1/waste-api/internal/predict"
	"github.com/Brownie44l1/waste-api/internal/upload"
)

var (
	flagConf = flag.String("conf", "conf.yaml", "app config file")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warn("failed to load .env")
	}

	// Get the project root directory
	root, err := os.Getwd()
	if err != nil {
		log.Fatalf("Failed to get working directory: %v", err)
	}

	// If running from cmd/server, go up two levels
	if filepath.Base(root) == "server" {
		root = filepath.Join(root, "../..")
	}

	conf := *flagConf
	if !filepath.IsAbs(conf) {
		conf = filepath.Join(root, conf)
	}
	cfg, err := config.Load(conf)
	if err != nil {
		log.WithError(err).Fatal("failed to load server config")
	}
	cfg.Resolve(root)

	if lv, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lv)
	} else {
		log.SetLevel(log.InfoLevel)
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	log.Infof("Loading model from: %s", cfg.ModelPath)

	artifacts := model.LoadOrDegrade(&model.Loader{
		ModelPath:        cfg.ModelPath,
		ClassMappingPath: cfg.ClassMappingPath,
		ConfigPath:       cfg.ModelConfigPath,
		OnnxRuntimeLib:   cfg.OnnxRuntimeLib,
	})
	defer func() {
		if err := artifacts.Close(); err != nil {
			log.WithError(err).Warn("failed to release model")
		}
	}()

	stager, err := upload.NewStager(cfg.UploadDir)
	if err != nil {
		log.WithError(err).Fatal("failed to prepare upload dir")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go upload.NewSweeper(cfg.UploadDir, cfg.CleanupMaxAge).Run(ctx, cfg.CleanupInterval)

	handler := handlers.NewHandler(predict.NewPipeline(artifacts), stager)
	router := handlers.NewRouter(handler, handlers.RouterOptions{
		MaxUploadBytes: cfg.MaxUploadBytes,
		EnableMetrics:  cfg.EnableMetrics,
	})

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	log.Infof("Server starting on %s", cfg.Addr)
	log.Infof("Model loaded: %t", artifacts.Ready())
	log.Infof("Classes: %v", artifacts.Classes.Labels())
	log.Info("Endpoints:")
	log.Info("  GET  /        - Upload page")
	log.Info("  GET  /health  - Health check")
	log.Info("  POST /predict - Classify an uploaded image (form field 'file')")
	if cfg.EnableMetrics {
		log.Info("  GET  /metrics - Prometheus metrics")
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
