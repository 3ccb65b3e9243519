package main

import (
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/simple-asset/pkg/simpleasset/api"
	"github.com/tendant/simple-asset/pkg/simpleasset/config"
)

type EnvConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`

	CatalogType string `env:"CATALOG_TYPE" env-default:"memory"`
	DatabaseURL string `env:"DATABASE_URL" env-default:""`

	StorageType string `env:"STORAGE_TYPE" env-default:"memory"`
	FSBaseDir   string `env:"FS_BASE_DIR" env-default:""`

	S3Region          string `env:"AWS_S3_REGION" env-default:"us-east-1"`
	S3Bucket          string `env:"AWS_S3_BUCKET" env-default:""`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" env-default:""`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" env-default:""`
	S3Endpoint        string `env:"AWS_S3_ENDPOINT" env-default:""`
	S3UsePathStyle    bool   `env:"AWS_S3_USE_PATH_STYLE" env-default:"false"`

	Naming               string `env:"NAMING_STRATEGY" env-default:"default"`
	PresignExpirySeconds int    `env:"PRESIGN_EXPIRY_SECONDS" env-default:"300"`
	MaxContentLength     int64  `env:"MAX_CONTENT_LENGTH" env-default:"10524288"`
	PermittedFileTypes   string `env:"PERMITTED_FILE_TYPES" env-default:""`
	EnableEventLogging   bool   `env:"ENABLE_EVENT_LOGGING" env-default:"true"`
}

// apply maps the flat environment into the library's ServerConfig.
func (e EnvConfig) apply(c *config.ServerConfig) error {
	c.Port = e.Port
	c.Environment = e.Environment
	c.CatalogType = e.CatalogType
	c.DatabaseURL = e.DatabaseURL
	c.StorageType = e.StorageType
	c.FS.BaseDir = e.FSBaseDir
	c.S3 = config.S3Config{
		Region:          e.S3Region,
		Bucket:          e.S3Bucket,
		AccessKeyID:     e.S3AccessKeyID,
		SecretAccessKey: e.S3SecretAccessKey,
		Endpoint:        e.S3Endpoint,
		UsePathStyle:    e.S3UsePathStyle,
	}
	c.Naming = e.Naming
	c.PresignExpirySeconds = e.PresignExpirySeconds
	c.MaxContentLength = e.MaxContentLength
	c.EnableEventLogging = e.EnableEventLogging
	for _, t := range strings.Split(e.PermittedFileTypes, ",") {
		if t = strings.TrimSpace(t); t != "" {
			c.PermittedFileTypes = append(c.PermittedFileTypes, t)
		}
	}
	return nil
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	var env EnvConfig
	if err := cleanenv.ReadEnv(&env); err != nil {
		logger.Error("failed to read configuration", "err", err)
		os.Exit(1)
	}

	cfg, err := config.Load(env.apply)
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	svc, err := cfg.BuildService(logger)
	if err != nil {
		logger.Error("failed to build service", "err", err)
		os.Exit(1)
	}

	handler := api.NewHandler(svc, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Mount("/api/v1", handler.Routes())

	logger.Info("starting simple-asset server",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"storage", cfg.StorageType,
		"catalog", cfg.CatalogType)

	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
