// Package config assembles a simpleasset.Service from declarative server
// configuration.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-asset/pkg/simpleasset"
	catalogmemory "github.com/tendant/simple-asset/pkg/simpleasset/catalog/memory"
	catalogpg "github.com/tendant/simple-asset/pkg/simpleasset/catalog/postgres"
	"github.com/tendant/simple-asset/pkg/simpleasset/naming"
	"github.com/tendant/simple-asset/pkg/simpleasset/preview"
	fsstorage "github.com/tendant/simple-asset/pkg/simpleasset/storage/fs"
	memorystorage "github.com/tendant/simple-asset/pkg/simpleasset/storage/memory"
	s3storage "github.com/tendant/simple-asset/pkg/simpleasset/storage/s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of
// library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:        "8080",
		Environment: "development",
		CatalogType: "memory",
		StorageType: "memory",
		Naming:      "default",
		Preview: PreviewConfig{
			MaxWidth:    1600,
			MaxHeight:   1600,
			JPEGQuality: 85,
		},
		PresignExpirySeconds: 300,
		MaxContentLength:     10524288,
		EnableEventLogging:   true,
	}
}

// ServerConfig represents server configuration for the simple-asset service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Catalog configuration
	CatalogType string // "memory", "postgres"
	DatabaseURL string

	// Storage configuration
	StorageType string // "memory", "fs", "s3"
	FS          FSConfig
	S3          S3Config

	// Naming strategy: "default" (incrementing counter) or "hashed"
	Naming string

	// Preview generation bounds
	Preview PreviewConfig

	// Direct-upload credential constraints
	PresignExpirySeconds int
	MaxContentLength     int64

	// Optional MIME allow-list; empty means the guard is disabled and
	// unrecognized types ingest as BINARY
	PermittedFileTypes []string

	EnableEventLogging bool
}

// FSConfig configures the filesystem blob store
type FSConfig struct {
	BaseDir string
}

// S3Config configures the S3 blob store and credential issuer
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	UsePathStyle    bool
}

// PreviewConfig configures the preview generator
type PreviewConfig struct {
	MaxWidth    int
	MaxHeight   int
	JPEGQuality int
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.CatalogType {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("database_url is required when using postgres")
		}
	default:
		return errors.New("catalog_type must be 'memory' or 'postgres'")
	}

	switch c.StorageType {
	case "memory":
	case "fs":
		if c.FS.BaseDir == "" {
			return errors.New("fs base dir is required when using fs storage")
		}
	case "s3":
		if c.S3.Bucket == "" {
			return errors.New("s3 bucket is required when using s3 storage")
		}
	default:
		return errors.New("storage_type must be 'memory', 'fs' or 's3'")
	}

	if c.Naming != "default" && c.Naming != "hashed" {
		return errors.New("naming must be 'default' or 'hashed'")
	}

	return nil
}

// BuildService creates a Service instance from the server configuration.
// Direct uploads are only available with the s3 storage type; other storage
// types build a service without a credential issuer.
func (c *ServerConfig) BuildService(logger *slog.Logger) (simpleasset.Service, error) {
	options := []simpleasset.Option{
		simpleasset.WithPreviewGenerator(preview.NewImageGenerator(preview.Config{
			MaxWidth:    c.Preview.MaxWidth,
			MaxHeight:   c.Preview.MaxHeight,
			JPEGQuality: c.Preview.JPEGQuality,
		})),
	}

	if logger != nil {
		options = append(options, simpleasset.WithLogger(logger))
	}

	switch c.StorageType {
	case "memory":
		options = append(options, simpleasset.WithBlobStore(memorystorage.New()))
	case "fs":
		store, err := fsstorage.New(fsstorage.Config{BaseDir: c.FS.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("failed to create fs storage: %w", err)
		}
		options = append(options, simpleasset.WithBlobStore(store))
	case "s3":
		store, err := s3storage.New(s3storage.Config{
			Region:               c.S3.Region,
			Bucket:               c.S3.Bucket,
			AccessKeyID:          c.S3.AccessKeyID,
			SecretAccessKey:      c.S3.SecretAccessKey,
			Endpoint:             c.S3.Endpoint,
			UsePathStyle:         c.S3.UsePathStyle,
			PresignExpirySeconds: c.PresignExpirySeconds,
			MaxContentLength:     c.MaxContentLength,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 storage: %w", err)
		}
		options = append(options,
			simpleasset.WithBlobStore(store),
			simpleasset.WithCredentialIssuer(store))
	}

	switch c.CatalogType {
	case "memory":
		options = append(options, simpleasset.WithCatalog(catalogmemory.New()))
	case "postgres":
		pool, err := pgxpool.New(context.Background(), c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create database pool: %w", err)
		}
		options = append(options, simpleasset.WithCatalog(catalogpg.NewWithPool(pool)))
	}

	if c.Naming == "hashed" {
		options = append(options, simpleasset.WithNamingStrategy(naming.NewHashedStrategy()))
	}

	if len(c.PermittedFileTypes) > 0 {
		options = append(options, simpleasset.WithPermittedTypes(
			simpleasset.NewPermittedTypes(c.PermittedFileTypes)))
	}

	if c.EnableEventLogging {
		options = append(options, simpleasset.WithEventSink(simpleasset.NewLoggingEventSink(logger)))
	}

	return simpleasset.New(options...)
}
