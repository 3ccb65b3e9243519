// Package postgres provides a PostgreSQL-backed catalog.
//
// Expected schema:
//
//	CREATE TABLE asset (
//	    id            UUID PRIMARY KEY,
//	    channel_id    UUID NOT NULL,
//	    type          TEXT NOT NULL,
//	    mime_type     TEXT NOT NULL,
//	    name          TEXT NOT NULL,
//	    file_size     BIGINT NOT NULL,
//	    source        TEXT NOT NULL UNIQUE,
//	    preview       TEXT NOT NULL UNIQUE,
//	    width         INT NOT NULL DEFAULT 0,
//	    height        INT NOT NULL DEFAULT 0,
//	    focal_point   JSONB,
//	    custom_fields JSONB,
//	    created_at    TIMESTAMPTZ NOT NULL,
//	    updated_at    TIMESTAMPTZ NOT NULL
//	);
//
//	CREATE TABLE tag (
//	    id    UUID PRIMARY KEY,
//	    value TEXT NOT NULL UNIQUE
//	);
//
//	CREATE TABLE asset_tag (
//	    asset_id UUID NOT NULL REFERENCES asset(id) ON DELETE CASCADE,
//	    tag_id   UUID NOT NULL REFERENCES tag(id) ON DELETE CASCADE,
//	    PRIMARY KEY (asset_id, tag_id)
//	);
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-asset/pkg/simpleasset"
)

// DBTX is an interface that allows us to use either a connection pool or a
// transaction.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Catalog implements simpleasset.Catalog using PostgreSQL
type Catalog struct {
	pool *pgxpool.Pool
	db   DBTX
}

// NewWithPool creates a new PostgreSQL catalog with a connection pool
func NewWithPool(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool, db: pool}
}

// handlePostgresError maps low-level pgx errors onto catalog errors
func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("duplicate entry in %s: %s", operation, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return fmt.Errorf("referenced record not found in %s", operation)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return simpleasset.ErrAssetNotFound
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

// SaveAsset persists the asset, assigning ID on first save
func (c *Catalog) SaveAsset(ctx context.Context, asset *simpleasset.Asset) (*simpleasset.Asset, error) {
	return saveAsset(ctx, c.db, asset)
}

// TagsForValues resolves tag values to references, creating unseen values
func (c *Catalog) TagsForValues(ctx context.Context, values []string) ([]simpleasset.Tag, error) {
	return tagsForValues(ctx, c.db, values)
}

// UpdateCustomFields attaches custom fields to a persisted asset
func (c *Catalog) UpdateCustomFields(ctx context.Context, assetID uuid.UUID, fields map[string]interface{}) error {
	return updateCustomFields(ctx, c.db, assetID, fields)
}

// BeginTx opens a database transaction scoped catalog
func (c *Catalog) BeginTx(ctx context.Context) (simpleasset.CatalogTx, error) {
	if c.pool == nil {
		return nil, errors.New("catalog was not created with a connection pool")
	}
	pgtx, err := c.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &tx{tx: pgtx}, nil
}

// tx wraps a pgx transaction as a simpleasset.CatalogTx
type tx struct {
	tx pgx.Tx
}

func (t *tx) SaveAsset(ctx context.Context, asset *simpleasset.Asset) (*simpleasset.Asset, error) {
	return saveAsset(ctx, t.tx, asset)
}

func (t *tx) TagsForValues(ctx context.Context, values []string) ([]simpleasset.Tag, error) {
	return tagsForValues(ctx, t.tx, values)
}

func (t *tx) UpdateCustomFields(ctx context.Context, assetID uuid.UUID, fields map[string]interface{}) error {
	return updateCustomFields(ctx, t.tx, assetID, fields)
}

func (t *tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *tx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

func saveAsset(ctx context.Context, db DBTX, asset *simpleasset.Asset) (*simpleasset.Asset, error) {
	saved := *asset

	if saved.ID == uuid.Nil {
		saved.ID = uuid.New()

		query := `
			INSERT INTO asset (
				id, channel_id, type, mime_type, name, file_size,
				source, preview, width, height, focal_point, custom_fields,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

		_, err := db.Exec(ctx, query,
			saved.ID, saved.ChannelID, string(saved.Type), saved.MimeType,
			saved.Name, saved.FileSize, saved.Source, saved.Preview,
			saved.Width, saved.Height, saved.FocalPoint, saved.CustomFields,
			saved.CreatedAt, saved.UpdatedAt)
		if err != nil {
			return nil, handlePostgresError("create asset", err)
		}
	} else {
		saved.UpdatedAt = time.Now().UTC()

		query := `
			UPDATE asset SET
				mime_type = $2, name = $3, file_size = $4, width = $5,
				height = $6, focal_point = $7, custom_fields = $8, updated_at = $9
			WHERE id = $1`

		tag, err := db.Exec(ctx, query,
			saved.ID, saved.MimeType, saved.Name, saved.FileSize,
			saved.Width, saved.Height, saved.FocalPoint, saved.CustomFields,
			saved.UpdatedAt)
		if err != nil {
			return nil, handlePostgresError("update asset", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, simpleasset.ErrAssetNotFound
		}
	}

	if err := replaceAssetTags(ctx, db, saved.ID, saved.Tags); err != nil {
		return nil, err
	}

	return &saved, nil
}

func replaceAssetTags(ctx context.Context, db DBTX, assetID uuid.UUID, tags []simpleasset.Tag) error {
	if len(tags) == 0 {
		return nil
	}

	if _, err := db.Exec(ctx, `DELETE FROM asset_tag WHERE asset_id = $1`, assetID); err != nil {
		return handlePostgresError("replace asset tags", err)
	}
	for _, tag := range tags {
		_, err := db.Exec(ctx,
			`INSERT INTO asset_tag (asset_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			assetID, tag.ID)
		if err != nil {
			return handlePostgresError("attach asset tag", err)
		}
	}
	return nil
}

func tagsForValues(ctx context.Context, db DBTX, values []string) ([]simpleasset.Tag, error) {
	tags := make([]simpleasset.Tag, 0, len(values))
	for _, value := range values {
		var tag simpleasset.Tag

		// Create-on-demand keyed by value; the returning clause covers both
		// the fresh-insert and already-exists cases in one round trip.
		query := `
			INSERT INTO tag (id, value) VALUES ($1, $2)
			ON CONFLICT (value) DO UPDATE SET value = EXCLUDED.value
			RETURNING id, value`

		err := db.QueryRow(ctx, query, uuid.New(), value).Scan(&tag.ID, &tag.Value)
		if err != nil {
			return nil, handlePostgresError("resolve tag", err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func updateCustomFields(ctx context.Context, db DBTX, assetID uuid.UUID, fields map[string]interface{}) error {
	tag, err := db.Exec(ctx,
		`UPDATE asset SET custom_fields = COALESCE(custom_fields, '{}'::jsonb) || $2, updated_at = $3 WHERE id = $1`,
		assetID, fields, time.Now().UTC())
	if err != nil {
		return handlePostgresError("update custom fields", err)
	}
	if tag.RowsAffected() == 0 {
		return simpleasset.ErrAssetNotFound
	}
	return nil
}

// GetAsset returns the persisted asset with the given id, tags included
func (c *Catalog) GetAsset(ctx context.Context, id uuid.UUID) (*simpleasset.Asset, error) {
	query := `
		SELECT id, channel_id, type, mime_type, name, file_size,
		       source, preview, width, height, focal_point, custom_fields,
		       created_at, updated_at
		FROM asset WHERE id = $1`

	var asset simpleasset.Asset
	var assetType string
	err := c.db.QueryRow(ctx, query, id).Scan(
		&asset.ID, &asset.ChannelID, &assetType, &asset.MimeType,
		&asset.Name, &asset.FileSize, &asset.Source, &asset.Preview,
		&asset.Width, &asset.Height, &asset.FocalPoint, &asset.CustomFields,
		&asset.CreatedAt, &asset.UpdatedAt)
	if err != nil {
		return nil, handlePostgresError("get asset", err)
	}
	asset.Type = simpleasset.AssetType(assetType)

	rows, err := c.db.Query(ctx, `
		SELECT t.id, t.value FROM tag t
		JOIN asset_tag at ON at.tag_id = t.id
		WHERE at.asset_id = $1
		ORDER BY t.value`, id)
	if err != nil {
		return nil, handlePostgresError("get asset tags", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tag simpleasset.Tag
		if err := rows.Scan(&tag.ID, &tag.Value); err != nil {
			return nil, handlePostgresError("scan asset tag", err)
		}
		asset.Tags = append(asset.Tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgresError("get asset tags", err)
	}

	return &asset, nil
}
