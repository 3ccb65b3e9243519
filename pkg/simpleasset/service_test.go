package simpleasset_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-asset/pkg/simpleasset"
	memorycatalog "github.com/tendant/simple-asset/pkg/simpleasset/catalog/memory"
	memorystorage "github.com/tendant/simple-asset/pkg/simpleasset/storage/memory"
)

// stubPreviewer returns fixed preview bytes, or fails on a designated
// source MIME type.
type stubPreviewer struct {
	preview  []byte
	failMime string
}

func (p *stubPreviewer) GeneratePreviewImage(ctx context.Context, mimeType string, data []byte) ([]byte, error) {
	if p.failMime != "" && mimeType == p.failMime {
		return nil, errors.New("preview pipeline exhausted")
	}
	return p.preview, nil
}

// recordingSink records every published creation event
type recordingSink struct {
	assets   []*simpleasset.Asset
	payloads []simpleasset.IngestionRequest
}

func (s *recordingSink) AssetCreated(ctx context.Context, asset *simpleasset.Asset, payload simpleasset.IngestionRequest) error {
	s.assets = append(s.assets, asset)
	s.payloads = append(s.payloads, payload)
	return nil
}

// stubIssuer returns a canned credential for the resolved key
type stubIssuer struct {
	lastKey string
}

func (i *stubIssuer) CreatePresignedPost(ctx context.Context, key string) (*simpleasset.PresignedCredential, error) {
	i.lastKey = key
	return &simpleasset.PresignedCredential{
		URL:    "https://bucket.example.com",
		Fields: map[string]string{"key": key},
	}, nil
}

type testEnv struct {
	store   *memorystorage.Store
	catalog *memorycatalog.Catalog
	sink    *recordingSink
	issuer  *stubIssuer
	service simpleasset.Service
}

func setupTestService(t *testing.T, extra ...simpleasset.Option) *testEnv {
	t.Helper()

	env := &testEnv{
		store:   memorystorage.New(),
		catalog: memorycatalog.New(),
		sink:    &recordingSink{},
		issuer:  &stubIssuer{},
	}

	options := []simpleasset.Option{
		simpleasset.WithBlobStore(env.store),
		simpleasset.WithCatalog(env.catalog),
		simpleasset.WithPreviewGenerator(&stubPreviewer{preview: []byte("preview-bytes")}),
		simpleasset.WithCredentialIssuer(env.issuer),
		simpleasset.WithEventSink(env.sink),
	}
	options = append(options, extra...)

	svc, err := simpleasset.New(options...)
	require.NoError(t, err)
	env.service = svc
	return env
}

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func (e *testEnv) upload(t *testing.T, key string, data []byte) {
	t.Helper()
	_, err := e.store.WriteFileFromBuffer(context.Background(), key, data)
	require.NoError(t, err)
}

func TestIngestBatchSingleImage(t *testing.T) {
	ctx := context.Background()
	env := setupTestService(t)

	source := testPNG(t, 800, 600)
	env.upload(t, "cat.png", source)

	results, err := env.service.IngestBatch(ctx, simpleasset.IngestBatchRequest{
		Inputs: []simpleasset.IngestionRequest{{Filename: "cat.png"}},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Nil(t, results[0].Err)

	asset := results[0].Asset
	require.NotNil(t, asset)
	assert.NotEqual(t, uuid.Nil, asset.ID)
	assert.Equal(t, simpleasset.AssetTypeImage, asset.Type)
	assert.Equal(t, "image/png", asset.MimeType)
	assert.Equal(t, "cat.png", asset.Name)
	assert.Equal(t, "cat.png", asset.Source)
	assert.Equal(t, "cat__preview.png", asset.Preview)
	assert.Equal(t, int64(len(source)), asset.FileSize)
	assert.Equal(t, 800, asset.Width)
	assert.Equal(t, 600, asset.Height)
	assert.Nil(t, asset.FocalPoint)

	exists, err := env.store.FileExists(ctx, "cat__preview.png")
	require.NoError(t, err)
	assert.True(t, exists)

	persisted, err := env.catalog.GetAsset(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, asset.ID, persisted.ID)
}

func TestIngestBatchOrderAndAlignment(t *testing.T) {
	ctx := context.Background()
	env := setupTestService(t)

	names := []string{"a.png", "b.pdf", "c.png"}
	for _, name := range names {
		env.upload(t, name, testPNG(t, 4, 4))
	}

	inputs := make([]simpleasset.IngestionRequest, 0, len(names))
	for _, name := range names {
		inputs = append(inputs, simpleasset.IngestionRequest{Filename: name})
	}

	results, err := env.service.IngestBatch(ctx, simpleasset.IngestBatchRequest{Inputs: inputs})
	require.NoError(t, err)
	require.Len(t, results, len(names))

	for i, name := range names {
		require.NotNil(t, results[i].Asset, "result %d", i)
		assert.Equal(t, name, results[i].Asset.Source, "result %d must align with input %d", i, i)
	}

	// identity assignment order mirrors input order
	persisted, err := env.catalog.ListAssets(ctx)
	require.NoError(t, err)
	require.Len(t, persisted, len(names))
	for i, name := range names {
		assert.Equal(t, name, persisted[i].Source)
	}
}

func TestIngestBatchMimeTypeGuard(t *testing.T) {
	ctx := context.Background()
	env := setupTestService(t,
		simpleasset.WithPermittedTypes(simpleasset.NewPermittedTypes([]string{"image/*"})))

	env.upload(t, "logo.png", testPNG(t, 4, 4))
	env.upload(t, "payload.exe", []byte("MZ"))
	env.upload(t, "photo.jpg", testPNG(t, 4, 4))

	results, err := env.service.IngestBatch(ctx, simpleasset.IngestBatchRequest{
		Inputs: []simpleasset.IngestionRequest{
			{Filename: "logo.png"},
			{Filename: "payload.exe"},
			{Filename: "photo.jpg"},
		},
	})
	require.NoError(t, err, "a MIME rejection must not abort the batch")
	require.Len(t, results, 3)

	assert.NotNil(t, results[0].Asset)
	assert.Nil(t, results[0].Err)

	require.NotNil(t, results[1].Err)
	assert.Nil(t, results[1].Asset)
	assert.Equal(t, "payload.exe", results[1].Err.Filename)
	assert.Contains(t, results[1].Err.Error(), results[1].Err.MimeType)

	assert.NotNil(t, results[2].Asset)

	// only the accepted items reach the catalog
	persisted, err := env.catalog.ListAssets(ctx)
	require.NoError(t, err)
	assert.Len(t, persisted, 2)
}

func TestIngestBatchFatalFaultRollsBackBatch(t *testing.T) {
	ctx := context.Background()
	env := setupTestService(t,
		simpleasset.WithPreviewGenerator(&stubPreviewer{
			preview:  []byte("preview-bytes"),
			failMime: "application/pdf",
		}))

	env.upload(t, "one.png", testPNG(t, 4, 4))
	env.upload(t, "two.pdf", []byte("%PDF-1.4"))
	env.upload(t, "three.png", testPNG(t, 4, 4))

	results, err := env.service.IngestBatch(ctx, simpleasset.IngestBatchRequest{
		Inputs: []simpleasset.IngestionRequest{
			{Filename: "one.png"},
			{Filename: "two.pdf"},
			{Filename: "three.png"},
		},
	})
	require.Error(t, err)
	assert.Nil(t, results)

	var assetErr *simpleasset.AssetError
	require.ErrorAs(t, err, &assetErr)
	assert.Equal(t, "two.pdf", assetErr.Filename)
	assert.Equal(t, "preview", assetErr.Op)

	// nothing from the batch survives, including the item before the fault
	persisted, listErr := env.catalog.ListAssets(ctx)
	require.NoError(t, listErr)
	assert.Empty(t, persisted)

	// no events for an aborted batch
	assert.Empty(t, env.sink.assets)
}

func TestIngestBatchDegradedDimensions(t *testing.T) {
	ctx := context.Background()
	env := setupTestService(t)

	// BINARY asset whose stub preview is not decodable: dimensions degrade
	// to zero values instead of failing the item
	env.upload(t, "report.pdf", []byte("%PDF-1.4"))

	results, err := env.service.IngestBatch(ctx, simpleasset.IngestBatchRequest{
		Inputs: []simpleasset.IngestionRequest{{Filename: "report.pdf"}},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	asset := results[0].Asset
	require.NotNil(t, asset)
	assert.Equal(t, simpleasset.AssetTypeBinary, asset.Type)
	assert.Equal(t, 0, asset.Width)
	assert.Equal(t, 0, asset.Height)
}

func TestIngestBatchTagResolution(t *testing.T) {
	ctx := context.Background()
	env := setupTestService(t)

	env.upload(t, "first.png", testPNG(t, 4, 4))
	env.upload(t, "second.png", testPNG(t, 4, 4))

	results, err := env.service.IngestBatch(ctx, simpleasset.IngestBatchRequest{
		Inputs: []simpleasset.IngestionRequest{
			{Filename: "first.png", Tags: []string{"summer", "featured"}},
			{Filename: "second.png", Tags: []string{"featured"}},
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	first := results[0].Asset
	second := results[1].Asset
	require.Len(t, first.Tags, 2)
	require.Len(t, second.Tags, 1)

	assert.Equal(t, "summer", first.Tags[0].Value)
	assert.Equal(t, "featured", first.Tags[1].Value)

	// the same tag value resolves to the same reference across assets
	assert.Equal(t, first.Tags[1].ID, second.Tags[0].ID)
}

func TestIngestBatchCustomFields(t *testing.T) {
	ctx := context.Background()
	env := setupTestService(t)

	env.upload(t, "banner.png", testPNG(t, 4, 4))

	fields := map[string]interface{}{"alt": "storefront banner", "position": 3}
	results, err := env.service.IngestBatch(ctx, simpleasset.IngestBatchRequest{
		Inputs: []simpleasset.IngestionRequest{
			{Filename: "banner.png", CustomFields: fields},
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	persisted, err := env.catalog.GetAsset(ctx, results[0].Asset.ID)
	require.NoError(t, err)
	assert.Equal(t, "storefront banner", persisted.CustomFields["alt"])
	assert.Equal(t, 3, persisted.CustomFields["position"])
}

func TestIngestBatchEvents(t *testing.T) {
	ctx := context.Background()
	env := setupTestService(t,
		simpleasset.WithPermittedTypes(simpleasset.NewPermittedTypes([]string{"image/*"})))

	env.upload(t, "ok.png", testPNG(t, 4, 4))
	env.upload(t, "skip.exe", []byte("MZ"))

	inputs := []simpleasset.IngestionRequest{
		{Filename: "ok.png", Tags: []string{"hero"}},
		{Filename: "skip.exe"},
	}
	results, err := env.service.IngestBatch(ctx, simpleasset.IngestBatchRequest{Inputs: inputs})
	require.NoError(t, err)
	require.Len(t, results, 2)

	// one event per materialized asset, none for the rejection, and the
	// published asset carries the enriched (tagged) state
	require.Len(t, env.sink.assets, 1)
	assert.Equal(t, results[0].Asset.ID, env.sink.assets[0].ID)
	require.Len(t, env.sink.assets[0].Tags, 1)
	assert.Equal(t, "hero", env.sink.assets[0].Tags[0].Value)
	assert.Equal(t, "ok.png", env.sink.payloads[0].Filename)
}

func TestIngestBatchEmpty(t *testing.T) {
	ctx := context.Background()
	env := setupTestService(t)

	results, err := env.service.IngestBatch(ctx, simpleasset.IngestBatchRequest{})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, env.sink.assets)
}

func TestIssueUploadCredential(t *testing.T) {
	ctx := context.Background()

	t.Run("free name is used verbatim", func(t *testing.T) {
		env := setupTestService(t)

		cred, err := env.service.IssueUploadCredential(ctx, simpleasset.IssueUploadCredentialRequest{
			Filename: "photo.jpg",
		})
		require.NoError(t, err)
		assert.Equal(t, "photo.jpg", env.issuer.lastKey)
		assert.Equal(t, "photo.jpg", cred.Fields["key"])
	})

	t.Run("conflicting name gets a counter suffix", func(t *testing.T) {
		env := setupTestService(t)
		env.upload(t, "photo.jpg", []byte("taken"))

		_, err := env.service.IssueUploadCredential(ctx, simpleasset.IssueUploadCredentialRequest{
			Filename: "photo.jpg",
		})
		require.NoError(t, err)
		assert.Equal(t, "photo__01.jpg", env.issuer.lastKey)
	})

	t.Run("filename is sanitized before resolution", func(t *testing.T) {
		env := setupTestService(t)

		_, err := env.service.IssueUploadCredential(ctx, simpleasset.IssueUploadCredentialRequest{
			Filename: "../etc/crème.jpg",
		})
		require.NoError(t, err)
		assert.NotContains(t, env.issuer.lastKey, "/")
		assert.NotContains(t, env.issuer.lastKey, "è")
	})

	t.Run("no issuer configured", func(t *testing.T) {
		svc, err := simpleasset.New(
			simpleasset.WithBlobStore(memorystorage.New()),
			simpleasset.WithCatalog(memorycatalog.New()),
			simpleasset.WithPreviewGenerator(&stubPreviewer{preview: []byte("p")}),
		)
		require.NoError(t, err)

		_, err = svc.IssueUploadCredential(ctx, simpleasset.IssueUploadCredentialRequest{Filename: "x.png"})
		assert.ErrorIs(t, err, simpleasset.ErrNoCredentialIssuer)
	})
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := simpleasset.New()
	require.Error(t, err)

	_, err = simpleasset.New(simpleasset.WithBlobStore(memorystorage.New()))
	require.Error(t, err)

	_, err = simpleasset.New(
		simpleasset.WithBlobStore(memorystorage.New()),
		simpleasset.WithCatalog(memorycatalog.New()),
	)
	require.Error(t, err)
}
