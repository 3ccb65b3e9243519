package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-asset/pkg/simpleasset"
)

func TestSaveAssetAssignsIdentity(t *testing.T) {
	ctx := context.Background()
	cat := New()

	saved, err := cat.SaveAsset(ctx, &simpleasset.Asset{Name: "cat.png"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, saved.ID)

	again, err := cat.SaveAsset(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, again.ID, "re-save keeps the identity")

	assets, err := cat.ListAssets(ctx)
	require.NoError(t, err)
	assert.Len(t, assets, 1)
}

func TestSaveAssetReturnsCopies(t *testing.T) {
	ctx := context.Background()
	cat := New()

	saved, err := cat.SaveAsset(ctx, &simpleasset.Asset{
		Name: "cat.png",
		Tags: []simpleasset.Tag{{ID: uuid.New(), Value: "pets"}},
	})
	require.NoError(t, err)

	// mutating the returned asset must not leak into the catalog
	saved.Name = "mutated"
	saved.Tags[0].Value = "mutated"

	persisted, err := cat.GetAsset(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "cat.png", persisted.Name)
	assert.Equal(t, "pets", persisted.Tags[0].Value)
}

func TestListAssetsIdentityOrder(t *testing.T) {
	ctx := context.Background()
	cat := New()

	names := []string{"c.png", "a.png", "b.png"}
	for _, name := range names {
		_, err := cat.SaveAsset(ctx, &simpleasset.Asset{Name: name})
		require.NoError(t, err)
	}

	assets, err := cat.ListAssets(ctx)
	require.NoError(t, err)
	require.Len(t, assets, len(names))
	for i, name := range names {
		assert.Equal(t, name, assets[i].Name, "identity-assignment order, not lexical")
	}
}

func TestGetAssetNotFound(t *testing.T) {
	ctx := context.Background()
	cat := New()

	_, err := cat.GetAsset(ctx, uuid.New())
	assert.ErrorIs(t, err, simpleasset.ErrAssetNotFound)
}

func TestTagsForValues(t *testing.T) {
	ctx := context.Background()
	cat := New()

	first, err := cat.TagsForValues(ctx, []string{"summer", "featured"})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "summer", first[0].Value)
	assert.Equal(t, "featured", first[1].Value)

	second, err := cat.TagsForValues(ctx, []string{"featured", "new"})
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, first[1].ID, second[0].ID, "existing value keeps its reference")
	assert.NotEqual(t, first[0].ID, second[1].ID)
}

func TestUpdateCustomFields(t *testing.T) {
	ctx := context.Background()
	cat := New()

	saved, err := cat.SaveAsset(ctx, &simpleasset.Asset{Name: "cat.png"})
	require.NoError(t, err)

	err = cat.UpdateCustomFields(ctx, saved.ID, map[string]interface{}{"alt": "a cat"})
	require.NoError(t, err)
	err = cat.UpdateCustomFields(ctx, saved.ID, map[string]interface{}{"position": 2})
	require.NoError(t, err)

	persisted, err := cat.GetAsset(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "a cat", persisted.CustomFields["alt"])
	assert.Equal(t, 2, persisted.CustomFields["position"])

	err = cat.UpdateCustomFields(ctx, uuid.New(), map[string]interface{}{"x": 1})
	assert.ErrorIs(t, err, simpleasset.ErrAssetNotFound)
}

func TestTxCommit(t *testing.T) {
	ctx := context.Background()
	cat := New()

	tx, err := cat.BeginTx(ctx)
	require.NoError(t, err)

	saved, err := tx.SaveAsset(ctx, &simpleasset.Asset{Name: "cat.png"})
	require.NoError(t, err)

	// invisible until commit
	_, err = cat.GetAsset(ctx, saved.ID)
	assert.ErrorIs(t, err, simpleasset.ErrAssetNotFound)

	require.NoError(t, tx.Commit(ctx))

	persisted, err := cat.GetAsset(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "cat.png", persisted.Name)
}

func TestTxRollback(t *testing.T) {
	ctx := context.Background()
	cat := New()

	pre, err := cat.SaveAsset(ctx, &simpleasset.Asset{Name: "keep.png"})
	require.NoError(t, err)

	tx, err := cat.BeginTx(ctx)
	require.NoError(t, err)

	_, err = tx.SaveAsset(ctx, &simpleasset.Asset{Name: "discard.png"})
	require.NoError(t, err)
	_, err = tx.TagsForValues(ctx, []string{"discard"})
	require.NoError(t, err)

	require.NoError(t, tx.Rollback(ctx))

	assets, err := cat.ListAssets(ctx)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, pre.ID, assets[0].ID)

	tags, err := cat.TagsForValues(ctx, []string{"discard"})
	require.NoError(t, err)
	require.Len(t, tags, 1)
	// the rolled-back tag reference was discarded, a fresh one is minted
	assert.NotEqual(t, uuid.Nil, tags[0].ID)
}

func TestTxRollbackAfterCommitIsNoop(t *testing.T) {
	ctx := context.Background()
	cat := New()

	tx, err := cat.BeginTx(ctx)
	require.NoError(t, err)

	saved, err := tx.SaveAsset(ctx, &simpleasset.Asset{Name: "cat.png"})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	require.NoError(t, tx.Rollback(ctx))

	_, err = cat.GetAsset(ctx, saved.ID)
	assert.NoError(t, err, "rollback after commit must not discard committed state")
}
