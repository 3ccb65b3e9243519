// Package memory provides an in-memory catalog, primarily for tests and
// development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-asset/pkg/simpleasset"
)

// data is the catalog state. Transactions operate on a copy and swap it back
// in on commit.
type data struct {
	assets      map[uuid.UUID]*simpleasset.Asset
	assetOrder  map[uuid.UUID]int
	tagsByValue map[string]simpleasset.Tag
	seq         int
}

func newData() *data {
	return &data{
		assets:      make(map[uuid.UUID]*simpleasset.Asset),
		assetOrder:  make(map[uuid.UUID]int),
		tagsByValue: make(map[string]simpleasset.Tag),
	}
}

func (d *data) clone() *data {
	c := newData()
	c.seq = d.seq
	for id, a := range d.assets {
		c.assets[id] = copyAsset(a)
	}
	for id, n := range d.assetOrder {
		c.assetOrder[id] = n
	}
	for v, t := range d.tagsByValue {
		c.tagsByValue[v] = t
	}
	return c
}

func copyAsset(a *simpleasset.Asset) *simpleasset.Asset {
	c := *a
	if a.Tags != nil {
		c.Tags = append([]simpleasset.Tag(nil), a.Tags...)
	}
	if a.CustomFields != nil {
		c.CustomFields = make(map[string]interface{}, len(a.CustomFields))
		for k, v := range a.CustomFields {
			c.CustomFields[k] = v
		}
	}
	return &c
}

func (d *data) saveAsset(asset *simpleasset.Asset) *simpleasset.Asset {
	saved := copyAsset(asset)
	if saved.ID == uuid.Nil {
		saved.ID = uuid.New()
		d.seq++
		d.assetOrder[saved.ID] = d.seq
	} else {
		saved.UpdatedAt = time.Now().UTC()
	}
	d.assets[saved.ID] = saved
	return copyAsset(saved)
}

func (d *data) tagsForValues(values []string) []simpleasset.Tag {
	tags := make([]simpleasset.Tag, 0, len(values))
	for _, v := range values {
		tag, ok := d.tagsByValue[v]
		if !ok {
			tag = simpleasset.Tag{ID: uuid.New(), Value: v}
			d.tagsByValue[v] = tag
		}
		tags = append(tags, tag)
	}
	return tags
}

// Catalog implements simpleasset.Catalog using in-memory storage
type Catalog struct {
	mu   sync.Mutex
	data *data
}

// New creates a new in-memory catalog
func New() *Catalog {
	return &Catalog{data: newData()}
}

// SaveAsset persists the asset, assigning ID on first save
func (c *Catalog) SaveAsset(ctx context.Context, asset *simpleasset.Asset) (*simpleasset.Asset, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data.saveAsset(asset), nil
}

// TagsForValues resolves tag values to references, creating unseen values
func (c *Catalog) TagsForValues(ctx context.Context, values []string) ([]simpleasset.Tag, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data.tagsForValues(values), nil
}

// UpdateCustomFields attaches custom fields to a persisted asset
func (c *Catalog) UpdateCustomFields(ctx context.Context, assetID uuid.UUID, fields map[string]interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return updateCustomFields(c.data, assetID, fields)
}

func updateCustomFields(d *data, assetID uuid.UUID, fields map[string]interface{}) error {
	asset, ok := d.assets[assetID]
	if !ok {
		return simpleasset.ErrAssetNotFound
	}
	if asset.CustomFields == nil {
		asset.CustomFields = make(map[string]interface{}, len(fields))
	}
	for k, v := range fields {
		asset.CustomFields[k] = v
	}
	return nil
}

// GetAsset returns the persisted asset with the given id
func (c *Catalog) GetAsset(ctx context.Context, id uuid.UUID) (*simpleasset.Asset, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	asset, ok := c.data.assets[id]
	if !ok {
		return nil, simpleasset.ErrAssetNotFound
	}
	return copyAsset(asset), nil
}

// ListAssets returns all persisted assets in identity-assignment order
func (c *Catalog) ListAssets(ctx context.Context) ([]*simpleasset.Asset, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	assets := make([]*simpleasset.Asset, 0, len(c.data.assets))
	for _, a := range c.data.assets {
		assets = append(assets, copyAsset(a))
	}
	sort.Slice(assets, func(i, j int) bool {
		return c.data.assetOrder[assets[i].ID] < c.data.assetOrder[assets[j].ID]
	})
	return assets, nil
}

// BeginTx opens a transactional scope over a copy of the catalog state.
// Commit swaps the copy back in; concurrent transactions are last-write-wins,
// which is acceptable for an in-memory catalog.
func (c *Catalog) BeginTx(ctx context.Context) (simpleasset.CatalogTx, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &tx{parent: c, data: c.data.clone()}, nil
}

// tx is an in-memory transactional scope
type tx struct {
	parent *Catalog
	data   *data
	done   bool
}

func (t *tx) SaveAsset(ctx context.Context, asset *simpleasset.Asset) (*simpleasset.Asset, error) {
	return t.data.saveAsset(asset), nil
}

func (t *tx) TagsForValues(ctx context.Context, values []string) ([]simpleasset.Tag, error) {
	return t.data.tagsForValues(values), nil
}

func (t *tx) UpdateCustomFields(ctx context.Context, assetID uuid.UUID, fields map[string]interface{}) error {
	return updateCustomFields(t.data, assetID, fields)
}

func (t *tx) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true

	t.parent.mu.Lock()
	defer t.parent.mu.Unlock()
	t.parent.data = t.data
	return nil
}

func (t *tx) Rollback(ctx context.Context) error {
	t.done = true
	return nil
}
