package cache

import (
	"encoding/json"
	"time"

	"github.com/fundlens/fundlens/internal/model"
)

// DocumentCache layers memory over disk and speaks FundDocument rather
// than raw bytes. A disk hit is promoted into memory.
type DocumentCache struct {
	memory Cache
	disk   Cache
	ttl    time.Duration
}

// NewDocumentCache creates the layered document cache. An empty diskDir
// disables the disk layer.
func NewDocumentCache(diskDir string, ttl time.Duration) *DocumentCache {
	dc := &DocumentCache{
		memory: NewMemoryCache(ttl, 10*time.Minute),
		ttl:    ttl,
	}
	if diskDir != "" {
		dc.disk = NewDiskCache(diskDir, ttl)
	}
	return dc
}

// Get returns the cached document for a fund source, if present and fresh.
func (c *DocumentCache) Get(source string) (*model.FundDocument, bool) {
	key := Key(source)

	data, found := c.memory.Get(key)
	if !found && c.disk != nil {
		data, found = c.disk.Get(key)
		if found {
			_ = c.memory.Set(key, data, c.ttl)
		}
	}
	if !found {
		return nil, false
	}

	var doc model.FundDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		_ = c.memory.Delete(key)
		return nil, false
	}
	return &doc, true
}

// Put stores a freshly fetched document in both layers.
func (c *DocumentCache) Put(source string, doc *model.FundDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	key := Key(source)
	if err := c.memory.Set(key, data, c.ttl); err != nil {
		return err
	}
	if c.disk != nil {
		return c.disk.Set(key, data, c.ttl)
	}
	return nil
}

// Clear drops both layers.
func (c *DocumentCache) Clear() error {
	if err := c.memory.Clear(); err != nil {
		return err
	}
	if c.disk != nil {
		return c.disk.Clear()
	}
	return nil
}
