package raster

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
)

// Cache provides thread-safe caching of loaded images keyed by file path.
//
// A measurement session issues many scans against one captured frame; the
// cache lets each request reuse the decoded grid instead of re-reading the
// file. Entries stay resident until Evict or Clear.
//
// # Example Usage
//
//	cache := raster.NewCache()
//	img, err := cache.Load("/tmp/frame.png")
//	if err != nil {
//	    return err
//	}
//	// scan img...
//	cache.Evict("/tmp/frame.png")
type Cache struct {
	mu     sync.RWMutex
	images map[string]*Image
}

// NewCache creates an empty cache ready for concurrent use.
func NewCache() *Cache {
	return &Cache{
		images: make(map[string]*Image),
	}
}

// Load returns the cached image for path, reading it from disk on a miss.
//
// The exact path string is the key; a relative and an absolute path to the
// same file are cached separately.
func (c *Cache) Load(path string) (*Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Put stores an already decoded image under key.
func (c *Cache) Put(key string, img *Image) {
	c.mu.Lock()
	c.images[key] = img
	c.mu.Unlock()
}

// Len returns the number of cached images.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes all images from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]*Image)
	c.mu.Unlock()
}

// Evict removes a single path from the cache. Unknown paths are ignored.
func (c *Cache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Info contains metadata about a loaded image file.
type Info struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is derived from the file extension ("png", "jpeg", ... or
	// "unknown").
	Format string `json:"format"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadInfo loads path through the cache and describes it.
func LoadInfo(cache *Cache, path string) (*Info, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to stat file: %w", ErrIO, err)
	}

	format := "unknown"
	if f, err := imaging.FormatFromFilename(path); err == nil {
		format = strings.ToLower(f.String())
	}

	return &Info{
		Width:         img.width,
		Height:        img.height,
		Format:        format,
		FileSizeBytes: stat.Size(),
	}, nil
}
