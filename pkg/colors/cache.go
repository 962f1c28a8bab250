package colors

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/harrisonrobin/nextup/pkg/kvstore"
	"github.com/harrisonrobin/nextup/pkg/model"
)

// Key is the KV key the color assignments are stored under.
const Key = "calendar.colors"

// NoContextColor is the event color for tasks outside any container (graphite).
const NoContextColor = "8"

// byName maps container color names to the nearest calendar event colorId.
var byName = map[string]string{
	"berry_red":   "4",
	"red":         "11",
	"orange":      "6",
	"yellow":      "5",
	"olive_green": "2",
	"lime_green":  "2",
	"green":       "10",
	"mint_green":  "2",
	"teal":        "7",
	"sky_blue":    "7",
	"light_blue":  "9",
	"blue":        "9",
	"grape":       "3",
	"violet":      "3",
	"lavender":    "1",
	"magenta":     "4",
	"salmon":      "4",
	"charcoal":    "8",
	"grey":        "8",
	"taupe":       "8",
}

type ContextState struct {
	ColorID      string    `json:"color_id"`
	LastModified time.Time `json:"last_modified"`
}

// KV is the subset of the key-value store the cache persists through.
type KV interface {
	Get(key string, v any) error
	Set(key string, v any) error
}

// ColorCache assigns calendar colors to containers. Containers with a known color
// name get the matching colorId; the rest share colorIds 1-11 in least recently
// used order.
type ColorCache struct {
	Contexts map[string]*ContextState `json:"contexts"`
	kv       KV
	now      func() time.Time
	mu       sync.Mutex
	dirty    bool
}

func NewColorCache(kv KV) (*ColorCache, error) {
	cache := &ColorCache{
		Contexts: make(map[string]*ContextState),
		kv:       kv,
		now:      time.Now,
	}
	if err := kv.Get(Key, &cache.Contexts); err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		return nil, fmt.Errorf("failed to load color cache: %w", err)
	}
	if cache.Contexts == nil {
		cache.Contexts = make(map[string]*ContextState)
	}
	return cache, nil
}

func (c *ColorCache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}
	if err := c.kv.Set(Key, c.Contexts); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

// GetColorID returns the event colorId for a container.
func (c *ColorCache) GetColorID(ctx *model.Context) string {
	if ctx == nil || ctx.ID == "" {
		return NoContextColor
	}
	if id, ok := byName[ctx.Color]; ok {
		return id
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if state, exists := c.Contexts[ctx.ID]; exists {
		state.LastModified = c.now()
		c.dirty = true
		return state.ColorID
	}
	return c.assignColor(ctx.ID)
}

func (c *ColorCache) assignColor(contextID string) string {
	used := make(map[string]bool)
	for _, s := range c.Contexts {
		used[s.ColorID] = true
	}

	for i := 1; i <= 11; i++ {
		id := strconv.Itoa(i)
		if !used[id] {
			c.Contexts[contextID] = &ContextState{ColorID: id, LastModified: c.now()}
			c.dirty = true
			return id
		}
	}

	// Full: recycle the least recently used color.
	var oldest string
	var oldestTime time.Time
	for id, s := range c.Contexts {
		if oldest == "" || s.LastModified.Before(oldestTime) {
			oldest, oldestTime = id, s.LastModified
		}
	}
	recycled := c.Contexts[oldest].ColorID
	delete(c.Contexts, oldest)
	c.Contexts[contextID] = &ContextState{ColorID: recycled, LastModified: c.now()}
	c.dirty = true
	return recycled
}
