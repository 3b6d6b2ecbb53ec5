package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/raushankrgupta/fitly-client/models"
)

// ErrNotFound is returned when a cart item id is unknown.
var ErrNotFound = errors.New("item not found")

// CartStore holds the ordered cart lines, unique by item id.
type CartStore struct {
	backend Backend
	logger  *log.Logger

	mu    sync.Mutex
	items []models.CartItem
	subs  subscribers[[]models.CartItem]
}

// NewCartStore loads the persisted cart, falling back to an empty cart.
func NewCartStore(backend Backend, logger *log.Logger) *CartStore {
	if logger == nil {
		logger = log.Default()
	}
	c := &CartStore{backend: backend, logger: logger}

	data, found, err := backend.Get(CartKey)
	switch {
	case err != nil:
		logger.Printf("Failed to read stored cart, starting empty: %v", err)
	case !found:
	default:
		var loaded []models.CartItem
		if err := json.Unmarshal(data, &loaded); err != nil {
			logger.Printf("Stored cart is corrupt, starting empty: %v", err)
			break
		}
		c.items = normalize(loaded)
	}
	return c
}

// normalize drops invalid lines and merges duplicate ids, keeping first
// position.
func normalize(in []models.CartItem) []models.CartItem {
	out := make([]models.CartItem, 0, len(in))
	index := make(map[string]int, len(in))
	for _, it := range in {
		if it.ItemID == "" || it.Quantity <= 0 {
			continue
		}
		if i, ok := index[it.ItemID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[it.ItemID] = len(out)
		out = append(out, it)
	}
	return out
}

// ItemIDFor derives a stable line id from product id, size and color so the
// same variant added twice lands on one line.
func ItemIDFor(p models.ProductRef) string {
	if p.ID == "" {
		return uuid.New().String()
	}
	parts := []string{p.ID}
	if p.Size != "" || p.Color != "" {
		parts = append(parts, strings.ToLower(p.Size), strings.ToLower(p.Color))
	}
	return strings.Join(parts, ":")
}

// Add appends item or, when its id is already present, increases that line's
// quantity. A zero quantity counts as one.
func (c *CartStore) Add(item models.CartItem) (models.CartItem, error) {
	if item.Quantity < 0 {
		return models.CartItem{}, fmt.Errorf("invalid quantity %d", item.Quantity)
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if item.ItemID == "" {
		item.ItemID = ItemIDFor(item.Product)
	}

	var added models.CartItem
	err := c.update(func(items []models.CartItem) []models.CartItem {
		for i := range items {
			if items[i].ItemID == item.ItemID {
				items[i].Quantity += item.Quantity
				added = items[i]
				return items
			}
		}
		added = item
		return append(items, item)
	})
	return added, err
}

// SetQuantity sets a line's quantity; zero or less removes the line.
func (c *CartStore) SetQuantity(itemID string, quantity int) error {
	if quantity <= 0 {
		return c.Remove(itemID)
	}
	found := false
	err := c.update(func(items []models.CartItem) []models.CartItem {
		for i := range items {
			if items[i].ItemID == itemID {
				items[i].Quantity = quantity
				found = true
			}
		}
		return items
	})
	if !found {
		return fmt.Errorf("%s: %w", itemID, ErrNotFound)
	}
	return err
}

func (c *CartStore) Remove(itemID string) error {
	found := false
	err := c.update(func(items []models.CartItem) []models.CartItem {
		for i := range items {
			if items[i].ItemID == itemID {
				found = true
				return append(items[:i], items[i+1:]...)
			}
		}
		return items
	})
	if !found {
		return fmt.Errorf("%s: %w", itemID, ErrNotFound)
	}
	return err
}

func (c *CartStore) Clear() error {
	return c.update(func([]models.CartItem) []models.CartItem { return nil })
}

// Items returns a copy of the lines in insertion order.
func (c *CartStore) Items() []models.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.CartItem(nil), c.items...)
}

// Totals is recomputed from the items on every call.
func (c *CartStore) Totals() models.CartTotals {
	return models.Totals(c.Items())
}

func (c *CartStore) Subscribe(fn func([]models.CartItem)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.subs.add(fn)
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.subs.remove(id)
	}
}

func (c *CartStore) update(mutate func([]models.CartItem) []models.CartItem) error {
	c.mu.Lock()
	before := append([]models.CartItem(nil), c.items...)
	c.items = mutate(c.items)
	snap := append([]models.CartItem(nil), c.items...)
	changed := !equalItems(before, snap)
	var err error
	var fns []func([]models.CartItem)
	if changed {
		err = c.persistLocked()
		fns = c.subs.list()
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(append([]models.CartItem(nil), snap...))
	}
	return err
}

func (c *CartStore) persistLocked() error {
	items := c.items
	if items == nil {
		items = []models.CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := c.backend.Set(CartKey, data); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}

func equalItems(a, b []models.CartItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
