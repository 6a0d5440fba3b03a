// Package compose assembles, persists, and projects saved definitions,
// including the like toggle backed by the durable liked-set.
package compose

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"codeberg.org/ostrova/agora/internal/card"
	"codeberg.org/ostrova/agora/internal/likedset"
	"codeberg.org/ostrova/agora/internal/store"
)

// ValidationError blocks a save when a slot selection has no content.
// It is user-visible and immediately actionable, never fatal.
type ValidationError struct {
	Slot card.Slot
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("incomplete selection: slot %s is empty", e.Slot)
}

// Source provides the live state a save draws from. Satisfied by
// session.Session.
type Source interface {
	Selections() map[card.Slot]card.Option
	TermID() string
	TermLanguage() card.Language
	TermText() string
}

// SortMode orders the saved-definitions view
type SortMode string

const (
	// SortRecent keeps the feed's newest-first server order
	SortRecent SortMode = "recent"
	// SortPopular orders by likes descending, ties keeping feed order
	SortPopular SortMode = "popular"
	// SortRandom shuffles once per activation, not per render
	SortRandom SortMode = "random"
)

// Composer owns the saved-definitions view model: it consumes the
// store's newest-first feed and projects it through term filter, search
// query, and sort mode. Save and Like mutate the underlying store.
type Composer struct {
	source Source
	defs   store.DefinitionStore
	liked  *likedset.Set
	rng    *rand.Rand

	mu         sync.Mutex
	feed       []store.Definition
	query      string
	sortMode   SortMode
	randomRank map[string]float64
}

// NewComposer creates a composer and subscribes it to the definition
// feed
func NewComposer(source Source, defs store.DefinitionStore, liked *likedset.Set, rng *rand.Rand) *Composer {
	c := &Composer{
		source:   source,
		defs:     defs,
		liked:    liked,
		rng:      rng,
		sortMode: SortRecent,
	}
	defs.Subscribe(c.onFeed)
	return c
}

func (c *Composer) onFeed(defs []store.Definition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.feed = defs
}

// Save validates the three slot selections and persists a new
// definition with zero likes. An empty slot yields a ValidationError;
// a store failure is reported, never swallowed.
func (c *Composer) Save(ctx context.Context) (string, error) {
	selections := c.source.Selections()
	for _, slot := range card.Slots {
		if selections[slot].Content == "" {
			return "", &ValidationError{Slot: slot}
		}
	}

	def := store.Definition{
		TermID:        c.source.TermID(),
		TermLanguage:  c.source.TermLanguage(),
		TermText:      c.source.TermText(),
		TypeCategory:  selections[card.SlotTypeCategory],
		KeyAttributes: selections[card.SlotKeyAttributes],
		ImpactPurpose: selections[card.SlotImpactPurpose],
		Likes:         0,
	}

	id, err := c.defs.Create(ctx, def)
	if err != nil {
		return "", fmt.Errorf("failed to save definition: %w", err)
	}
	return id, nil
}

// Like toggles the local user's like on a definition. Liking increments
// the counter and records the id durably; a second call decrements
// (clamped at zero) and forgets it. The store update runs before the
// local set changes, so a failed update leaves the toggle state intact
// and a retry behaves identically.
func (c *Composer) Like(ctx context.Context, definitionID string, currentLikes int) error {
	if c.liked.Contains(definitionID) {
		likes := currentLikes - 1
		if likes < 0 {
			likes = 0
		}
		if err := c.defs.UpdateLikes(ctx, definitionID, likes); err != nil {
			return err
		}
		return c.liked.Remove(definitionID)
	}

	if err := c.defs.UpdateLikes(ctx, definitionID, currentLikes+1); err != nil {
		return err
	}
	return c.liked.Add(definitionID)
}

// Liked reports whether the local user has liked a definition
func (c *Composer) Liked(definitionID string) bool {
	return c.liked.Contains(definitionID)
}

// SetQuery updates the free-text search filter
func (c *Composer) SetQuery(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = query
}

// SetSortMode switches the view ordering. Activating SortRandom
// reshuffles exactly once; repeated View calls then keep that order.
func (c *Composer) SetSortMode(mode SortMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sortMode = mode
	if mode == SortRandom {
		c.randomRank = make(map[string]float64)
	}
}

// View projects the current feed for one term: term filter, then
// search, then sort.
func (c *Composer) View(termID string) []store.Definition {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []store.Definition
	for _, def := range c.feed {
		if def.TermID != termID {
			continue
		}
		if c.query != "" && !matchesQuery(def, c.query) {
			continue
		}
		out = append(out, def)
	}

	switch c.sortMode {
	case SortPopular:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Likes > out[j].Likes
		})
	case SortRandom:
		for _, def := range out {
			if _, ok := c.randomRank[def.ID]; !ok {
				c.randomRank[def.ID] = c.rng.Float64()
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			return c.randomRank[out[i].ID] < c.randomRank[out[j].ID]
		})
	}
	return out
}

// matchesQuery performs a case-insensitive substring match against the
// term text and every text-kind slot content
func matchesQuery(def store.Definition, query string) bool {
	needle := strings.ToLower(query)
	if strings.Contains(strings.ToLower(def.TermText), needle) {
		return true
	}
	for _, slot := range card.Slots {
		opt := def.Slot(slot)
		if opt.Kind != card.KindText {
			continue
		}
		if strings.Contains(strings.ToLower(opt.Content), needle) {
			return true
		}
	}
	return false
}
