// Package selection implements the per-slot card selection engine:
// language-aware candidate filtering, wraparound cycling, and the
// three-slot shuffle.
package selection

import (
	"math/rand"

	"codeberg.org/ostrova/agora/internal/card"
)

// Direction selects which way Cycle moves through a slot's options
type Direction int

const (
	Next Direction = iota
	Prev
)

// Engine owns the three live slot selections and their candidate
// lists. It is driven from a single event loop; mutating operations on
// one slot apply in call order.
type Engine struct {
	rng      *rand.Rand
	language card.Language
	slots    map[card.Slot]*slotState
}

type slotState struct {
	selected card.Option
	options  []card.Option
}

// NewEngine creates an engine with every slot holding the loading
// placeholder. rng drives Shuffle; pass a seeded source in production
// and a fixed one in tests.
func NewEngine(language card.Language, rng *rand.Rand) *Engine {
	e := &Engine{
		rng:      rng,
		language: language,
		slots:    make(map[card.Slot]*slotState, len(card.Slots)),
	}
	for _, slot := range card.Slots {
		e.slots[slot] = &slotState{selected: card.Placeholder()}
	}
	return e
}

// SetLanguage switches the language used by the candidate filter. It
// does not touch selections; the session owns the reconciliation rules.
func (e *Engine) SetLanguage(language card.Language) {
	e.language = language
}

// Language returns the language the filter currently applies
func (e *Engine) Language() card.Language {
	return e.language
}

// SetOptions replaces a slot's full candidate list. An empty list is
// valid and leaves the slot uncyclable until options arrive.
func (e *Engine) SetOptions(slot card.Slot, options []card.Option) {
	e.slots[slot].options = options
}

// Selected returns the live selection for a slot
func (e *Engine) Selected(slot card.Slot) card.Option {
	return e.slots[slot].selected
}

// Selections returns all three live selections keyed by slot
func (e *Engine) Selections() map[card.Slot]card.Option {
	out := make(map[card.Slot]card.Option, len(card.Slots))
	for _, slot := range card.Slots {
		out[slot] = e.slots[slot].selected
	}
	return out
}

// Filtered returns the slot's language-filtered candidate list:
// default options tagged with exactly the current language, plus every
// user-contributed option regardless of tag.
func (e *Engine) Filtered(slot card.Slot) []card.Option {
	var out []card.Option
	for _, opt := range e.slots[slot].options {
		if opt.IsDefault() && opt.Language != string(e.language) {
			continue
		}
		out = append(out, opt)
	}
	return out
}

// Cycle moves a slot's selection one step through its filtered list,
// wrapping around in both directions. An empty list is a no-op. A
// selection not present in the list is treated as index -1, so Next
// lands on the first option.
func (e *Engine) Cycle(slot card.Slot, direction Direction) {
	options := e.Filtered(slot)
	if len(options) == 0 {
		return
	}

	index := -1
	current := e.slots[slot].selected
	for i, opt := range options {
		if opt.Equal(current) {
			index = i
			break
		}
	}

	step := 1
	if direction == Prev {
		step = -1
	}
	n := len(options)
	index = ((index+step)%n + n) % n
	e.slots[slot].selected = options[index]
}

// Shuffle independently picks a uniformly random option for every slot
// with a non-empty filtered list. Slots with empty lists are left
// unchanged. One call covers all three slots.
func (e *Engine) Shuffle() {
	for _, slot := range card.Slots {
		options := e.Filtered(slot)
		if len(options) == 0 {
			continue
		}
		e.slots[slot].selected = options[e.rng.Intn(len(options))]
	}
}

// SelectExplicit sets a slot's selection directly, without requiring
// list membership. Used after media capture, where the option has just
// been appended to the repository.
func (e *Engine) SelectExplicit(slot card.Slot, option card.Option) {
	e.slots[slot].selected = option
}
