// Package session tracks the current term and language and owns the
// reset/preserve rules applied to slot selections when either changes.
package session

import (
	"context"
	"fmt"
	"os"

	"codeberg.org/ostrova/agora/internal/card"
	"codeberg.org/ostrova/agora/internal/selection"
	"codeberg.org/ostrova/agora/internal/store"
	"codeberg.org/ostrova/agora/internal/terms"
)

// Session binds the term catalog, the option repository, and the
// selection engine together. All mutations run on the caller's event
// loop; the session is not safe for concurrent use.
type Session struct {
	catalog *terms.Catalog
	repo    store.OptionRepository
	engine  *selection.Engine

	index    int
	language card.Language
}

// New creates a session positioned on the first catalog term and primes
// the engine with that term's defaults and candidate options
func New(ctx context.Context, catalog *terms.Catalog, repo store.OptionRepository, engine *selection.Engine) *Session {
	s := &Session{
		catalog:  catalog,
		repo:     repo,
		engine:   engine,
		language: engine.Language(),
	}
	s.onTermChanged(ctx)
	return s
}

// Term returns the current term
func (s *Session) Term() card.Term {
	return s.catalog.At(s.index)
}

// Language returns the current display language
func (s *Session) Language() card.Language {
	return s.language
}

// Locale returns the current term's display data in the current
// language
func (s *Session) Locale() card.LocaleData {
	return s.Term().Locale(s.language)
}

// Engine exposes the selection engine driven by this session
func (s *Session) Engine() *selection.Engine {
	return s.engine
}

// TermID returns the current term's language-neutral identifier
func (s *Session) TermID() string {
	return s.Term().ID
}

// TermLanguage returns the current display language
func (s *Session) TermLanguage() card.Language {
	return s.language
}

// TermText returns the current term's display text in the current
// language
func (s *Session) TermText() string {
	return s.Locale().Term
}

// Selections returns the three live slot selections
func (s *Session) Selections() map[card.Slot]card.Option {
	return s.engine.Selections()
}

// NextTerm advances to the next catalog term, wrapping at the end
func (s *Session) NextTerm(ctx context.Context) {
	s.SetTermIndex(ctx, s.index+1)
}

// PrevTerm steps back to the previous catalog term, wrapping at the
// start
func (s *Session) PrevTerm(ctx context.Context) {
	s.SetTermIndex(ctx, s.index-1)
}

// SetTermIndex jumps to an arbitrary term. Any term change resets all
// three slots unconditionally, discarding user selections.
func (s *Session) SetTermIndex(ctx context.Context, index int) {
	n := s.catalog.Len()
	index = ((index % n) + n) % n
	if index == s.index {
		return
	}
	s.index = index
	s.onTermChanged(ctx)
}

// SetTermID jumps to the term with the given identifier
func (s *Session) SetTermID(ctx context.Context, id string) error {
	for i, termID := range s.catalog.IDs() {
		if termID == id {
			if i != s.index {
				s.index = i
				s.onTermChanged(ctx)
			}
			return nil
		}
	}
	return fmt.Errorf("unknown term %q", id)
}

// SetLanguage switches the display language. Unlike a term change,
// only Default-origin selections are replaced (with the new language's
// defaults); user-contributed selections stay untouched and merely get
// re-filtered.
func (s *Session) SetLanguage(ctx context.Context, language card.Language) {
	if language == s.language {
		return
	}
	s.language = language
	s.engine.SetLanguage(language)

	term := s.Term()
	for _, slot := range card.Slots {
		if s.engine.Selected(slot).IsDefault() {
			s.engine.SelectExplicit(slot, term.DefaultOption(language, slot))
		}
	}
}

// Contribute appends a freshly captured option to the repository and
// selects the stored result. When the repository reports a duplicate it
// returns the existing option, and that one gets selected instead.
func (s *Session) Contribute(ctx context.Context, slot card.Slot, option card.Option) (card.Option, error) {
	stored, err := s.repo.AppendOption(ctx, s.Term().ID, slot, option)
	if err != nil {
		return card.Option{}, err
	}
	s.engine.SelectExplicit(slot, stored)
	s.reloadOptions(ctx)
	return stored, nil
}

// onTermChanged applies the unconditional reset rule: every slot takes
// the new term's default for the current language, then the candidate
// lists are refetched.
func (s *Session) onTermChanged(ctx context.Context) {
	term := s.Term()
	for _, slot := range card.Slots {
		s.engine.SelectExplicit(slot, term.DefaultOption(s.language, slot))
	}
	s.reloadOptions(ctx)
}

// reloadOptions rebuilds each slot's candidate list from the term's
// dataset defaults plus the repository's user contributions. A read
// failure empties the lists rather than leaving stale ones.
func (s *Session) reloadOptions(ctx context.Context) {
	term := s.Term()

	set, err := s.repo.GetOptions(ctx, term.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load options for %s: %v\n", term.ID, err)
		for _, slot := range card.Slots {
			s.engine.SetOptions(slot, nil)
		}
		return
	}

	for _, slot := range card.Slots {
		seen := make(map[string]bool)
		var options []card.Option
		for _, lang := range card.Languages {
			opt := term.DefaultOption(lang, slot)
			if opt.Content == "" {
				continue
			}
			seen[opt.DedupKey()] = true
			options = append(options, opt)
		}
		for _, opt := range set[slot] {
			if seen[opt.DedupKey()] {
				continue
			}
			seen[opt.DedupKey()] = true
			options = append(options, opt)
		}
		s.engine.SetOptions(slot, options)
	}
}
