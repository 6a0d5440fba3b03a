// Package store holds the persistence contracts the card workbench
// depends on, together with local SQLite and filesystem
// implementations.
package store

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/ostrova/agora/internal/card"
)

// OptionSet holds a term's candidate options keyed by slot
type OptionSet map[card.Slot][]card.Option

// Definition is a saved composite definition. It is never mutated after
// creation except for the Likes counter.
type Definition struct {
	ID           string        `json:"id"`
	TermID       string        `json:"termId"`
	TermLanguage card.Language `json:"termLanguage"`
	TermText     string        `json:"termText"`

	TypeCategory  card.Option `json:"typeCategory"`
	KeyAttributes card.Option `json:"keyAttributes"`
	ImpactPurpose card.Option `json:"impactPurpose"`

	Likes     int       `json:"likes"`
	CreatedAt time.Time `json:"createdAt"`
}

// Slot returns the saved selection for one slot
func (d Definition) Slot(slot card.Slot) card.Option {
	switch slot {
	case card.SlotTypeCategory:
		return d.TypeCategory
	case card.SlotKeyAttributes:
		return d.KeyAttributes
	default:
		return d.ImpactPurpose
	}
}

// OptionRepository is the authoritative source of per-term candidate
// options. AppendOption de-duplicates by (kind, content, language): when
// a matching option already exists the stored one is returned and the
// caller must select it instead of the submitted one.
type OptionRepository interface {
	GetOptions(ctx context.Context, termID string) (OptionSet, error)
	AppendOption(ctx context.Context, termID string, slot card.Slot, option card.Option) (card.Option, error)
}

// DefinitionStore persists saved definitions and feeds subscribers the
// full newest-first list on subscription and after every change.
type DefinitionStore interface {
	Create(ctx context.Context, def Definition) (string, error)
	UpdateLikes(ctx context.Context, id string, likes int) error
	List(ctx context.Context) ([]Definition, error)
	Subscribe(fn func([]Definition))
}

// BlobStore stores opaque media payloads and hands back durable
// references.
type BlobStore interface {
	Upload(ctx context.Context, payload []byte, ext string) (string, error)
}

// RepositoryError indicates a read or write failure against the option
// or definition store
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s failed: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// UploadError indicates a transient media upload failure
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed: %v", e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}
