package card

import "fmt"

// Kind identifies the media type of a card option
type Kind string

const (
	KindText    Kind = "text"
	KindDrawing Kind = "drawing"
	KindAudio   Kind = "audio"
	KindImage   Kind = "image"
)

// Origin distinguishes system-seeded options from user contributions
type Origin string

const (
	// OriginDefault marks an option seeded from the term dataset for one language
	OriginDefault Origin = "default"
	// OriginUser marks an option contributed by a user
	OriginUser Origin = "user"
)

// Slot identifies one of the three semantic definition components
type Slot string

const (
	SlotTypeCategory  Slot = "typeCategory"
	SlotKeyAttributes Slot = "keyAttributes"
	SlotImpactPurpose Slot = "impactPurpose"
)

// Slots lists all slots in display order
var Slots = []Slot{SlotTypeCategory, SlotKeyAttributes, SlotImpactPurpose}

// ValidSlot reports whether s names a known slot
func ValidSlot(s Slot) bool {
	switch s {
	case SlotTypeCategory, SlotKeyAttributes, SlotImpactPurpose:
		return true
	}
	return false
}

// Option is a single selectable unit for a slot.
//
// Content is an opaque payload: the literal text for KindText, or a
// reference produced by a capture controller for the media kinds. An
// empty Content on a media option means the payload never became
// durable (e.g. upload failed) and must not be persisted as-is.
type Option struct {
	ID       string    `json:"id,omitempty"`
	Kind     Kind      `json:"kind"`
	Content  string    `json:"content"`
	Origin   Origin    `json:"origin"`
	Language string    `json:"language,omitempty"` // meaningful only for OriginDefault
	Waveform []float64 `json:"waveform,omitempty"` // audio only, normalized [0,1]
}

// Equal reports whether two options refer to the same underlying option.
// Options with IDs compare by ID; ID-less options compare structurally
// by (kind, content).
func (o Option) Equal(other Option) bool {
	if o.ID != "" && other.ID != "" {
		return o.ID == other.ID
	}
	return o.Kind == other.Kind && o.Content == other.Content
}

// DedupKey returns the (kind, content, language) identity used for
// de-duplication at write time
func (o Option) DedupKey() string {
	return fmt.Sprintf("%s\x00%s\x00%s", o.Kind, o.Content, o.Language)
}

// IsDefault reports whether the option is a system-seeded default
func (o Option) IsDefault() bool {
	return o.Origin == OriginDefault
}

// Placeholder returns the loading placeholder every slot holds before
// any real data arrives
func Placeholder() Option {
	return Option{Kind: KindText, Content: "", Origin: OriginDefault}
}
