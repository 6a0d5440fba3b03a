package card

// Language is an ISO 639-1 language tag supported by the catalog
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageGerman  Language = "de"
)

// Languages lists the supported languages in toggle order
var Languages = []Language{LanguageEnglish, LanguageGerman}

// LocaleData holds per-language display data for a term
type LocaleData struct {
	Term      string `json:"term"`
	Etymology string `json:"etymology,omitempty"`
	Phonetic  string `json:"phonetic,omitempty"`

	// One default option per slot, each tagged with this locale's language
	DefaultDefinition map[Slot]Option `json:"defaultDefinition"`
}

// Term is a language-neutral vocabulary entry. Terms are immutable and
// loaded once from the static dataset.
type Term struct {
	ID      string                  `json:"id"`
	Locales map[Language]LocaleData `json:"locales"`
}

// Locale returns the display data for lang, falling back to English when
// the requested locale is missing
func (t Term) Locale(lang Language) LocaleData {
	if data, ok := t.Locales[lang]; ok {
		return data
	}
	return t.Locales[LanguageEnglish]
}

// DefaultOption returns the term's default option for a slot in the
// given language. The returned option always carries OriginDefault and
// the locale's language tag.
func (t Term) DefaultOption(lang Language, slot Slot) Option {
	data := t.Locale(lang)
	opt, ok := data.DefaultDefinition[slot]
	if !ok {
		return Placeholder()
	}
	opt.Origin = OriginDefault
	opt.Language = string(lang)
	return opt
}
