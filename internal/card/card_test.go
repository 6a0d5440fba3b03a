package card

import "testing"

func TestOptionEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Option
		want bool
	}{
		{
			name: "both have IDs, same ID",
			a:    Option{ID: "opt-1", Kind: KindText, Content: "assembly"},
			b:    Option{ID: "opt-1", Kind: KindDrawing, Content: "other"},
			want: true,
		},
		{
			name: "both have IDs, different IDs",
			a:    Option{ID: "opt-1", Kind: KindText, Content: "assembly"},
			b:    Option{ID: "opt-2", Kind: KindText, Content: "assembly"},
			want: false,
		},
		{
			name: "no IDs, same kind and content",
			a:    Option{Kind: KindText, Content: "assembly"},
			b:    Option{Kind: KindText, Content: "assembly"},
			want: true,
		},
		{
			name: "no IDs, same content different kind",
			a:    Option{Kind: KindText, Content: "assembly"},
			b:    Option{Kind: KindDrawing, Content: "assembly"},
			want: false,
		},
		{
			name: "one ID missing falls back to structural match",
			a:    Option{ID: "opt-1", Kind: KindText, Content: "assembly"},
			b:    Option{Kind: KindText, Content: "assembly"},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOptionDedupKey(t *testing.T) {
	a := Option{Kind: KindText, Content: "assembly", Language: "en"}
	b := Option{Kind: KindText, Content: "assembly", Language: "de"}
	c := Option{Kind: KindText, Content: "assembly", Language: "en"}

	if a.DedupKey() == b.DedupKey() {
		t.Error("options differing only by language must have distinct dedup keys")
	}
	if a.DedupKey() != c.DedupKey() {
		t.Error("identical options must share a dedup key")
	}
}

func TestTermDefaultOption(t *testing.T) {
	term := Term{
		ID: "DEMOCRACY",
		Locales: map[Language]LocaleData{
			LanguageEnglish: {
				Term: "democracy",
				DefaultDefinition: map[Slot]Option{
					SlotTypeCategory: {Kind: KindText, Content: "a system of government"},
				},
			},
		},
	}

	opt := term.DefaultOption(LanguageEnglish, SlotTypeCategory)
	if opt.Origin != OriginDefault {
		t.Errorf("default option origin = %q, want %q", opt.Origin, OriginDefault)
	}
	if opt.Language != "en" {
		t.Errorf("default option language = %q, want en", opt.Language)
	}
	if opt.Content != "a system of government" {
		t.Errorf("unexpected content: %q", opt.Content)
	}

	// Missing locale falls back to English
	opt = term.DefaultOption(LanguageGerman, SlotTypeCategory)
	if opt.Content != "a system of government" {
		t.Errorf("missing locale should fall back to English, got %q", opt.Content)
	}

	// Missing slot yields the placeholder
	opt = term.DefaultOption(LanguageEnglish, SlotImpactPurpose)
	if opt.Content != "" {
		t.Errorf("missing slot should yield placeholder, got %q", opt.Content)
	}
}

func TestValidSlot(t *testing.T) {
	for _, slot := range Slots {
		if !ValidSlot(slot) {
			t.Errorf("ValidSlot(%q) = false, want true", slot)
		}
	}
	if ValidSlot("banana") {
		t.Error("ValidSlot accepted an unknown slot")
	}
}
