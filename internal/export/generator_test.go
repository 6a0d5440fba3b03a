package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/ostrova/agora/internal/card"
	"codeberg.org/ostrova/agora/internal/store"
)

func sampleDefinitions() []store.Definition {
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return []store.Definition{
		{
			ID:            "def-1",
			TermID:        "DEMOCRACY",
			TermLanguage:  card.LanguageEnglish,
			TermText:      "Democracy",
			TypeCategory:  card.Option{Kind: card.KindText, Content: "a form of government"},
			KeyAttributes: card.Option{Kind: card.KindAudio, Content: "blobs/abc123.wav"},
			ImpactPurpose: card.Option{Kind: card.KindText, Content: "legitimate decisions"},
			Likes:         3,
			CreatedAt:     created,
		},
		{
			ID:            "def-2",
			TermID:        "SORTITION",
			TermLanguage:  card.LanguageGerman,
			TermText:      "Losverfahren",
			TypeCategory:  card.Option{Kind: card.KindText, Content: "ein Auswahlverfahren"},
			KeyAttributes: card.Option{Kind: card.KindText, Content: "per Los bestimmt"},
			ImpactPurpose: card.Option{Kind: card.KindDrawing, Content: "blobs/def456.png"},
			Likes:         0,
			CreatedAt:     created.Add(time.Hour),
		},
	}
}

func TestGenerateCSV(t *testing.T) {
	tmpDir := t.TempDir()
	outputPath := filepath.Join(tmpDir, "definitions.csv")

	gen := NewGenerator(&GeneratorOptions{
		OutputPath:     outputPath,
		IncludeHeaders: true,
	})
	gen.Add(sampleDefinitions()...)

	if gen.Len() != 2 {
		t.Fatalf("Expected 2 queued definitions, got %d", gen.Len())
	}

	if err := gen.GenerateCSV(); err != nil {
		t.Fatalf("GenerateCSV failed: %v", err)
	}

	file, err := os.Open(outputPath)
	if err != nil {
		t.Fatalf("Failed to open CSV: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("Expected 3 rows (header + 2 definitions), got %d", len(records))
	}

	if records[0][0] != "ID" || records[0][1] != "Term" {
		t.Errorf("Unexpected headers: %v", records[0])
	}

	first := records[1]
	if first[0] != "def-1" || first[1] != "Democracy" || first[2] != "en" {
		t.Errorf("Unexpected first row: %v", first)
	}
	if first[3] != "a form of government" {
		t.Errorf("Text slot should export content directly, got %q", first[3])
	}
	if first[4] != "[audio:blobs/abc123.wav]" {
		t.Errorf("Media slot should export kind-prefixed reference, got %q", first[4])
	}
	if first[6] != "3" {
		t.Errorf("Expected likes 3, got %q", first[6])
	}
	if first[7] != "2026-03-14 09:30:00" {
		t.Errorf("Unexpected timestamp: %q", first[7])
	}

	second := records[2]
	if second[5] != "[drawing:blobs/def456.png]" {
		t.Errorf("Drawing slot should export kind-prefixed reference, got %q", second[5])
	}
}

func TestGenerateCSV_NoHeaders(t *testing.T) {
	tmpDir := t.TempDir()
	outputPath := filepath.Join(tmpDir, "definitions.csv")

	gen := NewGenerator(&GeneratorOptions{OutputPath: outputPath})
	gen.Add(sampleDefinitions()...)

	if err := gen.GenerateCSV(); err != nil {
		t.Fatalf("GenerateCSV failed: %v", err)
	}

	file, err := os.Open(outputPath)
	if err != nil {
		t.Fatalf("Failed to open CSV: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("Expected 2 rows without headers, got %d", len(records))
	}
}

func TestGenerateCSV_InvalidPath(t *testing.T) {
	gen := NewGenerator(&GeneratorOptions{OutputPath: "/nonexistent/dir/out.csv"})

	if err := gen.GenerateCSV(); err == nil {
		t.Error("Expected error for invalid output path")
	}
}
