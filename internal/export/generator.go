package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"codeberg.org/ostrova/agora/internal/card"
	"codeberg.org/ostrova/agora/internal/store"
)

// GeneratorOptions configures the definition export
type GeneratorOptions struct {
	OutputPath     string
	IncludeHeaders bool
}

// Generator writes saved definitions to a CSV file for sharing or
// offline analysis
type Generator struct {
	options     *GeneratorOptions
	definitions []store.Definition
}

// NewGenerator creates a new export generator
func NewGenerator(options *GeneratorOptions) *Generator {
	return &Generator{options: options}
}

// Add queues definitions for export
func (g *Generator) Add(defs ...store.Definition) {
	g.definitions = append(g.definitions, defs...)
}

// Len returns the number of queued definitions
func (g *Generator) Len() int {
	return len(g.definitions)
}

// GenerateCSV creates the CSV file
func (g *Generator) GenerateCSV() error {
	// Create output file
	file, err := os.Create(g.options.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	// Create CSV writer
	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write headers if requested
	if g.options.IncludeHeaders {
		headers := []string{"ID", "Term", "Language", "TypeCategory", "KeyAttributes", "ImpactPurpose", "Likes", "CreatedAt"}
		if err := writer.Write(headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	// Write definitions
	for _, def := range g.definitions {
		record := []string{
			def.ID,
			def.TermText,
			string(def.TermLanguage),
			formatSlotField(def.TypeCategory),
			formatSlotField(def.KeyAttributes),
			formatSlotField(def.ImpactPurpose),
			strconv.Itoa(def.Likes),
			def.CreatedAt.Format("2006-01-02 15:04:05"),
		}

		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write definition: %w", err)
		}
	}

	return nil
}

// formatSlotField renders a slot selection for the CSV. Text cards
// export their content directly; media cards export a kind-prefixed
// blob reference.
func formatSlotField(option card.Option) string {
	if option.Kind == card.KindText {
		return option.Content
	}
	return fmt.Sprintf("[%s:%s]", option.Kind, option.Content)
}
