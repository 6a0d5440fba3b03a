package batch

import (
	"fmt"
	"os"
	"strings"

	"codeberg.org/ostrova/agora/internal/card"
)

// Entry represents one definition to import: a term and the text
// contributed for each slot. An empty slot text keeps the term's
// default card.
type Entry struct {
	TermID string
	Slots  map[card.Slot]string
}

// ReadImportFile reads definitions from a file and returns one Entry
// per line. Supported formats:
// - Term only: "DEMOCRACY" (all three slots keep their defaults)
// - With contributions: "DEMOCRACY | a form of government | rule by the people | legitimate decisions"
// Trailing slots may be omitted; empty slots keep their defaults.
// Lines starting with '#' are comments.
func ReadImportFile(filename string) ([]Entry, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}

	var entries []Entry
	lines := string(content)

	for _, line := range splitLines(lines) {
		if line = trimSpace(line); line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, "|")
		termID := strings.TrimSpace(parts[0])
		if termID == "" {
			continue
		}

		entry := Entry{
			TermID: termID,
			Slots:  make(map[card.Slot]string),
		}
		for i, slot := range card.Slots {
			if i+1 < len(parts) {
				entry.Slots[slot] = strings.TrimSpace(parts[i+1])
			}
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// splitLines splits a string by newlines
func splitLines(s string) []string {
	var lines []string
	current := ""
	for _, r := range s {
		if r == '\n' {
			lines = append(lines, current)
			current = ""
		} else if r != '\r' {
			current += string(r)
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// trimSpace trims whitespace from string
func trimSpace(s string) string {
	start := 0
	end := len(s)

	// Trim from start
	for start < end && isSpace(rune(s[start])) {
		start++
	}

	// Trim from end
	for end > start && isSpace(rune(s[end-1])) {
		end--
	}

	return s[start:end]
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
