// Package terms loads the static bilingual vocabulary dataset.
//
// The dataset ships embedded in the binary; a JSON file with the same
// shape can be supplied to override it. Terms are read-only once loaded.
package terms

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"

	"codeberg.org/ostrova/agora/internal/card"
)

//go:embed data/terms.json
var embedded embed.FS

// Catalog is an immutable, ordered collection of vocabulary terms
type Catalog struct {
	terms []card.Term
	byID  map[string]int
}

// Load reads a terms dataset from a JSON file
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read terms dataset: %w", err)
	}
	return parse(data)
}

// Embedded returns the dataset compiled into the binary
func Embedded() (*Catalog, error) {
	data, err := embedded.ReadFile("data/terms.json")
	if err != nil {
		return nil, fmt.Errorf("embedded terms dataset missing: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Catalog, error) {
	var terms []card.Term
	if err := json.Unmarshal(data, &terms); err != nil {
		return nil, fmt.Errorf("failed to parse terms dataset: %w", err)
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("terms dataset is empty")
	}

	byID := make(map[string]int, len(terms))
	for i, term := range terms {
		if term.ID == "" {
			return nil, fmt.Errorf("term at index %d has no id", i)
		}
		if _, dup := byID[term.ID]; dup {
			return nil, fmt.Errorf("duplicate term id %q", term.ID)
		}
		byID[term.ID] = i
	}

	return &Catalog{terms: terms, byID: byID}, nil
}

// Len returns the number of terms in the catalog
func (c *Catalog) Len() int {
	return len(c.terms)
}

// At returns the term at index i, wrapping around in both directions so
// callers can flip past either end of the catalog
func (c *Catalog) At(i int) card.Term {
	n := len(c.terms)
	return c.terms[((i%n)+n)%n]
}

// ByID looks up a term by its stable identifier
func (c *Catalog) ByID(id string) (card.Term, bool) {
	i, ok := c.byID[id]
	if !ok {
		return card.Term{}, false
	}
	return c.terms[i], true
}

// IDs returns the term identifiers in catalog order
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.terms))
	for i, term := range c.terms {
		ids[i] = term.ID
	}
	return ids
}
