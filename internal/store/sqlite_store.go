package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"codeberg.org/ostrova/agora/internal"
	"codeberg.org/ostrova/agora/internal/card"
)

// SQLiteStore implements OptionRepository and DefinitionStore on a
// single SQLite database file.
type SQLiteStore struct {
	db *sql.DB

	mu          sync.Mutex
	subscribers []func([]Definition)
}

// NewSQLiteStore opens (creating if necessary) the database at filePath
// and initializes the schema
func NewSQLiteStore(filePath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(filePath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS options (
		id TEXT PRIMARY KEY,
		term_id TEXT NOT NULL,
		slot TEXT NOT NULL,
		kind TEXT NOT NULL,
		content TEXT NOT NULL,
		origin TEXT NOT NULL,
		language TEXT NOT NULL DEFAULT '',
		waveform TEXT,
		created_at INTEGER NOT NULL,
		UNIQUE(term_id, slot, kind, content, language)
	);
	CREATE TABLE IF NOT EXISTS definitions (
		id TEXT PRIMARY KEY,
		term_id TEXT NOT NULL,
		term_language TEXT NOT NULL,
		term_text TEXT NOT NULL,
		type_category TEXT NOT NULL,
		key_attributes TEXT NOT NULL,
		impact_purpose TEXT NOT NULL,
		likes INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_options_term ON options(term_id, slot);
	CREATE INDEX IF NOT EXISTS idx_definitions_created ON definitions(created_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// GetOptions returns all candidate options for a term, keyed by slot
func (s *SQLiteStore) GetOptions(ctx context.Context, termID string) (OptionSet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, slot, kind, content, origin, language, waveform
		FROM options
		WHERE term_id = ?
		ORDER BY created_at, id`,
		termID,
	)
	if err != nil {
		return nil, &RepositoryError{Op: "getOptions", Err: err}
	}
	defer rows.Close()

	set := OptionSet{}
	for rows.Next() {
		var opt card.Option
		var slot card.Slot
		var waveform sql.NullString
		if err := rows.Scan(&opt.ID, &slot, &opt.Kind, &opt.Content, &opt.Origin, &opt.Language, &waveform); err != nil {
			return nil, &RepositoryError{Op: "getOptions", Err: err}
		}
		if waveform.Valid && waveform.String != "" {
			if err := json.Unmarshal([]byte(waveform.String), &opt.Waveform); err != nil {
				// A corrupt envelope only degrades the preview
				opt.Waveform = nil
			}
		}
		set[slot] = append(set[slot], opt)
	}
	if err := rows.Err(); err != nil {
		return nil, &RepositoryError{Op: "getOptions", Err: err}
	}
	return set, nil
}

// AppendOption stores option under (termID, slot) and returns the stored
// option. When an option with the same (kind, content, language) already
// exists for that slot, the existing row is returned unchanged.
func (s *SQLiteStore) AppendOption(ctx context.Context, termID string, slot card.Slot, option card.Option) (card.Option, error) {
	if !card.ValidSlot(slot) {
		return card.Option{}, &RepositoryError{Op: "appendOption", Err: fmt.Errorf("unknown slot %q", slot)}
	}

	existing, err := s.findOption(ctx, termID, slot, option)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return card.Option{}, &RepositoryError{Op: "appendOption", Err: err}
	}

	if option.ID == "" {
		option.ID = internal.GenerateID(string(option.Kind) + option.Content)
	}

	var waveform any
	if len(option.Waveform) > 0 {
		data, err := json.Marshal(option.Waveform)
		if err != nil {
			return card.Option{}, &RepositoryError{Op: "appendOption", Err: err}
		}
		waveform = string(data)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO options (id, term_id, slot, kind, content, origin, language, waveform, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		option.ID, termID, slot, option.Kind, option.Content, option.Origin,
		option.Language, waveform, time.Now().UnixMilli(),
	)
	if err != nil {
		// A concurrent writer may have won the unique-index race
		if existing, findErr := s.findOption(ctx, termID, slot, option); findErr == nil {
			return existing, nil
		}
		return card.Option{}, &RepositoryError{Op: "appendOption", Err: err}
	}
	return option, nil
}

func (s *SQLiteStore) findOption(ctx context.Context, termID string, slot card.Slot, option card.Option) (card.Option, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, content, origin, language, waveform
		FROM options
		WHERE term_id = ? AND slot = ? AND kind = ? AND content = ? AND language = ?`,
		termID, slot, option.Kind, option.Content, option.Language,
	)

	var found card.Option
	var waveform sql.NullString
	if err := row.Scan(&found.ID, &found.Kind, &found.Content, &found.Origin, &found.Language, &waveform); err != nil {
		return card.Option{}, err
	}
	if waveform.Valid && waveform.String != "" {
		if err := json.Unmarshal([]byte(waveform.String), &found.Waveform); err != nil {
			found.Waveform = nil
		}
	}
	return found, nil
}

// Create persists a new definition and notifies subscribers
func (s *SQLiteStore) Create(ctx context.Context, def Definition) (string, error) {
	if def.ID == "" {
		def.ID = internal.GenerateID(def.TermID + def.TermText)
	}
	if def.CreatedAt.IsZero() {
		def.CreatedAt = time.Now()
	}

	slots := make(map[string]string, 3)
	for col, opt := range map[string]card.Option{
		"type_category":  def.TypeCategory,
		"key_attributes": def.KeyAttributes,
		"impact_purpose": def.ImpactPurpose,
	} {
		data, err := json.Marshal(opt)
		if err != nil {
			return "", &RepositoryError{Op: "create", Err: err}
		}
		slots[col] = string(data)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO definitions (id, term_id, term_language, term_text,
			type_category, key_attributes, impact_purpose, likes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		def.ID, def.TermID, def.TermLanguage, def.TermText,
		slots["type_category"], slots["key_attributes"], slots["impact_purpose"],
		def.Likes, def.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return "", &RepositoryError{Op: "create", Err: err}
	}

	s.notify(ctx)
	return def.ID, nil
}

// UpdateLikes sets the likes counter of a definition and notifies
// subscribers
func (s *SQLiteStore) UpdateLikes(ctx context.Context, id string, likes int) error {
	if likes < 0 {
		likes = 0
	}
	res, err := s.db.ExecContext(ctx, `UPDATE definitions SET likes = ? WHERE id = ?`, likes, id)
	if err != nil {
		return &RepositoryError{Op: "updateLikes", Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &RepositoryError{Op: "updateLikes", Err: fmt.Errorf("definition %s not found", id)}
	}

	s.notify(ctx)
	return nil
}

// List returns all saved definitions, newest first
func (s *SQLiteStore) List(ctx context.Context) ([]Definition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, term_id, term_language, term_text,
			type_category, key_attributes, impact_purpose, likes, created_at
		FROM definitions
		ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, &RepositoryError{Op: "list", Err: err}
	}
	defer rows.Close()

	var defs []Definition
	for rows.Next() {
		var def Definition
		var typeCategory, keyAttributes, impactPurpose string
		var createdAt int64
		if err := rows.Scan(&def.ID, &def.TermID, &def.TermLanguage, &def.TermText,
			&typeCategory, &keyAttributes, &impactPurpose, &def.Likes, &createdAt); err != nil {
			return nil, &RepositoryError{Op: "list", Err: err}
		}
		if err := json.Unmarshal([]byte(typeCategory), &def.TypeCategory); err != nil {
			return nil, &RepositoryError{Op: "list", Err: err}
		}
		if err := json.Unmarshal([]byte(keyAttributes), &def.KeyAttributes); err != nil {
			return nil, &RepositoryError{Op: "list", Err: err}
		}
		if err := json.Unmarshal([]byte(impactPurpose), &def.ImpactPurpose); err != nil {
			return nil, &RepositoryError{Op: "list", Err: err}
		}
		def.CreatedAt = time.UnixMilli(createdAt)
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

// Subscribe registers fn to receive the full newest-first definitions
// list after every change. The current list is delivered immediately so
// a new subscriber does not start from an empty feed.
func (s *SQLiteStore) Subscribe(fn func([]Definition)) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()

	if defs, err := s.List(context.Background()); err == nil {
		fn(defs)
	}
}

func (s *SQLiteStore) notify(ctx context.Context) {
	defs, err := s.List(ctx)
	if err != nil {
		return
	}
	s.mu.Lock()
	subscribers := make([]func([]Definition), len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(defs)
	}
}
