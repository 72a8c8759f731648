package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/zeitgeist/internal/symbol"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Storage describes a storage medium (a volume or device) holding subjects.
type Storage struct {
	Value       string `json:"value"`
	Available   bool   `json:"available"`
	Icon        string `json:"icon,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// SetStorageState records a medium's reachability and display metadata,
// interning the medium if it is new.
func (s *Store) SetStorageState(ctx context.Context, st Storage) error {
	if st.Value == "" {
		return fmt.Errorf("set storage state: empty storage value")
	}
	state := 0
	if st.Available {
		state = 1
	}
	err := s.Update(ctx, func(tx *Tx) error {
		id, err := tx.Intern(ctx, symbol.Storage, st.Value)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE storage SET state = ?, icon = ?, display_name = ? WHERE id = ?
		`, state, nullString(st.Icon), nullString(st.DisplayName), id)
		return err
	})
	if err != nil {
		return fmt.Errorf("set storage state: %w", err)
	}
	return nil
}

// Storage returns the recorded state of a medium.
func (s *Store) Storage(ctx context.Context, value string) (Storage, error) {
	var state int
	var icon, name sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT state, icon, display_name FROM storage WHERE value = ?`, value).Scan(&state, &icon, &name)
	if errors.Is(err, sql.ErrNoRows) {
		return Storage{}, fmt.Errorf("storage %q: %w", value, ErrNotFound)
	}
	if err != nil {
		return Storage{}, fmt.Errorf("read storage: %w", err)
	}
	return Storage{
		Value:       value,
		Available:   state == 1,
		Icon:        icon.String,
		DisplayName: name.String,
	}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
