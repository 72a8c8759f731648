package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/zeitgeist/internal/event"
	"github.com/roach88/zeitgeist/internal/symbol"
)

// TagCount is one row of a tag aggregate.
type TagCount struct {
	Tag      string `json:"tag"`
	Count    int64  `json:"count"`
	LastUsed int64  `json:"last_used"`
}

// MostUsedTags ranks tags by how many subject taggings fall in rng, most
// used first. Ties go to the alphabetically smaller tag.
func (s *Store) MostUsedTags(ctx context.Context, rng event.TimeRange, limit int) ([]TagCount, error) {
	return s.tagAggregate(ctx, rng, limit, "n DESC, t.value ASC")
}

// RecentTags ranks tags by their latest use in rng, newest first.
func (s *Store) RecentTags(ctx context.Context, rng event.TimeRange, limit int) ([]TagCount, error) {
	return s.tagAggregate(ctx, rng, limit, "last_used DESC, t.value ASC")
}

func (s *Store) tagAggregate(ctx context.Context, rng event.TimeRange, limit int, order string) ([]TagCount, error) {
	query := `
		SELECT t.value, COUNT(*) AS n, MAX(e.timestamp) AS last_used
		FROM subject_tag st
		JOIN event e ON e.id = st.event_id
		JOIN tag t ON t.id = st.tag_id
		WHERE e.timestamp >= ?`
	args := []any{rng.Start}
	if rng.Bounded() {
		query += ` AND e.timestamp < ?`
		args = append(args, rng.End)
	}
	query += ` GROUP BY st.tag_id ORDER BY ` + order
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	out := []TagCount{}
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count, &tc.LastUsed); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out = append(out, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return out, nil
}

// TagsForURI returns the distinct tags ever attached to uri, sorted.
func (s *Store) TagsForURI(ctx context.Context, uri string) ([]string, error) {
	id, err := s.symbols.Lookup(symbol.URI, uri)
	if errors.Is(err, symbol.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT t.value FROM subject_tag st
		JOIN tag t ON t.id = st.tag_id
		WHERE st.uri_id = ?
		ORDER BY t.value ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query tags for uri: %w", err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return tags, nil
}
