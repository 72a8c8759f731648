package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/zeitgeist/internal/symbol"
)

// symbolRefs lists, per kind, every column that may point at a symbol row.
// Storage is absent: media metadata is kept even while unreferenced.
var symbolRefs = map[symbol.Kind][]string{
	symbol.URI: {
		"event.origin_uri_id",
		"subject.uri_id",
		"subject.current_uri_id",
		"subject.origin_uri_id",
		"subject_tag.uri_id",
		"focus_switch.from_subject_id",
		"focus_switch.to_subject_id",
		"focus_duration.subject_id",
	},
	symbol.Interpretation: {"event.interpretation_id", "subject.interpretation_id"},
	symbol.Manifestation:  {"event.manifestation_id", "subject.manifestation_id"},
	symbol.Actor: {
		"event.actor_id",
		"focus_switch.from_actor_id",
		"focus_switch.to_actor_id",
		"focus_duration.actor_id",
	},
	symbol.Mimetype: {"subject.mimetype_id"},
	symbol.Text:     {"subject.text_id"},
	symbol.Tag:      {"subject_tag.tag_id"},
}

// PurgeUnusedSymbols deletes symbol rows that nothing references any more
// and drops them from the cache. It returns the number removed per kind.
func (s *Store) PurgeUnusedSymbols(ctx context.Context) (map[symbol.Kind]int64, error) {
	purged := make(map[symbol.Kind][]int64)
	err := s.Update(ctx, func(tx *Tx) error {
		for _, k := range symbol.Kinds() {
			refs, ok := symbolRefs[k]
			if !ok {
				continue
			}
			ids, err := unusedIDs(ctx, tx, k, refs)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				continue
			}
			in, args := sqlArray(ids)
			if _, err := tx.Exec(ctx, `DELETE FROM `+k.Table()+` WHERE id IN `+in, args...); err != nil {
				return fmt.Errorf("purge %s: %w", k, err)
			}
			tx.Forget(k, ids...)
			purged[k] = ids
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("purge unused symbols: %w", err)
	}

	counts := make(map[symbol.Kind]int64, len(purged))
	for k, ids := range purged {
		counts[k] = int64(len(ids))
		s.logger.Info("purged unused symbols", "kind", k.String(), "count", len(ids))
	}
	return counts, nil
}

func unusedIDs(ctx context.Context, tx *Tx, k symbol.Kind, refs []string) ([]int64, error) {
	parts := make([]string, len(refs))
	for i, ref := range refs {
		tbl, col, _ := strings.Cut(ref, ".")
		parts[i] = fmt.Sprintf("SELECT %s FROM %s WHERE %s IS NOT NULL", col, tbl, col)
	}
	rows, err := tx.Query(ctx,
		`SELECT id FROM `+k.Table()+` WHERE id NOT IN (`+strings.Join(parts, " UNION ")+`) ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("find unused %s: %w", k, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan %s id: %w", k, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
