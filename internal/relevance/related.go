package relevance

import (
	"context"
	"fmt"
	"time"
)

// RelatedOptions bound a co-occurrence query. Zero fields take the
// package defaults.
type RelatedOptions struct {
	// Horizon is how far back from now anchor occurrences are taken.
	Horizon time.Duration
	// Radius is the half-width of the window around each occurrence.
	Radius time.Duration
	// Limit caps the number of results.
	Limit int
}

func (o RelatedOptions) withDefaults() (RelatedOptions, error) {
	if o.Horizon < 0 || o.Radius < 0 || o.Limit < 0 {
		return o, fmt.Errorf("related options must not be negative: %+v", o)
	}
	if o.Horizon == 0 {
		o.Horizon = DefaultHorizon
	}
	if o.Radius == 0 {
		o.Radius = DefaultRadius
	}
	o.Limit = limitOrDefault(o.Limit)
	return o, nil
}

// RelatedItems ranks URIs by temporal co-occurrence with anchor.
//
// Every event of the anchor inside [now-Horizon, now] opens a window
// [t-Radius, t+Radius], clipped to that same horizon. Each subject row of
// another URI whose event falls in a window scores one point for that URI,
// once per window. The anchor itself never scores.
func (e *Engine) RelatedItems(ctx context.Context, anchor string, opts RelatedOptions) ([]Ranked, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, fmt.Errorf("related items: %w", err)
	}
	id, ok, err := lookupURI(e.store, anchor)
	if err != nil {
		return nil, fmt.Errorf("related items: %w", err)
	}
	if !ok {
		return []Ranked{}, nil
	}

	now := e.clock.Now().UnixMilli()
	from := now - opts.Horizon.Milliseconds()
	radius := opts.Radius.Milliseconds()

	ranked, err := queryRanked(ctx, e.store, "related items", `
		WITH occurrence AS (
			SELECT DISTINCT e.id, e.timestamp AS t
			FROM event e JOIN subject s ON s.event_id = e.id
			WHERE s.uri_id = ? AND e.timestamp >= ? AND e.timestamp <= ?
		)
		SELECT u.value, COUNT(*) AS n
		FROM occurrence o
		JOIN event e ON e.timestamp >= MAX(o.t - ?, ?) AND e.timestamp <= MIN(o.t + ?, ?)
		JOIN subject s ON s.event_id = e.id
		JOIN uri u ON u.id = s.uri_id
		WHERE s.uri_id != ?
		GROUP BY s.uri_id
		ORDER BY n DESC, u.value ASC
		LIMIT ?
	`, id, from, now, radius, from, radius, now, id, opts.Limit)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("related items", "anchor", anchor, "results", len(ranked))
	return ranked, nil
}

// ItemsRelatedByTags ranks URIs by how many distinct tags they share with
// anchor. URIs sharing no tag are absent.
func (e *Engine) ItemsRelatedByTags(ctx context.Context, anchor string, limit int) ([]Ranked, error) {
	id, ok, err := lookupURI(e.store, anchor)
	if err != nil {
		return nil, fmt.Errorf("items related by tags: %w", err)
	}
	if !ok {
		return []Ranked{}, nil
	}

	return queryRanked(ctx, e.store, "items related by tags", `
		SELECT u.value, COUNT(DISTINCT st.tag_id) AS n
		FROM subject_tag st
		JOIN uri u ON u.id = st.uri_id
		WHERE st.tag_id IN (SELECT tag_id FROM subject_tag WHERE uri_id = ?)
		  AND st.uri_id != ?
		GROUP BY st.uri_id
		ORDER BY n DESC, u.value ASC
		LIMIT ?
	`, id, id, limitOrDefault(limit))
}
