package repository

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/explore-events/internal/filter"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
)

// CreateCompilation inserts the title and pin flag of c and fills in its id.
// Events are attached separately with SetCompilationEvents.
func (q *queries) CreateCompilation(ctx context.Context, c *model.Compilation) error {
	err := q.db.QueryRow(ctx,
		`INSERT INTO compilations (title, pinned) VALUES ($1, $2) RETURNING id`,
		c.Title, c.Pinned,
	).Scan(&c.ID)
	if err != nil {
		return translate(err, "insert compilation")
	}
	return nil
}

// GetCompilation returns a compilation without its events.
func (q *queries) GetCompilation(ctx context.Context, id int64) (*model.Compilation, error) {
	c := model.Compilation{ID: id}
	err := q.db.QueryRow(ctx,
		`SELECT title, pinned FROM compilations WHERE id = $1`,
		id,
	).Scan(&c.Title, &c.Pinned)
	if err != nil {
		return nil, translate(err, "get compilation")
	}
	return &c, nil
}

// ListCompilations returns one page of compilations ordered by id. A nil
// pinned selects both pinned and unpinned ones.
func (q *queries) ListCompilations(ctx context.Context, pinned *bool, page filter.Page) ([]model.Compilation, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, title, pinned
		 FROM compilations
		 WHERE $1::boolean IS NULL OR pinned = $1
		 ORDER BY id
		 LIMIT $2 OFFSET $3`,
		pinned, page.Size, page.From,
	)
	if err != nil {
		return nil, fmt.Errorf("list compilations: %w", err)
	}
	defer rows.Close()

	comps := []model.Compilation{}
	for rows.Next() {
		var c model.Compilation
		if err := rows.Scan(&c.ID, &c.Title, &c.Pinned); err != nil {
			return nil, fmt.Errorf("scan compilation: %w", err)
		}
		comps = append(comps, c)
	}
	return comps, rows.Err()
}

// UpdateCompilation writes the title and pin flag of c.
func (q *queries) UpdateCompilation(ctx context.Context, c *model.Compilation) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE compilations SET title = $2, pinned = $3 WHERE id = $1`,
		c.ID, c.Title, c.Pinned,
	)
	if err != nil {
		return translate(err, "update compilation")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCompilation removes a compilation and its event links.
func (q *queries) DeleteCompilation(ctx context.Context, id int64) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM compilations WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete compilation")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetCompilationEvents replaces the event list of a compilation.
func (q *queries) SetCompilationEvents(ctx context.Context, compID int64, eventIDs []int64) error {
	if _, err := q.db.Exec(ctx,
		`DELETE FROM compilation_events WHERE compilation_id = $1`,
		compID,
	); err != nil {
		return translate(err, "clear compilation events")
	}
	if len(eventIDs) == 0 {
		return nil
	}
	if _, err := q.db.Exec(ctx,
		`INSERT INTO compilation_events (compilation_id, event_id)
		 SELECT $1, unnest($2::bigint[])
		 ON CONFLICT DO NOTHING`,
		compID, eventIDs,
	); err != nil {
		return translate(err, "attach compilation events")
	}
	return nil
}

// ListCompilationEvents returns the events of each named compilation, ordered
// by event id. Compilations without events are absent from the map.
func (q *queries) ListCompilationEvents(ctx context.Context, compIDs []int64) (map[int64][]model.Event, error) {
	rows, err := q.db.Query(ctx,
		`SELECT ce.compilation_id, `+prefixed("e", eventColumns)+`
		 FROM compilation_events ce
		 JOIN events e ON e.id = ce.event_id
		 WHERE ce.compilation_id = ANY($1)
		 ORDER BY ce.compilation_id, e.id`,
		compIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("list compilation events: %w", err)
	}
	defer rows.Close()

	out := map[int64][]model.Event{}
	for rows.Next() {
		var compID int64
		e, err := scanEvent(prefixedRow{row: rows, first: &compID})
		if err != nil {
			return nil, fmt.Errorf("scan compilation event: %w", err)
		}
		out[compID] = append(out[compID], *e)
	}
	return out, rows.Err()
}
