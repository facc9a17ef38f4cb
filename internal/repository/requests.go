package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/explore-events/internal/model"
)

const requestColumns = `id, event_id, requester_id, status, created`

func scanRequest(row pgx.Row) (*model.Request, error) {
	var (
		r      model.Request
		status string
	)
	if err := row.Scan(&r.ID, &r.EventID, &r.RequesterID, &status, &r.Created); err != nil {
		return nil, err
	}
	r.Status = model.RequestStatus(status)
	r.Created = r.Created.UTC()
	return &r, nil
}

func (q *queries) listRequests(ctx context.Context, op, sql string, args ...any) ([]model.Request, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	reqs := []model.Request{}
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		reqs = append(reqs, *r)
	}
	return reqs, rows.Err()
}

// CreateRequest inserts r and fills in its id. A second active request for
// the same (event, requester) pair fails with ErrDuplicate.
func (q *queries) CreateRequest(ctx context.Context, r *model.Request) error {
	err := q.db.QueryRow(ctx,
		`INSERT INTO requests (event_id, requester_id, status, created)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		r.EventID, r.RequesterID, string(r.Status), r.Created,
	).Scan(&r.ID)
	if err != nil {
		return translate(err, "insert request")
	}
	return nil
}

// GetRequest returns a single request or ErrNotFound.
func (q *queries) GetRequest(ctx context.Context, id int64) (*model.Request, error) {
	r, err := scanRequest(q.db.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, translate(err, "get request")
	}
	return r, nil
}

// LockRequests reads the named requests in id order and locks their rows.
// Ids that do not exist are simply absent from the result.
func (q *queries) LockRequests(ctx context.Context, ids []int64) ([]model.Request, error) {
	return q.listRequests(ctx, "lock requests",
		`SELECT `+requestColumns+` FROM requests WHERE id = ANY($1) ORDER BY id FOR UPDATE`,
		ids,
	)
}

// ListRequestsByEvent returns every request made for an event, by id.
func (q *queries) ListRequestsByEvent(ctx context.Context, eventID int64) ([]model.Request, error) {
	return q.listRequests(ctx, "list event requests",
		`SELECT `+requestColumns+` FROM requests WHERE event_id = $1 ORDER BY id`,
		eventID,
	)
}

// ListRequestsByRequester returns every request a user made, by id.
func (q *queries) ListRequestsByRequester(ctx context.Context, requesterID int64) ([]model.Request, error) {
	return q.listRequests(ctx, "list requester requests",
		`SELECT `+requestColumns+` FROM requests WHERE requester_id = $1 ORDER BY id`,
		requesterID,
	)
}

// HasActiveRequest reports whether the requester holds a PENDING or CONFIRMED
// request for the event.
func (q *queries) HasActiveRequest(ctx context.Context, eventID, requesterID int64) (bool, error) {
	active := make([]string, len(model.ActiveRequestStatuses))
	for i, s := range model.ActiveRequestStatuses {
		active[i] = string(s)
	}
	var found bool
	err := q.db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM requests
			WHERE event_id = $1 AND requester_id = $2 AND status = ANY($3)
		)`,
		eventID, requesterID, active,
	).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("check active request: %w", err)
	}
	return found, nil
}

// UpdateRequestStatus sets the status of one request.
func (q *queries) UpdateRequestStatus(ctx context.Context, id int64, status model.RequestStatus) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE requests SET status = $2 WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return translate(err, "update request status")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
