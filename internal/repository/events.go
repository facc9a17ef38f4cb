package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/explore-events/internal/filter"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
)

const eventColumns = `id, annotation, description, title, category_id, initiator_id,
	location_lat, location_lon, event_date, paid, participant_limit,
	request_moderation, confirmed_requests, state, created_on, published_on`

// prefixed qualifies every column of a column list with alias.
func prefixed(alias, columns string) string {
	fields := strings.Split(columns, ",")
	for i, f := range fields {
		fields[i] = alias + "." + strings.TrimSpace(f)
	}
	return strings.Join(fields, ", ")
}

// prefixedRow scans one leading column into first and hands the rest of the
// row to the wrapped scanner.
type prefixedRow struct {
	row   pgx.Row
	first any
}

// Scan implements pgx.Row.
func (r prefixedRow) Scan(dest ...any) error {
	return r.row.Scan(append([]any{r.first}, dest...)...)
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var (
		e     model.Event
		state string
	)
	err := row.Scan(
		&e.ID, &e.Annotation, &e.Description, &e.Title, &e.CategoryID, &e.InitiatorID,
		&e.Location.Lat, &e.Location.Lon, &e.EventDate, &e.Paid, &e.ParticipantLimit,
		&e.RequestModeration, &e.ConfirmedRequests, &state, &e.CreatedOn, &e.PublishedOn,
	)
	if err != nil {
		return nil, err
	}
	e.State = model.EventState(state)
	e.EventDate = e.EventDate.UTC()
	e.CreatedOn = e.CreatedOn.UTC()
	if e.PublishedOn != nil {
		p := e.PublishedOn.UTC()
		e.PublishedOn = &p
	}
	return &e, nil
}

// CreateEvent inserts e and fills in its generated id and creation time.
// The confirmed counter always starts at zero.
func (q *queries) CreateEvent(ctx context.Context, e *model.Event) error {
	e.ConfirmedRequests = 0
	err := q.db.QueryRow(ctx,
		`INSERT INTO events (annotation, description, title, category_id, initiator_id,
			location_lat, location_lon, event_date, paid, participant_limit,
			request_moderation, state, created_on)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id`,
		e.Annotation, e.Description, e.Title, e.CategoryID, e.InitiatorID,
		e.Location.Lat, e.Location.Lon, e.EventDate, e.Paid, e.ParticipantLimit,
		e.RequestModeration, string(e.State), e.CreatedOn,
	).Scan(&e.ID)
	if err != nil {
		return translate(err, "insert event")
	}
	return nil
}

// GetEvent returns a single event or ErrNotFound.
func (q *queries) GetEvent(ctx context.Context, id int64) (*model.Event, error) {
	e, err := scanEvent(q.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, translate(err, "get event")
	}
	return e, nil
}

// ListEventsByID returns the named events ordered by id. Unknown ids are
// absent from the result.
func (q *queries) ListEventsByID(ctx context.Context, ids []int64) ([]model.Event, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ANY($1) ORDER BY id`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("list events by id: %w", err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// LockEvent reads an event and holds a row-level exclusive lock on it until the
// surrounding transaction ends.
//
// Two submissions against the last free place would otherwise both read
// confirmed_requests = limit-1 and both confirm. With SELECT … FOR UPDATE the
// second transaction blocks here until the first commits, then reads the
// updated counter and is refused. Outside InTx the lock is released at once.
func (q *queries) LockEvent(ctx context.Context, id int64) (*model.Event, error) {
	e, err := scanEvent(q.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`,
		id,
	))
	if err != nil {
		return nil, translate(err, "lock event")
	}
	return e, nil
}

// UpdateEvent writes every editable column and the lifecycle state of e. The
// confirmed counter is left alone; it only moves through AdjustConfirmed.
func (q *queries) UpdateEvent(ctx context.Context, e *model.Event) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE events SET
			annotation = $2, description = $3, title = $4, category_id = $5,
			location_lat = $6, location_lon = $7, event_date = $8, paid = $9,
			participant_limit = $10, request_moderation = $11, state = $12,
			published_on = $13
		 WHERE id = $1`,
		e.ID, e.Annotation, e.Description, e.Title, e.CategoryID,
		e.Location.Lat, e.Location.Lon, e.EventDate, e.Paid,
		e.ParticipantLimit, e.RequestModeration, string(e.State),
		e.PublishedOn,
	)
	if err != nil {
		return translate(err, "update event")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchEvents returns one page of events matching f. SortEventDate orders by
// event date; anything else orders by id, and VIEWS ordering is left to the
// caller once views are known.
func (q *queries) SearchEvents(ctx context.Context, f filter.Filter, sort filter.Sort, page filter.Page) ([]model.Event, error) {
	where, args := f.Where()
	order := "id"
	if sort == filter.SortEventDate {
		order = "event_date, id"
	}
	n := len(args)
	args = append(args, page.Size, page.From)

	sql := `SELECT ` + eventColumns + ` FROM events WHERE ` + where +
		` ORDER BY ` + order +
		` LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)

	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// AdjustConfirmed adds delta to the confirmed counter of an event and returns
// the new value. The update is refused with ErrCounterBound when the result
// would be negative or exceed a non-zero participant limit.
func (q *queries) AdjustConfirmed(ctx context.Context, eventID int64, delta int) (int, error) {
	var confirmed int
	err := q.db.QueryRow(ctx,
		`UPDATE events
		 SET confirmed_requests = confirmed_requests + $2
		 WHERE id = $1
		   AND confirmed_requests + $2 >= 0
		   AND (participant_limit = 0 OR confirmed_requests + $2 <= participant_limit)
		 RETURNING confirmed_requests`,
		eventID, delta,
	).Scan(&confirmed)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("adjust confirmed of event %d by %d: %w", eventID, delta, ErrCounterBound)
	}
	if err != nil {
		return 0, translate(err, "adjust confirmed")
	}
	return confirmed, nil
}
