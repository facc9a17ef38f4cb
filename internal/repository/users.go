package repository

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/explore-events/internal/filter"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
)

// CreateUser inserts a user. A taken email fails with ErrDuplicate.
func (q *queries) CreateUser(ctx context.Context, name, email string) (*model.User, error) {
	u := &model.User{Name: name, Email: email}
	err := q.db.QueryRow(ctx,
		`INSERT INTO users (name, email) VALUES ($1, $2) RETURNING id`,
		name, email,
	).Scan(&u.ID)
	if err != nil {
		return nil, translate(err, "insert user")
	}
	return u, nil
}

// GetUser returns a single user or ErrNotFound.
func (q *queries) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := q.db.QueryRow(ctx,
		`SELECT id, name, email FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Name, &u.Email)
	if err != nil {
		return nil, translate(err, "get user")
	}
	return &u, nil
}

// LockUser reads a user and holds a row lock on it until the surrounding
// transaction ends. Inserts that reference the user wait for the lock, so no
// new request can appear while the user is being deleted.
func (q *queries) LockUser(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := q.db.QueryRow(ctx,
		`SELECT id, name, email FROM users WHERE id = $1 FOR UPDATE`,
		id,
	).Scan(&u.ID, &u.Name, &u.Email)
	if err != nil {
		return nil, translate(err, "lock user")
	}
	return &u, nil
}

// ListUsers returns users ordered by id. An empty ids slice selects everyone.
func (q *queries) ListUsers(ctx context.Context, ids []int64, page filter.Page) ([]model.User, error) {
	var filterIDs any
	if len(ids) > 0 {
		filterIDs = ids
	}
	rows, err := q.db.Query(ctx,
		`SELECT id, name, email
		 FROM users
		 WHERE $1::bigint[] IS NULL OR id = ANY($1)
		 ORDER BY id
		 LIMIT $2 OFFSET $3`,
		filterIDs, page.Size, page.From,
	)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// DeleteUser removes the user. Its events, its requests and the requests
// made for its events go with it through ON DELETE CASCADE.
func (q *queries) DeleteUser(ctx context.Context, id int64) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete user")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
