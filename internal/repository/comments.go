package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/explore-events/internal/filter"
	"github.com/Shivanand-hulikatti/explore-events/internal/model"
)

// CommentFilter narrows ListComments. Zero fields are ignored.
type CommentFilter struct {
	AuthorID int64
	EventID  int64
	// Text matches comments containing it, case-insensitively.
	Text string
}

const commentSelect = `SELECT c.id, c.text, c.event_id, c.author_id, u.name, c.created
	FROM comments c JOIN users u ON u.id = c.author_id`

func scanComment(row pgx.Row) (*model.Comment, error) {
	var c model.Comment
	if err := row.Scan(&c.ID, &c.Text, &c.EventID, &c.AuthorID, &c.AuthorName, &c.Created); err != nil {
		return nil, err
	}
	c.Created = c.Created.UTC()
	return &c, nil
}

// CreateComment inserts c and fills in its id and author name.
func (q *queries) CreateComment(ctx context.Context, c *model.Comment) error {
	err := q.db.QueryRow(ctx,
		`WITH inserted AS (
			INSERT INTO comments (text, event_id, author_id, created)
			VALUES ($1, $2, $3, $4)
			RETURNING id, author_id
		)
		SELECT i.id, u.name FROM inserted i JOIN users u ON u.id = i.author_id`,
		c.Text, c.EventID, c.AuthorID, c.Created,
	).Scan(&c.ID, &c.AuthorName)
	if err != nil {
		return translate(err, "insert comment")
	}
	return nil
}

// GetComment returns a single comment or ErrNotFound.
func (q *queries) GetComment(ctx context.Context, id int64) (*model.Comment, error) {
	c, err := scanComment(q.db.QueryRow(ctx, commentSelect+` WHERE c.id = $1`, id))
	if err != nil {
		return nil, translate(err, "get comment")
	}
	return c, nil
}

// UpdateCommentText replaces the text of a comment and returns it.
func (q *queries) UpdateCommentText(ctx context.Context, id int64, text string) (*model.Comment, error) {
	tag, err := q.db.Exec(ctx, `UPDATE comments SET text = $2 WHERE id = $1`, id, text)
	if err != nil {
		return nil, translate(err, "update comment")
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return q.GetComment(ctx, id)
}

// DeleteComment removes a comment.
func (q *queries) DeleteComment(ctx context.Context, id int64) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete comment")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListComments returns one page of comments matching f, newest first.
func (q *queries) ListComments(ctx context.Context, f CommentFilter, page filter.Page) ([]model.Comment, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}
	if f.AuthorID != 0 {
		add("c.author_id = ?", f.AuthorID)
	}
	if f.EventID != 0 {
		add("c.event_id = ?", f.EventID)
	}
	if f.Text != "" {
		add("c.text ILIKE ?", filter.ContainsPattern(f.Text))
	}
	where := "TRUE"
	if len(conds) > 0 {
		where = strings.Join(conds, " AND ")
	}
	n := len(args)
	args = append(args, page.Size, page.From)

	rows, err := q.db.Query(ctx,
		commentSelect+` WHERE `+where+
			` ORDER BY c.created DESC, c.id DESC`+
			` LIMIT $`+strconv.Itoa(n+1)+` OFFSET $`+strconv.Itoa(n+2),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}
