package model

import (
	"encoding/json"
	"time"
)

// Comment is a remark a user left under a published event.
type Comment struct {
	ID         int64
	Text       string
	EventID    int64
	AuthorID   int64
	AuthorName string
	Created    time.Time
}

// UserShort identifies a user without exposing contact details.
type UserShort struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type commentJSON struct {
	ID      int64     `json:"id"`
	Text    string    `json:"text"`
	Created DateTime  `json:"created"`
	Author  UserShort `json:"author"`
	EventID int64     `json:"eventId"`
}

// MarshalJSON renders the comment with its author folded into a short form.
func (c Comment) MarshalJSON() ([]byte, error) {
	return json.Marshal(commentJSON{
		ID:      c.ID,
		Text:    c.Text,
		Created: DateTime{c.Created},
		Author:  UserShort{ID: c.AuthorID, Name: c.AuthorName},
		EventID: c.EventID,
	})
}

// CommentRequest is the payload for writing or editing a comment.
type CommentRequest struct {
	Text string `json:"text" validate:"required,min=2,max=2000"`
}
