package notes

import "time"

// Tag is a shared label. Name is always in normalized form and unique.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Note carries its tag names in the order they were resolved at the last
// write.
type Note struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteInput is the body of both create and update; update replaces every
// field, including the complete tag set.
type NoteInput struct {
	Title   string   `json:"title" validate:"required,max=200"`
	Content string   `json:"content" validate:"required,max=10000"`
	Tags    []string `json:"tags" validate:"dive,max=100"`
}

type TagInput struct {
	Name string `json:"name" validate:"required,max=100"`
}
