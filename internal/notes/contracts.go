package notes

import (
	"context"
	"time"
)

// Location identifies a written note.
type Location struct {
	Path     string
	Filename string
	Category string
	Size     int
	Created  time.Time
}

// Note is the listing view of a stored note.
type Note struct {
	Filename string    `json:"filename"`
	Path     string    `json:"path"`
	Category string    `json:"category"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Sink receives generated content. Implementations must be safe for
// concurrent use.
type Sink interface {
	CreateNote(ctx context.Context, title, body, category string) (Location, error)
}
