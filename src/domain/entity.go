package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	// ErrMemoNotFound is returned when an id does not exist in the collection
	ErrMemoNotFound = errors.New("memo not found")
	// ErrValidationRejected is returned when a save is attempted with blank content
	ErrValidationRejected = errors.New("memo content is required")
	// ErrCorruptState is returned when persisted state cannot be decoded
	ErrCorruptState = errors.New("persisted memo state is corrupt")
)

// FirstID is the id assigned to the first memo of an empty store
const FirstID = 1

// CreatedAtLayout is the createdAt text form written by browsers (toISOString)
const CreatedAtLayout = "2006-01-02T15:04:05.000Z07:00"

// Memo represents a memo domain entity
type Memo struct {
	ID        int       `json:"id"`
	Content   string    `json:"content"`
	IsEditing bool      `json:"isEditing"`
	CreatedAt time.Time `json:"createdAt"`
}

// MarshalJSON writes createdAt in UTC with exactly three fractional digits
func (m Memo) MarshalJSON() ([]byte, error) {
	type memo Memo
	return json.Marshal(struct {
		memo
		CreatedAt string `json:"createdAt"`
	}{
		memo:      memo(m),
		CreatedAt: m.CreatedAt.UTC().Format(CreatedAtLayout),
	})
}

// IsBlank reports whether the memo content is empty or whitespace only
func (m Memo) IsBlank() bool {
	return IsBlank(m.Content)
}

// IsBlank reports whether s is empty after trimming whitespace
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Snapshot is the durable state of the memo list: the ordered collection
// and the next id to hand out.
type Snapshot struct {
	Memos  []Memo
	NextID int
}

// CloneMemos returns a copy of memos that shares no backing array with the input
func CloneMemos(memos []Memo) []Memo {
	if memos == nil {
		return []Memo{}
	}
	out := make([]Memo, len(memos))
	copy(out, memos)
	return out
}
