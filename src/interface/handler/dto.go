package handler

import (
	"time"

	"memo-app/src/validator"
)

// ContentRequestDTO represents the live-typing request body
type ContentRequestDTO struct {
	Content string `json:"content" validate:"max=10000,safe_text"`
}

// SaveMemoRequestDTO represents the save request body
type SaveMemoRequestDTO struct {
	Content string `json:"content" validate:"not_blank,max=10000,safe_text"`
}

// QueryRequestDTO represents the set-query request body
type QueryRequestDTO struct {
	Query string `json:"query" validate:"max=200,safe_text"`
}

// MemoResponseDTO represents HTTP response for a memo
type MemoResponseDTO struct {
	ID        int       `json:"id"`
	Content   string    `json:"content"`
	IsEditing bool      `json:"isEditing"`
	CreatedAt time.Time `json:"createdAt"`
}

// MemoListResponseDTO represents HTTP response for the memo list
type MemoListResponseDTO struct {
	Memos        []MemoResponseDTO `json:"memos"`
	Total        int               `json:"total"`
	Query        string            `json:"query"`
	EmptyMessage string            `json:"emptyMessage,omitempty"`
}

// ErrorResponseDTO represents HTTP error response
type ErrorResponseDTO struct {
	Error   string                      `json:"error"`
	Message string                      `json:"message,omitempty"`
	Details []validator.ValidationError `json:"details,omitempty"`
}
