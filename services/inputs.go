package services

import (
	"bytes"
	"encoding/json"

	"quick-jot/quickjot/models"
)

// Nullable distinguishes an omitted field (Set false) from an explicit null
// (Set true, Value nil) and a value.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

func Some[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.Set || n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

type CreateFolderInput struct {
	Name     string  `json:"name" binding:"required"`
	ParentID *string `json:"parent_id"`
}

type UpdateFolderInput struct {
	Name     *string          `json:"name,omitempty"`
	ParentID Nullable[string] `json:"parent_id"`
}

type CreateNoteInput struct {
	Title    string           `json:"title"`
	Content  *models.Document `json:"content"`
	FolderID string           `json:"folder_id" binding:"required"`
}

type NoteFilter struct {
	FolderID string `json:"folder_id" binding:"required"`
	Q        string `json:"q"`
}

type UpdateNoteInput struct {
	Title   *string                   `json:"title,omitempty"`
	Content Nullable[models.Document] `json:"content"`
}

type MoveNoteInput struct {
	FolderID string `json:"folder_id" binding:"required"`
}

type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}
