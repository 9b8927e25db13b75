package services

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"quick-jot/quickjot/database"
	"quick-jot/quickjot/models"
)

type NoteServiceInterface interface {
	CreateNote(db *database.Database, userID uuid.UUID, input CreateNoteInput) (models.Note, error)
	ListNotes(db *database.Database, userID uuid.UUID, filter NoteFilter) ([]models.Note, error)
	GetNoteById(db *database.Database, userID uuid.UUID, id string) (models.Note, error)
	UpdateNote(db *database.Database, userID uuid.UUID, id string, input UpdateNoteInput) (models.Note, error)
	MoveNote(db *database.Database, userID uuid.UUID, id string, input MoveNoteInput) (models.Note, error)
	ToggleNotePin(db *database.Database, userID uuid.UUID, id string) (models.Note, error)
	DeleteNote(db *database.Database, userID uuid.UUID, id string) error
	SearchNotes(db *database.Database, userID uuid.UUID, q string) ([]NoteSearchResult, error)
}

// NoteSearchResult is a note annotated with the name of its folder.
type NoteSearchResult struct {
	models.Note
	FolderName string `json:"folder_name"`
}

type NoteService struct{}

func NewNoteService() *NoteService {
	return &NoteService{}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching q anywhere with wildcards
// escaped.
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}

// containsMatch returns a case-insensitive substring condition on column.
// Postgres folds with ILIKE. SQLite's LOWER only folds ASCII, so both sides
// are lowered in SQL and an exact-case query always matches.
func containsMatch(db *gorm.DB, column string) string {
	if db.Dialector != nil && db.Dialector.Name() == "postgres" {
		return column + ` ILIKE ? ESCAPE '\'`
	}
	return "LOWER(" + column + `) LIKE LOWER(?) ESCAPE '\'`
}

func validateNoteTitle(title string) error {
	if utf8.RuneCountInString(title) > models.MaxNoteTitleLength {
		return invalidInput("Title must be at most %d characters", models.MaxNoteTitleLength)
	}
	return nil
}

func findOwnedNote(tx *gorm.DB, userID, id uuid.UUID) (models.Note, error) {
	var note models.Note
	if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&note).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Note{}, ErrNoteNotFound
		}
		return models.Note{}, err
	}
	return note, nil
}

func (s *NoteService) CreateNote(db *database.Database, userID uuid.UUID, input CreateNoteInput) (models.Note, error) {
	if err := validateNoteTitle(input.Title); err != nil {
		return models.Note{}, err
	}
	folderID, ok := parseID(input.FolderID)
	if !ok {
		return models.Note{}, ErrFolderNotFound
	}

	note := models.Note{
		Title:    input.Title,
		FolderID: folderID,
		UserID:   userID,
		Pinned:   false,
	}
	if err := note.SetContent(input.Content); err != nil {
		return models.Note{}, invalidInput("Invalid note content")
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := findOwnedFolder(tx, userID, folderID, ErrFolderNotFound); err != nil {
			return err
		}
		if err := tx.Create(&note).Error; err != nil {
			if database.IsForeignKeyViolation(err) {
				return ErrFolderNotFound
			}
			return err
		}
		return recordEvent(tx, models.NoteCreated, "note", "create", userID, noteEventData(note))
	})
	if err != nil {
		return models.Note{}, err
	}
	return note, nil
}

// ListNotes returns the notes of one folder, newest update first. Pinned
// notes are not floated.
func (s *NoteService) ListNotes(db *database.Database, userID uuid.UUID, filter NoteFilter) ([]models.Note, error) {
	folderID, ok := parseID(filter.FolderID)
	if !ok {
		return nil, ErrFolderNotFound
	}
	if _, err := findOwnedFolder(db.DB, userID, folderID, ErrFolderNotFound); err != nil {
		return nil, err
	}

	query := db.DB.Where("folder_id = ? AND user_id = ?", folderID, userID)
	if filter.Q != "" {
		query = query.Where(containsMatch(db.DB, "title"), containsPattern(filter.Q))
	}

	notes := []models.Note{}
	if err := query.Order("updated_at DESC").Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

func (s *NoteService) GetNoteById(db *database.Database, userID uuid.UUID, id string) (models.Note, error) {
	noteID, ok := parseID(id)
	if !ok {
		return models.Note{}, ErrNoteNotFound
	}
	return findOwnedNote(db.DB, userID, noteID)
}

func (s *NoteService) UpdateNote(db *database.Database, userID uuid.UUID, id string, input UpdateNoteInput) (models.Note, error) {
	noteID, ok := parseID(id)
	if !ok {
		return models.Note{}, ErrNoteNotFound
	}

	updates := map[string]interface{}{}
	if input.Title != nil {
		if err := validateNoteTitle(*input.Title); err != nil {
			return models.Note{}, err
		}
		updates["title"] = *input.Title
	}
	if input.Content.Set {
		var projected models.Note
		if err := projected.SetContent(input.Content.Value); err != nil {
			return models.Note{}, invalidInput("Invalid note content")
		}
		if projected.Content == nil {
			updates["content"] = gorm.Expr("NULL")
		} else {
			updates["content"] = projected.Content
		}
		updates["plain_text"] = projected.PlainText
	}

	var note models.Note
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		note, err = findOwnedNote(tx, userID, noteID)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&models.Note{}).Where("id = ? AND user_id = ?", noteID, userID).Updates(updates).Error; err != nil {
			return err
		}
		note, err = findOwnedNote(tx, userID, noteID)
		if err != nil {
			return err
		}
		return recordEvent(tx, models.NoteUpdated, "note", "update", userID, noteEventData(note))
	})
	if err != nil {
		return models.Note{}, err
	}
	return note, nil
}

func (s *NoteService) MoveNote(db *database.Database, userID uuid.UUID, id string, input MoveNoteInput) (models.Note, error) {
	noteID, ok := parseID(id)
	if !ok {
		return models.Note{}, ErrNoteNotFound
	}

	var note models.Note
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		if note, err = findOwnedNote(tx, userID, noteID); err != nil {
			return err
		}

		folderID, ok := parseID(input.FolderID)
		if !ok {
			return ErrTargetFolderNotFound
		}
		if _, err := findOwnedFolder(tx, userID, folderID, ErrTargetFolderNotFound); err != nil {
			return err
		}

		if err := tx.Model(&models.Note{}).Where("id = ? AND user_id = ?", noteID, userID).Update("folder_id", folderID).Error; err != nil {
			if database.IsForeignKeyViolation(err) {
				return ErrTargetFolderNotFound
			}
			return err
		}
		from := note.FolderID
		if note, err = findOwnedNote(tx, userID, noteID); err != nil {
			return err
		}
		data := noteEventData(note)
		data["from_folder_id"] = from.String()
		return recordEvent(tx, models.NoteMoved, "note", "move", userID, data)
	})
	if err != nil {
		return models.Note{}, err
	}
	return note, nil
}

func (s *NoteService) ToggleNotePin(db *database.Database, userID uuid.UUID, id string) (models.Note, error) {
	noteID, ok := parseID(id)
	if !ok {
		return models.Note{}, ErrNoteNotFound
	}

	var note models.Note
	err := db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Note{}).
			Where("id = ? AND user_id = ?", noteID, userID).
			Update("pinned", gorm.Expr("NOT pinned"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNoteNotFound
		}

		var err error
		if note, err = findOwnedNote(tx, userID, noteID); err != nil {
			return err
		}
		return recordEvent(tx, models.NotePinned, "note", "pin", userID, noteEventData(note))
	})
	if err != nil {
		return models.Note{}, err
	}
	return note, nil
}

func (s *NoteService) DeleteNote(db *database.Database, userID uuid.UUID, id string) error {
	noteID, ok := parseID(id)
	if !ok {
		return ErrNoteNotFound
	}

	return db.Transaction(func(tx *gorm.DB) error {
		note, err := findOwnedNote(tx, userID, noteID)
		if err != nil {
			return err
		}
		if err := tx.Where("id = ? AND user_id = ?", noteID, userID).Delete(&models.Note{}).Error; err != nil {
			return err
		}
		return recordEvent(tx, models.NoteDeleted, "note", "delete", userID, noteEventData(note))
	})
}

// SearchNotes matches q against titles and plain text across every folder the
// user owns. Title hits rank ahead of body-only hits, then newest first.
func (s *NoteService) SearchNotes(db *database.Database, userID uuid.UUID, q string) ([]NoteSearchResult, error) {
	results := []NoteSearchResult{}
	if q == "" {
		return results, nil
	}

	pattern := containsPattern(q)
	titleMatch := containsMatch(db.DB, "notes.title")
	err := db.DB.Model(&models.Note{}).
		Select("notes.*, folders.name AS folder_name").
		Joins("JOIN folders ON folders.id = notes.folder_id AND folders.user_id = notes.user_id").
		Where("notes.user_id = ?", userID).
		Where("("+titleMatch+" OR "+containsMatch(db.DB, "notes.plain_text")+")", pattern, pattern).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "CASE WHEN " + titleMatch + " THEN 0 ELSE 1 END, notes.updated_at DESC",
			Vars:               []interface{}{pattern},
			WithoutParentheses: true,
		}}).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
