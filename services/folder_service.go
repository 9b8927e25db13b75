package services

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"quick-jot/quickjot/database"
	"quick-jot/quickjot/models"
)

type FolderServiceInterface interface {
	CreateFolder(db *database.Database, userID uuid.UUID, input CreateFolderInput) (models.Folder, error)
	ListFolders(db *database.Database, userID uuid.UUID) ([]models.Folder, error)
	ListRootFolders(db *database.Database, userID uuid.UUID) ([]models.Folder, error)
	ListChildFolders(db *database.Database, userID uuid.UUID, parentID string) ([]models.Folder, error)
	GetFolderById(db *database.Database, userID uuid.UUID, id string) (models.Folder, error)
	UpdateFolder(db *database.Database, userID uuid.UUID, id string, input UpdateFolderInput) (models.Folder, error)
	DeleteFolder(db *database.Database, userID uuid.UUID, id string) error
	EnsureDefaultFolder(db *database.Database, userID uuid.UUID) (EnsureDefaultFolderResult, error)
	GetFolderTree(db *database.Database, userID uuid.UUID) ([]*FolderNode, error)
}

type EnsureDefaultFolderResult struct {
	Created bool          `json:"created"`
	Folder  models.Folder `json:"folder"`
}

// folderOrder is shared by every listing so clients see one stable order.
const folderOrder = "updated_at ASC, created_at ASC"

type FolderService struct{}

func NewFolderService() *FolderService {
	return &FolderService{}
}

func parseID(raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// validateFolderName rejects blank names. Accepted names are stored as given.
func validateFolderName(name string) error {
	if strings.TrimSpace(name) == "" {
		return invalidInput("Folder name is required")
	}
	if utf8.RuneCountInString(name) > models.MaxFolderNameLength {
		return invalidInput("Folder name must be at most %d characters", models.MaxFolderNameLength)
	}
	return nil
}

func findOwnedFolder(tx *gorm.DB, userID, id uuid.UUID, notFound error) (models.Folder, error) {
	var folder models.Folder
	if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&folder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Folder{}, notFound
		}
		return models.Folder{}, err
	}
	return folder, nil
}

func (s *FolderService) CreateFolder(db *database.Database, userID uuid.UUID, input CreateFolderInput) (models.Folder, error) {
	if err := validateFolderName(input.Name); err != nil {
		return models.Folder{}, err
	}

	folder := models.Folder{Name: input.Name, UserID: userID}
	if input.ParentID != nil && strings.TrimSpace(*input.ParentID) != "" {
		parentID, ok := parseID(*input.ParentID)
		if !ok {
			return models.Folder{}, ErrParentFolderNotFound
		}
		folder.ParentID = &parentID
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if folder.HasParent() {
			if _, err := findOwnedFolder(tx, userID, *folder.ParentID, ErrParentFolderNotFound); err != nil {
				return err
			}
		}
		if err := tx.Create(&folder).Error; err != nil {
			if database.IsForeignKeyViolation(err) {
				return ErrParentFolderNotFound
			}
			return err
		}
		return recordEvent(tx, models.FolderCreated, "folder", "create", userID, folderEventData(folder))
	})
	if err != nil {
		return models.Folder{}, err
	}
	return folder, nil
}

func (s *FolderService) ListFolders(db *database.Database, userID uuid.UUID) ([]models.Folder, error) {
	folders := []models.Folder{}
	if err := db.DB.Where("user_id = ?", userID).Order(folderOrder).Find(&folders).Error; err != nil {
		return nil, err
	}
	return folders, nil
}

func (s *FolderService) ListRootFolders(db *database.Database, userID uuid.UUID) ([]models.Folder, error) {
	folders := []models.Folder{}
	if err := db.DB.Where("user_id = ? AND parent_id IS NULL", userID).Order(folderOrder).Find(&folders).Error; err != nil {
		return nil, err
	}
	return folders, nil
}

// ListChildFolders returns the direct children of parentID. An unknown or
// foreign parent yields an empty list.
func (s *FolderService) ListChildFolders(db *database.Database, userID uuid.UUID, parentID string) ([]models.Folder, error) {
	folders := []models.Folder{}
	id, ok := parseID(parentID)
	if !ok {
		return folders, nil
	}
	if err := db.DB.Where("user_id = ? AND parent_id = ?", userID, id).Order(folderOrder).Find(&folders).Error; err != nil {
		return nil, err
	}
	return folders, nil
}

func (s *FolderService) GetFolderById(db *database.Database, userID uuid.UUID, id string) (models.Folder, error) {
	folderID, ok := parseID(id)
	if !ok {
		return models.Folder{}, ErrFolderNotFound
	}
	return findOwnedFolder(db.DB, userID, folderID, ErrFolderNotFound)
}

// isDescendant reports whether candidate sits somewhere below ancestor,
// walking parent links of the owner's folders.
func isDescendant(folders []models.Folder, ancestor, candidate uuid.UUID) bool {
	parents := make(map[uuid.UUID]*uuid.UUID, len(folders))
	for _, f := range folders {
		parents[f.ID] = f.ParentID
	}

	seen := make(map[uuid.UUID]bool)
	current := candidate
	for {
		parent, ok := parents[current]
		if !ok || parent == nil || seen[current] {
			return false
		}
		if *parent == ancestor {
			return true
		}
		seen[current] = true
		current = *parent
	}
}

func (s *FolderService) UpdateFolder(db *database.Database, userID uuid.UUID, id string, input UpdateFolderInput) (models.Folder, error) {
	folderID, ok := parseID(id)
	if !ok {
		return models.Folder{}, ErrFolderNotFound
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		if err := validateFolderName(*input.Name); err != nil {
			return models.Folder{}, err
		}
		updates["name"] = *input.Name
	}

	var newParent *uuid.UUID
	if input.ParentID.Set && input.ParentID.Value != nil {
		parentID, ok := parseID(*input.ParentID.Value)
		if !ok {
			return models.Folder{}, ErrParentFolderNotFound
		}
		newParent = &parentID
	}

	var folder models.Folder
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		folder, err = findOwnedFolder(tx, userID, folderID, ErrFolderNotFound)
		if err != nil {
			return err
		}

		if input.ParentID.Set {
			updates["parent_id"] = gorm.Expr("NULL")
			if newParent != nil {
				if *newParent == folderID {
					return ErrSelfParent
				}
				if _, err := findOwnedFolder(tx, userID, *newParent, ErrParentFolderNotFound); err != nil {
					return err
				}
				var owned []models.Folder
				if err := tx.Select("id", "parent_id").Where("user_id = ?", userID).Find(&owned).Error; err != nil {
					return err
				}
				if isDescendant(owned, folderID, *newParent) {
					return ErrFolderCycle
				}
				updates["parent_id"] = *newParent
			}
		}

		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&models.Folder{}).Where("id = ? AND user_id = ?", folderID, userID).Updates(updates).Error; err != nil {
			if database.IsForeignKeyViolation(err) {
				return ErrParentFolderNotFound
			}
			return err
		}

		folder, err = findOwnedFolder(tx, userID, folderID, ErrFolderNotFound)
		if err != nil {
			return err
		}
		return recordEvent(tx, models.FolderUpdated, "folder", "update", userID, folderEventData(folder))
	})
	if err != nil {
		return models.Folder{}, err
	}
	return folder, nil
}

// collectDescendants returns every folder below root using a parent-indexed
// map built from a single listing.
func collectDescendants(folders []models.Folder, root uuid.UUID) []models.Folder {
	children := make(map[uuid.UUID][]models.Folder)
	for _, f := range folders {
		if f.ParentID != nil {
			children[*f.ParentID] = append(children[*f.ParentID], f)
		}
	}

	var descendants []models.Folder
	visited := map[uuid.UUID]bool{root: true}
	queue := []uuid.UUID{root}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range children[current] {
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			descendants = append(descendants, child)
			queue = append(queue, child.ID)
		}
	}
	return descendants
}

func (s *FolderService) DeleteFolder(db *database.Database, userID uuid.UUID, id string) error {
	folderID, ok := parseID(id)
	if !ok {
		return ErrFolderNotFound
	}

	return db.Transaction(func(tx *gorm.DB) error {
		folder, err := findOwnedFolder(tx, userID, folderID, ErrFolderNotFound)
		if err != nil {
			return err
		}
		if folder.IsDefault {
			return ErrDefaultFolderDelete
		}

		var owned []models.Folder
		if err := tx.Where("user_id = ?", userID).Find(&owned).Error; err != nil {
			return err
		}

		ids := []uuid.UUID{folderID}
		for _, descendant := range collectDescendants(owned, folderID) {
			if descendant.IsDefault {
				return ErrDefaultFolderDelete
			}
			ids = append(ids, descendant.ID)
		}

		if err := tx.Where("id IN ? AND user_id = ?", ids, userID).Delete(&models.Folder{}).Error; err != nil {
			return fmt.Errorf("delete folders: %w", err)
		}
		return recordEvent(tx, models.FolderDeleted, "folder", "delete", userID, map[string]interface{}{
			"folder_id":   folderID.String(),
			"deleted_ids": ids,
		})
	})
}

// EnsureDefaultFolder returns the owner's default folder, creating it on first
// use. Concurrent callers race on the partial unique index and only the
// winning insert reports created.
func (s *FolderService) EnsureDefaultFolder(db *database.Database, userID uuid.UUID) (EnsureDefaultFolderResult, error) {
	var existing models.Folder
	err := db.DB.Where("user_id = ? AND is_default = ?", userID, true).First(&existing).Error
	if err == nil {
		return EnsureDefaultFolderResult{Created: false, Folder: existing}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return EnsureDefaultFolderResult{}, err
	}

	var result EnsureDefaultFolderResult
	err = db.Transaction(func(tx *gorm.DB) error {
		folder := models.Folder{
			Name:      models.DefaultFolderName,
			UserID:    userID,
			IsDefault: true,
		}
		insert := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&folder)
		if insert.Error != nil {
			return insert.Error
		}
		result.Created = insert.RowsAffected == 1

		if err := tx.Where("user_id = ? AND is_default = ?", userID, true).First(&result.Folder).Error; err != nil {
			return err
		}
		if result.Created {
			return recordEvent(tx, models.FolderCreated, "folder", "create", userID, folderEventData(result.Folder))
		}
		return nil
	})
	if err != nil {
		return EnsureDefaultFolderResult{}, err
	}
	return result, nil
}

func (s *FolderService) GetFolderTree(db *database.Database, userID uuid.UUID) ([]*FolderNode, error) {
	folders, err := s.ListFolders(db, userID)
	if err != nil {
		return nil, err
	}
	return BuildFolderTree(folders), nil
}
