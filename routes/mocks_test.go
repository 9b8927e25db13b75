package routes

import (
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"quick-jot/quickjot/database"
	"quick-jot/quickjot/models"
	"quick-jot/quickjot/services"
)

type MockFolderService struct {
	mock.Mock
}

func (m *MockFolderService) CreateFolder(db *database.Database, userID uuid.UUID, input services.CreateFolderInput) (models.Folder, error) {
	args := m.Called(userID, input)
	return args.Get(0).(models.Folder), args.Error(1)
}

func (m *MockFolderService) ListFolders(db *database.Database, userID uuid.UUID) ([]models.Folder, error) {
	args := m.Called(userID)
	return args.Get(0).([]models.Folder), args.Error(1)
}

func (m *MockFolderService) ListRootFolders(db *database.Database, userID uuid.UUID) ([]models.Folder, error) {
	args := m.Called(userID)
	return args.Get(0).([]models.Folder), args.Error(1)
}

func (m *MockFolderService) ListChildFolders(db *database.Database, userID uuid.UUID, parentID string) ([]models.Folder, error) {
	args := m.Called(userID, parentID)
	return args.Get(0).([]models.Folder), args.Error(1)
}

func (m *MockFolderService) GetFolderById(db *database.Database, userID uuid.UUID, id string) (models.Folder, error) {
	args := m.Called(userID, id)
	return args.Get(0).(models.Folder), args.Error(1)
}

func (m *MockFolderService) UpdateFolder(db *database.Database, userID uuid.UUID, id string, input services.UpdateFolderInput) (models.Folder, error) {
	args := m.Called(userID, id, input)
	return args.Get(0).(models.Folder), args.Error(1)
}

func (m *MockFolderService) DeleteFolder(db *database.Database, userID uuid.UUID, id string) error {
	args := m.Called(userID, id)
	return args.Error(0)
}

func (m *MockFolderService) EnsureDefaultFolder(db *database.Database, userID uuid.UUID) (services.EnsureDefaultFolderResult, error) {
	args := m.Called(userID)
	return args.Get(0).(services.EnsureDefaultFolderResult), args.Error(1)
}

func (m *MockFolderService) GetFolderTree(db *database.Database, userID uuid.UUID) ([]*services.FolderNode, error) {
	args := m.Called(userID)
	return args.Get(0).([]*services.FolderNode), args.Error(1)
}

type MockNoteService struct {
	mock.Mock
}

func (m *MockNoteService) CreateNote(db *database.Database, userID uuid.UUID, input services.CreateNoteInput) (models.Note, error) {
	args := m.Called(userID, input)
	return args.Get(0).(models.Note), args.Error(1)
}

func (m *MockNoteService) ListNotes(db *database.Database, userID uuid.UUID, filter services.NoteFilter) ([]models.Note, error) {
	args := m.Called(userID, filter)
	return args.Get(0).([]models.Note), args.Error(1)
}

func (m *MockNoteService) GetNoteById(db *database.Database, userID uuid.UUID, id string) (models.Note, error) {
	args := m.Called(userID, id)
	return args.Get(0).(models.Note), args.Error(1)
}

func (m *MockNoteService) UpdateNote(db *database.Database, userID uuid.UUID, id string, input services.UpdateNoteInput) (models.Note, error) {
	args := m.Called(userID, id, input)
	return args.Get(0).(models.Note), args.Error(1)
}

func (m *MockNoteService) MoveNote(db *database.Database, userID uuid.UUID, id string, input services.MoveNoteInput) (models.Note, error) {
	args := m.Called(userID, id, input)
	return args.Get(0).(models.Note), args.Error(1)
}

func (m *MockNoteService) ToggleNotePin(db *database.Database, userID uuid.UUID, id string) (models.Note, error) {
	args := m.Called(userID, id)
	return args.Get(0).(models.Note), args.Error(1)
}

func (m *MockNoteService) DeleteNote(db *database.Database, userID uuid.UUID, id string) error {
	args := m.Called(userID, id)
	return args.Error(0)
}

func (m *MockNoteService) SearchNotes(db *database.Database, userID uuid.UUID, q string) ([]services.NoteSearchResult, error) {
	args := m.Called(userID, q)
	return args.Get(0).([]services.NoteSearchResult), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) CreateUser(db *database.Database, input services.RegisterInput) (models.User, error) {
	args := m.Called(input)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockUserService) GetUserById(db *database.Database, id uuid.UUID) (models.User, error) {
	args := m.Called(id)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockUserService) RequireAdmin(db *database.Database, id uuid.UUID) error {
	args := m.Called(id)
	return args.Error(0)
}
