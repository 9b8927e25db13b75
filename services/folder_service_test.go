package services

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"quick-jot/quickjot/database"
	"quick-jot/quickjot/models"
	"quick-jot/quickjot/testutils"
)

func strPtr(s string) *string { return &s }

func setupFolders(t *testing.T) (*database.Database, *FolderService, uuid.UUID) {
	t.Helper()
	db := testutils.SetupTestDB(t)
	user := testutils.CreateTestUser(t, db, "owner@example.com")
	return db, NewFolderService(), user.ID
}

func mustCreateFolder(t *testing.T, db *database.Database, s *FolderService, userID uuid.UUID, name string, parent *models.Folder) models.Folder {
	t.Helper()
	input := CreateFolderInput{Name: name}
	if parent != nil {
		input.ParentID = strPtr(parent.ID.String())
	}
	folder, err := s.CreateFolder(db, userID, input)
	require.NoError(t, err)
	return folder
}

func TestCreateFolder(t *testing.T) {
	db, s, userID := setupFolders(t)

	root := mustCreateFolder(t, db, s, userID, "  Work  ", nil)
	assert.Equal(t, "  Work  ", root.Name)
	assert.Nil(t, root.ParentID)
	assert.False(t, root.IsDefault)
	assert.Equal(t, userID, root.UserID)

	child := mustCreateFolder(t, db, s, userID, "Projects", &root)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, root.ID, *child.ParentID)

	var events int64
	require.NoError(t, db.DB.Model(&models.Event{}).Where("event = ?", models.FolderCreated).Count(&events).Error)
	assert.Equal(t, int64(2), events)
}

func TestCreateFolderValidatesName(t *testing.T) {
	db, s, userID := setupFolders(t)

	for _, name := range []string{"", "   "} {
		_, err := s.CreateFolder(db, userID, CreateFolderInput{Name: name})
		assert.ErrorIs(t, err, ErrBadRequest)
	}

	long := make([]rune, models.MaxFolderNameLength+1)
	for i := range long {
		long[i] = 'é'
	}
	_, err := s.CreateFolder(db, userID, CreateFolderInput{Name: string(long)})
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = s.CreateFolder(db, userID, CreateFolderInput{Name: string(long[:models.MaxFolderNameLength])})
	assert.NoError(t, err)
}

func TestCreateFolderParentMustBeOwned(t *testing.T) {
	db, s, userID := setupFolders(t)
	other := testutils.CreateTestUser(t, db, "other@example.com")
	foreign := mustCreateFolder(t, db, s, other.ID, "Theirs", nil)

	_, err := s.CreateFolder(db, userID, CreateFolderInput{Name: "x", ParentID: strPtr(foreign.ID.String())})
	assert.ErrorIs(t, err, ErrParentFolderNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = s.CreateFolder(db, userID, CreateFolderInput{Name: "x", ParentID: strPtr("not-a-uuid")})
	assert.ErrorIs(t, err, ErrParentFolderNotFound)

	folder, err := s.CreateFolder(db, userID, CreateFolderInput{Name: "x", ParentID: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, folder.ParentID)
}

func TestListFoldersOrderAndScope(t *testing.T) {
	db, s, userID := setupFolders(t)
	other := testutils.CreateTestUser(t, db, "other@example.com")

	a := mustCreateFolder(t, db, s, userID, "A", nil)
	b := mustCreateFolder(t, db, s, userID, "B", &a)
	c := mustCreateFolder(t, db, s, userID, "C", nil)
	mustCreateFolder(t, db, s, other.ID, "Foreign", nil)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.DB.Model(&models.Folder{}).Where("id = ?", a.ID).Update("updated_at", base.Add(3*time.Hour)).Error)
	require.NoError(t, db.DB.Model(&models.Folder{}).Where("id = ?", b.ID).Update("updated_at", base.Add(1*time.Hour)).Error)
	require.NoError(t, db.DB.Model(&models.Folder{}).Where("id = ?", c.ID).Update("updated_at", base.Add(2*time.Hour)).Error)

	all, err := s.ListFolders(db, userID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uuid.UUID{b.ID, c.ID, a.ID}, []uuid.UUID{all[0].ID, all[1].ID, all[2].ID})

	roots, err := s.ListRootFolders(db, userID)
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.Equal(t, c.ID, roots[0].ID)
	assert.Equal(t, a.ID, roots[1].ID)

	children, err := s.ListChildFolders(db, userID, a.ID.String())
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, b.ID, children[0].ID)

	children, err = s.ListChildFolders(db, other.ID, a.ID.String())
	require.NoError(t, err)
	assert.Empty(t, children)

	children, err = s.ListChildFolders(db, userID, "garbage")
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestGetFolderById(t *testing.T) {
	db, s, userID := setupFolders(t)
	other := testutils.CreateTestUser(t, db, "other@example.com")
	folder := mustCreateFolder(t, db, s, userID, "Mine", nil)

	got, err := s.GetFolderById(db, userID, folder.ID.String())
	require.NoError(t, err)
	assert.Equal(t, folder.ID, got.ID)

	_, err = s.GetFolderById(db, other.ID, folder.ID.String())
	assert.ErrorIs(t, err, ErrFolderNotFound)

	_, err = s.GetFolderById(db, userID, uuid.NewString())
	assert.ErrorIs(t, err, ErrFolderNotFound)

	_, err = s.GetFolderById(db, userID, "nope")
	assert.ErrorIs(t, err, ErrFolderNotFound)
}

func TestUpdateFolderRenameAndReparent(t *testing.T) {
	db, s, userID := setupFolders(t)
	a := mustCreateFolder(t, db, s, userID, "A", nil)
	b := mustCreateFolder(t, db, s, userID, "B", nil)

	updated, err := s.UpdateFolder(db, userID, b.ID.String(), UpdateFolderInput{
		Name:     strPtr("Bee"),
		ParentID: Some(a.ID.String()),
	})
	require.NoError(t, err)
	assert.Equal(t, "Bee", updated.Name)
	require.NotNil(t, updated.ParentID)
	assert.Equal(t, a.ID, *updated.ParentID)

	renamed, err := s.UpdateFolder(db, userID, b.ID.String(), UpdateFolderInput{Name: strPtr("B2")})
	require.NoError(t, err)
	assert.Equal(t, "B2", renamed.Name)
	require.NotNil(t, renamed.ParentID, "omitted parent is left untouched")

	moved, err := s.UpdateFolder(db, userID, b.ID.String(), UpdateFolderInput{ParentID: Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, moved.ParentID)
	assert.Equal(t, "B2", moved.Name)
}

func TestUpdateFolderErrors(t *testing.T) {
	db, s, userID := setupFolders(t)
	other := testutils.CreateTestUser(t, db, "other@example.com")
	a := mustCreateFolder(t, db, s, userID, "A", nil)
	b := mustCreateFolder(t, db, s, userID, "B", &a)
	c := mustCreateFolder(t, db, s, userID, "C", &b)
	foreign := mustCreateFolder(t, db, s, other.ID, "F", nil)

	_, err := s.UpdateFolder(db, userID, uuid.NewString(), UpdateFolderInput{Name: strPtr("x")})
	assert.ErrorIs(t, err, ErrFolderNotFound)

	_, err = s.UpdateFolder(db, other.ID, a.ID.String(), UpdateFolderInput{Name: strPtr("x")})
	assert.ErrorIs(t, err, ErrFolderNotFound)

	_, err = s.UpdateFolder(db, userID, a.ID.String(), UpdateFolderInput{ParentID: Some(a.ID.String())})
	assert.ErrorIs(t, err, ErrSelfParent)
	assert.Equal(t, KindBadRequest, KindOf(err))
	assert.Equal(t, "Cannot move a folder into itself", MessageOf(err))

	_, err = s.UpdateFolder(db, userID, a.ID.String(), UpdateFolderInput{ParentID: Some(c.ID.String())})
	assert.ErrorIs(t, err, ErrFolderCycle)
	assert.Equal(t, KindBadRequest, KindOf(err))

	_, err = s.UpdateFolder(db, userID, a.ID.String(), UpdateFolderInput{ParentID: Some(foreign.ID.String())})
	assert.ErrorIs(t, err, ErrParentFolderNotFound)

	_, err = s.UpdateFolder(db, userID, a.ID.String(), UpdateFolderInput{Name: strPtr(" ")})
	assert.ErrorIs(t, err, ErrBadRequest)

	unchanged, err := s.GetFolderById(db, userID, a.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "A", unchanged.Name)
	assert.Nil(t, unchanged.ParentID)
}

func TestDeleteFolderCascades(t *testing.T) {
	db, s, userID := setupFolders(t)
	notes := NewNoteService()

	keep := mustCreateFolder(t, db, s, userID, "Keep", nil)
	root := mustCreateFolder(t, db, s, userID, "Root", nil)
	child := mustCreateFolder(t, db, s, userID, "Child", &root)
	grandchild := mustCreateFolder(t, db, s, userID, "Grandchild", &child)

	for _, f := range []models.Folder{root, child, grandchild, keep} {
		_, err := notes.CreateNote(db, userID, CreateNoteInput{Title: "in " + f.Name, FolderID: f.ID.String()})
		require.NoError(t, err)
	}

	require.NoError(t, s.DeleteFolder(db, userID, root.ID.String()))

	for _, f := range []models.Folder{root, child, grandchild} {
		_, err := s.GetFolderById(db, userID, f.ID.String())
		assert.ErrorIs(t, err, ErrFolderNotFound)

		var count int64
		require.NoError(t, db.DB.Model(&models.Note{}).Where("folder_id = ?", f.ID).Count(&count).Error)
		assert.Zero(t, count)
	}

	remaining, err := notes.ListNotes(db, userID, NoteFilter{FolderID: keep.ID.String()})
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestDeleteFolderErrors(t *testing.T) {
	db, s, userID := setupFolders(t)
	other := testutils.CreateTestUser(t, db, "other@example.com")

	assert.ErrorIs(t, s.DeleteFolder(db, userID, uuid.NewString()), ErrFolderNotFound)

	result, err := s.EnsureDefaultFolder(db, userID)
	require.NoError(t, err)
	err = s.DeleteFolder(db, userID, result.Folder.ID.String())
	assert.ErrorIs(t, err, ErrDefaultFolderDelete)
	assert.Equal(t, KindForbidden, KindOf(err))

	mine := mustCreateFolder(t, db, s, userID, "Mine", nil)
	assert.ErrorIs(t, s.DeleteFolder(db, other.ID, mine.ID.String()), ErrFolderNotFound)
	_, err = s.GetFolderById(db, userID, mine.ID.String())
	assert.NoError(t, err)
}

func TestDeleteFolderProtectsNestedDefault(t *testing.T) {
	db, s, userID := setupFolders(t)
	result, err := s.EnsureDefaultFolder(db, userID)
	require.NoError(t, err)

	parent := mustCreateFolder(t, db, s, userID, "Parent", nil)
	_, err = s.UpdateFolder(db, userID, result.Folder.ID.String(), UpdateFolderInput{ParentID: Some(parent.ID.String())})
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteFolder(db, userID, parent.ID.String()), ErrDefaultFolderDelete)
}

func TestEnsureDefaultFolderIdempotent(t *testing.T) {
	db, s, userID := setupFolders(t)

	first, err := s.EnsureDefaultFolder(db, userID)
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, models.DefaultFolderName, first.Folder.Name)
	assert.True(t, first.Folder.IsDefault)
	assert.Nil(t, first.Folder.ParentID)

	second, err := s.EnsureDefaultFolder(db, userID)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Folder.ID, second.Folder.ID)
}

func TestEnsureDefaultFolderConcurrent(t *testing.T) {
	db, s, userID := setupFolders(t)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]EnsureDefaultFolderResult, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.EnsureDefaultFolder(db, userID)
		}(i)
	}
	wg.Wait()

	created := 0
	for i := range results {
		require.NoError(t, errs[i])
		if results[i].Created {
			created++
		}
		assert.Equal(t, results[0].Folder.ID, results[i].Folder.ID)
	}
	assert.Equal(t, 1, created)

	var defaults int64
	require.NoError(t, db.DB.Model(&models.Folder{}).Where("user_id = ? AND is_default = ?", userID, true).Count(&defaults).Error)
	assert.Equal(t, int64(1), defaults)
}

func TestDefaultFolderUniqueIndex(t *testing.T) {
	db, s, userID := setupFolders(t)
	_, err := s.EnsureDefaultFolder(db, userID)
	require.NoError(t, err)

	dup := models.Folder{Name: "Other default", UserID: userID, IsDefault: true}
	err = db.DB.Create(&dup).Error
	assert.True(t, database.IsUniqueViolation(err))
}

func TestGetFolderTree(t *testing.T) {
	db, s, userID := setupFolders(t)
	a := mustCreateFolder(t, db, s, userID, "A", nil)
	mustCreateFolder(t, db, s, userID, "B", &a)

	tree, err := s.GetFolderTree(db, userID)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, "A", tree[0].Name)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "B", tree[0].Children[0].Name)
}

func TestIsDescendant(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	folders := []models.Folder{
		{ID: a},
		{ID: b, ParentID: &a},
		{ID: c, ParentID: &b},
	}
	assert.True(t, isDescendant(folders, a, c))
	assert.True(t, isDescendant(folders, b, c))
	assert.False(t, isDescendant(folders, c, a))

	// Corrupt data with a loop must still terminate.
	loop := []models.Folder{{ID: a, ParentID: &b}, {ID: b, ParentID: &a}}
	assert.False(t, isDescendant(loop, c, a))
}
