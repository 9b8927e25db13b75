package routes

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"quick-jot/quickjot/database"
	"quick-jot/quickjot/models"
	"quick-jot/quickjot/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type rpcFixture struct {
	router  *gin.Engine
	folders *MockFolderService
	notes   *MockNoteService
	users   *MockUserService
	userID  uuid.UUID
	token   string
}

func setupRPC(t *testing.T) rpcFixture {
	t.Helper()
	auth := services.NewAuthService("routes-secret", 1)
	f := rpcFixture{
		folders: new(MockFolderService),
		notes:   new(MockNoteService),
		users:   new(MockUserService),
		userID:  uuid.New(),
	}

	var err error
	f.token, err = auth.IssueToken(models.User{ID: f.userID, Email: "rpc@example.com", Role: models.UserRoleMember})
	require.NoError(t, err)

	f.router = SetupRouter(Dependencies{
		DB:             &database.Database{},
		AuthService:    auth,
		UserService:    f.users,
		FolderService:  f.folders,
		NoteService:    f.notes,
		AllowedOrigins: "*",
		Logger:         zap.NewNop(),
	})
	return f
}

func (f rpcFixture) call(method, procedure, body string, authenticated bool) *httptest.ResponseRecorder {
	target := RPCPrefix + "/" + procedure
	var req *http.Request
	if method == http.MethodGet {
		if body != "" {
			target += "?input=" + url.QueryEscape(body)
		}
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestProtectedProceduresRequireToken(t *testing.T) {
	f := setupRPC(t)
	procedures := []string{
		"folder.create", "folder.list", "folder.listRoot", "folder.listChildren", "folder.tree",
		"folder.get", "folder.update", "folder.delete", "folder.ensureDefaultFolder",
		"note.create", "note.list", "note.get", "note.update", "note.move",
		"note.togglePin", "note.delete", "note.globalSearch", "user.addImage",
	}

	for _, name := range procedures {
		t.Run(name, func(t *testing.T) {
			w := f.call(http.MethodPost, name, `{}`, false)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, services.KindUnauthorized, decodeError(t, w).Code)
		})
	}

	f.folders.AssertExpectations(t)
	f.notes.AssertExpectations(t)
	f.users.AssertExpectations(t)
}

func TestQueryAcceptsGetAndPost(t *testing.T) {
	f := setupRPC(t)
	folder := models.Folder{ID: uuid.New(), Name: "Inbox", UserID: f.userID}
	f.folders.On("GetFolderById", f.userID, folder.ID.String()).Return(folder, nil).Twice()

	input := `{"id":"` + folder.ID.String() + `"}`
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		w := f.call(method, "folder.get", input, true)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var got models.Folder
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, folder.ID, got.ID)
		assert.Equal(t, "Inbox", got.Name)
	}
	f.folders.AssertExpectations(t)
}

func TestMutationRejectsGet(t *testing.T) {
	f := setupRPC(t)
	w := f.call(http.MethodGet, "folder.delete", `{"id":"x"}`, true)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestUnknownProcedure(t *testing.T) {
	f := setupRPC(t)
	w := f.call(http.MethodPost, "folder.explode", `{}`, false)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, services.KindNotFound, decodeError(t, w).Code)
}

func TestInputValidation(t *testing.T) {
	f := setupRPC(t)

	w := f.call(http.MethodPost, "folder.create", `{"parent_id":null}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Name is required", decodeError(t, w).Message)

	w = f.call(http.MethodPost, "note.create", `{"title":`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid JSON input", decodeError(t, w).Message)

	w = f.call(http.MethodGet, "note.list", ``, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "FolderID is required", decodeError(t, w).Message)

	w = f.call(http.MethodPost, "auth.register", `{"email":"not-an-email","password":"longenough"}`, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.folders.AssertNotCalled(t, "CreateFolder", mock.Anything, mock.Anything)
}

func TestErrorEnvelope(t *testing.T) {
	f := setupRPC(t)
	f.folders.On("DeleteFolder", f.userID, "default-id").Return(services.ErrDefaultFolderDelete)
	f.notes.On("GetNoteById", f.userID, "missing").Return(models.Note{}, services.ErrNoteNotFound)
	f.folders.On("ListFolders", f.userID).Return([]models.Folder(nil), errors.New("pq: connection reset"))
	f.folders.On("UpdateFolder", f.userID, "self", mock.Anything).Return(models.Folder{}, services.ErrSelfParent)

	tests := []struct {
		procedure string
		method    string
		body      string
		status    int
		code      services.ErrorKind
		message   string
	}{
		{"folder.delete", http.MethodPost, `{"id":"default-id"}`, http.StatusForbidden, services.KindForbidden, "Cannot delete the default folder"},
		{"note.get", http.MethodGet, `{"id":"missing"}`, http.StatusNotFound, services.KindNotFound, "Note not found"},
		{"folder.list", http.MethodGet, ``, http.StatusInternalServerError, services.KindInternal, "Internal server error"},
		{"folder.update", http.MethodPost, `{"id":"self","parent_id":"self"}`, http.StatusBadRequest, services.KindBadRequest, "Cannot move a folder into itself"},
	}

	for _, tt := range tests {
		t.Run(tt.procedure, func(t *testing.T) {
			w := f.call(tt.method, tt.procedure, tt.body, true)
			assert.Equal(t, tt.status, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestFolderUpdatePassesTriStateParent(t *testing.T) {
	f := setupRPC(t)
	id := uuid.NewString()
	f.folders.On("UpdateFolder", f.userID, id, mock.MatchedBy(func(in services.UpdateFolderInput) bool {
		return in.ParentID.Set && in.ParentID.Value == nil && in.Name == nil
	})).Return(models.Folder{Name: "moved"}, nil).Once()
	f.folders.On("UpdateFolder", f.userID, id, mock.MatchedBy(func(in services.UpdateFolderInput) bool {
		return !in.ParentID.Set && in.Name != nil && *in.Name == "renamed"
	})).Return(models.Folder{Name: "renamed"}, nil).Once()

	w := f.call(http.MethodPost, "folder.update", `{"id":"`+id+`","parent_id":null}`, true)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = f.call(http.MethodPost, "folder.update", `{"id":"`+id+`","name":"renamed"}`, true)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	f.folders.AssertExpectations(t)
}

func TestDeleteReturnsSuccess(t *testing.T) {
	f := setupRPC(t)
	f.notes.On("DeleteNote", f.userID, "n1").Return(nil)

	w := f.call(http.MethodPost, "note.delete", `{"id":"n1"}`, true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
}

func TestAddImageIsAdminOnly(t *testing.T) {
	f := setupRPC(t)
	f.users.On("RequireAdmin", f.userID).Return(services.ErrAdminOnly).Once()
	f.users.On("RequireAdmin", f.userID).Return(nil).Once()

	w := f.call(http.MethodPost, "user.addImage", `"https://example.com/a.png"`, true)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Admin access required", decodeError(t, w).Message)

	w = f.call(http.MethodPost, "user.addImage", `"https://example.com/a.png"`, true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())
}

func TestGlobalSearchPassesQuery(t *testing.T) {
	f := setupRPC(t)
	result := services.NoteSearchResult{Note: models.Note{ID: uuid.New(), Title: "Apple"}, FolderName: "Inbox"}
	f.notes.On("SearchNotes", f.userID, "apple").Return([]services.NoteSearchResult{result}, nil)

	w := f.call(http.MethodGet, "note.globalSearch", `{"q":"apple"}`, true)
	require.Equal(t, http.StatusOK, w.Code)

	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Inbox", got[0]["folder_name"])
	assert.Equal(t, "Apple", got[0]["title"])
}
