// Package client is a typed Go client for the quickjot RPC API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"quick-jot/quickjot/autosave"
	"quick-jot/quickjot/models"
	"quick-jot/quickjot/services"
)

const rpcPath = "/api/v1/rpc/"

// Error is a failed procedure call as reported by the server.
type Error struct {
	Status  int
	Code    services.ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

// IsNotFound reports whether err is a NOT_FOUND response.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == services.KindNotFound
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token sent with every call.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) query(ctx context.Context, procedure string, input, out interface{}) error {
	endpoint := c.baseURL + rpcPath + procedure
	if input != nil {
		data, err := json.Marshal(input)
		if err != nil {
			return fmt.Errorf("encode %s input: %w", procedure, err)
		}
		endpoint += "?input=" + url.QueryEscape(string(data))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, procedure, out)
}

func (c *Client) mutate(ctx context.Context, procedure string, input, out interface{}) error {
	var body io.Reader = http.NoBody
	if input != nil {
		data, err := json.Marshal(input)
		if err != nil {
			return fmt.Errorf("encode %s input: %w", procedure, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+rpcPath+procedure, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, procedure, out)
}

func (c *Client) do(req *http.Request, procedure string, out interface{}) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", procedure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var envelope struct {
			Error struct {
				Code    services.ErrorKind `json:"code"`
				Message string             `json:"message"`
			} `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Error.Code == "" {
			return &Error{Status: resp.StatusCode, Code: services.KindInternal, Message: resp.Status}
		}
		return &Error{Status: resp.StatusCode, Code: envelope.Error.Code, Message: envelope.Error.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", procedure, err)
	}
	return nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account and keeps the returned token for later calls.
func (c *Client) Register(ctx context.Context, email, password string) (models.User, error) {
	var resp struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	if err := c.mutate(ctx, "auth.register", credentials{email, password}, &resp); err != nil {
		return models.User{}, err
	}
	c.SetToken(resp.Token)
	return resp.User, nil
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.mutate(ctx, "auth.login", credentials{email, password}, &resp); err != nil {
		return err
	}
	c.SetToken(resp.Token)
	return nil
}

type idInput struct {
	ID string `json:"id"`
}

func (c *Client) CreateFolder(ctx context.Context, input services.CreateFolderInput) (models.Folder, error) {
	var folder models.Folder
	err := c.mutate(ctx, "folder.create", input, &folder)
	return folder, err
}

func (c *Client) ListFolders(ctx context.Context) ([]models.Folder, error) {
	var folders []models.Folder
	err := c.query(ctx, "folder.list", nil, &folders)
	return folders, err
}

func (c *Client) ListRootFolders(ctx context.Context) ([]models.Folder, error) {
	var folders []models.Folder
	err := c.query(ctx, "folder.listRoot", nil, &folders)
	return folders, err
}

func (c *Client) ListChildFolders(ctx context.Context, parentID string) ([]models.Folder, error) {
	var folders []models.Folder
	err := c.query(ctx, "folder.listChildren", map[string]string{"parent_id": parentID}, &folders)
	return folders, err
}

func (c *Client) FolderTree(ctx context.Context) ([]*services.FolderNode, error) {
	var tree []*services.FolderNode
	err := c.query(ctx, "folder.tree", nil, &tree)
	return tree, err
}

func (c *Client) GetFolder(ctx context.Context, id string) (models.Folder, error) {
	var folder models.Folder
	err := c.query(ctx, "folder.get", idInput{id}, &folder)
	return folder, err
}

func (c *Client) UpdateFolder(ctx context.Context, id string, input services.UpdateFolderInput) (models.Folder, error) {
	body := map[string]interface{}{"id": id}
	if input.Name != nil {
		body["name"] = *input.Name
	}
	if input.ParentID.Set {
		body["parent_id"] = input.ParentID
	}
	var folder models.Folder
	err := c.mutate(ctx, "folder.update", body, &folder)
	return folder, err
}

func (c *Client) DeleteFolder(ctx context.Context, id string) error {
	return c.mutate(ctx, "folder.delete", idInput{id}, nil)
}

func (c *Client) EnsureDefaultFolder(ctx context.Context) (services.EnsureDefaultFolderResult, error) {
	var result services.EnsureDefaultFolderResult
	err := c.mutate(ctx, "folder.ensureDefaultFolder", nil, &result)
	return result, err
}

func (c *Client) CreateNote(ctx context.Context, input services.CreateNoteInput) (models.Note, error) {
	var note models.Note
	err := c.mutate(ctx, "note.create", input, &note)
	return note, err
}

func (c *Client) ListNotes(ctx context.Context, filter services.NoteFilter) ([]models.Note, error) {
	var notes []models.Note
	err := c.query(ctx, "note.list", filter, &notes)
	return notes, err
}

func (c *Client) GetNote(ctx context.Context, id string) (models.Note, error) {
	var note models.Note
	err := c.query(ctx, "note.get", idInput{id}, &note)
	return note, err
}

func (c *Client) UpdateNote(ctx context.Context, id string, input services.UpdateNoteInput) (models.Note, error) {
	body := map[string]interface{}{"id": id}
	if input.Title != nil {
		body["title"] = *input.Title
	}
	if input.Content.Set {
		body["content"] = input.Content
	}
	var note models.Note
	err := c.mutate(ctx, "note.update", body, &note)
	return note, err
}

func (c *Client) MoveNote(ctx context.Context, id, folderID string) (models.Note, error) {
	var note models.Note
	err := c.mutate(ctx, "note.move", map[string]string{"id": id, "folder_id": folderID}, &note)
	return note, err
}

func (c *Client) ToggleNotePin(ctx context.Context, id string) (models.Note, error) {
	var note models.Note
	err := c.mutate(ctx, "note.togglePin", idInput{id}, &note)
	return note, err
}

func (c *Client) DeleteNote(ctx context.Context, id string) error {
	return c.mutate(ctx, "note.delete", idInput{id}, nil)
}

func (c *Client) SearchNotes(ctx context.Context, q string) ([]services.NoteSearchResult, error) {
	var results []services.NoteSearchResult
	err := c.query(ctx, "note.globalSearch", map[string]string{"q": q}, &results)
	return results, err
}

func (c *Client) AddImage(ctx context.Context, image string) error {
	return c.mutate(ctx, "user.addImage", image, nil)
}

// Autosave returns an editor pipeline whose quiet-period submissions go
// through note.update.
func (c *Client) Autosave(opts ...autosave.Option) *autosave.Pipeline {
	return autosave.New(autosave.UpdaterFunc(func(ctx context.Context, noteID string, patch autosave.Patch) error {
		_, err := c.UpdateNote(ctx, noteID, services.PatchToUpdateInput(patch))
		return err
	}), opts...)
}
