// Package autosave coalesces rapid note edits into a single update per quiet
// period.
//
// A Pipeline is a two-state machine. Idle means nothing is scheduled. Change
// merges an edit into the pending patch, re-arms the delay timer and moves to
// Pending. When the timer elapses the merged patch is submitted and the
// pipeline returns to Idle. Switching notes or cancelling drops the pending
// patch without submitting it.
package autosave

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"quick-jot/quickjot/models"
)

const (
	DefaultDelay         = 500 * time.Millisecond
	DefaultSubmitTimeout = 10 * time.Second
)

var ErrNoNote = errors.New("autosave: no note open")

type State int

const (
	Idle State = iota
	Pending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	default:
		return "unknown"
	}
}

// Patch is a partial note update. Content is only applied when SetContent is
// true, in which case a nil Content clears the note body.
type Patch struct {
	Title      *string
	Content    *models.Document
	SetContent bool
}

func TitleEdit(title string) Patch {
	return Patch{Title: &title}
}

func ContentEdit(doc *models.Document) Patch {
	return Patch{Content: doc, SetContent: true}
}

// Merge overlays next onto p field by field.
func (p Patch) Merge(next Patch) Patch {
	if next.Title != nil {
		p.Title = next.Title
	}
	if next.SetContent {
		p.Content = next.Content
		p.SetContent = true
	}
	return p
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil && !p.SetContent
}

// Updater persists a merged patch.
type Updater interface {
	UpdateNote(ctx context.Context, noteID string, patch Patch) error
}

// UpdaterFunc adapts a function to Updater.
type UpdaterFunc func(ctx context.Context, noteID string, patch Patch) error

func (f UpdaterFunc) UpdateNote(ctx context.Context, noteID string, patch Patch) error {
	return f(ctx, noteID, patch)
}

type Timer interface {
	Stop() bool
}

type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type Option func(*Pipeline)

func WithDelay(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.delay = d
		}
	}
}

func WithClock(c Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

func WithSubmitTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

// WithErrorHandler registers fn to receive failed submissions. Failures are
// never retried.
func WithErrorHandler(fn func(noteID string, err error)) Option {
	return func(p *Pipeline) { p.onError = fn }
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

type Pipeline struct {
	updater Updater
	clock   Clock
	delay   time.Duration
	timeout time.Duration
	onError func(noteID string, err error)
	logger  *zap.Logger

	mu         sync.Mutex
	noteID     string
	pending    Patch
	state      State
	timer      Timer
	generation uint64

	// submitMu keeps submissions in the order their quiet periods ended.
	submitMu sync.Mutex
}

func New(updater Updater, opts ...Option) *Pipeline {
	p := &Pipeline{
		updater: updater,
		clock:   realClock{},
		delay:   DefaultDelay,
		timeout: DefaultSubmitTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) NoteID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.noteID
}

// Open points the pipeline at noteID. Any edit pending for the previous note
// is dropped.
func (p *Pipeline) Open(noteID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Pending && p.noteID != noteID {
		p.logger.Debug("Dropping pending edit on note switch",
			zap.String("from", p.noteID), zap.String("to", noteID))
	}
	p.resetLocked()
	p.noteID = noteID
}

// Switch is an alias of Open used when the editor changes notes.
func (p *Pipeline) Switch(noteID string) {
	p.Open(noteID)
}

// Change merges edit into the pending patch and restarts the quiet period.
func (p *Pipeline) Change(edit Patch) error {
	if edit.IsEmpty() {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.noteID == "" {
		return ErrNoNote
	}

	if p.timer != nil {
		p.timer.Stop()
	}
	p.pending = p.pending.Merge(edit)
	p.state = Pending
	p.generation++
	gen := p.generation
	p.timer = p.clock.AfterFunc(p.delay, func() { p.fire(gen) })
	return nil
}

// Cancel drops the pending patch without submitting it.
func (p *Pipeline) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
}

// Close cancels any pending patch and detaches the pipeline from its note.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	p.noteID = ""
}

// Flush submits the pending patch immediately, if any.
func (p *Pipeline) Flush(ctx context.Context) error {
	p.mu.Lock()
	if p.state != Pending {
		p.mu.Unlock()
		return nil
	}
	noteID, patch := p.takeLocked()
	p.mu.Unlock()

	return p.submit(ctx, noteID, patch)
}

func (p *Pipeline) fire(gen uint64) {
	p.mu.Lock()
	if gen != p.generation || p.state != Pending {
		p.mu.Unlock()
		return
	}
	noteID, patch := p.takeLocked()
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	_ = p.submit(ctx, noteID, patch)
}

func (p *Pipeline) submit(ctx context.Context, noteID string, patch Patch) error {
	p.submitMu.Lock()
	defer p.submitMu.Unlock()

	err := p.updater.UpdateNote(ctx, noteID, patch)
	if err != nil {
		p.logger.Warn("Autosave submission failed", zap.String("note_id", noteID), zap.Error(err))
		if p.onError != nil {
			p.onError(noteID, err)
		}
	}
	return err
}

// takeLocked hands out the pending patch and returns to Idle.
func (p *Pipeline) takeLocked() (string, Patch) {
	noteID, patch := p.noteID, p.pending
	p.resetLocked()
	return noteID, patch
}

func (p *Pipeline) resetLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.pending = Patch{}
	p.state = Idle
	p.generation++
}
