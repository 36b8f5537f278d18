// Package upload runs file uploads one at a time, in the order they were
// enqueued, and keeps a queryable record of each one.
//
// An entry moves queued -> uploading -> processing -> success, or to error
// from any non-terminal state. processing means every byte was handed to
// the server and its answer is pending. Entries stay listed until Clear.
package upload

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/dmitrijs2005/gophstore/internal/client/models"
	"github.com/dmitrijs2005/gophstore/internal/client/services"
	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/netx"
)

type Status string

const (
	StatusQueued     Status = "queued"
	StatusUploading  Status = "uploading"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// Active reports whether the status is part of a live lifecycle.
func (s Status) Active() bool {
	return s == StatusQueued || s == StatusUploading || s == StatusProcessing
}

var (
	ErrEmptySource = errors.New("file is empty")
	ErrCanceled    = errors.New("upload canceled")
	ErrClosed      = errors.New("upload queue closed")
)

// Uploader sends one file. services.StorageService implements it.
type Uploader interface {
	Upload(ctx context.Context, workspaceID, folderID int64, src services.UploadSource, progress netx.ProgressFunc) (*models.UploadResult, error)
}

// Entry is a snapshot of one upload.
type Entry struct {
	ID          int64
	Name        string
	Size        int64
	Progress    int
	Status      Status
	Err         error
	WorkspaceID int64
	FolderID    int64
	FileID      int64
	// HasPayload is false once the source has been released.
	HasPayload bool
}

type entry struct {
	Entry
	src      Source
	cancel   context.CancelFunc
	canceled bool
}

func (e *entry) snapshot() Entry {
	s := e.Entry
	s.HasPayload = e.src != nil
	return s
}

// release drops the payload reference.
func (e *entry) release() {
	e.src = nil
	e.cancel = nil
}

type Queue struct {
	uploader Uploader
	logger   logging.Logger
	onChange func(Entry)

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	// hookMu is held by the goroutine delivering onChange snapshots.
	hookMu sync.Mutex

	mu        sync.Mutex
	entries   []*entry
	nextID    int64
	uploading bool
	closed    bool
	changed   chan struct{}
	pending   []Entry
}

type Option func(*Queue)

func WithLogger(l logging.Logger) Option {
	return func(q *Queue) { q.logger = l }
}

// WithOnChange registers fn to receive a snapshot after every change.
// Calls never overlap and arrive in the order the changes happened.
func WithOnChange(fn func(Entry)) Option {
	return func(q *Queue) { q.onChange = fn }
}

func NewQueue(uploader Uploader, opts ...Option) *Queue {
	ctx, stop := context.WithCancel(context.Background())
	q := &Queue{
		uploader: uploader,
		logger:   logging.Nop(),
		ctx:      ctx,
		stop:     stop,
		nextID:   1,
		changed:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue adds src and returns its id. Empty sources are recorded as failed
// right away.
func (q *Queue) Enqueue(workspaceID, folderID int64, src Source) int64 {
	q.mu.Lock()

	e := &entry{
		Entry: Entry{
			ID:          q.nextID,
			Name:        src.Name(),
			Size:        src.Size(),
			Status:      StatusQueued,
			WorkspaceID: workspaceID,
			FolderID:    folderID,
		},
		src: src,
	}
	q.nextID++
	q.entries = append(q.entries, e)

	switch {
	case q.closed:
		q.fail(e, ErrClosed)
	case e.Size == 0:
		q.fail(e, ErrEmptySource)
	}

	q.logger.Debug(q.ctx, "upload enqueued", "id", e.ID, "name", e.Name, "size", e.Size, "status", e.Status)
	q.notifyAndUnlock(e.snapshot())
	q.kick()
	return e.ID
}

// kick starts the oldest queued entry if nothing is uploading.
func (q *Queue) kick() {
	q.mu.Lock()
	if q.uploading || q.closed {
		q.mu.Unlock()
		return
	}

	var next *entry
	for _, e := range q.entries {
		if e.Status == StatusQueued {
			next = e
			break
		}
	}
	if next == nil {
		q.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(q.ctx)
	next.cancel = cancel
	next.Status = StatusUploading
	q.uploading = true
	q.wg.Add(1)

	q.notifyAndUnlock(next.snapshot())

	go q.process(ctx, next)
}

func (q *Queue) process(ctx context.Context, e *entry) {
	defer q.wg.Done()

	q.mu.Lock()
	src := e.src
	cancel := e.cancel
	q.mu.Unlock()
	defer cancel()

	res, err := q.uploader.Upload(ctx, e.WorkspaceID, e.FolderID, src, func(done, total int64) {
		q.progress(e, netx.Percent(done, total))
	})

	// A cancel that lost the race against a stored file does not turn it
	// into a failure.
	q.mu.Lock()
	switch {
	case err == nil:
		e.Status = StatusSuccess
		e.Progress = 100
		if res != nil {
			e.FileID = res.FileID
		}
		e.release()
		q.logger.Info(ctx, "upload finished", "id", e.ID, "name", e.Name, "file_id", e.FileID)
	case e.canceled:
		q.fail(e, ErrCanceled)
	default:
		if q.ctx.Err() != nil {
			err = ErrClosed
		}
		q.fail(e, err)
		q.logger.Warn(ctx, "upload failed", "id", e.ID, "name", e.Name, "error", err)
	}
	q.uploading = false
	q.notifyAndUnlock(e.snapshot())

	q.kick()
}

func (q *Queue) progress(e *entry, pct int) {
	q.mu.Lock()
	if e.Status != StatusUploading && e.Status != StatusProcessing {
		q.mu.Unlock()
		return
	}
	if pct <= e.Progress {
		q.mu.Unlock()
		return
	}
	e.Progress = pct
	if pct >= 100 {
		e.Status = StatusProcessing
	}
	q.notifyAndUnlock(e.snapshot())
}

// fail marks e as failed. Caller holds q.mu.
func (q *Queue) fail(e *entry, err error) {
	e.Status = StatusError
	e.Err = err
	e.release()
}

// notifyAndUnlock wakes waiters, releases q.mu and reports s to onChange.
func (q *Queue) notifyAndUnlock(s Entry) {
	close(q.changed)
	q.changed = make(chan struct{})

	if q.onChange == nil {
		q.mu.Unlock()
		return
	}
	q.pending = append(q.pending, s)
	q.mu.Unlock()
	q.dispatch()
}

// dispatch delivers pending snapshots in order. Only one goroutine delivers
// at a time; others leave their snapshots to it.
func (q *Queue) dispatch() {
	for {
		if !q.hookMu.TryLock() {
			return
		}
		for {
			q.mu.Lock()
			if len(q.pending) == 0 {
				q.mu.Unlock()
				break
			}
			s := q.pending[0]
			q.pending = q.pending[1:]
			q.mu.Unlock()

			q.onChange(s)
		}
		q.hookMu.Unlock()

		q.mu.Lock()
		empty := len(q.pending) == 0
		q.mu.Unlock()
		if empty {
			return
		}
	}
}

// List returns all entries in enqueue order.
func (q *Queue) List() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Entry, 0, len(q.entries))
	for _, e := range q.entries {
		out = append(out, e.snapshot())
	}
	return out
}

func (q *Queue) Get(id int64) (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.entries {
		if e.ID == id {
			return e.snapshot(), true
		}
	}
	return Entry{}, false
}

// Clear removes finished entries (success and error) and returns how many
// were removed. Queued and in-flight entries are kept.
func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	before := len(q.entries)
	q.entries = slices.DeleteFunc(q.entries, func(e *entry) bool {
		return !e.Status.Active()
	})
	removed := before - len(q.entries)
	if removed > 0 {
		close(q.changed)
		q.changed = make(chan struct{})
	}
	return removed
}

// Cancel stops an entry that has not finished. A queued entry fails at once;
// an in-flight one has its request canceled and the next entry starts.
func (q *Queue) Cancel(id int64) bool {
	q.mu.Lock()
	for _, e := range q.entries {
		if e.ID != id {
			continue
		}
		switch e.Status {
		case StatusQueued:
			q.fail(e, ErrCanceled)
			q.notifyAndUnlock(e.snapshot())
			return true
		case StatusUploading, StatusProcessing:
			if !e.canceled {
				e.canceled = true
				e.cancel()
			}
			q.mu.Unlock()
			return true
		}
		break
	}
	q.mu.Unlock()
	return false
}

// Uploading reports whether an upload is in flight.
func (q *Queue) Uploading() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.uploading
}

// Wait blocks until no entry is queued or in flight.
func (q *Queue) Wait(ctx context.Context) error {
	for {
		q.mu.Lock()
		busy := slices.ContainsFunc(q.entries, func(e *entry) bool { return e.Status.Active() })
		closed := q.closed
		ch := q.changed
		q.mu.Unlock()

		if !busy {
			return nil
		}
		if closed && !q.Uploading() {
			return ErrClosed
		}

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close cancels the in-flight upload and stops processing. Queued entries
// stay queued; later Enqueue calls fail with ErrClosed.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.changed)
	q.changed = make(chan struct{})
	q.mu.Unlock()

	q.stop()
	q.wg.Wait()
}
