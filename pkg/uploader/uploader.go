// Package uploader implements the bounded-concurrency upload queue
// driving the per-item gallery upload endpoint: a fixed pool of
// workers consumes a shared cursor over pending items, each item fully
// processed (request issued, progress streamed, state resolved) before
// its worker pulls the next one.
package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Status is the tagged state of one queue item.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusUploading Status = "uploading"
	StatusDone      Status = "done"
	StatusError     Status = "error"
	StatusCancelled Status = "cancelled"
)

// Item is one asset group queued for upload.
type Item struct {
	Key       string
	ImagePath string
	VideoPath string

	Title       string
	Description string
	Category    string
	PostID      string

	Status   Status
	Progress float64
	ImageID  string
	Err      string
}

// Queue is the upload scheduler. All item state moves through a single
// locked reducer; observers receive immutable snapshots.
type Queue struct {
	endpoint    string
	token       string
	concurrency int
	client      *http.Client

	mu       sync.Mutex
	items    []*Item
	cursor   int
	cancels  map[int]context.CancelFunc
	onChange func(index int, item Item)
}

// New creates a queue against the single-item upload endpoint.
func New(endpoint, token string, concurrency int) *Queue {
	if concurrency < 1 {
		concurrency = 3
	}
	return &Queue{
		endpoint:    endpoint,
		token:       token,
		concurrency: concurrency,
		client:      &http.Client{},
		cancels:     make(map[int]context.CancelFunc),
	}
}

// OnChange registers an observer called with a snapshot after every
// state transition. Must be set before Run.
func (q *Queue) OnChange(fn func(index int, item Item)) {
	q.mu.Lock()
	q.onChange = fn
	q.mu.Unlock()
}

// Add appends an item in the idle state and returns its index.
func (q *Queue) Add(item Item) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	item.Status = StatusIdle
	item.Progress = 0
	q.items = append(q.items, &item)
	return len(q.items) - 1
}

// Items returns a snapshot of all items.
func (q *Queue) Items() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Item, len(q.items))
	for i, it := range q.items {
		out[i] = *it
	}
	return out
}

// Active reports whether any item is currently uploading. Callers use
// this as the leave guard: do not tear the process down while true.
func (q *Queue) Active() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, it := range q.items {
		if it.Status == StatusUploading {
			return true
		}
	}
	return false
}

// Cancel aborts an in-flight item. Sibling workers are unaffected and
// keep pulling from the shared cursor.
func (q *Queue) Cancel(index int) {
	q.mu.Lock()
	cancel := q.cancels[index]
	q.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Retry re-queues a cancelled or failed item; it re-enters the
// idle → uploading cycle on the next Run (or is picked up by a still
// running worker).
func (q *Queue) Retry(index int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if index < 0 || index >= len(q.items) {
		return
	}
	it := q.items[index]
	if it.Status != StatusError && it.Status != StatusCancelled {
		return
	}
	it.Status = StatusIdle
	it.Progress = 0
	it.Err = ""
	if index < q.cursor {
		q.cursor = index
	}
}

// Run processes the queue with the configured worker count and blocks
// until no idle items remain. It may be called again after Retry.
func (q *Queue) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for w := 0; w < q.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				idx, ok := q.next()
				if !ok {
					return
				}
				q.process(ctx, idx)
				if ctx.Err() != nil {
					return
				}
			}
		}()
	}
	wg.Wait()
}

// next advances the shared cursor to the next idle item, marking it
// uploading under the same lock so no two workers claim one item.
func (q *Queue) next() (int, bool) {
	q.mu.Lock()
	for q.cursor < len(q.items) {
		i := q.cursor
		q.cursor++
		if q.items[i].Status == StatusIdle {
			q.items[i].Status = StatusUploading
			q.items[i].Progress = 0
			snapshot := *q.items[i]
			cb := q.onChange
			q.mu.Unlock()
			if cb != nil {
				cb(i, snapshot)
			}
			return i, true
		}
	}
	q.mu.Unlock()
	return 0, false
}

// update is the single reducer: every state mutation goes through it.
func (q *Queue) update(index int, fn func(*Item)) {
	q.mu.Lock()
	fn(q.items[index])
	snapshot := *q.items[index]
	cb := q.onChange
	q.mu.Unlock()
	if cb != nil {
		cb(index, snapshot)
	}
}

func (q *Queue) process(ctx context.Context, index int) {
	q.mu.Lock()
	item := *q.items[index]
	q.mu.Unlock()

	itemCtx, cancel := context.WithCancel(ctx)
	q.mu.Lock()
	q.cancels[index] = cancel
	q.mu.Unlock()
	defer func() {
		cancel()
		q.mu.Lock()
		delete(q.cancels, index)
		q.mu.Unlock()
	}()

	body, contentType, err := buildBody(&item)
	if err != nil {
		q.update(index, func(it *Item) {
			it.Status = StatusError
			it.Err = err.Error()
		})
		return
	}

	reader := &progressReader{
		r:     bytes.NewReader(body),
		total: int64(len(body)),
		report: func(frac float64) {
			q.update(index, func(it *Item) {
				if it.Status == StatusUploading {
					it.Progress = frac
				}
			})
		},
	}

	req, err := http.NewRequestWithContext(itemCtx, http.MethodPost, q.endpoint, reader)
	if err != nil {
		q.update(index, func(it *Item) {
			it.Status = StatusError
			it.Err = err.Error()
		})
		return
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(body))
	if q.token != "" {
		req.Header.Set("Authorization", "Bearer "+q.token)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		if itemCtx.Err() == context.Canceled {
			q.update(index, func(it *Item) {
				it.Status = StatusCancelled
				it.Err = ""
			})
			return
		}
		q.update(index, func(it *Item) {
			it.Status = StatusError
			it.Err = err.Error()
		})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		msg := fmt.Sprintf("upload failed: status %d", resp.StatusCode)
		if json.NewDecoder(resp.Body).Decode(&errBody) == nil && errBody.Error != "" {
			msg = errBody.Error
		}
		q.update(index, func(it *Item) {
			it.Status = StatusError
			it.Err = msg
		})
		return
	}

	var okBody struct {
		Image struct {
			ID string `json:"id"`
		} `json:"image"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&okBody); err != nil {
		q.update(index, func(it *Item) {
			it.Status = StatusError
			it.Err = "invalid response: " + err.Error()
		})
		return
	}

	q.update(index, func(it *Item) {
		it.Status = StatusDone
		it.Progress = 1
		it.ImageID = okBody.Image.ID
	})
}

// buildBody assembles the multipart request for one item.
func buildBody(item *Item) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := writeFilePart(w, "image", item.ImagePath); err != nil {
		return nil, "", err
	}
	if item.VideoPath != "" {
		if err := writeFilePart(w, "video", item.VideoPath); err != nil {
			return nil, "", err
		}
	}

	fields := map[string]string{
		"title":       item.Title,
		"description": item.Description,
		"category":    item.Category,
		"post_id":     item.PostID,
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := w.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func writeFilePart(w *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}

// progressReader reports upload progress as the transport drains the
// request body. Reports are throttled to meaningful increments.
type progressReader struct {
	r      *bytes.Reader
	total  int64
	sent   int64
	last   time.Time
	report func(frac float64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		frac := float64(p.sent) / float64(p.total)
		if frac >= 1 || time.Since(p.last) > 50*time.Millisecond {
			p.last = time.Now()
			p.report(frac)
		}
	}
	return n, err
}
