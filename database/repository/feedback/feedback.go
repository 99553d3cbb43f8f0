// File: database/repository/feedback/feedback.go
package feedbackRepo

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"

	"autoshop/models"
)

var feedbackHeader = []string{"Name", "Email", "Date", "Time Slot", "Resolved", "Comments"}

// FeedbackRepository is an append-only store of customer feedback.
type FeedbackRepository interface {
	Append(ctx context.Context, fb models.FeedbackRecord) error
	List(ctx context.Context) ([]models.FeedbackRecord, error)
}

type csvFeedbackRepo struct {
	path string
	mu   sync.Mutex
}

func NewCSVFeedbackRepo(path string) FeedbackRepository {
	return &csvFeedbackRepo{path: path}
}

func (r *csvFeedbackRepo) Append(ctx context.Context, fb models.FeedbackRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	writeHeader := false
	if st, err := os.Stat(r.path); errors.Is(err, fs.ErrNotExist) || (err == nil && st.Size() == 0) {
		writeHeader = true
	} else if err != nil {
		return &models.StorageError{Op: "append", Path: r.path, Err: err}
	}

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return &models.StorageError{Op: "append", Path: r.path, Err: err}
	}
	fail := func(err error) error {
		f.Close()
		return &models.StorageError{Op: "append", Path: r.path, Err: err}
	}
	if err := terminateLastLine(f); err != nil {
		return fail(err)
	}
	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(feedbackHeader); err != nil {
			return fail(err)
		}
	}
	if err := w.Write([]string{fb.CustomerName, fb.CustomerEmail, fb.Date, fb.TimeSlot, fb.Resolved, fb.Comments}); err != nil {
		return fail(err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fail(err)
	}
	if err := f.Sync(); err != nil {
		return fail(err)
	}
	if err := f.Close(); err != nil {
		return &models.StorageError{Op: "append", Path: r.path, Err: err}
	}
	return nil
}

// terminateLastLine adds a newline when the file is non-empty and does not end with one.
func terminateLastLine(f *os.File) error {
	st, err := f.Stat()
	if err != nil || st.Size() == 0 {
		return err
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, st.Size()-1); err != nil {
		return err
	}
	if last[0] == '\n' {
		return nil
	}
	_, err = f.Write([]byte("\n"))
	return err
}

func (r *csvFeedbackRepo) List(ctx context.Context) ([]models.FeedbackRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Open(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.FeedbackRecord{}, nil
	}
	if err != nil {
		return nil, &models.StorageError{Op: "read", Path: r.path, Err: err}
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return []models.FeedbackRecord{}, nil
	}
	if err != nil {
		return nil, &models.StorageError{Op: "read", Path: r.path, Err: err}
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	get := func(row []string, name string) string {
		i, ok := cols[strings.ToLower(name)]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	out := []models.FeedbackRecord{}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &models.StorageError{Op: "read", Path: r.path, Err: err}
		}
		out = append(out, models.FeedbackRecord{
			CustomerName:  get(row, "Name"),
			CustomerEmail: get(row, "Email"),
			Date:          get(row, "Date"),
			TimeSlot:      get(row, "Time Slot"),
			Resolved:      get(row, "Resolved"),
			Comments:      get(row, "Comments"),
		})
	}
	return out, nil
}
