// File: database/repository/ledger/csv.go
package ledgerRepo

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"autoshop/models"
)

// Ledger file columns. Email was added after the first revisions of the file, so readers
// find columns by header name and tolerate its absence.
const (
	colName   = "Name"
	colEmail  = "Email"
	colDate   = "Date"
	colSlot   = "Time Slot"
	colStatus = "Status"
	colRate   = "Labor Rate ($/hr)"
	colHours  = "Estimated Hours"
)

var ledgerHeader = []string{colName, colEmail, colDate, colSlot, colStatus, colRate, colHours}

type csvLedgerRepo struct {
	path string
	mu   sync.Mutex // single writer for appends and rewrites
}

// NewCSVLedgerRepo returns a ledger persisted to a CSV file at path.
func NewCSVLedgerRepo(path string) LedgerRepository {
	return &csvLedgerRepo{path: path}
}

func (r *csvLedgerRepo) Append(ctx context.Context, record models.BookingRecord) (models.RecordID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	record.Status = models.StatusPending

	r.mu.Lock()
	defer r.mu.Unlock()

	entries, header, err := r.load()
	if err != nil {
		return 0, err
	}
	id := models.RecordID(len(entries))

	// A file written by an older revision keeps its own column set; rewrite it in the
	// current layout rather than appending rows with a different shape.
	if header != nil && !sameHeader(header, ledgerHeader) {
		entries = append(entries, models.LedgerEntry{ID: id, Record: record})
		if err := r.rewrite(entries); err != nil {
			return 0, err
		}
		return id, nil
	}

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return 0, &models.StorageError{Op: "append", Path: r.path, Err: err}
	}
	if err := terminateLastLine(f); err != nil {
		f.Close()
		return 0, &models.StorageError{Op: "append", Path: r.path, Err: err}
	}
	w := csv.NewWriter(f)
	if header == nil {
		if err := w.Write(ledgerHeader); err != nil {
			f.Close()
			return 0, &models.StorageError{Op: "append", Path: r.path, Err: err}
		}
	}
	if err := w.Write(toRow(record)); err != nil {
		f.Close()
		return 0, &models.StorageError{Op: "append", Path: r.path, Err: err}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return 0, &models.StorageError{Op: "append", Path: r.path, Err: err}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return 0, &models.StorageError{Op: "append", Path: r.path, Err: err}
	}
	if err := f.Close(); err != nil {
		return 0, &models.StorageError{Op: "append", Path: r.path, Err: err}
	}
	return id, nil
}

func (r *csvLedgerRepo) List(ctx context.Context) ([]models.LedgerEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, _, err := r.load()
	return entries, err
}

func (r *csvLedgerRepo) Get(ctx context.Context, id models.RecordID) (*models.LedgerEntry, error) {
	entries, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	if int(id) < 0 || int(id) >= len(entries) {
		return nil, notFound(id)
	}
	e := entries[id]
	return &e, nil
}

func (r *csvLedgerRepo) UpdateStatus(ctx context.Context, id models.RecordID, status models.BookingStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, _, err := r.load()
	if err != nil {
		return err
	}
	if int(id) < 0 || int(id) >= len(entries) {
		return notFound(id)
	}
	entries[id].Record.Status = status
	return r.rewrite(entries)
}

// load reads every entry. A missing file is an empty ledger; header is nil in that case.
func (r *csvLedgerRepo) load() ([]models.LedgerEntry, []string, error) {
	f, err := os.Open(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.LedgerEntry{}, nil, nil
	}
	if err != nil {
		return nil, nil, &models.StorageError{Op: "read", Path: r.path, Err: err}
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return []models.LedgerEntry{}, nil, nil
	}
	if err != nil {
		return nil, nil, &models.StorageError{Op: "read", Path: r.path, Err: err}
	}
	cols := indexColumns(header)

	entries := []models.LedgerEntry{}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, &models.StorageError{Op: "read", Path: r.path, Err: err}
		}
		rec, err := fromRow(row, cols)
		if err != nil {
			return nil, nil, &models.StorageError{Op: "read", Path: r.path, Err: fmt.Errorf("line %d: %w", line, err)}
		}
		entries = append(entries, models.LedgerEntry{ID: models.RecordID(len(entries)), Record: rec})
	}
	return entries, header, nil
}

// terminateLastLine writes a newline when a non-empty file does not already end with one,
// so the next row starts on its own line.
func terminateLastLine(f *os.File) error {
	st, err := f.Stat()
	if err != nil {
		return err
	}
	if st.Size() == 0 {
		return nil
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

// rewrite replaces the ledger by writing a sibling temp file and renaming it into place.
func (r *csvLedgerRepo) rewrite(entries []models.LedgerEntry) error {
	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return &models.StorageError{Op: "write", Path: r.path, Err: err}
	}
	tmpName := tmp.Name()
	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return &models.StorageError{Op: "write", Path: r.path, Err: err}
	}

	w := csv.NewWriter(tmp)
	if err := w.Write(ledgerHeader); err != nil {
		return cleanup(err)
	}
	for _, e := range entries {
		if err := w.Write(toRow(e.Record)); err != nil {
			return cleanup(err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &models.StorageError{Op: "write", Path: r.path, Err: err}
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return &models.StorageError{Op: "write", Path: r.path, Err: err}
	}
	return nil
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	return cols
}

func sameHeader(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if strings.TrimSpace(a[i]) != b[i] {
			return false
		}
	}
	return true
}

func cell(row []string, cols map[string]int, name string) string {
	i, ok := cols[strings.ToLower(name)]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func fromRow(row []string, cols map[string]int) (models.BookingRecord, error) {
	rec := models.BookingRecord{
		CustomerName:  cell(row, cols, colName),
		CustomerEmail: cell(row, cols, colEmail),
		Date:          cell(row, cols, colDate),
		TimeSlot:      cell(row, cols, colSlot),
	}
	// Unknown statuses are kept verbatim so a rewrite never loses them.
	raw := cell(row, cols, colStatus)
	if st, ok := models.ParseBookingStatus(raw); ok {
		rec.Status = st
	} else {
		rec.Status = models.BookingStatus(raw)
	}

	var err error
	if v := cell(row, cols, colRate); v != "" {
		if rec.HourlyRate, err = strconv.ParseFloat(v, 64); err != nil {
			return rec, fmt.Errorf("labor rate %q: %w", v, err)
		}
	}
	if v := cell(row, cols, colHours); v != "" {
		if rec.EstimatedHours, err = strconv.ParseFloat(v, 64); err != nil {
			return rec, fmt.Errorf("estimated hours %q: %w", v, err)
		}
	}
	return rec, nil
}

func toRow(rec models.BookingRecord) []string {
	return []string{
		rec.CustomerName,
		rec.CustomerEmail,
		rec.Date,
		rec.TimeSlot,
		string(rec.Status),
		strconv.FormatFloat(rec.HourlyRate, 'f', -1, 64),
		strconv.FormatFloat(rec.EstimatedHours, 'f', -1, 64),
	}
}

func idKey(id models.RecordID) string {
	return strconv.Itoa(int(id))
}
