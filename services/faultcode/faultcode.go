package faultcode

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"autoshop/models"
)

// NoDescription is returned when the reference has no entry for a code.
const NoDescription = "No description found for this P-code."

// Service looks up diagnostic trouble codes in a reference document.
type Service interface {
	Lookup(ctx context.Context, code string) models.FaultCodeDescription
}

// Reference holds the text of a code list, one string per page.
type Reference struct {
	pages []string
}

// NewReference builds a reference from already extracted page text.
func NewReference(pages []string) *Reference {
	return &Reference{pages: pages}
}

// Load reads a code list once. PDFs are read page by page; anything else is read as text.
func Load(path string, logger *zap.Logger) (*Reference, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		pages []string
		err   error
	)
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		pages, err = readPDF(path)
	} else {
		var b []byte
		b, err = os.ReadFile(path)
		pages = []string{string(b)}
	}
	if err != nil {
		return nil, &models.StorageError{Op: "read", Path: path, Err: err}
	}
	logger.Info("fault code reference loaded", zap.String("path", path), zap.Int("pages", len(pages)))
	return &Reference{pages: pages}, nil
}

func readPDF(path string) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, err
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// Lookup returns the text from the first occurrence of the code to the end of its line.
func (r *Reference) Lookup(_ context.Context, code string) models.FaultCodeDescription {
	code = strings.ToUpper(strings.TrimSpace(code))
	out := models.FaultCodeDescription{Code: code, Description: NoDescription}
	if code == "" || r == nil {
		return out
	}
	for _, text := range r.pages {
		start := strings.Index(text, code)
		if start < 0 {
			continue
		}
		line := text[start:]
		if end := strings.IndexByte(line, '\n'); end >= 0 {
			line = line[:end]
		}
		out.Description = strings.TrimSpace(line)
		out.Found = true
		return out
	}
	return out
}
