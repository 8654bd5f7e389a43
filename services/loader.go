package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

// DocumentLoader turns one file into raw documents. The loader is picked by
// file extension.
type DocumentLoader interface {
	LoadFile(ctx context.Context, path string) ([]schema.Document, error)
}

var errNoPDFLicense = errors.New("no Unidoc license key configured")

type fileLoader struct {
	licenseKey  string
	setLicense  func(key string) error
	licenseOnce sync.Once
	licenseErr  error
}

// NewFileLoader returns the extension-dispatching loader. licenseKey is only
// needed when the directory contains PDFs.
func NewFileLoader(licenseKey string) DocumentLoader {
	return &fileLoader{licenseKey: licenseKey, setLicense: license.SetMeteredKey}
}

func (l *fileLoader) LoadFile(ctx context.Context, path string) ([]schema.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".pdf" {
		return l.loadPDF(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	switch ext {
	case ".json":
		return loadJSONDocuments(f)
	case ".csv":
		return documentloaders.NewCSV(f).Load(ctx)
	case ".html", ".htm":
		return documentloaders.NewHTML(f).Load(ctx)
	default:
		return documentloaders.NewText(f).Load(ctx)
	}
}

// loadJSONDocuments emits one document per string value, in the order the
// values appear. Object keys are skipped.
func loadJSONDocuments(r io.Reader) ([]schema.Document, error) {
	type frame struct {
		object    bool
		expectKey bool
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()

	var stack []frame
	valueDone := func() {
		if n := len(stack); n > 0 && stack[n-1].object {
			stack[n-1].expectKey = true
		}
	}

	var docs []schema.Document
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			if len(stack) > 0 {
				return nil, fmt.Errorf("invalid json: %w", io.ErrUnexpectedEOF)
			}
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid json: %w", err)
		}

		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{', '[':
				stack = append(stack, frame{object: v == '{', expectKey: v == '{'})
			case '}', ']':
				stack = stack[:len(stack)-1]
				valueDone()
			}
		case string:
			if n := len(stack); n > 0 && stack[n-1].expectKey {
				stack[n-1].expectKey = false
				continue
			}
			if strings.TrimSpace(v) != "" {
				docs = append(docs, schema.Document{PageContent: v, Metadata: map[string]any{}})
			}
			valueDone()
		default:
			valueDone()
		}
	}
	return docs, nil
}

func (l *fileLoader) loadPDF(path string) ([]schema.Document, error) {
	l.licenseOnce.Do(func() {
		if l.licenseKey == "" {
			l.licenseErr = errNoPDFLicense
		} else {
			l.licenseErr = l.setLicense(l.licenseKey)
		}
		if l.licenseErr != nil {
			log.Printf("INGEST: Failed to set Unidoc license key: %v. PDF processing will fail.", l.licenseErr)
		}
	})
	if l.licenseErr != nil {
		return nil, fmt.Errorf("pdf support unavailable: %w", l.licenseErr)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader, err := model.NewPdfReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf %s: %w", path, err)
	}
	numPages, err := reader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("failed to count pages in %s: %w", path, err)
	}

	// One document per page; blank pages are dropped.
	docs := make([]schema.Document, 0, numPages)
	for n := 1; n <= numPages; n++ {
		page, err := reader.GetPage(n)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d of %s: %w", n, path, err)
		}
		ex, err := extractor.New(page)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare page %d of %s: %w", n, path, err)
		}
		text, err := ex.ExtractText()
		if err != nil {
			return nil, fmt.Errorf("failed to extract page %d of %s: %w", n, path, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		docs = append(docs, schema.Document{PageContent: text, Metadata: map[string]any{"page": n}})
	}
	return docs, nil
}
