package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github/itish2003/voicecare/models"
)

var (
	ErrInvalidDocumentName = errors.New("invalid document name")
	ErrDocumentExists      = errors.New("document already exists")
	ErrDocumentNotFound    = errors.New("document not found")
)

var editableExtensions = map[string]bool{
	".txt": true, ".md": true, ".json": true, ".csv": true, ".html": true, ".htm": true,
}

// DocumentFiles manages the text documents in the ingestion directory.
// Changes reach the index on the next rebuild.
type DocumentFiles struct {
	dir string
}

func NewDocumentFiles(dir string) *DocumentFiles {
	return &DocumentFiles{dir: dir}
}

// resolve keeps name inside the documents directory.
func (d *DocumentFiles) resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidDocumentName, name)
	}
	if !editableExtensions[strings.ToLower(filepath.Ext(name))] {
		return "", fmt.Errorf("%w: unsupported extension for %q", ErrInvalidDocumentName, name)
	}
	return filepath.Join(d.dir, name), nil
}

func (d *DocumentFiles) List() ([]models.DocumentInfo, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnreadable, err)
	}
	docs := make([]models.DocumentInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		docs = append(docs, models.DocumentInfo{Name: entry.Name(), Size: info.Size()})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

func (d *DocumentFiles) Create(name, content string) error {
	path, err := d.resolve(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create documents directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", ErrDocumentExists, name)
	}
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// Append adds content to an existing document, separated by a blank line.
func (d *DocumentFiles) Append(name, content string) error {
	path, err := d.resolve(name)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("failed to open %s for editing: %w", name, err)
	}
	defer f.Close()
	if _, err := f.WriteString("\n\n" + content); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (d *DocumentFiles) Delete(name string) error {
	path, err := d.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrDocumentNotFound, name)
		}
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}
