// Package loader reads supported document types from a flat folder and turns
// them into page-level text units with source attribution.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kataras/golog"

	"ragserver/internal/domain"
)

// fileLoader converts one file into its ordered pages.
type fileLoader func(path string) ([]domain.Page, error)

// Loader enumerates a documents folder and dispatches per-extension loaders.
type Loader struct {
	loaders map[string]fileLoader
	log     *golog.Logger
}

// New creates a Loader supporting .pdf, .txt and .docx files.
func New(logger *golog.Logger) *Loader {
	if logger == nil {
		logger = golog.Default
	}
	return &Loader{
		loaders: map[string]fileLoader{
			".pdf":  loadPDF,
			".txt":  loadText,
			".docx": loadDocx,
		},
		log: logger,
	}
}

// LoadDir loads every supported file in dir. A missing folder is created
// empty and yields zero pages. One unreadable file never blocks the others;
// its outcome is recorded in the report instead.
func (l *Loader) LoadDir(dir string) ([]domain.Page, *domain.LoadReport, error) {
	report := &domain.LoadReport{}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create documents folder: %w", err)
		}
		l.log.Warnf("documents folder %s did not exist, created empty", dir)
		return nil, report, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read documents folder: %w", err)
	}

	var pages []domain.Page
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		load, ok := l.loaders[ext]
		if !ok {
			report.Add(domain.FileOutcome{Path: path, Status: domain.FileSkipped})
			l.log.Debugf("skipping unsupported file %s", entry.Name())
			continue
		}
		filePages, err := load(path)
		if err != nil {
			report.Add(domain.FileOutcome{Path: path, Status: domain.FileFailed, Err: err})
			l.log.Errorf("error loading %s: %v", entry.Name(), err)
			continue
		}
		pages = append(pages, filePages...)
		report.Add(domain.FileOutcome{Path: path, Status: domain.FileLoaded, Pages: len(filePages)})
		l.log.Infof("loaded %s (%d pages)", entry.Name(), len(filePages))
	}
	return pages, report, nil
}

// loadText reads a plain-text file as a single unpaginated page.
func loadText(path string) ([]domain.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return []domain.Page{{
		Content: string(data),
		Source:  path,
		Page:    domain.PageNotPaginated,
	}}, nil
}
