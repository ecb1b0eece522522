package loader

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragserver/internal/domain"
)

// newTestPDF generates a well-formed two-page PDF so the test does not depend
// on brittle handcrafted bytes.
func newTestPDF(t *testing.T) []byte {
	t.Helper()
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	doc.AddPage()
	doc.Cell(40, 10, "First page body")
	doc.AddPage()
	doc.Cell(40, 10, "Second page body")

	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

// newTestDocx builds a minimal DOCX archive with two paragraphs.
func newTestDocx(t *testing.T) []byte {
	t.Helper()
	const documentXML = `<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body>` +
		`<w:p><w:r><w:t>Hello regulations</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Second paragraph</w:t></w:r></w:p>` +
		`</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadDirText(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "rules.txt", []byte("machine gun definition"))

	pages, report, err := New(nil).LoadDir(dir)

	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "machine gun definition", pages[0].Content)
	assert.Equal(t, path, pages[0].Source)
	assert.Equal(t, domain.PageNotPaginated, pages[0].Page)
	assert.Equal(t, 1, report.Loaded())
}

func TestLoadDirPDFPerPage(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "act.pdf", newTestPDF(t))

	pages, report, err := New(nil).LoadDir(dir)

	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "1", pages[0].Page)
	assert.Equal(t, "2", pages[1].Page)
	assert.Contains(t, pages[0].Content, "First page body")
	assert.Contains(t, pages[1].Content, "Second page body")
	assert.Equal(t, 1, report.Loaded())
}

func TestLoadDirDocx(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "policy.docx", newTestDocx(t))

	pages, report, err := New(nil).LoadDir(dir)

	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Contains(t, pages[0].Content, "Hello regulations")
	assert.Contains(t, pages[0].Content, "Second paragraph")
	assert.Equal(t, domain.PageNotPaginated, pages[0].Page)
	assert.Equal(t, 1, report.Loaded())
}

func TestLoadDirSkipsUnsupported(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.md", []byte("# not supported"))
	writeFile(t, dir, "rules.txt", []byte("supported"))

	pages, report, err := New(nil).LoadDir(dir)

	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 1, report.Loaded())
	assert.Equal(t, 1, report.Skipped())
	assert.Equal(t, 0, report.Failed())
}

func TestLoadDirCorruptFileDoesNotBlockOthers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.pdf", []byte("this is not a pdf"))
	writeFile(t, dir, "rules.txt", []byte("still loads"))

	pages, report, err := New(nil).LoadDir(dir)

	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "still loads", pages[0].Content)
	assert.Equal(t, 1, report.Loaded())
	assert.Equal(t, 1, report.Failed())

	var failed *domain.FileOutcome
	for i := range report.Outcomes {
		if report.Outcomes[i].Status == domain.FileFailed {
			failed = &report.Outcomes[i]
		}
	}
	require.NotNil(t, failed)
	assert.Contains(t, failed.Path, "broken.pdf")
	assert.Error(t, failed.Err)
}

func TestLoadDirCreatesMissingFolder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does-not-exist-yet")

	pages, report, err := New(nil).LoadDir(dir)

	require.NoError(t, err)
	assert.Empty(t, pages)
	assert.Equal(t, 0, report.Loaded())
	info, statErr := os.Stat(dir)
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())
}

func TestLoadDirIgnoresSubdirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	writeFile(t, dir, "rules.txt", []byte("flat only"))

	pages, report, err := New(nil).LoadDir(dir)

	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Len(t, report.Outcomes, 1)
}
