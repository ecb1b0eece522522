package loader

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"ragserver/internal/domain"
)

// loadDocx extracts paragraph text from a .docx file. DOCX is a ZIP archive;
// the body lives in word/document.xml as <w:p> paragraphs of <w:t> runs.
func loadDocx(path string) ([]domain.Page, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer archive.Close()

	var body *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			body = f
			break
		}
	}
	if body == nil {
		return nil, fmt.Errorf("document.xml not found in %s", path)
	}

	rc, err := body.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	text, err := docxText(rc)
	if err != nil {
		return nil, fmt.Errorf("parse document.xml: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return []domain.Page{{
		Content: text,
		Source:  path,
		Page:    domain.PageNotPaginated,
	}}, nil
}

// docxText walks the WordprocessingML token stream, collecting run text and
// terminating paragraphs with newlines.
func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}
