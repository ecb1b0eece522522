package loader

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"ragserver/internal/domain"
)

// loadPDF extracts the text layer of each PDF page as one page unit.
func loadPDF(path string) ([]domain.Page, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	var pages []domain.Page
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, domain.Page{
			Content: text,
			Source:  path,
			Page:    strconv.Itoa(i),
		})
	}
	return pages, nil
}
