package extractor

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/insightdelivered/statement-structurer/internal/models"
	"github.com/insightdelivered/statement-structurer/internal/source"
)

// ExtractPages reads a PDF and returns the text content of each page, in page
// order. A page without extractable text yields "" rather than an error; only a
// document that cannot be opened as a PDF fails, with models.ErrSourceUnreadable.
//
// Text is decoded through the reader's standard font encodings. Pages set in
// embedded Type0/CID fonts without a usable encoding come back as "" (or
// garbled), and scanned pages have no text layer at all; both need OCR, which
// this package does not do.
func ExtractPages(src source.Source) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: PDF library crashed: %v", models.ErrSourceUnreadable, r)
		}
	}()

	data, err := src.Bytes()
	if err != nil {
		return nil, err
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSourceUnreadable, err)
	}

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("%w: PDF has no pages", models.ErrSourceUnreadable)
	}

	// GetTextByRow keeps the printed line layout best; fall back to
	// coordinate grouping when it finds nothing at all.
	pages = extractByRow(r, numPages)
	if totalTextLen(pages) == 0 {
		pages = extractByContent(r, numPages)
	}
	return pages, nil
}

// SplitLines splits page text into trimmed lines.
func SplitLines(page string) []string {
	if strings.TrimSpace(page) == "" {
		return nil
	}
	raw := strings.Split(page, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, strings.TrimSpace(l))
	}
	return lines
}

func extractByRow(r *pdf.Reader, numPages int) []string {
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			pages = append(pages, "")
			continue
		}
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				if word.S != "" {
					parts = append(parts, word.S)
				}
			}
			line := strings.TrimSpace(strings.Join(parts, " "))
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// extractByContent groups text pieces by Y coordinate to rebuild rows, then
// orders each row by X.
func extractByContent(r *pdf.Reader, numPages int) []string {
	type textItem struct {
		x float64
		s string
	}

	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		content := page.Content()

		rowMap := make(map[int][]textItem)
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			yKey := int(math.Round(t.Y))
			rowMap[yKey] = append(rowMap[yKey], textItem{x: t.X, s: t.S})
		}

		// PDF Y grows bottom to top
		yKeys := make([]int, 0, len(rowMap))
		for y := range rowMap {
			yKeys = append(yKeys, y)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(yKeys)))

		var lines []string
		for _, y := range yKeys {
			items := rowMap[y]
			sort.Slice(items, func(a, b int) bool {
				return items[a].x < items[b].x
			})

			var sb strings.Builder
			var prevX float64
			for j, item := range items {
				if j > 0 && item.x-prevX > 15 {
					sb.WriteString(" ")
				}
				sb.WriteString(item.s)
				prevX = item.x
			}
			line := strings.TrimSpace(sb.String())
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

func totalTextLen(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}
