// Package export renders a subject's question bank as an xlsx workbook
// so teachers can review the catalogue offline.
package export

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/noteoverflow/noteoverflow/internal/question"
)

const sheetName = "Questions"

var header = []string{
	"Question ID", "Paper", "Number", "Year", "Season",
	"Paper Type", "Variant", "Topics", "Images", "Answers",
}

// Exporter writes question workbooks from a question store.
type Exporter struct {
	store question.Store
}

// New creates an Exporter.
func New(store question.Store) *Exporter {
	return &Exporter{store: store}
}

// WriteWorkbook exports every question matching c as an xlsx workbook
// to w. Questions appear in store order, one row per question.
func (e *Exporter) WriteWorkbook(ctx context.Context, c question.Criteria, w io.Writer) error {
	questions, err := e.store.Search(ctx, c)
	if err != nil {
		return fmt.Errorf("search questions: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetName)
	for i, title := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, title); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheetName, "A", "A", 42); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "H", "J", 30); err != nil {
		return err
	}

	for row, q := range questions {
		answers := make([]string, len(q.Answers))
		for i, a := range q.Answers {
			answers[i] = fmt.Sprintf("%s: %s", a.Letter, a.ImageURL)
		}
		values := []any{
			q.ID,
			q.PaperCode,
			q.Number,
			q.Year,
			string(q.Season),
			q.PaperType,
			q.Variant,
			strings.Join(q.Topics, ", "),
			strings.Join(q.ImageURLs, "\n"),
			strings.Join(answers, "\n"),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
