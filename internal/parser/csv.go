package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/dragonfly/internal/doctree"
)

// textColumns are header names whose column holds the running text of a
// row. When none is present every cell of the row is joined.
var textColumns = map[string]bool{
	"text":     true,
	"sentence": true,
	"content":  true,
	"body":     true,
}

// CSVParser handles CSV files. Each data row becomes one text block.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(filename, ".csv"),
	}

	if len(records) == 0 {
		return tree, nil
	}

	// First row is headers.
	col := -1
	for i, h := range records[0] {
		if textColumns[strings.ToLower(strings.TrimSpace(h))] {
			col = i
			break
		}
	}

	for _, row := range records[1:] {
		var text string
		if col >= 0 {
			if col < len(row) {
				text = row[col]
			}
		} else {
			text = strings.Join(row, " ")
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		tree.Children = append(tree.Children, &doctree.DocNode{Text: text})
	}

	return tree, nil
}
