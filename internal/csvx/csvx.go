// Package csvx parses delimited text into header-indexed row records.
//
// The parser is deliberately lenient: it never fails mid-row. Files exported
// from spreadsheets arrive with mixed line endings, stray blank lines, padded
// cells and uneven row lengths, and every one of those should still round-trip
// into usable records. The only error condition is input with no header row.
package csvx

import (
	"errors"
	"strings"
)

// ErrEmptyCSV is returned when the input contains no header row.
var ErrEmptyCSV = errors.New("empty or invalid CSV")

// Document is a parsed delimited file: one header row plus data rows.
// All fields are trimmed of surrounding whitespace.
type Document struct {
	Headers []string
	Rows    [][]string
}

// Record maps a logical field name to its value for one data row.
type Record map[string]string

// FieldAliases maps a logical field name to the header names that may carry
// it. Header matching is case-insensitive.
type FieldAliases map[string][]string

// Parse turns raw delimited text into a Document.
//
// Line endings are normalized (CRLF/CR to LF) and blank lines discarded. The
// first surviving line is the header row. Fields are split on commas with
// quote support: a quoted field may contain commas, and a doubled quote
// inside a quoted field denotes one literal quote character.
func Parse(raw string) (*Document, error) {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return nil, ErrEmptyCSV
	}

	doc := &Document{Headers: splitFields(lines[0])}
	for _, line := range lines[1:] {
		doc.Rows = append(doc.Rows, splitFields(line))
	}
	return doc, nil
}

// splitFields splits one line on commas, honoring double-quote quoting.
// Each resulting field is trimmed.
func splitFields(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				// Doubled quote inside a quoted field is a literal quote
				cur.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	fields = append(fields, strings.TrimSpace(cur.String()))
	return fields
}

// cleanHeader normalizes a header cell for matching: BOM and quote artifacts
// stripped, lowercased.
func cleanHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.TrimSpace(h)
	return strings.ToLower(h)
}

// Records maps each data row to a Record keyed by logical field name.
//
// The column for each logical field is resolved once from the header row by
// matching any of its aliases case-insensitively; the first alias that
// matches a header wins. Rows shorter than the header yield empty strings
// for the missing fields.
func (d *Document) Records(aliases FieldAliases) []Record {
	index := make(map[string]int, len(d.Headers))
	for i, h := range d.Headers {
		key := cleanHeader(h)
		if _, taken := index[key]; !taken {
			index[key] = i
		}
	}

	columns := make(map[string]int, len(aliases))
	for field, names := range aliases {
		for _, name := range names {
			if pos, ok := index[strings.ToLower(name)]; ok {
				columns[field] = pos
				break
			}
		}
	}

	records := make([]Record, 0, len(d.Rows))
	for _, row := range d.Rows {
		rec := make(Record, len(aliases))
		for field := range aliases {
			pos, ok := columns[field]
			if !ok || pos >= len(row) {
				rec[field] = ""
				continue
			}
			rec[field] = row[pos]
		}
		records = append(records, rec)
	}
	return records
}
