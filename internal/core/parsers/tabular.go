package parsers

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/markdave123-py/Archiva/internal/core"
	"github.com/markdave123-py/Archiva/internal/models"
)

// rowBatchSize is the number of data rows grouped into one table chunk.
const rowBatchSize = 20

// parseCSV captures the header as one metadata chunk and groups data rows
// into fixed batches serialized as JSON lines, each tagged with its source
// line range.
func (r *Registry) parseCSV(_ context.Context, content []byte, filename string) (*core.ParsedDocument, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	if strings.HasSuffix(strings.ToLower(filename), ".tsv") {
		reader.Comma = '\t'
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, &core.ParseError{FileType: models.FileTypeCSV, Err: err}
	}

	chunks, headers := tabularChunks(records, "", 0)
	rowCount := 0
	if len(records) > 0 {
		rowCount = len(records) - 1
	}

	return &core.ParsedDocument{
		Content: string(content),
		Metadata: map[string]any{
			"columns":  headers,
			"rowCount": rowCount,
		},
		Chunks: chunks,
	}, nil
}

// parseXlsx iterates every sheet, converts each to CSV-shaped records
// internally and reuses the CSV chunking, tagging chunks with the sheet
// name.
func (r *Registry) parseXlsx(_ context.Context, content []byte, _ string) (*core.ParsedDocument, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, &core.ParseError{FileType: models.FileTypeXlsx, Err: err}
	}
	defer f.Close()

	sheetNames := f.GetSheetList()
	var (
		chunks   []core.ParsedChunk
		parts    []string
		rowTotal int
	)
	for _, sheet := range sheetNames {
		records, err := f.GetRows(sheet)
		if err != nil {
			return nil, &core.ParseError{FileType: models.FileTypeXlsx, Err: fmt.Errorf("sheet %q: %w", sheet, err)}
		}
		sheetChunks, headers := tabularChunks(records, sheet, 0)
		chunks = append(chunks, sheetChunks...)
		if len(records) > 1 {
			rowTotal += len(records) - 1
		}
		if len(headers) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", sheet, strings.Join(headers, ", ")))
		}
	}

	return &core.ParsedDocument{
		Content: strings.Join(parts, "\n"),
		Metadata: map[string]any{
			"sheetNames": sheetNames,
			"rowCount":   rowTotal,
		},
		Chunks: chunks,
	}, nil
}

// tabularChunks emits one metadata chunk for the header row followed by
// table chunks of up to rowBatchSize data rows serialized as JSON lines.
// records[0] is treated as the header; a sheet with no rows at all still
// yields its metadata chunk so every sheet is represented.
func tabularChunks(records [][]string, sheetName string, lineOffset int) ([]core.ParsedChunk, []string) {
	var headers []string
	if len(records) > 0 {
		headers = records[0]
	}

	meta := func(extra map[string]any) map[string]any {
		m := map[string]any{}
		if sheetName != "" {
			m["sheet"] = sheetName
		}
		for k, v := range extra {
			m[k] = v
		}
		return m
	}

	headerJSON, _ := json.Marshal(map[string]any{"columns": headers})
	chunks := []core.ParsedChunk{{
		Content:  string(headerJSON),
		Type:     models.ChunkTypeMetadata,
		Metadata: meta(nil),
	}}

	if len(records) < 2 {
		return chunks, headers
	}

	rows := records[1:]
	for start := 0; start < len(rows); start += rowBatchSize {
		end := start + rowBatchSize
		if end > len(rows) {
			end = len(rows)
		}

		var sb strings.Builder
		for _, row := range rows[start:end] {
			obj := make(map[string]string, len(headers))
			for i, val := range row {
				key := fmt.Sprintf("col%d", i+1)
				if i < len(headers) && headers[i] != "" {
					key = headers[i]
				}
				obj[key] = val
			}
			line, _ := json.Marshal(obj)
			sb.Write(line)
			sb.WriteByte('\n')
		}

		// Header occupies line 1; data row k (zero-based) sits on line k+2.
		lineStart := lineOffset + start + 2
		lineEnd := lineOffset + end + 1
		chunks = append(chunks, core.ParsedChunk{
			Content:   strings.TrimRight(sb.String(), "\n"),
			Type:      models.ChunkTypeTable,
			LineStart: intPtr(lineStart),
			LineEnd:   intPtr(lineEnd),
			Metadata:  meta(map[string]any{"rows": end - start}),
		})
	}
	return chunks, headers
}
