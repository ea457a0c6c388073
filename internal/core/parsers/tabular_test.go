package parsers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/markdave123-py/Archiva/internal/models"
)

func TestParseCSVHeaderAndBatches(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("name,age,city\n")
	for i := 0; i < 45; i++ {
		fmt.Fprintf(&sb, "person%d,%d,city%d\n", i, 20+i, i)
	}

	doc, err := newTestRegistry().Parse(context.Background(), []byte(sb.String()), models.FileTypeCSV, "people.csv")
	require.NoError(t, err)

	assert.Equal(t, 45, doc.Metadata["rowCount"])
	assert.Equal(t, []string{"name", "age", "city"}, doc.Metadata["columns"])

	// 1 header metadata chunk + ceil(45/20) = 3 table chunks.
	require.Len(t, doc.Chunks, 4)
	assert.Equal(t, models.ChunkTypeMetadata, doc.Chunks[0].Type)

	var header map[string][]string
	require.NoError(t, json.Unmarshal([]byte(doc.Chunks[0].Content), &header))
	assert.Equal(t, []string{"name", "age", "city"}, header["columns"])

	// Batch sizes 20, 20, 5 with 1-based file line ranges after the header.
	wantRows := []int{20, 20, 5}
	wantStart := []int{2, 22, 42}
	wantEnd := []int{21, 41, 46}
	for i, c := range doc.Chunks[1:] {
		assert.Equal(t, models.ChunkTypeTable, c.Type)
		assert.Equal(t, wantRows[i], c.Metadata["rows"])
		require.NotNil(t, c.LineStart)
		require.NotNil(t, c.LineEnd)
		assert.Equal(t, wantStart[i], *c.LineStart)
		assert.Equal(t, wantEnd[i], *c.LineEnd)
	}

	// Rows serialize as one JSON object per line keyed by header.
	firstLine := strings.SplitN(doc.Chunks[1].Content, "\n", 2)[0]
	var row map[string]string
	require.NoError(t, json.Unmarshal([]byte(firstLine), &row))
	assert.Equal(t, "person0", row["name"])
	assert.Equal(t, "20", row["age"])
}

func TestParseCSVHeaderOnly(t *testing.T) {
	doc, err := newTestRegistry().Parse(context.Background(), []byte("a,b,c\n"), models.FileTypeCSV, "empty.csv")
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Metadata["rowCount"])
	require.Len(t, doc.Chunks, 1)
	assert.Equal(t, models.ChunkTypeMetadata, doc.Chunks[0].Type)
}

func TestParseCSVRaggedRows(t *testing.T) {
	input := "a,b,c\n1,2\n3,4,5,6\n"
	doc, err := newTestRegistry().Parse(context.Background(), []byte(input), models.FileTypeCSV, "ragged.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Metadata["rowCount"])

	// The extra fourth field gets a positional key.
	lines := strings.Split(doc.Chunks[1].Content, "\n")
	var second map[string]string
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "6", second["col4"])
}

func TestParseTSVUsesTabDelimiter(t *testing.T) {
	input := "x\ty\n1\t2\n"
	doc, err := newTestRegistry().Parse(context.Background(), []byte(input), models.FileTypeCSV, "data.tsv")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, doc.Metadata["columns"])
	assert.Equal(t, 1, doc.Metadata["rowCount"])
}

func TestParseCSVMalformed(t *testing.T) {
	input := "a,b\n\"unterminated,1\n"
	_, err := newTestRegistry().Parse(context.Background(), []byte(input), models.FileTypeCSV, "bad.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse csv")
}

func buildWorkbook(t *testing.T, sheets map[string]int) []byte {
	t.Helper()
	f := excelize.NewFile()
	first := true
	for _, name := range []string{"Orders", "Refunds", "Notes"} {
		rows, ok := sheets[name]
		if !ok {
			continue
		}
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		require.NoError(t, f.SetSheetRow(name, "A1", &[]any{"id", "amount"}))
		for i := 0; i < rows; i++ {
			cell := fmt.Sprintf("A%d", i+2)
			require.NoError(t, f.SetSheetRow(name, cell, &[]any{fmt.Sprintf("r%d", i), i * 10}))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestParseXlsxMultiSheet(t *testing.T) {
	// Three sheets with 45, 10 and 0 data rows: every sheet contributes a
	// metadata chunk, only populated sheets contribute table chunks.
	content := buildWorkbook(t, map[string]int{"Orders": 45, "Refunds": 10, "Notes": 0})

	doc, err := newTestRegistry().Parse(context.Background(), content, models.FileTypeXlsx, "book.xlsx")
	require.NoError(t, err)

	assert.Equal(t, 55, doc.Metadata["rowCount"])
	assert.ElementsMatch(t, []string{"Orders", "Refunds", "Notes"}, doc.Metadata["sheetNames"])

	var metaChunks, tableChunks int
	sheetsSeen := map[string]bool{}
	for _, c := range doc.Chunks {
		switch c.Type {
		case models.ChunkTypeMetadata:
			metaChunks++
			if s, ok := c.Metadata["sheet"].(string); ok {
				sheetsSeen[s] = true
			}
		case models.ChunkTypeTable:
			tableChunks++
		}
	}
	// 3 metadata chunks + ceil(45/20) + ceil(10/20) = 3 + 3 + 1.
	assert.Equal(t, 3, metaChunks)
	assert.Equal(t, 4, tableChunks)
	assert.True(t, sheetsSeen["Notes"], "empty sheet still gets its metadata chunk")
}

func TestParseXlsxCorrupted(t *testing.T) {
	_, err := newTestRegistry().Parse(context.Background(), []byte("not a workbook"), models.FileTypeXlsx, "bad.xlsx")
	require.Error(t, err)
}
