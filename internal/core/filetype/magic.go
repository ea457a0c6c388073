package filetype

import (
	"bytes"
	"unicode/utf8"

	"github.com/markdave123-py/Archiva/internal/models"
)

// Leading byte signatures for the binary formats we accept.
var (
	sigPDF  = []byte("%PDF")
	sigZip  = []byte{0x50, 0x4B, 0x03, 0x04} // OOXML containers (docx/xlsx/pptx)
	sigOLE  = []byte{0xD0, 0xCF, 0x11, 0xE0} // legacy compound file (doc)
	sigPNG  = []byte{0x89, 0x50, 0x4E, 0x47}
	sigJPEG = []byte{0xFF, 0xD8, 0xFF}
	sigGIF  = []byte("GIF8")
	sigRIFF = []byte("RIFF")
	sigWebP = []byte("WEBP")
)

const (
	textSampleSize = 8 * 1024
	nullScanSize   = 1024
	maxNullBytes   = 2
)

// Validate reports whether raw bytes plausibly match the expected file
// type. Binary formats are checked by header signature; text formats by
// strict UTF-8 decoding of a bounded sample plus a null-byte heuristic.
// This runs before any storage write, so spoofed extensions are rejected
// up front instead of crashing a parser later.
func Validate(data []byte, expected models.FileType) bool {
	if len(data) == 0 {
		return false
	}

	switch expected {
	case models.FileTypePDF:
		return bytes.HasPrefix(data, sigPDF)
	case models.FileTypeDocx, models.FileTypeXlsx, models.FileTypePptx:
		return bytes.HasPrefix(data, sigZip)
	case models.FileTypeDoc:
		return bytes.HasPrefix(data, sigOLE)
	case models.FileTypeImage:
		return isImage(data)
	case models.FileTypeText, models.FileTypeMd, models.FileTypeCSV,
		models.FileTypeJSON, models.FileTypeCode:
		return isText(data)
	default:
		return false
	}
}

func isImage(data []byte) bool {
	switch {
	case bytes.HasPrefix(data, sigPNG),
		bytes.HasPrefix(data, sigJPEG),
		bytes.HasPrefix(data, sigGIF):
		return true
	case bytes.HasPrefix(data, sigRIFF) && len(data) >= 12 && bytes.Equal(data[8:12], sigWebP):
		return true
	}
	// SVG is XML text; accept either an <svg> root or an XML prolog.
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	trimmed := bytes.TrimLeft(head, " \t\r\n\xef\xbb\xbf")
	return bytes.HasPrefix(trimmed, []byte("<svg")) || bytes.HasPrefix(trimmed, []byte("<?xml"))
}

// isText applies the binary-content heuristic: a bounded sample must be
// valid UTF-8, and more than maxNullBytes null bytes in the first 1KB
// marks the content as binary.
func isText(data []byte) bool {
	sample := data
	if len(sample) > textSampleSize {
		sample = sample[:textSampleSize]
		// Avoid rejecting a rune split at the sample boundary.
		for len(sample) > 0 && !utf8.Valid(sample) {
			sample = sample[:len(sample)-1]
			if textSampleSize-len(sample) > utf8.UTFMax {
				break
			}
		}
	}
	if !utf8.Valid(sample) {
		return false
	}

	scan := data
	if len(scan) > nullScanSize {
		scan = scan[:nullScanSize]
	}
	nulls := 0
	for _, b := range scan {
		if b == 0 {
			nulls++
			if nulls > maxNullBytes {
				return false
			}
		}
	}
	return true
}
