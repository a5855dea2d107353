package model

import (
	"path/filepath"
	"strings"
)

// Format is the closed set of supported input document formats
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
	FormatImage    Format = "image"
)

// DetectFormat maps a filename extension onto a Format. The second return
// value is false for anything outside the supported set.
func DetectFormat(filename string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return FormatText, true
	case ".md":
		return FormatMarkdown, true
	case ".pdf":
		return FormatPDF, true
	case ".jpg", ".jpeg", ".png":
		return FormatImage, true
	default:
		return "", false
	}
}

// ExtractedDocument is the transient text produced for one input file.
// It lives only for the duration of a single generation attempt.
type ExtractedDocument struct {
	Text      string
	Format    Format
	PageCount int
	Note      string
}
