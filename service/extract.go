package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/Jdeww/Mesa-U-Hacks-2.0/model"
	"github.com/Jdeww/Mesa-U-Hacks-2.0/pkg/logger"
)

const ocrJPEGQuality = 90

// Extractor turns uploaded file bytes into plain text. The OCR recognizer
// may be nil, in which case image content degrades to empty text instead of
// failing the document.
type Extractor struct {
	ocr Recognizer
}

func NewExtractor(ocr Recognizer) *Extractor {
	return &Extractor{ocr: ocr}
}

// Extract dispatches on the detected format. Only a format outside the
// supported set or a broken container is an error; unreadable pages and
// OCR outages degrade to empty text for that page.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) (*model.ExtractedDocument, error) {
	format, ok := model.DetectFormat(filename)
	if !ok {
		return nil, UnsupportedFormatError(fmt.Sprintf("unsupported file type: %s", filename))
	}

	switch format {
	case model.FormatText, model.FormatMarkdown:
		return &model.ExtractedDocument{
			Text:      strings.ToValidUTF8(string(data), "�"),
			Format:    format,
			PageCount: 1,
		}, nil
	case model.FormatPDF:
		return e.extractPDF(ctx, data)
	case model.FormatImage:
		return e.extractImage(ctx, data)
	default:
		return nil, UnsupportedFormatError(fmt.Sprintf("unsupported file type: %s", filename))
	}
}

func (e *Extractor) extractPDF(ctx context.Context, data []byte) (*model.ExtractedDocument, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, ExtractionError("failed to open PDF", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, ExtractionError("PDF has no pages", nil)
	}

	ocrPages := 0
	var b strings.Builder
	for n := 0; n < pageCount; n++ {
		if err := ctx.Err(); err != nil {
			return nil, ExtractionError("extraction cancelled", err)
		}

		text, err := doc.Text(n)
		if err != nil || strings.TrimSpace(text) == "" {
			// image-only page, fall back to OCR
			text = e.ocrPage(ctx, doc, n)
			if text != "" {
				ocrPages++
			}
		}

		fmt.Fprintf(&b, "--- Page %d ---\n%s\n", n+1, strings.TrimSpace(text))
	}

	result := &model.ExtractedDocument{
		Text:      strings.TrimSpace(b.String()),
		Format:    model.FormatPDF,
		PageCount: pageCount,
	}
	if ocrPages > 0 {
		result.Note = fmt.Sprintf("%d page(s) recovered via OCR", ocrPages)
	}
	return result, nil
}

// ocrPage renders one page and runs it through the recognizer. Any failure
// here, render, encode or OCR, yields empty text; a single bad page never
// sinks the document.
func (e *Extractor) ocrPage(ctx context.Context, doc *fitz.Document, n int) string {
	if e.ocr == nil {
		return ""
	}

	img, err := doc.Image(n)
	if err != nil {
		logger.Warn(ctx, "failed to render PDF page for OCR", "page", n+1, "error", err)
		return ""
	}

	encoded, err := encodeJPEG(img)
	if err != nil {
		logger.Warn(ctx, "failed to encode PDF page for OCR", "page", n+1, "error", err)
		return ""
	}

	text, err := e.ocr.Recognize(ctx, encoded)
	if err != nil {
		logger.Warn(ctx, "OCR failed for PDF page", "page", n+1, "error", err)
		return ""
	}
	return text
}

func (e *Extractor) extractImage(ctx context.Context, data []byte) (*model.ExtractedDocument, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ExtractionError("failed to decode image", err)
	}

	result := &model.ExtractedDocument{
		Format:    model.FormatImage,
		PageCount: 1,
	}

	if e.ocr == nil {
		result.Note = "OCR unavailable"
		return result, nil
	}

	// normalize to a single JPEG frame before handing off
	encoded, err := encodeJPEG(img)
	if err != nil {
		return nil, ExtractionError("failed to re-encode image", err)
	}

	text, err := e.ocr.Recognize(ctx, encoded)
	if err != nil {
		logger.Warn(ctx, "OCR failed for image", "error", err)
		result.Note = "OCR failed"
		return result, nil
	}

	result.Text = text
	return result, nil
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: ocrJPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
