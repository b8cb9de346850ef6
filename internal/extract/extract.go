package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	TypePlainText = "text/plain"
	TypePDF       = "application/pdf"
	TypeDOCX      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	TypeDOC       = "application/msword"
)

var (
	// ErrUnsupportedFormat matches errors for content types the extractor cannot read.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrParseFailure matches errors raised while reading or decoding a supported file.
	ErrParseFailure = errors.New("parse failure")
)

// UnsupportedFormatError names the rejected content type.
type UnsupportedFormatError struct {
	ContentType string
}

func (e *UnsupportedFormatError) Error() string {
	return "unsupported mime type: " + e.ContentType
}

func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// ParseError carries the underlying read or decode failure.
type ParseError struct {
	ContentType string
	Err         error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.ContentType, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool {
	return target == ErrParseFailure
}

// Supported reports whether contentType can be extracted.
func Supported(contentType string) bool {
	switch cleanType(contentType) {
	case TypePlainText, TypePDF, TypeDOCX, TypeDOC:
		return true
	default:
		return false
	}
}

// File reads the file at path and extracts its text according to contentType.
func File(ctx context.Context, path string, contentType string) (string, error) {
	ct := cleanType(contentType)
	if !Supported(ct) {
		return "", &UnsupportedFormatError{ContentType: ct}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ParseError{ContentType: ct, Err: err}
	}
	return Bytes(ctx, data, ct)
}

// Reader drains r and extracts its text according to contentType.
func Reader(ctx context.Context, r io.Reader, contentType string) (string, error) {
	ct := cleanType(contentType)
	if !Supported(ct) {
		return "", &UnsupportedFormatError{ContentType: ct}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", &ParseError{ContentType: ct, Err: err}
	}
	return Bytes(ctx, data, ct)
}

// Bytes extracts text from an in-memory payload.
//
//	text/plain: bytes verbatim (must be valid UTF-8)
//	pdf:        non-empty pages in order, joined by "\n"
//	docx:       non-empty body paragraphs, then non-empty table cells row-major, joined by "\n"
//	msword:     converted with docconv
func Bytes(ctx context.Context, data []byte, contentType string) (text string, err error) {
	ct := cleanType(contentType)
	if !Supported(ct) {
		return "", &UnsupportedFormatError{ContentType: ct}
	}
	if err := ctx.Err(); err != nil {
		return "", &ParseError{ContentType: ct, Err: err}
	}

	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = &ParseError{ContentType: ct, Err: fmt.Errorf("decoder panic: %v", rec)}
		}
	}()

	switch ct {
	case TypePlainText:
		text, err = extractText(data)
	case TypePDF:
		text, err = extractPDF(data)
	case TypeDOCX:
		text, err = extractDOCX(data)
	case TypeDOC:
		text, err = extractDOC(data)
	}
	if err != nil {
		return "", &ParseError{ContentType: ct, Err: err}
	}
	return text, nil
}

func extractText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errors.New("invalid utf-8 text")
	}
	return string(data), nil
}

func extractPDF(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty pdf data")
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		if strings.TrimSpace(text) != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n"), nil
}

func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer doc.Close()

	return documentText(doc.Editable().GetContent())
}

func extractDOC(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty doc data")
	}
	body, _, err := docconv.ConvertDoc(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(body), nil
}

// NormalizeContentType resolves the content type to store for an upload.
// Generic declarations (empty, octet-stream, zip) fall back to sniffed bytes and the file extension.
func NormalizeContentType(declared string, fileName string, data []byte) string {
	clean := cleanType(declared)
	switch clean {
	case "", "application/octet-stream", "application/zip", "application/x-zip-compressed":
	default:
		return clean
	}

	if mapped := mapOOXMLFromZip(data); mapped != "" {
		return mapped
	}
	if byExt := typeForExtension(fileName); byExt != "" {
		return byExt
	}
	return clean
}

func typeForExtension(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return TypePDF
	case ".docx":
		return TypeDOCX
	case ".doc":
		return TypeDOC
	case ".txt":
		return TypePlainText
	default:
		return ""
	}
}

func mapOOXMLFromZip(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return TypeDOCX
		}
	}
	return ""
}

func cleanType(contentType string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
}
