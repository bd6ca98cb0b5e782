// Package reader converts uploaded document bytes into plain UTF-8 text.
//
// A single Parser dispatches on the file extension: plain-text formats are
// decoded as-is, PDFs go through a two-stage extractor with noise cleaning,
// .docx archives are unzipped and their document XML parsed, and HTML is
// reduced to its visible text.
package reader

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/aqua777/ragpipe/apperr"
)

// Parser extracts plain text from raw file bytes.
type Parser struct {
	logger *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for extraction diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Parser.
func New(opts ...Option) *Parser {
	p := &Parser{
		logger: slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse extracts plain text from data, choosing the extraction strategy by
// the lowercase extension of fileName. A PDF that yields no readable text
// fails with an unextractable-PDF error; any other type whose output is
// whitespace-only fails with an empty-text error.
func (p *Parser) Parse(fileName string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))

	var (
		text string
		err  error
	)
	switch ext {
	case ".txt", ".csv", ".md", ".json":
		text = decodeText(data)
	case ".pdf":
		text = p.extractPDF(data)
		if strings.TrimSpace(text) == "" {
			return "", apperr.New(apperr.KindUnextractablePDF,
				"could not extract readable text from %s; the file may be image-based (scanned)", fileName)
		}
		return text, nil
	case ".docx":
		text, err = parseDocx(data)
		if err != nil {
			return "", err
		}
	case ".html", ".htm":
		text = parseHTML(data)
	default:
		p.logger.Warn("no dedicated parser for extension, decoding as plain text",
			"file_name", fileName,
			"extension", ext)
		text = decodeText(data)
	}

	if strings.TrimSpace(text) == "" {
		return "", apperr.New(apperr.KindEmptyText, "no text content in %s", fileName)
	}
	return text, nil
}

// SupportedExtensions lists the extensions accepted for upload.
func SupportedExtensions() []string {
	return []string{".txt", ".pdf", ".md", ".csv", ".json", ".docx", ".html", ".htm"}
}

// Supported reports whether fileName carries an extension from
// SupportedExtensions. The check is case-insensitive.
func Supported(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	for _, s := range SupportedExtensions() {
		if ext == s {
			return true
		}
	}
	return false
}

// decodeText interprets data as UTF-8, replacing invalid byte sequences
// with U+FFFD.
func decodeText(data []byte) string {
	return strings.ToValidUTF8(string(data), string(utf8.RuneError))
}
