package reader

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// pdfGapTolerance is the horizontal gap, in points, beyond which two text
// segments on the same row are separated by a space.
const pdfGapTolerance = 3.0

var (
	pdfLowerUpperRe  = regexp.MustCompile(`([a-z])([A-Z])`)
	pdfLetterDigitRe = regexp.MustCompile(`([a-zA-Z])(\d)`)
	pdfDigitLetterRe = regexp.MustCompile(`(\d)([a-zA-Z])`)

	pdfNonPrintableRe = regexp.MustCompile(`[^\x20-\x7E\n\t\r]`)
	pdfSpaceRunRe     = regexp.MustCompile(`[ \t]+`)
	pdfBlankRunRe     = regexp.MustCompile(`\n\s*\n\s*\n+`)

	// Internal PDF markers and TeX artifacts that leak into extracted text.
	pdfNoiseRes = []*regexp.Regexp{
		regexp.MustCompile(`endstream`),
		regexp.MustCompile(`endobj`),
		regexp.MustCompile(`\d+\s+\d+\s+obj`),
		regexp.MustCompile(`<<[^>]*>>`),
		regexp.MustCompile(`/\w+\s*\[?[^\]\n]*\]?`),
		regexp.MustCompile(`(?m)stream\s*$`),
		regexp.MustCompile(`xref`),
		regexp.MustCompile(`trailer`),
		regexp.MustCompile(`startxref`),
		regexp.MustCompile(`%%EOF`),
		regexp.MustCompile(`\\[()]`),
		regexp.MustCompile(`tex2pdf:\w+`),
		regexp.MustCompile(`Doc-Start`),
		regexp.MustCompile(`cite\.\d+@\w+`),
		regexp.MustCompile(`section\.\d+`),
		regexp.MustCompile(`subsection\.\d+\.\d+`),
		regexp.MustCompile(`subsubsection\.\d+\.\d+\.\d+`),
		regexp.MustCompile(`page\.\d+`),
		regexp.MustCompile(`Item\.\d+`),
		regexp.MustCompile(`figure\.\d+`),
	}
)

// extractPDF pulls text out of a PDF in two stages: the library's
// plain-text walk first, then a row-by-row walk with position tolerances
// for files where the first stage yields nothing. The result is cleaned
// of stream noise either way; an empty result means the PDF has no
// extractable text.
func (p *Parser) extractPDF(data []byte) string {
	text, err := pdfPlainText(data)
	if err != nil {
		p.logger.Warn("pdf plain-text extraction failed", "error", err)
	}
	if strings.TrimSpace(text) == "" {
		text, err = pdfRowText(data)
		if err != nil {
			p.logger.Warn("pdf row extraction failed", "error", err)
		}
	}
	return cleanPDFText(text)
}

// pdfPlainText extracts the whole document text in one pass.
func pdfPlainText(data []byte) (text string, err error) {
	defer recoverPDFPanic(&err)

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// pdfRowText walks each page row by row, inserting spaces where the
// horizontal gap between segments exceeds pdfGapTolerance and repairing
// words the extractor jammed together.
func pdfRowText(data []byte) (text string, err error) {
	defer recoverPDFPanic(&err)

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var pages []string
	for num := 1; num <= r.NumPage(); num++ {
		page := r.Page(num)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var b strings.Builder
		for _, row := range rows {
			prevEnd := -1.0
			for _, seg := range row.Content {
				if prevEnd >= 0 && seg.X-prevEnd > pdfGapTolerance {
					b.WriteByte(' ')
				}
				b.WriteString(seg.S)
				prevEnd = seg.X + seg.W
			}
			b.WriteByte('\n')
		}
		pageText := fixWordSpacing(strings.TrimSpace(b.String()))
		if pageText != "" {
			pages = append(pages, pageText)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}

// recoverPDFPanic converts panics into errors; the pdf package panics on
// some malformed inputs.
func recoverPDFPanic(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("malformed pdf: %v", r)
	}
}

// fixWordSpacing inserts spaces at lowercase-to-uppercase and
// letter-digit boundaries, splitting words the extractor concatenated.
func fixWordSpacing(text string) string {
	text = pdfLowerUpperRe.ReplaceAllString(text, "$1 $2")
	text = pdfLetterDigitRe.ReplaceAllString(text, "$1 $2")
	text = pdfDigitLetterRe.ReplaceAllString(text, "$1 $2")
	return text
}

// cleanPDFText strips stream markers, non-printable bytes and binary
// residue from extracted PDF text. Lines with at most 30% alphabetic
// characters are dropped unless they look like a short heading (under 80
// characters with more than 3 letters).
func cleanPDFText(text string) string {
	if text == "" {
		return ""
	}

	text = pdfNonPrintableRe.ReplaceAllString(text, " ")
	for _, re := range pdfNoiseRes {
		text = re.ReplaceAllString(text, " ")
	}
	text = pdfSpaceRunRe.ReplaceAllString(text, " ")
	text = pdfBlankRunRe.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			kept = append(kept, "")
			continue
		}
		total, alpha := 0, 0
		for _, r := range line {
			total++
			if unicode.IsLetter(r) {
				alpha++
			}
		}
		if float64(alpha)/float64(total) > 0.3 || (total < 80 && alpha > 3) {
			kept = append(kept, line)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
