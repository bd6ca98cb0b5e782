package reader

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/aqua777/ragpipe/apperr"
)

// docxDocument mirrors the parts of word/document.xml the extractor
// needs. Field tags match local element names; namespaces are ignored.
type docxDocument struct {
	XMLName xml.Name `xml:"document"`
	Body    docxBody `xml:"body"`
}

type docxBody struct {
	Blocks []docxBlock `xml:",any"`
}

// docxBlock is one body-level element, collected in document order.
// XMLName.Local distinguishes paragraphs ("p") from tables ("tbl");
// other elements are skipped.
type docxBlock struct {
	XMLName    xml.Name
	Runs       []docxRun       `xml:"r"`
	Hyperlinks []docxHyperlink `xml:"hyperlink"`
	Rows       []docxTableRow  `xml:"tr"`
}

type docxHyperlink struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text   []docxText `xml:"t"`
	Tabs   []struct{} `xml:"tab"`
	Breaks []struct{} `xml:"br"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

type docxTableRow struct {
	Cells []docxTableCell `xml:"tc"`
}

type docxTableCell struct {
	Paragraphs []docxBlock `xml:"p"`
}

// docxFallbackRe recovers text nodes when document.xml does not
// unmarshal cleanly.
var docxFallbackRe = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// parseDocx unzips a .docx archive and extracts the text of
// word/document.xml.
func parseDocx(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", apperr.Wrap(apperr.KindValidation, err, "invalid docx archive")
	}

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open %s: %w", f.Name, err)
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("read %s: %w", f.Name, err)
		}
		return docxBodyText(raw), nil
	}
	return "", apperr.New(apperr.KindValidation, "docx archive has no word/document.xml")
}

// docxBodyText converts document.xml into plain text: paragraphs joined
// by blank lines, table rows one per line with cells separated by " | ".
func docxBodyText(raw []byte) string {
	var doc docxDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		matches := docxFallbackRe.FindAllSubmatch(raw, -1)
		parts := make([]string, 0, len(matches))
		for _, m := range matches {
			if s := string(m[1]); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	}

	var parts []string
	for i := range doc.Body.Blocks {
		block := &doc.Body.Blocks[i]

		var text string
		switch block.XMLName.Local {
		case "p":
			text = docxParagraphText(block)
		case "tbl":
			text = docxTableText(block)
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

func docxParagraphText(p *docxBlock) string {
	var b strings.Builder
	for _, run := range p.Runs {
		writeDocxRun(&b, run)
	}
	for _, link := range p.Hyperlinks {
		for _, run := range link.Runs {
			writeDocxRun(&b, run)
		}
	}
	return strings.TrimSpace(b.String())
}

func writeDocxRun(b *strings.Builder, run docxRun) {
	for _, t := range run.Text {
		b.WriteString(t.Content)
	}
	for range run.Tabs {
		b.WriteByte('\t')
	}
	for range run.Breaks {
		b.WriteByte('\n')
	}
}

func docxTableText(tbl *docxBlock) string {
	var rows []string
	for _, row := range tbl.Rows {
		var cells []string
		for i := range row.Cells {
			var cellParts []string
			for j := range row.Cells[i].Paragraphs {
				if text := docxParagraphText(&row.Cells[i].Paragraphs[j]); text != "" {
					cellParts = append(cellParts, text)
				}
			}
			cells = append(cells, strings.Join(cellParts, " "))
		}
		if len(cells) > 0 {
			rows = append(rows, strings.Join(cells, " | "))
		}
	}
	return strings.Join(rows, "\n")
}
