// Package loader turns heterogeneous source files into plain-text documents
// with provenance, ready for chunking.
package loader

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"

	"campus-rag/internal/models"
)

// ErrUnsupportedFormat is returned for extensions no parser handles.
var ErrUnsupportedFormat = fmt.Errorf("unsupported file format")

var sourceLineRe = regexp.MustCompile(`^Source:\s*(\S+)\s*$`)

// Load reads one file and dispatches on its extension. The document's
// SourceID is the file's base name; scraped Markdown pages carry their
// originating URL in a leading "Source: <url>" line.
func Load(path string) (models.Document, error) {
	var (
		text string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		text, err = parsePDF(path)
	case ".md", ".markdown":
		text, err = parseMarkdown(path)
	case ".txt":
		text, err = parseText(path)
	case ".docx":
		text, err = parseDOCX(path)
	case ".pptx":
		text, err = parsePPTX(path)
	case ".xlsx":
		text, err = parseXLSX(path)
	case ".ods":
		text, err = parseODS(path)
	default:
		return models.Document{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return models.Document{}, fmt.Errorf("parse %s: %w", path, err)
	}

	doc := models.Document{
		SourceID: filepath.Base(path),
		Text:     text,
	}
	doc.URL = sourceURL(text)
	return doc, nil
}

// LoadDir walks a directory and loads every supported file. A file that
// fails to parse is logged and skipped; the walk continues.
func LoadDir(dir string, skipPDF bool) ([]models.Document, error) {
	var docs []models.Document
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if skipPDF && strings.EqualFold(filepath.Ext(path), ".pdf") {
			log.Debug().Str("file", path).Msg("Skipping PDF")
			return nil
		}
		doc, err := Load(path)
		if err != nil {
			if errors.Is(err, ErrUnsupportedFormat) {
				return nil
			}
			log.Warn().Err(err).Str("file", path).Msg("Skipping unreadable document")
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// sourceURL extracts the originating URL from a leading attribution line.
func sourceURL(text string) string {
	line := strings.TrimSpace(text)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	m := sourceLineRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return ""
	}
	return m[1]
}

func parseText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func parsePDF(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", err
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", err
		}
		text.WriteString(pageText)
		text.WriteString("\n\n")
	}
	return text.String(), nil
}

func parseDOCX(path string) (string, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", err
	}
	defer r.Close()

	content := r.Editable().GetContent()
	return extractTagText(content, "<w:t"), nil
}

func parsePPTX(path string) (string, error) {
	f, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var text strings.Builder
	for _, file := range f.File {
		if !strings.HasPrefix(file.Name, "ppt/slides/slide") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		text.WriteString(extractTagText(string(data), "<a:t"))
		text.WriteString("\n\n")
	}
	return text.String(), nil
}

func parseXLSX(path string) (string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, sheet := range f.Sheets {
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
		text.WriteString("\n")
	}
	return text.String(), nil
}

func parseODS(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var text strings.Builder
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheetName))
		for _, row := range rows {
			text.WriteString(strings.Join(row, "\t"))
			text.WriteString("\n")
		}
		text.WriteString("\n")
	}
	return text.String(), nil
}

// extractTagText pulls the text runs out of Office XML, e.g. "<w:t>" for
// DOCX body text or "<a:t>" for PPTX slides.
func extractTagText(xmlContent, openTag string) string {
	closeTag := "</" + openTag[1:] + ">"
	var text strings.Builder
	parts := strings.Split(xmlContent, openTag)
	for i, part := range parts {
		if i == 0 || part == "" {
			continue
		}
		// Reject longer tag names sharing the prefix, e.g. <w:tbl> for <w:t.
		if c := part[0]; c != '>' && c != ' ' && c != '/' {
			continue
		}
		// The open tag may carry attributes; skip past its closing '>'.
		gt := strings.IndexByte(part, '>')
		if gt < 0 {
			continue
		}
		part = part[gt+1:]
		if end := strings.Index(part, closeTag); end >= 0 {
			text.WriteString(part[:end])
			text.WriteString(" ")
		}
	}
	return text.String()
}
