package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
	pdf "github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"plano/internal/util"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const delimiterProbeLines = 5

// readSpreadsheet turns a csv/xls/xlsx payload into rows of raw cells with
// blank rows removed.
func readSpreadsheet(ext string, content []byte) ([][]Cell, error) {
	var (
		rows [][]Cell
		err  error
	)
	switch ext {
	case ".csv":
		rows, err = readCSV(content)
	case ".xlsx", ".xls":
		rows, err = readXLSX(content)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	return dropBlankRows(rows), nil
}

// readXLSX reads the first sheet only. Raw values are requested so that date
// formatted cells come back as serial numbers instead of locale strings.
func readXLSX(content []byte) ([][]Cell, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	sheet := sheets[0]
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	out := make([][]Cell, 0, len(raw))
	for r, row := range raw {
		cells := make([]Cell, len(row))
		for c, value := range row {
			if strings.TrimSpace(value) == "" {
				continue
			}
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			kind, err := f.GetCellType(sheet, name)
			if err != nil {
				kind = excelize.CellTypeUnset
			}
			cells[c] = typedCell(kind, value)
		}
		out = append(out, cells)
	}
	return out, nil
}

func typedCell(kind excelize.CellType, value string) Cell {
	switch kind {
	case excelize.CellTypeDate:
		if t, err := time.Parse(time.RFC3339, value); err == nil {
			return DateCell(t)
		}
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return numericCell(value, f)
		}
	}
	return TextCell(value)
}

// readCSV decodes UTF-8 (with or without BOM) and falls back to Windows-1252,
// the usual encoding of regional spreadsheet exports. Purely numeric fields
// become number cells the way a spreadsheet parser would type them.
func readCSV(content []byte) ([][]Cell, error) {
	text, err := decodeText(content)
	if err != nil {
		return nil, err
	}
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = detectDelimiter(text)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	out := [][]Cell{}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		cells := make([]Cell, len(record))
		for i, field := range record {
			trimmed := strings.TrimSpace(field)
			if f, err := strconv.ParseFloat(trimmed, 64); err == nil && trimmed != "" {
				cells[i] = numericCell(field, f)
				continue
			}
			cells[i] = TextCell(field)
		}
		out = append(out, cells)
	}
	return out, nil
}

func decodeText(content []byte) (string, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if utf8.Valid(content) {
		return string(content), nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(content)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// detectDelimiter compares separators over the first lines, which keeps a
// one-cell title line from deciding on its own.
func detectDelimiter(text string) rune {
	semicolons, commas, seen := 0, 0, 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		semicolons += strings.Count(line, ";")
		commas += strings.Count(line, ",")
		if seen++; seen == delimiterProbeLines {
			break
		}
	}
	if semicolons > commas {
		return ';'
	}
	return ','
}

// ReadHTMLTables returns every <table> in html as its own row set.
func ReadHTMLTables(html string) ([][][]Cell, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	tables := [][][]Cell{}
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := [][]Cell{}
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			cells := []Cell{}
			tr.Find("th,td").Each(func(_ int, td *goquery.Selection) {
				cells = append(cells, TextCell(util.NormalizeSpaces(td.Text())))
			})
			rows = append(rows, cells)
		})
		rows = dropBlankRows(rows)
		if len(rows) > 1 {
			tables = append(tables, rows)
		}
	})
	return tables, nil
}

// TextExtractor pulls plain text out of a document.
type TextExtractor interface {
	ExtractText(ctx context.Context, content []byte) (string, error)
}

type PDFTextExtractor struct{}

// ExtractText joins the plain text of every page. The pdf reader panics on
// some malformed inputs, so panics are reported as errors.
func (PDFTextExtractor) ExtractText(ctx context.Context, content []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pageText, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		if pageText = strings.TrimSpace(pageText); pageText != "" {
			parts = append(parts, pageText)
		}
	}
	return strings.Join(parts, " "), nil
}

// MailAttachment is one file carried by an email.
type MailAttachment struct {
	FileName    string
	ContentType string
	Content     []byte
}

// MailContent is the parsed view of a raw email.
type MailContent struct {
	Subject     string
	From        string
	Text        string
	HTML        string
	Attachments []MailAttachment
}

func ReadEmail(raw []byte) (MailContent, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return MailContent{}, err
	}

	out := MailContent{
		Subject: strings.TrimSpace(env.GetHeader("Subject")),
		From:    env.GetHeader("From"),
		Text:    env.Text,
		HTML:    env.HTML,
	}
	parts := append(append([]*enmime.Part{}, env.Attachments...), env.Inlines...)
	for _, att := range parts {
		name := strings.TrimSpace(att.FileName)
		if name == "" {
			continue
		}
		out.Attachments = append(out.Attachments, MailAttachment{
			FileName:    name,
			ContentType: att.ContentType,
			Content:     att.Content,
		})
	}
	return out, nil
}
