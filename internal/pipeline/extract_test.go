package pipeline

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

func mkXLSX(rows [][]any) []byte {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	buf := bytes.NewBuffer(nil)
	_, _ = f.WriteTo(buf)
	return buf.Bytes()
}

func TestReadXLSX(t *testing.T) {
	blob := mkXLSX([][]any{
		{"Plano de Ação"},
		{nil},
		{"Desvio", "Prazo", "Código"},
		{"Piso", time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC), "0042"},
		{"Porta", 45321, nil},
	})
	rows, err := readSpreadsheet(".xlsx", blob)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("blank rows should be dropped, got %d rows", len(rows))
	}
	if rows[2][0].Kind != CellText || rows[2][0].Text != "Piso" {
		t.Fatalf("unexpected text cell: %+v", rows[2][0])
	}
	if got, err := CoerceDate(rows[2][1]); err != nil || got != "2024-08-15" {
		t.Fatalf("date cell coerced to %q (%v)", got, err)
	}
	if rows[2][2].Kind != CellText || rows[2][2].Text != "0042" {
		t.Fatalf("numeric-looking strings must stay text: %+v", rows[2][2])
	}
	if rows[3][1].Kind != CellNumber || rows[3][1].Number != 45321 {
		t.Fatalf("unexpected number cell: %+v", rows[3][1])
	}
}

func TestReadXLSXCorrupt(t *testing.T) {
	if _, err := readSpreadsheet(".xlsx", []byte("not a workbook")); err == nil {
		t.Fatal("expected error for corrupt workbook")
	}
}

func TestReadCSVWindows1252(t *testing.T) {
	src := "Relatório;;\nDesvio;Responsável;Prazo\nVazamento;Téc. Manutenção;45321\n"
	encoded, err := charmap.Windows1252.NewEncoder().String(src)
	if err != nil {
		t.Fatal(err)
	}
	rows, err := readSpreadsheet(".csv", []byte(encoded))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows=%d", len(rows))
	}
	if rows[1][1].String() != "Responsável" || rows[2][1].String() != "Téc. Manutenção" {
		t.Fatalf("decoding failed: %q %q", rows[1][1].String(), rows[2][1].String())
	}
	if rows[2][2].Kind != CellNumber {
		t.Fatalf("expected number cell, got %+v", rows[2][2])
	}
}

func TestReadCSVCommaWithBOM(t *testing.T) {
	src := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Desvio,Departamentos\n\"Piso\",\"Manutenção, Operações\"\n")...)
	rows, err := readSpreadsheet(".csv", src)
	if err != nil {
		t.Fatal(err)
	}
	if rows[0][0].String() != "Desvio" {
		t.Fatalf("BOM not stripped: %q", rows[0][0].String())
	}
	if rows[1][1].String() != "Manutenção, Operações" {
		t.Fatalf("quoted field split: %q", rows[1][1].String())
	}
}

func TestReadHTMLTables(t *testing.T) {
	html := `<html><body>
<table><tr><td>Assinatura</td></tr></table>
<table>
<tr><th>Desvio</th><th>Responsável</th></tr>
<tr><td> Vazamento&nbsp;na  junta </td><td>Téc.</td></tr>
</table></body></html>`
	tables, err := ReadHTMLTables(html)
	if err != nil {
		t.Fatal(err)
	}
	if len(tables) != 1 {
		t.Fatalf("tables=%d", len(tables))
	}
	if got := tables[0][1][0].String(); got != "Vazamento na junta" {
		t.Fatalf("cell=%q", got)
	}
}

func TestPDFTextExtractorRejectsGarbage(t *testing.T) {
	if _, err := (PDFTextExtractor{}).ExtractText(context.Background(), []byte("%PDF-garbage")); err == nil {
		t.Fatal("expected error")
	}
}

func TestReadEmail(t *testing.T) {
	raw := "From: qualidade@example.com\r\n" +
		"To: planos@example.com\r\n" +
		"Subject: Auditoria interna - linha 2\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/mixed; boundary=XYZ\r\n" +
		"\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Segue o plano.\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/csv; name=\"plano.csv\"\r\n" +
		"Content-Disposition: attachment; filename=\"plano.csv\"\r\n" +
		"\r\n" +
		"Desvio;Prazo\r\n" +
		"--XYZ--\r\n"
	mail, err := ReadEmail([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	if mail.Subject != "Auditoria interna - linha 2" {
		t.Fatalf("subject=%q", mail.Subject)
	}
	if len(mail.Attachments) != 1 || mail.Attachments[0].FileName != "plano.csv" {
		t.Fatalf("attachments=%+v", mail.Attachments)
	}
}
