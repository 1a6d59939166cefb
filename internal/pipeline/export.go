package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"plano/internal"
)

// ExportHeaders name the exported columns. Every one of them is a recognised
// alias, so an exported sheet imports back unchanged.
var ExportHeaders = []string{
	"Pilar Estratégico",
	"Desvio/Ponto de Melhoria*",
	"Origem",
	"Ação para mitigação*",
	"Departamentos Envolvidos*",
	"Responsável*",
	"Prazo*",
	"Evidência",
	"Verificação",
	"Status",
	"Tipo",
	"Prioridade",
	"Tags",
}

// exportHeaderRow is the 1-based row of ExportHeaders in PlanSheet output.
const exportHeaderRow = 5

// PlanSheet lays a plan out as title rows, a blank row, the header row and
// one row per action item.
func PlanSheet(plan internal.Plan, exportedAt time.Time) [][]string {
	rows := [][]string{
		{fmt.Sprintf("Plano de Ação %s - %s", plan.PlanCode, plan.PlanName)},
		{fmt.Sprintf("Cliente: %s | Motivo: %s | Emissão: %s", plan.ClientName, plan.Reason, plan.EmissionDate)},
		{fmt.Sprintf("Exportado em: %s", exportedAt.Format("02/01/2006 15:04"))},
		{},
		ExportHeaders,
	}
	for _, item := range plan.ActionItems {
		rows = append(rows, []string{
			item.StrategicPillar,
			item.Title,
			item.Origin,
			item.MitigationAction,
			strings.Join(item.Departments, ", "),
			item.Owner,
			item.DueDate,
			item.Evidence,
			item.Verification,
			string(item.Status),
			string(item.Type),
			string(item.Priority),
			strings.Join(item.Tags, ", "),
		})
	}
	return rows
}

func ExportPlanToXLSX(plan internal.Plan, outputPath string, exportedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	name := sheetName(plan)
	if err := f.SetSheetName(sheet, name); err != nil {
		return err
	}
	for r, row := range PlanSheet(plan, exportedAt) {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellStr(name, cell, value); err != nil {
				return err
			}
		}
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		first, _ := excelize.CoordinatesToCellName(1, exportHeaderRow)
		last, _ := excelize.CoordinatesToCellName(len(ExportHeaders), exportHeaderRow)
		_ = f.SetCellStyle(name, first, last, style)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

// WritePlanCSV writes the same layout as the xlsx export, semicolon separated
// with a BOM so spreadsheet tools pick UTF-8.
func WritePlanCSV(w io.Writer, plan internal.Plan, exportedAt time.Time) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	for _, row := range PlanSheet(plan, exportedAt) {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ExportPlanToCSV(plan internal.Plan, outputPath string, exportedAt time.Time) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if err := WritePlanCSV(f, plan, exportedAt); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// sheetName keeps within the 31 character limit and avoids the characters
// spreadsheets reject in sheet names.
func sheetName(plan internal.Plan) string {
	name := plan.PlanCode
	if name == "" {
		name = "Plano"
	}
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '-'
		}
		return r
	}, name)
	if len([]rune(name)) > 31 {
		name = string([]rune(name)[:31])
	}
	return name
}
