package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"plano/internal"
)

func samplePlan() internal.Plan {
	return internal.Plan{
		ID:           1,
		PlanCode:     "ALU-001",
		ClientName:   "Alufran",
		PlanName:     "Auditoria, linha 2",
		EmissionDate: "2024-08-01",
		Reason:       internal.ReasonAuditoriaInterna,
		Status:       internal.PlanEmAndamento,
		ActionItems: []internal.ActionItem{
			{ID: 1, ActionRecord: internal.ActionRecord{
				Title:            "Vazamento",
				MitigationAction: "Reparar junta",
				Departments:      []string{"Manutenção", "Operações"},
				Owner:            "Téc. Manutenção",
				DueDate:          "2024-08-15",
				StrategicPillar:  "Conformidade (Compliance)",
				Origin:           "Auditoria Interna",
				Evidence:         "Foto",
				Status:           internal.StatusConcluido,
				Type:             internal.TypePreventiva,
				Priority:         internal.PriorityAlta,
				Tags:             []string{"hidráulica", "linha 2"},
			}},
			{ID: 2, ActionRecord: internal.ActionRecord{
				Title:            "Piso",
				MitigationAction: "Sinalizar",
				Departments:      []string{"Facilities"},
				Owner:            "Supervisor",
				DueDate:          "2024-09-01",
				StrategicPillar:  "SHE (Saúde, Segurança e Meio Ambiente)",
				Origin:           "Auditoria Interna",
				Status:           internal.StatusPendente,
				Type:             internal.TypeCorretiva,
				Priority:         internal.PriorityBaixa,
				Tags:             []string{},
			}},
		},
	}
}

func recordsOf(plan internal.Plan) []internal.ActionRecord {
	out := make([]internal.ActionRecord, 0, len(plan.ActionItems))
	for _, item := range plan.ActionItems {
		out = append(out, item.ActionRecord)
	}
	return out
}

func TestExportXLSXReimports(t *testing.T) {
	plan := samplePlan()
	path := filepath.Join(t.TempDir(), "out", "plano.xlsx")
	if err := ExportPlanToXLSX(plan, path, time.Date(2024, 8, 20, 10, 0, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}
	res := newTestImporter(nil, nil).ImportFile(context.Background(), path, Options{})
	if res.Status != StatusSuccess {
		t.Fatalf("status=%s message=%s", res.Status, res.Message)
	}
	if !reflect.DeepEqual(res.Records, recordsOf(plan)) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", res.Records, recordsOf(plan))
	}
}

func TestExportCSVReimports(t *testing.T) {
	plan := samplePlan()
	var buf bytes.Buffer
	if err := WritePlanCSV(&buf, plan, time.Now()); err != nil {
		t.Fatal(err)
	}
	res := newTestImporter(nil, nil).Import(context.Background(), "plano.csv", buf.Bytes(), Options{})
	if res.Status != StatusSuccess {
		t.Fatalf("status=%s message=%s", res.Status, res.Message)
	}
	if !reflect.DeepEqual(res.Records, recordsOf(plan)) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", res.Records, recordsOf(plan))
	}
}

func TestExportPlanToCSVCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "plano.csv")
	if err := ExportPlanToCSV(samplePlan(), path, time.Now()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
}
