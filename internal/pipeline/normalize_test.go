package pipeline

import (
	"reflect"
	"testing"

	"plano/internal"
)

func testDefaults() Defaults {
	return Defaults{
		StrategicPillar: "Conformidade (Compliance)",
		Origin:          string(internal.ReasonAuditoriaInterna),
	}.withFallbacks()
}

func scenarioRow() map[string]Cell {
	return map[string]Cell{
		"desvio/ponto de melhoria": TextCell("Vazamento"),
		"ação para mitigação":      TextCell("Reparar junta"),
		"departamentos envolvidos": TextCell("Manutenção, Operações"),
		"responsável":              TextCell("Téc. Manutenção"),
		"prazo":                    TextCell("15/08/2024"),
	}
}

func TestNormalizeRecord(t *testing.T) {
	rec, ok := NormalizeRecord(scenarioRow(), testDefaults())
	if !ok {
		t.Fatal("row should not be skipped")
	}
	if !reflect.DeepEqual(rec.Departments, []string{"Manutenção", "Operações"}) {
		t.Fatalf("departments=%#v", rec.Departments)
	}
	if rec.DueDate != "2024-08-15" {
		t.Fatalf("dueDate=%s", rec.DueDate)
	}
	if rec.Title != "Vazamento" || rec.MitigationAction != "Reparar junta" || rec.Owner != "Téc. Manutenção" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.StrategicPillar != "Conformidade (Compliance)" || rec.Origin != "Auditoria Interna" {
		t.Fatalf("defaults not applied: %+v", rec)
	}
	if rec.Status != internal.StatusAjustadasEmExecucao || rec.Type != internal.TypeCorretiva || rec.Priority != internal.PriorityMedia {
		t.Fatalf("enum defaults not applied: %+v", rec)
	}
	if rec.Tags == nil || len(rec.Tags) != 0 {
		t.Fatalf("tags should be empty, got %#v", rec.Tags)
	}
}

func TestNormalizeRecordIdempotent(t *testing.T) {
	row := scenarioRow()
	row["tags"] = TextCell("vazamento; manutenção, vazamento")
	first, ok1 := NormalizeRecord(row, testDefaults())
	second, ok2 := NormalizeRecord(row, testDefaults())
	if !ok1 || !ok2 || !reflect.DeepEqual(first, second) {
		t.Fatalf("normalization not idempotent: %+v vs %+v", first, second)
	}
	if !reflect.DeepEqual(first.Tags, []string{"vazamento", "manutenção"}) {
		t.Fatalf("tags=%#v", first.Tags)
	}
}

func TestNormalizeRecordSkipsMissingMandatory(t *testing.T) {
	for _, key := range []string{"desvio/ponto de melhoria", "ação para mitigação", "departamentos envolvidos", "responsável", "prazo"} {
		row := scenarioRow()
		delete(row, key)
		if _, ok := NormalizeRecord(row, testDefaults()); ok {
			t.Fatalf("row without %q must be skipped", key)
		}
	}

	row := scenarioRow()
	row["responsável"] = TextCell("   ")
	if _, ok := NormalizeRecord(row, testDefaults()); ok {
		t.Fatal("whitespace-only owner must be skipped")
	}
}

func TestNormalizeRecordSkipsBadDate(t *testing.T) {
	row := scenarioRow()
	row["prazo"] = TextCell("em breve")
	if _, ok := NormalizeRecord(row, testDefaults()); ok {
		t.Fatal("row with invalid due date must be skipped")
	}
}

func TestNormalizeRecordDepartmentPlaceholder(t *testing.T) {
	row := scenarioRow()
	row["departamentos envolvidos"] = TextCell(" ; , ")
	rec, ok := NormalizeRecord(row, testDefaults())
	if !ok {
		t.Fatal("row should not be skipped")
	}
	if !reflect.DeepEqual(rec.Departments, []string{internal.UnspecifiedDepartment}) {
		t.Fatalf("departments=%#v", rec.Departments)
	}
}

func TestNormalizeRecordEnumsFailClosed(t *testing.T) {
	row := scenarioRow()
	row["status"] = TextCell("concluído")
	row["tipo"] = TextCell("Urgente")
	row["prioridade"] = TextCell("ALTA")
	rec, _ := NormalizeRecord(row, testDefaults())
	if rec.Status != internal.StatusConcluido {
		t.Fatalf("status=%s", rec.Status)
	}
	if rec.Type != internal.TypeCorretiva {
		t.Fatalf("unknown type should fall back, got %s", rec.Type)
	}
	if rec.Priority != internal.PriorityAlta {
		t.Fatalf("priority=%s", rec.Priority)
	}
}

func TestNormalizeRecordAliasOrder(t *testing.T) {
	row := scenarioRow()
	delete(row, "desvio/ponto de melhoria")
	row["título"] = TextCell("Pelo título")
	row["desvio"] = TextCell("Pelo desvio")
	rec, ok := NormalizeRecord(row, testDefaults())
	if !ok || rec.Title != "Pelo desvio" {
		t.Fatalf("expected earlier alias to win, got %+v", rec)
	}
}

func TestRowNormalizerRepeatedHeader(t *testing.T) {
	match := HeaderMatch{HeaderCells: []string{"desvio", "ação corretiva", "setor", "responsável", "prazo", "", "responsável"}}
	n := NewRowNormalizer(match, testDefaults())
	rec, ok := n.Normalize([]Cell{
		TextCell("Piso molhado"), TextCell("Sinalizar"), TextCell("Limpeza"),
		TextCell("Primeiro"), NumberCell(45321), TextCell("ignorado"), TextCell("Último"),
	})
	if !ok {
		t.Fatal("row should not be skipped")
	}
	if rec.Owner != "Último" || rec.DueDate != "2024-01-30" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestSanitizeGenerated(t *testing.T) {
	items := []internal.ActionRecord{
		{Title: "A", MitigationAction: "x", Owner: "o", DueDate: "2024-09-01", Status: internal.StatusConcluido, Type: "??", Priority: "Alta"},
		{Title: "B", MitigationAction: "y", Owner: "o", DueDate: "ontem"},
	}
	out, skipped := SanitizeGenerated(items, testDefaults())
	if skipped != 1 || len(out) != 1 {
		t.Fatalf("out=%d skipped=%d", len(out), skipped)
	}
	got := out[0]
	if !reflect.DeepEqual(got.Departments, []string{internal.UnspecifiedDepartment}) {
		t.Fatalf("departments=%#v", got.Departments)
	}
	if got.Status != internal.StatusAjustadasEmExecucao || got.Type != internal.TypeCorretiva || got.Priority != internal.PriorityAlta {
		t.Fatalf("enums=%s/%s/%s", got.Status, got.Type, got.Priority)
	}
	if got.StrategicPillar != "Conformidade (Compliance)" || got.Tags == nil {
		t.Fatalf("defaults not applied: %+v", got)
	}
}
