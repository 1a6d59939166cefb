package pipeline

import (
	"errors"
	"testing"
)

func TestLocateHeaderAfterTitleRows(t *testing.T) {
	rows := textRows([][]string{
		{"Plano de Ação - Auditoria 2024"},
		{"Cliente: Alufran", "", "Emissão: 01/08/2024"},
		{"Desvio/Ponto de Melhoria*", "Ação para mitigação*", "Departamentos Envolvidos*", "Responsável*", "Prazo*"},
		{"Vazamento", "Reparar junta", "Manutenção", "Téc. Manutenção", "15/08/2024"},
	})

	match, err := DefaultHeaderLocator().Locate(rows)
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if match.HeaderRowIndex != 2 || match.MatchCount != 5 {
		t.Fatalf("unexpected match: %+v", match)
	}
	if match.HeaderCells[0] != "desvio/ponto de melhoria" || match.HeaderCells[3] != "responsável" {
		t.Fatalf("unexpected header keys: %#v", match.HeaderCells)
	}
}

func TestLocateHeaderNotFound(t *testing.T) {
	rows := textRows([][]string{
		{"Desvio", "Responsável", "Prazo", "Observação"},
		{"Vazamento", "Téc. Manutenção", "15/08/2024", "-"},
	})
	_, err := DefaultHeaderLocator().Locate(rows)
	if !errors.Is(err, ErrNoHeaderFound) {
		t.Fatalf("expected ErrNoHeaderFound, got %v", err)
	}
}

func TestLocateHeaderOnlyScansWindow(t *testing.T) {
	raw := [][]string{}
	for i := 0; i < 10; i++ {
		raw = append(raw, []string{"linha de título"})
	}
	raw = append(raw, []string{"Desvio", "Ação corretiva", "Área", "Responsável", "Prazo"})
	_, err := DefaultHeaderLocator().Locate(textRows(raw))
	if !errors.Is(err, ErrNoHeaderFound) {
		t.Fatalf("header beyond scan window must not be found, got %v", err)
	}
}

func TestLocateHeaderTieKeepsFirstRow(t *testing.T) {
	header := []string{"Título", "Descrição", "Setor", "Dono", "Deadline"}
	rows := textRows([][]string{header, header})
	match, err := DefaultHeaderLocator().Locate(rows)
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if match.HeaderRowIndex != 0 {
		t.Fatalf("expected first row on tie, got %d", match.HeaderRowIndex)
	}
}

func TestLocateHeaderPrefersRicherRow(t *testing.T) {
	rows := textRows([][]string{
		{"Título", "Descrição", "Setor", "Dono", "Deadline"},
		{"Título", "Descrição", "Setor", "Dono", "Deadline", "Status", "Tags"},
	})
	match, err := DefaultHeaderLocator().Locate(rows)
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if match.HeaderRowIndex != 1 || match.MatchCount != 7 {
		t.Fatalf("unexpected match: %+v", match)
	}
}

func TestLocateHeaderCountsDistinctFields(t *testing.T) {
	// several aliases of the same field only count once
	rows := textRows([][]string{
		{"Desvio", "Título", "Item", "Responsável", "Prazo"},
	})
	_, err := DefaultHeaderLocator().Locate(rows)
	if !errors.Is(err, ErrNoHeaderFound) {
		t.Fatalf("expected ErrNoHeaderFound, got %v", err)
	}
}

func textRows(rows [][]string) [][]Cell {
	out := make([][]Cell, 0, len(rows))
	for _, row := range rows {
		cells := make([]Cell, 0, len(row))
		for _, v := range row {
			cells = append(cells, TextCell(v))
		}
		out = append(out, cells)
	}
	return out
}
