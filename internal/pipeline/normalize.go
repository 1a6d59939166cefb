package pipeline

import (
	"strings"

	"plano/internal"
	"plano/internal/util"
)

// Defaults fill the optional fields a row leaves empty.
type Defaults struct {
	StrategicPillar string
	Origin          string
	Status          internal.ActionStatus
	Type            internal.ActionType
	Priority        internal.ActionPriority
}

func (d Defaults) withFallbacks() Defaults {
	if d.Status == "" {
		d.Status = internal.StatusAjustadasEmExecucao
	}
	if d.Type == "" {
		d.Type = internal.TypeCorretiva
	}
	if d.Priority == "" {
		d.Priority = internal.PriorityMedia
	}
	return d
}

// RowNormalizer maps data rows below a located header onto ActionRecords.
type RowNormalizer struct {
	header   []string
	defaults Defaults
}

func NewRowNormalizer(match HeaderMatch, defaults Defaults) *RowNormalizer {
	return &RowNormalizer{header: match.HeaderCells, defaults: defaults.withFallbacks()}
}

// Normalize returns false when the row must be skipped.
func (n *RowNormalizer) Normalize(row []Cell) (internal.ActionRecord, bool) {
	return NormalizeRecord(n.keyed(row), n.defaults)
}

// keyed pairs header keys with cell values. Empty headers are ignored and a
// repeated header keeps its rightmost column.
func (n *RowNormalizer) keyed(row []Cell) map[string]Cell {
	values := make(map[string]Cell, len(n.header))
	for i, h := range n.header {
		if h == "" {
			continue
		}
		var c Cell
		if i < len(row) {
			c = row[i]
		}
		values[h] = c
	}
	return values
}

type rowLookup map[string]Cell

// get returns the first non-blank value found under any alias of field.
func (r rowLookup) get(field Field) (Cell, bool) {
	for _, alias := range Aliases(field) {
		if c, ok := r[alias]; ok && !c.IsBlank() {
			return c, true
		}
	}
	return Cell{}, false
}

func (r rowLookup) text(field Field, fallback string) string {
	if c, ok := r.get(field); ok {
		return strings.TrimSpace(c.String())
	}
	return fallback
}

// NormalizeRecord builds a record from header-keyed values. It is a pure
// function of its inputs.
func NormalizeRecord(values map[string]Cell, defaults Defaults) (internal.ActionRecord, bool) {
	row := rowLookup(values)
	defaults = defaults.withFallbacks()

	mandatory := make(map[Field]Cell, len(MandatoryFields))
	for _, f := range MandatoryFields {
		c, ok := row.get(f)
		if !ok {
			return internal.ActionRecord{}, false
		}
		mandatory[f] = c
	}

	dueDate, err := CoerceDate(mandatory[FieldDueDate])
	if err != nil {
		return internal.ActionRecord{}, false
	}

	departments := util.SplitList(mandatory[FieldDepartments].String())
	if len(departments) == 0 {
		departments = []string{internal.UnspecifiedDepartment}
	}

	tags := util.UniqueStrings(util.SplitList(row.text(FieldTags, "")))

	return internal.ActionRecord{
		Title:            strings.TrimSpace(mandatory[FieldTitle].String()),
		MitigationAction: strings.TrimSpace(mandatory[FieldMitigation].String()),
		Departments:      departments,
		Owner:            strings.TrimSpace(mandatory[FieldOwner].String()),
		DueDate:          dueDate,
		StrategicPillar:  row.text(FieldStrategicPillar, defaults.StrategicPillar),
		Origin:           row.text(FieldOrigin, defaults.Origin),
		Evidence:         row.text(FieldEvidence, ""),
		Verification:     row.text(FieldVerification, ""),
		Status:           internal.ParseStatus(row.text(FieldStatus, ""), defaults.Status),
		Type:             internal.ParseType(row.text(FieldType, ""), defaults.Type),
		Priority:         internal.ParsePriority(row.text(FieldPriority, ""), defaults.Priority),
		Tags:             tags,
	}, true
}

// SanitizeGenerated applies the record invariants to items drafted by the
// generative collaborator, which bypass the header and row stages. Drafted
// items always start with the default status.
func SanitizeGenerated(items []internal.ActionRecord, defaults Defaults) ([]internal.ActionRecord, int) {
	defaults = defaults.withFallbacks()
	out := make([]internal.ActionRecord, 0, len(items))
	skipped := 0
	for _, item := range items {
		due, err := CoerceDate(TextCell(item.DueDate))
		if err != nil {
			skipped++
			continue
		}
		item.DueDate = due

		depts := make([]string, 0, len(item.Departments))
		for _, d := range item.Departments {
			if d = strings.TrimSpace(d); d != "" {
				depts = append(depts, d)
			}
		}
		if len(depts) == 0 {
			depts = []string{internal.UnspecifiedDepartment}
		}
		item.Departments = depts

		if strings.TrimSpace(item.StrategicPillar) == "" {
			item.StrategicPillar = defaults.StrategicPillar
		}
		if strings.TrimSpace(item.Origin) == "" {
			item.Origin = defaults.Origin
		}
		item.Status = defaults.Status
		item.Type = internal.ParseType(string(item.Type), defaults.Type)
		item.Priority = internal.ParsePriority(string(item.Priority), defaults.Priority)
		if item.Tags == nil {
			item.Tags = []string{}
		}
		out = append(out, item)
	}
	return out, skipped
}
