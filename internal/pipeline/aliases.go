package pipeline

// Field is a canonical action-item attribute.
type Field string

const (
	FieldStrategicPillar Field = "strategicPillar"
	FieldTitle           Field = "title"
	FieldOrigin          Field = "origin"
	FieldMitigation      Field = "mitigationAction"
	FieldDepartments     Field = "departments"
	FieldOwner           Field = "owner"
	FieldDueDate         Field = "dueDate"
	FieldEvidence        Field = "evidence"
	FieldVerification    Field = "verification"
	FieldStatus          Field = "status"
	FieldType            Field = "type"
	FieldPriority        Field = "priority"
	FieldTags            Field = "tags"
)

// MandatoryFields must all resolve for a row to become a record. Their count
// is also the minimum header match.
var MandatoryFields = []Field{FieldTitle, FieldMitigation, FieldDepartments, FieldOwner, FieldDueDate}

// columnAliases lists recognised header texts per field, in lookup order.
// Keys are already in HeaderKey form; accent variants are spelled out.
var columnAliases = map[Field][]string{
	FieldStrategicPillar: {"pilar estratégico", "pilar estrategico", "pilar"},
	FieldTitle:           {"desvio/ponto de melhoria", "desvio ponto de melhoria", "desvio", "ponto de melhoria", "ponto", "item", "título", "titulo", "ação", "acao"},
	FieldOrigin:          {"origem", "motivo", "fonte"},
	FieldMitigation:      {"ação para mitigação", "acao para mitigacao", "ação corretiva", "acao corretiva", "descrição", "descricao", "description", "mitigação", "detalhes da ação"},
	FieldDepartments:     {"departamentos envolvidos", "departamento envolvido", "departamentos", "departamento", "área", "area", "áreas", "areas", "setor"},
	FieldOwner:           {"responsável", "responsavel", "owner", "dono"},
	FieldDueDate:         {"prazo", "deadline", "data de entrega", "data-alvo", "data final"},
	FieldEvidence:        {"evidência", "evidencia", "evidência de conclusão", "comprovação", "comprovacao"},
	FieldVerification:    {"verificação", "verificacao", "verificação de eficácia"},
	FieldStatus:          {"status", "estado"},
	FieldType:            {"tipo", "categoria"},
	FieldPriority:        {"prioridade", "urgência", "urgencia"},
	FieldTags:            {"tags", "etiquetas"},
}

var aliasToField = buildAliasIndex(columnAliases)

func buildAliasIndex(aliases map[Field][]string) map[string]Field {
	idx := make(map[string]Field)
	for field, list := range aliases {
		for _, alias := range list {
			idx[alias] = field
		}
	}
	return idx
}

// Aliases returns the header texts recognised for field.
func Aliases(field Field) []string {
	return columnAliases[field]
}

// FieldForHeader resolves a HeaderKey-normalised header cell.
func FieldForHeader(header string) (Field, bool) {
	f, ok := aliasToField[header]
	return f, ok
}
