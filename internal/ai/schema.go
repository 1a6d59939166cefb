package ai

import "plano/internal"

// Schema is the OpenAPI subset Gemini accepts as responseSchema.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

func str(description string, enum ...string) *Schema {
	return &Schema{Type: "STRING", Description: description, Enum: enum}
}

func enumValues[T ~string](values []T) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}
	return out
}

// actionListSchema describes the array of drafted actions. origins narrows
// the allowed "origem" values.
func (c *Client) actionListSchema(origins []string) *Schema {
	return &Schema{
		Type: "ARRAY",
		Items: &Schema{
			Type: "OBJECT",
			Properties: map[string]*Schema{
				"desvioPontoMelhoria": str(`O "Desvio/Ponto de Melhoria". Um título curto para a ação.`),
				"origem":              str("A origem ou motivo da ação.", origins...),
				"acaoParaMitigacao":   str(`A "Ação para mitigação". Descrição detalhada da ação a ser tomada.`),
				"departamentosEnvolvidos": {
					Type:        "ARRAY",
					Items:       &Schema{Type: "STRING"},
					Description: `Os "Departamentos Envolvidos". Uma lista de um ou mais departamentos responsáveis.`,
				},
				"responsavel":      str("Um cargo para o responsável.", c.ref.Responsibles...),
				"pilarEstrategico": str("O pilar estratégico da ação.", c.ref.StrategicPillars...),
				"prazo":            str("Data no formato AAAA-MM-DD"),
				"tipo":             str("O tipo da ação.", enumValues(internal.AllTypes)...),
				"priority":         str("A prioridade da ação.", enumValues(internal.AllPriorities)...),
				"evidencia":        str("A evidência concreta de que a tarefa foi concluída."),
				"verificacao":      str("Como a eficácia da ação será verificada."),
			},
			Required: []string{
				"desvioPontoMelhoria", "acaoParaMitigacao", "departamentosEnvolvidos", "responsavel", "prazo",
				"origem", "tipo", "priority", "evidencia", "verificacao", "pilarEstrategico",
			},
		},
	}
}
