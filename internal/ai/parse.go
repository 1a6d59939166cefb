package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"plano/internal"
	"plano/internal/util"
)

var reFence = regexp.MustCompile("^```(?:json)?\\s*|\\s*```\\s*$")

// suggestion is one drafted action as the model returns it.
type suggestion struct {
	Title           string   `json:"desvioPontoMelhoria"`
	Origin          string   `json:"origem"`
	Mitigation      string   `json:"acaoParaMitigacao"`
	Departments     textList `json:"departamentosEnvolvidos"`
	Owner           string   `json:"responsavel"`
	StrategicPillar string   `json:"pilarEstrategico"`
	DueDate         string   `json:"prazo"`
	Type            string   `json:"tipo"`
	Priority        string   `json:"priority"`
	Evidence        string   `json:"evidencia"`
	Verification    string   `json:"verificacao"`
	Tags            textList `json:"tags"`
}

// textList accepts either a JSON array of strings or one comma separated
// string.
type textList []string

func (l *textList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*l = util.SplitList(single)
	return nil
}

func stripFences(text string) string {
	return strings.TrimSpace(reFence.ReplaceAllString(strings.TrimSpace(text), ""))
}

// parseSuggestions decodes the model output into records. Enumerations are
// mapped onto the closed sets with the usual defaults; dates are left for
// the caller to validate.
func parseSuggestions(text string) ([]internal.ActionRecord, error) {
	var raw []suggestion
	if err := json.Unmarshal([]byte(stripFences(text)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	out := make([]internal.ActionRecord, 0, len(raw))
	for _, s := range raw {
		depts := make([]string, 0, len(s.Departments))
		for _, d := range s.Departments {
			if d = strings.TrimSpace(d); d != "" {
				depts = append(depts, d)
			}
		}
		if len(depts) == 0 {
			depts = []string{internal.UnspecifiedDepartment}
		}
		tags := util.UniqueStrings(util.SplitList(strings.Join(s.Tags, ",")))

		out = append(out, internal.ActionRecord{
			Title:            strings.TrimSpace(s.Title),
			MitigationAction: strings.TrimSpace(s.Mitigation),
			Departments:      depts,
			Owner:            strings.TrimSpace(s.Owner),
			DueDate:          strings.TrimSpace(s.DueDate),
			StrategicPillar:  strings.TrimSpace(s.StrategicPillar),
			Origin:           strings.TrimSpace(s.Origin),
			Evidence:         strings.TrimSpace(s.Evidence),
			Verification:     strings.TrimSpace(s.Verification),
			Status:           internal.StatusAjustadasEmExecucao,
			Type:             internal.ParseType(s.Type, internal.TypeCorretiva),
			Priority:         internal.ParsePriority(s.Priority, internal.PriorityMedia),
			Tags:             tags,
		})
	}
	return out, nil
}
