package internal

import "strings"

var (
	AllStatuses   = []ActionStatus{StatusPendente, StatusExecucaoContinua, StatusAcoesReforcadas, StatusProcessosIntensificados, StatusAjustadasEmExecucao, StatusReforcoEmExecucao, StatusConcluido}
	AllTypes      = []ActionType{TypeCorretiva, TypePreventiva, TypeMelhoria}
	AllPriorities = []ActionPriority{PriorityAlta, PriorityMedia, PriorityBaixa}
	AllReasons    = []PlanReason{ReasonAuditoriaInterna, ReasonAuditoriaExterna, ReasonFeedback, ReasonFiscalizacao, ReasonPlanejamentoIA, ReasonOutros}
)

// ParseStatus maps free-form input onto the closed status set. Unknown values
// yield fallback.
func ParseStatus(raw string, fallback ActionStatus) ActionStatus {
	return matchEnum(raw, AllStatuses, fallback)
}

func ParseType(raw string, fallback ActionType) ActionType {
	return matchEnum(raw, AllTypes, fallback)
}

func ParsePriority(raw string, fallback ActionPriority) ActionPriority {
	return matchEnum(raw, AllPriorities, fallback)
}

func ParseReason(raw string, fallback PlanReason) PlanReason {
	return matchEnum(raw, AllReasons, fallback)
}

func matchEnum[T ~string](raw string, set []T, fallback T) T {
	value := strings.TrimSpace(raw)
	if value == "" {
		return fallback
	}
	for _, candidate := range set {
		if strings.EqualFold(value, string(candidate)) {
			return candidate
		}
	}
	return fallback
}
