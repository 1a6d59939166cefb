package internal

type PlanReason string

const (
	ReasonAuditoriaInterna PlanReason = "Auditoria Interna"
	ReasonAuditoriaExterna PlanReason = "Auditoria Externa"
	ReasonFeedback         PlanReason = "Feedback do Cliente"
	ReasonFiscalizacao     PlanReason = "Fiscalização"
	ReasonPlanejamentoIA   PlanReason = "Planejamento com IA"
	ReasonOutros           PlanReason = "Outros"
)

type ActionStatus string

const (
	StatusPendente                ActionStatus = "Pendente"
	StatusExecucaoContinua        ActionStatus = "Execução contínua monitorada"
	StatusAcoesReforcadas         ActionStatus = "Ações reforçadas e em expansão"
	StatusProcessosIntensificados ActionStatus = "Processos intensificados e otimizados"
	StatusAjustadasEmExecucao     ActionStatus = "Ajustadas e em plena execução"
	StatusReforcoEmExecucao       ActionStatus = "Reforço em execução com monitoramento ativo"
	StatusConcluido               ActionStatus = "Concluído"
)

type ActionType string

const (
	TypeCorretiva  ActionType = "Corretiva"
	TypePreventiva ActionType = "Preventiva"
	TypeMelhoria   ActionType = "Melhoria"
)

type ActionPriority string

const (
	PriorityAlta  ActionPriority = "Alta"
	PriorityMedia ActionPriority = "Média"
	PriorityBaixa ActionPriority = "Baixa"
)

type PlanStatus string

const (
	PlanEmAndamento PlanStatus = "Em Andamento"
	PlanConcluido   PlanStatus = "Concluído"
)

// UnspecifiedDepartment stands in when a departments cell splits into nothing.
const UnspecifiedDepartment = "Não especificado"

// ActionRecord is the canonical, normalized action item produced by an import.
type ActionRecord struct {
	Title            string         `json:"title"`
	MitigationAction string         `json:"mitigationAction"`
	Departments      []string       `json:"departments"`
	Owner            string         `json:"owner"`
	DueDate          string         `json:"dueDate"`
	StrategicPillar  string         `json:"strategicPillar"`
	Origin           string         `json:"origin"`
	Evidence         string         `json:"evidence"`
	Verification     string         `json:"verification"`
	Status           ActionStatus   `json:"status"`
	Type             ActionType     `json:"type"`
	Priority         ActionPriority `json:"priority"`
	Tags             []string       `json:"tags"`
}

type ActionItem struct {
	ID int `json:"id"`
	ActionRecord
}

type NewPlan struct {
	ClientName   string     `json:"clientName"`
	PlanName     string     `json:"planName"`
	EmissionDate string     `json:"emissionDate"`
	Reason       PlanReason `json:"reason"`
	OwnerName    string     `json:"planOwnerName"`
}

type Plan struct {
	ID             int          `json:"id"`
	PlanCode       string       `json:"planCode"`
	ClientName     string       `json:"clientName"`
	PlanName       string       `json:"planName"`
	EmissionDate   string       `json:"emissionDate"`
	ConclusionDate *string      `json:"conclusionDate,omitempty"`
	Reason         PlanReason   `json:"reason"`
	OwnerName      string       `json:"planOwnerName"`
	Status         PlanStatus   `json:"status"`
	ActionItems    []ActionItem `json:"actionItems"`
}

type SavedReport struct {
	ID             int          `json:"id"`
	UID            string       `json:"uid"`
	PlanID         int          `json:"planId"`
	ReportName     string       `json:"reportName"`
	SummaryContent string       `json:"summaryContent"`
	DataUsed       []ActionItem `json:"dataUsed"`
	GeneratedAt    string       `json:"generatedAt"`
}

// ImportRun records one import attempt, successful or not.
type ImportRun struct {
	ID         int
	TraceID    string
	PlanID     *int
	EmailID    *int
	FileName   string
	Source     string
	Status     string
	Message    string
	Records    int
	Skipped    int
	DurationMs int64
	CreatedAt  string
}

type EmailRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
	PlanID     *int
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}

// GenerationRequest is the context handed to the generative collaborator
// when it drafts action items.
type GenerationRequest struct {
	Goal         string
	Reason       PlanReason
	EmissionDate string
	FileContent  string
}

// Email lifecycle states stored in emails.status.
const (
	EmailFetched   = "fetched"
	EmailProcessed = "processed"
	EmailSkipped   = "skipped"
	EmailFailed    = "failed"
	EmailExported  = "exported"
)
