package ai

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"plano/internal"
)

const fence = "```"

var forbiddenVerbs = []string{"Desenvolver", "Implementar", "Criar", "Elaborar", "Construir", "Iniciar", "Estabelecer"}

var preferredVerbs = [][2]string{
	{"Reforçar", "Para intensificar uma prática existente."},
	{"Manter", "Para ações que já estão em curso e continuarão."},
	{"Ajustar", "Para pequenas correções ou adaptações."},
	{"Ampliar", "Para aumentar o alcance de algo já existente."},
	{"Intensificar", "Para aumentar a frequência ou rigor da ação."},
	{"Consolidar", "Para garantir a estabilidade de um processo."},
	{"Fortalecer", "Para dar mais robustez a uma prática."},
	{"Atualizar", "Para modernizar uma prática contínua."},
	{"Aprimorar", "Para melhorias contínuas dentro do escopo."},
	{"Padronizar", "Para uniformizar práticas já aplicadas."},
}

func jsonList(values []string) string {
	data, _ := json.Marshal(values)
	return string(data)
}

// displayDate renders an ISO date as DD/MM/AAAA and leaves anything else as is.
func displayDate(value string) string {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return value
	}
	return t.Format("02/01/2006")
}

func (c *Client) actionPlanPrompt(req internal.GenerationRequest) string {
	emission := displayDate(req.EmissionDate)
	var b strings.Builder

	b.WriteString("Aja como um consultor de gestão sênior da Orbent, especializado na indústria de food service e em conformidade com as normas regulatórias brasileiras. ")
	b.WriteString("Sua tarefa é criar um plano de ação estratégico e detalhado com base no problema ou objetivo fornecido.\n\n")
	b.WriteString("**Sua Tarefa:**\n")
	b.WriteString("**Regra principal: FRAGMENTE o objetivo em várias ações menores, específicas e independentes.** Gere uma lista de 3 a 5 ações.\n\n")
	b.WriteString("**REGRAS OBRIGATÓRIAS DE CONTEXTO:**\n")
	fmt.Fprintf(&b, "1. **Origem Fixa:** A 'origem' de TODAS as ações DEVE ser obrigatoriamente: **%q**.\n", string(req.Reason))
	fmt.Fprintf(&b, "2. **Prazo Válido:** O 'prazo' de TODAS as ações DEVE ser posterior à data de emissão do plano, **%s**.\n\n", emission)

	b.WriteString("**DIRETRIZ DE LINGUAGEM E TOM:**\n")
	b.WriteString("Descreva as ações como melhorias ou reforços de processos que já existem, e não como a criação de algo novo.\n")
	fmt.Fprintf(&b, "1. VERBOS PROIBIDOS (NUNCA USE): %s.\n", strings.Join(forbiddenVerbs, ", "))
	b.WriteString("2. VERBOS OBRIGATÓRIOS (USE SEMPRE ESTES):\n")
	for _, v := range preferredVerbs {
		fmt.Fprintf(&b, "- **%s:** %s\n", v[0], v[1])
	}
	b.WriteString("3. EXEMPLO: ERRADO \"Desenvolver e implementar auditorias internas\"; CERTO \"Reforçar e manter as auditorias internas já previstas no escopo\".\n\n")

	if strings.TrimSpace(req.FileContent) != "" {
		b.WriteString("**CONTEXTO ADICIONAL DE ARQUIVO ANEXADO:**\n")
		b.WriteString("O texto a seguir foi extraído de um documento de referência. Use-o como a principal fonte para identificar os desvios e riscos que precisam ser mitigados.\n")
		fmt.Fprintf(&b, "%s\n%s\n%s\n\n", fence, req.FileContent, fence)
	}

	fmt.Fprintf(&b, "**O objetivo é: %q**\n\n", req.Goal)
	c.writeFieldRules(&b, string(req.Reason), "posterior a "+emission)
	return b.String()
}

func (c *Client) subTasksPrompt(goal, fileContent string) string {
	today := c.now().Format("2006-01-02")
	hasFile := strings.TrimSpace(fileContent) != ""
	var b strings.Builder

	b.WriteString("Aja como um gerente de projetos sênior e especialista em conformidade e planejamento estratégico.\n\n")
	if hasFile {
		b.WriteString("**MISSÃO PRINCIPAL: ANÁLISE DE DOCUMENTO**\n")
		b.WriteString("Identifique CADA desvio, não-conformidade ou ponto de melhoria mencionado no documento e crie uma ação específica para CADA UM deles. Seja exaustivo.\n")
		fmt.Fprintf(&b, "**DOCUMENTO PARA ANÁLISE:**\n%s\n%s\n%s\n\n", fence, fileContent, fence)
	}
	fmt.Fprintf(&b, "**OBJETIVO GERAL (TEMA):** %q\n\n", goal)
	if hasFile {
		b.WriteString("Com base no documento fornecido, fragmente CADA ponto crítico em uma ação individual.\n\n")
	} else {
		b.WriteString("Quebre o objetivo principal em 3 a 5 sub-tarefas específicas, mensuráveis e independentes.\n\n")
	}
	c.writeFieldRules(&b, string(internal.ReasonPlanejamentoIA), "posterior a "+today)
	return b.String()
}

func (c *Client) subTasksForActionPrompt(parent internal.ActionRecord) string {
	today := c.now().Format("2006-01-02")
	deadline := "posterior a " + today
	if parent.DueDate != "" {
		deadline += fmt.Sprintf(" e não posterior a %s, o prazo da tarefa principal", parent.DueDate)
	}
	var b strings.Builder

	b.WriteString("Aja como um gerente de projetos sênior. Decomponha a ação principal abaixo em 1 a 3 sub-tarefas menores, mais detalhadas e acionáveis.\n\n")
	b.WriteString("**AÇÃO PRINCIPAL PARA DECOMPOR:**\n")
	fmt.Fprintf(&b, "- **Título:** %s\n", parent.Title)
	fmt.Fprintf(&b, "- **Descrição:** %s\n", parent.MitigationAction)
	fmt.Fprintf(&b, "- **Responsável Principal:** %s\n", parent.Owner)
	fmt.Fprintf(&b, "- **Pilar Estratégico:** %s\n\n", parent.StrategicPillar)
	b.WriteString("O nome de cada sub-tarefa DEVE começar com o prefixo \"Sub: \".\n")
	fmt.Fprintf(&b, "O pilar estratégico DEVE ser %q.\n\n", parent.StrategicPillar)
	c.writeFieldRules(&b, parent.Origin, deadline)
	return b.String()
}

func (c *Client) writeFieldRules(b *strings.Builder, origin, deadline string) {
	b.WriteString("Para cada item, preencha os seguintes campos:\n")
	b.WriteString("- desvioPontoMelhoria: um título curto para a ação.\n")
	fmt.Fprintf(b, "- origem: use o valor obrigatório %q.\n", origin)
	b.WriteString("- acaoParaMitigacao: a ação a ser tomada, de forma detalhada.\n")
	b.WriteString("- departamentosEnvolvidos: um ou mais departamentos, como lista de strings.\n")
	fmt.Fprintf(b, "- responsavel: um cargo da lista %s.\n", jsonList(c.ref.Responsibles))
	fmt.Fprintf(b, "- pilarEstrategico: UM dos pilares %s.\n", jsonList(c.ref.StrategicPillars))
	fmt.Fprintf(b, "- prazo: data realista no formato AAAA-MM-DD, %s.\n", deadline)
	b.WriteString("- tipo: 'Corretiva', 'Preventiva' ou 'Melhoria'.\n")
	b.WriteString("- priority: 'Alta', 'Média' ou 'Baixa'.\n")
	b.WriteString("- evidencia: a evidência concreta de que a tarefa foi concluída.\n")
	b.WriteString("- verificacao: como a eficácia da ação será verificada.\n\n")
	b.WriteString("A saída DEVE ser um JSON válido contendo uma lista de objetos.\n")
}

func rewritePrompt(text, fieldContext string) string {
	var b strings.Builder
	b.WriteString("Aja como um redator profissional especializado em comunicação empresarial clara e concisa.\n")
	b.WriteString("Reescreva o texto a seguir para que seja mais profissional, claro e alinhado com o tom da Orbent.\n\n")
	fmt.Fprintf(&b, "**Contexto do Campo:** %s\n", fieldContext)
	fmt.Fprintf(&b, "**Texto Original:** %q\n\n", text)
	b.WriteString("**Diretrizes:**\n")
	b.WriteString("- Mantenha o significado original.\n")
	b.WriteString("- Melhore a clareza e a gramática.\n")
	b.WriteString("- Use um tom profissional e objetivo.\n")
	b.WriteString("- A saída deve ser APENAS o texto reescrito, sem introduções, despedidas ou formatação extra.\n\n")
	b.WriteString("**Texto Reescrito:**\n")
	return b.String()
}

func summaryPrompt(items []internal.ActionItem, planName, clientName string) (string, error) {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("Aja como um consultor de gestão sênior da Orbent.\n")
	fmt.Fprintf(&b, "Gere o conteúdo textual de um \"Relatório de Plano de Ação\" para o cliente **%s**.\n\n", clientName)
	fmt.Fprintf(&b, "- **Cliente:** %s\n- **Plano de Ação:** %s\n\n", clientName, planName)
	b.WriteString("**ESTRUTURA OBRIGATÓRIA DA SAÍDA (MARKDOWN):**\n\n")
	b.WriteString("### Sumário Executivo\n")
	b.WriteString("Tom profissional, colaborativo e objetivo. Explique a finalidade do plano, a organização das iniciativas, responsabilidades e prazos. Parágrafo corrido, sem números.\n\n")
	b.WriteString("### Considerações Finais\n")
	b.WriteString("Reforce o compromisso conjunto e o acompanhamento sistemático. Parágrafo corrido, sem frases promocionais.\n\n")
	b.WriteString("**Dados JSON do Plano de Ação para sua Análise (Não inclua na saída):**\n")
	b.Write(data)
	b.WriteString("\n")
	return b.String(), nil
}
