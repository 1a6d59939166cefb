package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"plano/internal"
	"plano/internal/pipeline"
)

var (
	aiGoal     string
	aiReason   string
	aiEmission string
	aiFile     string
	aiPlanID   int
	aiItemID   int
	aiSave     bool

	rewriteText  string
	rewriteField string

	reportName string
)

var aiPlanCmd = &cobra.Command{
	Use:   "ai:plan",
	Short: "Gera de 3 a 5 ações para um objetivo com a IA",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := internal.GenerationRequest{
			Goal:         aiGoal,
			Reason:       internal.ParseReason(aiReason, internal.ReasonOutros),
			EmissionDate: aiEmission,
		}
		if req.EmissionDate == "" {
			req.EmissionDate = time.Now().Format("2006-01-02")
		}
		content, err := readContext(cmd.Context(), aiFile)
		if err != nil {
			return err
		}
		req.FileContent = content

		records, err := env.aiClient().GenerateActionPlan(cmd.Context(), req)
		if err != nil {
			return err
		}
		return saveOrPrint(records)
	},
}

var aiSubTasksCmd = &cobra.Command{
	Use:   "ai:subtasks",
	Short: "Decompõe um objetivo, ou uma ação existente com --plan e --item, em sub-tarefas",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := env.aiClient()
		var (
			records []internal.ActionRecord
			err     error
		)
		if aiItemID > 0 {
			items, lerr := env.db.ListActionItems(aiPlanID)
			if lerr != nil {
				return lerr
			}
			var parent *internal.ActionItem
			for i := range items {
				if items[i].ID == aiItemID {
					parent = &items[i]
				}
			}
			if parent == nil {
				return fmt.Errorf("action item %d not found in plan %d", aiItemID, aiPlanID)
			}
			records, err = client.GenerateSubTasksForAction(cmd.Context(), parent.ActionRecord)
		} else {
			if strings.TrimSpace(aiGoal) == "" {
				return fmt.Errorf("--goal is required")
			}
			content, cerr := readContext(cmd.Context(), aiFile)
			if cerr != nil {
				return cerr
			}
			records, err = client.GenerateSubTasks(cmd.Context(), aiGoal, content)
		}
		if err != nil {
			return err
		}
		return saveOrPrint(records)
	},
}

var aiRewriteCmd = &cobra.Command{
	Use:   "ai:rewrite",
	Short: "Reescreve um texto em tom profissional",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := env.aiClient().RewriteText(cmd.Context(), rewriteText, rewriteField)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

var reportSummaryCmd = &cobra.Command{
	Use:   "report:summary [planId]",
	Short: "Gera e salva o sumário executivo de um plano",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := loadPlan(args[0])
		if err != nil {
			return err
		}
		summary, err := env.aiClient().ExecutiveSummary(cmd.Context(), plan.ActionItems, plan.PlanName, plan.ClientName)
		if err != nil {
			return err
		}
		name := reportName
		if name == "" {
			name = fmt.Sprintf("Relatório %s - %s", plan.PlanCode, time.Now().Format("02/01/2006"))
		}
		rep, err := env.db.SaveReport(plan.ID, name, summary, plan.ActionItems)
		if err != nil {
			return err
		}
		fmt.Println(summary)
		env.log.Infow("report saved", "report", rep.UID, "plan", plan.PlanCode)
		return nil
	},
}

// readContext returns the text of a reference document: PDFs go through the
// text extractor, anything else is read as is.
func readContext(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "", nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return pipeline.PDFTextExtractor{}.ExtractText(ctx, content)
	}
	return string(content), nil
}

// saveOrPrint applies the import rules to drafted actions, so only records
// with a valid deadline are shown or stored.
func saveOrPrint(drafted []internal.ActionRecord) error {
	records, skipped := pipeline.SanitizeGenerated(drafted, pipeline.Defaults{StrategicPillar: env.ref.DefaultPillar()})
	if skipped > 0 {
		env.log.Warnw("drafted actions skipped", "skipped", skipped, "kept", len(records))
	}
	if !aiSave || aiPlanID == 0 {
		return printJSON(records)
	}
	if len(records) == 0 {
		return fmt.Errorf("nenhuma ação válida para gravar (%d descartadas)", skipped)
	}
	plan, err := env.db.AddActionItemsBatch(aiPlanID, records)
	if err != nil {
		return err
	}
	fmt.Printf("%d ações adicionadas ao plano %s\n", len(records), plan.PlanCode)
	return nil
}

func init() {
	for _, c := range []*cobra.Command{aiPlanCmd, aiSubTasksCmd} {
		c.Flags().StringVar(&aiGoal, "goal", "", "objetivo ou problema a tratar")
		c.Flags().StringVar(&aiFile, "file", "", "documento de referência (PDF ou texto)")
		c.Flags().IntVar(&aiPlanID, "plan", 0, "plano de destino")
		c.Flags().BoolVar(&aiSave, "save", false, "grava as ações no plano indicado")
	}
	aiPlanCmd.Flags().StringVar(&aiReason, "reason", "", "motivo do plano (origem das ações)")
	aiPlanCmd.Flags().StringVar(&aiEmission, "emission", "", "data de emissão AAAA-MM-DD")
	_ = aiPlanCmd.MarkFlagRequired("goal")
	aiSubTasksCmd.Flags().IntVar(&aiItemID, "item", 0, "ação a decompor (requer --plan)")

	aiRewriteCmd.Flags().StringVar(&rewriteText, "text", "", "texto original")
	aiRewriteCmd.Flags().StringVar(&rewriteField, "field", "Ação para mitigação", "campo a que o texto pertence")
	_ = aiRewriteCmd.MarkFlagRequired("text")

	reportSummaryCmd.Flags().StringVar(&reportName, "name", "", "nome do relatório")

	rootCmd.AddCommand(aiPlanCmd, aiSubTasksCmd, aiRewriteCmd, reportSummaryCmd)
}
