package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"plano/internal"
	"plano/internal/pipeline"
	"plano/internal/storage"
)

var itemFields = map[pipeline.Field]*string{}

var itemAddCmd = &cobra.Command{
	Use:   "item:add [planId]",
	Short: "Adiciona uma ação a um plano, com as mesmas regras da importação",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		planID, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid plan id %q", args[0])
		}
		values := map[string]pipeline.Cell{}
		for field, value := range itemFields {
			if *value != "" {
				values[pipeline.Aliases(field)[0]] = pipeline.TextCell(*value)
			}
		}
		rec, ok := pipeline.NormalizeRecord(values, pipeline.Defaults{StrategicPillar: env.ref.DefaultPillar()})
		if !ok {
			return errors.New("ação inválida: desvio, ação, departamentos, responsável e um prazo válido são obrigatórios")
		}
		item, err := env.db.AddActionItem(planID, rec)
		if err != nil {
			return err
		}
		fmt.Printf("ação #%d adicionada ao plano %d\n", item.ID, planID)
		return nil
	},
}

var itemStatusCmd = &cobra.Command{
	Use:   "item:status [planId] [itemId] [status]",
	Short: "Altera o status de uma ação",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, item, err := loadItem(args[0], args[1])
		if err != nil {
			return err
		}
		status := internal.ParseStatus(args[2], "")
		if status == "" {
			return fmt.Errorf("status desconhecido: %s", args[2])
		}
		item.Status = status
		if _, err := env.db.UpdateActionItem(plan.ID, item); err != nil {
			return err
		}
		fmt.Printf("ação #%d do plano %s: %s\n", item.ID, plan.PlanCode, status)
		return nil
	},
}

var itemDeleteCmd = &cobra.Command{
	Use:   "item:delete [planId] [itemId]",
	Short: "Remove uma ação de um plano",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, item, err := loadItem(args[0], args[1])
		if err != nil {
			return err
		}
		if err := env.db.DeleteActionItem(plan.ID, item.ID); err != nil {
			return err
		}
		fmt.Printf("ação #%d removida do plano %s\n", item.ID, plan.PlanCode)
		return nil
	},
}

var planConcludeCmd = &cobra.Command{
	Use:   "plan:conclude [id]",
	Short: "Marca um plano como concluído",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := loadPlan(args[0])
		if err != nil {
			return err
		}
		today := time.Now().Format("2006-01-02")
		plan.Status = internal.PlanConcluido
		plan.ConclusionDate = &today
		if _, err := env.db.UpdatePlan(plan); err != nil {
			return err
		}
		fmt.Printf("plano %s concluído em %s\n", plan.PlanCode, today)
		return nil
	},
}

var reportListCmd = &cobra.Command{
	Use:   "report:list",
	Short: "Lista os relatórios salvos",
	RunE: func(cmd *cobra.Command, args []string) error {
		reports, err := env.db.ListReports()
		if err != nil {
			return err
		}
		for _, r := range reports {
			fmt.Printf("%d\t%s\tplano=%d\t%s\t%s\n", r.ID, r.UID, r.PlanID, r.ReportName, r.GeneratedAt)
		}
		return nil
	},
}

func loadItem(planArg, itemArg string) (internal.Plan, internal.ActionItem, error) {
	plan, err := loadPlan(planArg)
	if err != nil {
		return internal.Plan{}, internal.ActionItem{}, err
	}
	itemID, err := strconv.Atoi(itemArg)
	if err != nil {
		return plan, internal.ActionItem{}, fmt.Errorf("invalid item id %q", itemArg)
	}
	for _, it := range plan.ActionItems {
		if it.ID == itemID {
			return plan, it, nil
		}
	}
	return plan, internal.ActionItem{}, fmt.Errorf("action %d in plan %d: %w", itemID, plan.ID, storage.ErrNotFound)
}

func init() {
	flags := []struct {
		field pipeline.Field
		name  string
		usage string
	}{
		{pipeline.FieldTitle, "title", "desvio/ponto de melhoria"},
		{pipeline.FieldMitigation, "action", "ação para mitigação"},
		{pipeline.FieldDepartments, "departments", "departamentos separados por vírgula"},
		{pipeline.FieldOwner, "owner", "responsável"},
		{pipeline.FieldDueDate, "due", "prazo (DD/MM/AAAA ou AAAA-MM-DD)"},
		{pipeline.FieldStrategicPillar, "pillar", "pilar estratégico"},
		{pipeline.FieldOrigin, "origin", "origem"},
		{pipeline.FieldEvidence, "evidence", "evidência"},
		{pipeline.FieldVerification, "verification", "verificação"},
		{pipeline.FieldStatus, "status", "status"},
		{pipeline.FieldType, "type", "tipo"},
		{pipeline.FieldPriority, "priority", "prioridade"},
		{pipeline.FieldTags, "tags", "tags separadas por vírgula"},
	}
	for _, f := range flags {
		v := new(string)
		itemFields[f.field] = v
		itemAddCmd.Flags().StringVar(v, f.name, "", f.usage)
	}

	rootCmd.AddCommand(itemAddCmd, itemStatusCmd, itemDeleteCmd, planConcludeCmd, reportListCmd)
}
