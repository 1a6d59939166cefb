package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"plano/internal"
	"plano/internal/dashboard"
	"plano/internal/pipeline"
)

var (
	planClient   string
	planName     string
	planEmission string
	planReason   string
	planOwner    string
	planFile     string

	showJSON bool

	exportFormat string
	exportOut    string

	dashFilter dashboard.Filter
)

var planCreateCmd = &cobra.Command{
	Use:   "plan:create",
	Short: "Cria um plano, opcionalmente importando as ações de um arquivo",
	RunE: func(cmd *cobra.Command, args []string) error {
		reason := internal.ParseReason(planReason, internal.ParseReason(env.cfg.ImportReason, internal.ReasonOutros))
		emission := planEmission
		if emission == "" {
			emission = time.Now().Format("2006-01-02")
		}

		var records []internal.ActionRecord
		if planFile != "" {
			res := env.importer().ImportFile(cmd.Context(), planFile, pipeline.Options{PlanName: planName, Reason: reason, EmissionDate: emission})
			fmt.Println(res.Message)
			if res.Status == pipeline.StatusError {
				return res.Err
			}
			records = res.Records
		}

		plan, err := env.db.CreatePlan(internal.NewPlan{
			ClientName:   planClient,
			PlanName:     planName,
			EmissionDate: emission,
			Reason:       reason,
			OwnerName:    planOwner,
		}, records)
		if err != nil {
			return err
		}
		fmt.Printf("plano criado id=%d code=%s itens=%d\n", plan.ID, plan.PlanCode, len(plan.ActionItems))
		return nil
	},
}

var planListCmd = &cobra.Command{
	Use:   "plan:list",
	Short: "Lista os planos",
	RunE: func(cmd *cobra.Command, args []string) error {
		plans, err := env.db.ListPlans()
		if err != nil {
			return err
		}
		for _, p := range plans {
			s := dashboard.Summarize(p.ActionItems, time.Now())
			fmt.Printf("%d\t%s\t%s\t%s\t%s\titens=%d\tconcluído=%d%%\n", p.ID, p.PlanCode, p.PlanName, p.ClientName, p.Status, s.KPI.Total, s.KPI.PercentCompleted)
		}
		return nil
	},
}

var planShowCmd = &cobra.Command{
	Use:   "plan:show [id]",
	Short: "Mostra um plano e suas ações",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := loadPlan(args[0])
		if err != nil {
			return err
		}
		if showJSON {
			return printJSON(plan)
		}
		fmt.Printf("%s - %s (%s)\ncliente=%s motivo=%s emissão=%s responsável=%s\n",
			plan.PlanCode, plan.PlanName, plan.Status, plan.ClientName, plan.Reason, plan.EmissionDate, plan.OwnerName)
		for _, it := range plan.ActionItems {
			fmt.Printf("  #%d %s | %s | %s | prazo=%s | %s\n", it.ID, it.Title, it.Owner, strings.Join(it.Departments, ", "), it.DueDate, dashboard.DisplayStatus(it, time.Now()))
		}
		return nil
	},
}

var planDeleteCmd = &cobra.Command{
	Use:   "plan:delete [id]",
	Short: "Remove um plano com suas ações e relatórios",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid plan id %q", args[0])
		}
		if err := env.db.DeletePlan(id); err != nil {
			return err
		}
		fmt.Printf("plano %d removido\n", id)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [planId]",
	Short: "Exporta um plano para xlsx ou csv",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := loadPlan(args[0])
		if err != nil {
			return err
		}
		format := strings.ToLower(exportFormat)
		out := exportOut
		if out == "" {
			out = filepath.Join(env.cfg.OutputDir, plan.PlanCode+"."+format)
		}
		switch format {
		case "xlsx":
			err = pipeline.ExportPlanToXLSX(plan, out, time.Now())
		case "csv":
			err = pipeline.ExportPlanToCSV(plan, out, time.Now())
		default:
			return fmt.Errorf("unsupported export format: %s", exportFormat)
		}
		if err != nil {
			return err
		}
		fmt.Printf("exportado %d itens para %s\n", len(plan.ActionItems), out)
		return nil
	},
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard [planId]",
	Short: "Resumo de indicadores de um plano, ou de todos quando o id é omitido",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var items []internal.ActionItem
		if len(args) == 1 {
			plan, err := loadPlan(args[0])
			if err != nil {
				return err
			}
			items = plan.ActionItems
		} else {
			plans, err := env.db.ListPlans()
			if err != nil {
				return err
			}
			for _, p := range plans {
				items = append(items, p.ActionItems...)
			}
		}
		return printJSON(struct {
			Summary dashboard.Summary `json:"summary"`
			Options dashboard.Options `json:"filterOptions"`
		}{
			Summary: dashboard.Summarize(dashFilter.Apply(items), time.Now()),
			Options: dashboard.FilterOptions(items),
		})
	},
}

func loadPlan(arg string) (internal.Plan, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return internal.Plan{}, fmt.Errorf("invalid plan id %q", arg)
	}
	return env.db.GetPlan(id)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	planCreateCmd.Flags().StringVar(&planClient, "client", "", "nome do cliente")
	planCreateCmd.Flags().StringVar(&planName, "name", "", "nome do plano")
	planCreateCmd.Flags().StringVar(&planEmission, "emission", "", "data de emissão AAAA-MM-DD (padrão: hoje)")
	planCreateCmd.Flags().StringVar(&planReason, "reason", "", "motivo do plano")
	planCreateCmd.Flags().StringVar(&planOwner, "owner", "", "responsável pelo plano")
	planCreateCmd.Flags().StringVar(&planFile, "file", "", "planilha ou PDF com as ações")
	_ = planCreateCmd.MarkFlagRequired("client")
	_ = planCreateCmd.MarkFlagRequired("name")
	_ = planCreateCmd.MarkFlagRequired("owner")

	planShowCmd.Flags().BoolVar(&showJSON, "json", false, "saída em JSON")

	exportCmd.Flags().StringVar(&exportFormat, "format", "xlsx", "xlsx|csv")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "arquivo de saída")

	dashboardCmd.Flags().StringVar(&dashFilter.Department, "department", dashboard.Any, "departamento")
	dashboardCmd.Flags().StringVar(&dashFilter.Status, "status", dashboard.Any, "status")
	dashboardCmd.Flags().StringVar(&dashFilter.Type, "type", dashboard.Any, "tipo")
	dashboardCmd.Flags().StringVar(&dashFilter.Tag, "tag", dashboard.Any, "tag")
	dashboardCmd.Flags().StringVar(&dashFilter.Priority, "priority", dashboard.Any, "prioridade")
	dashboardCmd.Flags().StringVar(&dashFilter.Pillar, "pillar", dashboard.Any, "pilar estratégico")

	rootCmd.AddCommand(planCreateCmd, planListCmd, planShowCmd, planDeleteCmd, exportCmd, dashboardCmd)
}
