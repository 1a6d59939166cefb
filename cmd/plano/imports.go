package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"plano/internal"
	"plano/internal/pipeline"
)

var (
	importPlanID   int
	importPlanName string
	importReason   string
	importEmission string
	importPreview  bool
	importWatch    time.Duration
	importRunLimit int
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Importa ações de CSV, XLS, XLSX ou PDF para um plano existente",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := pipeline.Options{
			PlanName:     importPlanName,
			Reason:       internal.ParseReason(importReason, ""),
			EmissionDate: importEmission,
		}
		if importPlanID > 0 {
			plan, err := env.db.GetPlan(importPlanID)
			if err != nil {
				return err
			}
			if opts.PlanName == "" {
				opts.PlanName = plan.PlanName
			}
			if opts.Reason == "" {
				opts.Reason = plan.Reason
			}
			if opts.EmissionDate == "" {
				opts.EmissionDate = plan.EmissionDate
			}
		}
		if opts.EmissionDate == "" {
			opts.EmissionDate = time.Now().Format("2006-01-02")
		}

		im := env.importer()
		if importWatch > 0 {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return watchImport(ctx, args[0], importWatch, func(ctx context.Context) pipeline.Result {
				return im.ImportFile(ctx, args[0], opts)
			})
		}

		start := time.Now()
		res := im.ImportFile(cmd.Context(), args[0], opts)
		run := internal.ImportRun{
			TraceID:    uuid.NewString(),
			FileName:   args[0],
			Source:     res.Source,
			Status:     string(res.Status),
			Message:    res.Message,
			Records:    len(res.Records),
			Skipped:    res.Skipped,
			DurationMs: time.Since(start).Milliseconds(),
		}
		if importPlanID > 0 {
			run.PlanID = &importPlanID
		}
		if err := env.db.InsertImportRun(run); err != nil {
			env.log.Warnw("import run not recorded", "file", args[0], "error", err)
		}

		fmt.Println(res.Message)
		if res.Status == pipeline.StatusError {
			return res.Err
		}
		if importPreview || importPlanID == 0 || res.Status != pipeline.StatusSuccess {
			return printJSON(res.Records)
		}
		plan, err := env.db.AddActionItemsBatch(importPlanID, res.Records)
		if err != nil {
			return err
		}
		fmt.Printf("%d ações adicionadas ao plano %s (total %d)\n", len(res.Records), plan.PlanCode, len(plan.ActionItems))
		return nil
	},
}

// watchImport re-imports path whenever it changes on disk. A change while an
// import is running supersedes it; only the newest result is printed.
func watchImport(ctx context.Context, path string, every time.Duration, job func(ctx context.Context) pipeline.Result) error {
	slot := pipeline.NewImportSlot()
	defer slot.Reset()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	var modTime time.Time
	var printed uint64
	for {
		if info, err := os.Stat(path); err == nil && !info.ModTime().Equal(modTime) {
			modTime = info.ModTime()
			slot.Start(ctx, path, job)
		}
		snap := slot.Snapshot()
		if snap.Generation != printed && snap.State != pipeline.SlotParsing && snap.State != pipeline.SlotIdle {
			printed = snap.Generation
			fmt.Printf("[%s] %s %s\n", snap.State, snap.FileName, snap.Result.Message)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

var importRunsCmd = &cobra.Command{
	Use:   "import:runs",
	Short: "Lista as últimas importações registradas",
	RunE: func(cmd *cobra.Command, args []string) error {
		runs, err := env.db.ListImportRuns(importRunLimit)
		if err != nil {
			return err
		}
		for _, r := range runs {
			target := "-"
			switch {
			case r.PlanID != nil:
				target = fmt.Sprintf("plano=%d", *r.PlanID)
			case r.EmailID != nil:
				target = fmt.Sprintf("email=%d", *r.EmailID)
			}
			fmt.Printf("%s\t%s\t%s\t%s\t%s\tações=%d\tignoradas=%d\t%dms\t%s\n",
				r.CreatedAt, r.TraceID, r.FileName, r.Status, target, r.Records, r.Skipped, r.DurationMs, r.Message)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().IntVar(&importPlanID, "plan", 0, "id do plano que recebe as ações")
	importCmd.Flags().StringVar(&importPlanName, "plan-name", "", "nome do plano, contexto para a IA no caminho PDF")
	importCmd.Flags().StringVar(&importReason, "reason", "", "motivo (origem padrão das ações)")
	importCmd.Flags().StringVar(&importEmission, "emission", "", "data de emissão AAAA-MM-DD")
	importCmd.Flags().BoolVar(&importPreview, "preview", false, "apenas mostra as ações, sem gravar")
	importCmd.Flags().DurationVar(&importWatch, "watch", 0, "reimporta o arquivo a cada alteração, verificando neste intervalo (não grava)")

	importRunsCmd.Flags().IntVar(&importRunLimit, "limit", 20, "quantidade de registros")

	rootCmd.AddCommand(importCmd, importRunsCmd)
}
