package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"plano/internal/ai"
	"plano/internal/catalog"
	"plano/internal/config"
	"plano/internal/logging"
	"plano/internal/pipeline"
	"plano/internal/storage"
)

var debugMode bool

// app holds what every command needs. It is filled by the root
// PersistentPreRunE and closed after the command returns.
type app struct {
	cfg config.Config
	ref catalog.Reference
	db  *storage.DB
	log *zap.SugaredLogger
}

var env app

var rootCmd = &cobra.Command{
	Use:           "plano",
	Short:         "Plano - planos de ação, importação de planilhas e geração com IA",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log, err := logging.New(debugMode || cfg.LogDebug)
		if err != nil {
			return err
		}
		ref, err := catalog.Load(cfg.CatalogPath)
		if err != nil {
			return fmt.Errorf("load reference lists: %w", err)
		}
		db, err := storage.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		env = app{cfg: cfg, ref: ref, db: db, log: log}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		_ = env.log.Sync()
		if env.db != nil {
			return env.db.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "debug logging")
}

func Execute() {
	err := rootCmd.Execute()
	var shown interface{ UserMessage() string }
	if errors.As(err, &shown) {
		err = fmt.Errorf("%s (%w)", shown.UserMessage(), err)
	}
	cobra.CheckErr(err)
}

func (a app) aiClient() *ai.Client {
	return ai.NewClient(a.cfg, a.ref, a.log)
}

// importer wires the Gemini client in only when a key is configured, so the
// PDF path reports a missing service instead of failing on every request.
func (a app) importer() *pipeline.Importer {
	var gen pipeline.ActionGenerator
	if a.cfg.GeminiAPIKey != "" {
		gen = a.aiClient()
	}
	return pipeline.NewImporter(a.cfg, a.ref, gen, a.log)
}
