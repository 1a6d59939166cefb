package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"plano/internal/connectors"
	"plano/internal/listener"
	"plano/internal/pipeline"
	"plano/internal/storage"
)

var (
	mailProvider  string
	mailLabel     string
	mailMax       int
	mailMessageID string
	mailBatch     int
	mailEmailID   int
)

var mailFetchCmd = &cobra.Command{
	Use:   "mail:fetch",
	Short: "Baixa mensagens novas da caixa postal",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := strings.ToLower(strings.TrimSpace(mailProvider))
		conn, err := listener.NewConnector(cmd.Context(), provider, env.cfg)
		if err != nil {
			return err
		}
		fetch := connectors.NewFetchService(env.db, env.cfg.RawMailDir, provider, conn, env.log)
		result, err := fetch.FetchAndStore(cmd.Context(), mailLabel, mailMax)
		if err != nil {
			return err
		}
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d new=%d\n", provider, result.Fetched, result.Stored, result.New)
		return nil
	},
}

var mailProcessCmd = &cobra.Command{
	Use:   "mail:process",
	Short: "Transforma e-mails baixados em planos",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := strings.ToLower(strings.TrimSpace(mailProvider))
		processor := pipeline.NewProcessingService(env.db, env.cfg, env.importer(), env.log)
		if mailEmailID > 0 {
			email, err := env.db.GetEmailByID(mailEmailID)
			if err != nil {
				return err
			}
			if email == nil {
				return fmt.Errorf("email %d: %w", mailEmailID, storage.ErrNotFound)
			}
			res, err := processor.ProcessEmail(cmd.Context(), *email)
			if err != nil {
				return err
			}
			fmt.Printf("processed email id=%d status=%s records=%d\n", res.EmailID, res.Status, res.Records)
			return nil
		}
		if strings.TrimSpace(mailMessageID) != "" {
			res, err := processor.ProcessByProviderMessageID(cmd.Context(), provider, mailMessageID)
			if err != nil {
				return err
			}
			fmt.Printf("processed email id=%d status=%s records=%d\n", res.EmailID, res.Status, res.Records)
			return nil
		}
		emails, records, err := processor.ProcessPending(cmd.Context(), mailBatch, provider)
		if err != nil {
			return err
		}
		fmt.Printf("processed pending emails=%d records=%d\n", emails, records)
		return nil
	},
}

var mailListenCmd = &cobra.Command{
	Use:   "mail:listen",
	Short: "Busca e processa e-mails em intervalos até ser interrompido",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		processor := pipeline.NewProcessingService(env.db, env.cfg, env.importer(), env.log)
		return listener.NewService(env.db, env.cfg, processor, env.log).Run(ctx)
	},
}

func init() {
	for _, c := range []*cobra.Command{mailFetchCmd, mailProcessCmd} {
		c.Flags().StringVar(&mailProvider, "provider", "imap", "gmail|imap")
	}
	mailFetchCmd.Flags().StringVar(&mailLabel, "label", "INBOX", "caixa ou rótulo")
	mailFetchCmd.Flags().IntVar(&mailMax, "max", 50, "máximo de mensagens")
	mailProcessCmd.Flags().StringVar(&mailMessageID, "messageId", "", "Message-ID específico")
	mailProcessCmd.Flags().IntVar(&mailBatch, "batch", 20, "tamanho do lote")
	mailProcessCmd.Flags().IntVar(&mailEmailID, "id", 0, "id interno do e-mail (reprocessa mesmo já processado)")

	rootCmd.AddCommand(mailFetchCmd, mailProcessCmd, mailListenCmd)
}
