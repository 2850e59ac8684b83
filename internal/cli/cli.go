package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/viniausta/repasse-medico/internal/browser"
	"github.com/viniausta/repasse-medico/internal/config"
	"github.com/viniausta/repasse-medico/internal/log"
	"github.com/viniausta/repasse-medico/internal/notify"
	internal_storage "github.com/viniausta/repasse-medico/internal/storage"
	"github.com/viniausta/repasse-medico/pkg/models"
	"github.com/viniausta/repasse-medico/pkg/service"
	"github.com/viniausta/repasse-medico/pkg/storage"
)

func SetupCLI(rootCmd *cobra.Command) {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Import pending repasses and drive the email-send workflow",
		Run: func(cmd *cobra.Command, args []string) {
			runAutomation(false)
		},
	}

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import pending repasses only, without sending emails",
		Run: func(cmd *cobra.Command, args []string) {
			runAutomation(true)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List staged repasses by status",
		Run: func(cmd *cobra.Command, args []string) {
			status, err := cmd.Flags().GetString("status")
			if err != nil {
				log.GetLogger().Errorf("Error retrieving status flag: %v", err)
				os.Exit(1)
			}
			listTransfers(models.TransferStatus(status))
		},
	}
	listCmd.Flags().String("status", string(models.PendingTransferStatus), "Transfer status to list (P, E, I, False)")

	// Bare invocation runs the full workflow, matching how the scheduler
	// calls the robot.
	rootCmd.Run = runCmd.Run
	rootCmd.AddCommand(runCmd, importCmd, listCmd)
}

// runAutomation is the composition root: config, store, engine, notifier.
// Errors are logged and notified, never turned into a non-zero exit; the
// scheduler treats any non-zero exit as a crashed robot.
func runAutomation(importOnly bool) {
	logger := log.GetLogger()
	cfg, err := config.Load()
	if err != nil {
		logger.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	if importOnly {
		cfg.ImportOnly = true
	}

	cliq := notify.NewCliq(cfg.WebhookURL)

	// A dead database degrades logging, it does not stop the robot.
	var store storage.Store
	if oracle, err := internal_storage.InitStore(cfg); err != nil {
		logger.Warnf("Failed to connect to Oracle: %v", err)
	} else {
		store = oracle
		defer oracle.Close()
	}

	engine := service.NewEngine(engineConfig(cfg), store, logger,
		service.WithStoreFactory(func() (storage.Store, error) {
			return internal_storage.InitStore(cfg)
		}),
		service.WithBrowserFactory(func() (service.Browser, error) {
			return browser.New(!cfg.DevMode)
		}),
	)
	defer engine.Shutdown()

	engine.Initialize()

	imported, err := engine.ImportCandidates()
	if err != nil {
		logger.Errorf("Import failed: %v", err)
		notifyErr(cliq, logger, "Falha na importação de repasses", err)
		return
	}

	if err := engine.Execute(); err != nil {
		logger.Errorf("Workflow failed: %v", err)
		notifyErr(cliq, logger, "Falha no envio de emails de repasse", err)
		return
	}

	if err := cliq.NotifySuccess("Automação de repasse concluída", map[string]string{
		"importados": strconv.Itoa(imported),
		"execucao":   strconv.FormatInt(engine.RunID(), 10),
	}); err != nil {
		logger.Warnf("Failed to notify Cliq: %v", err)
	}
	logger.Infof("Automation finished")
}

func notifyErr(cliq *notify.Cliq, logger service.Logger, message string, err error) {
	if nerr := cliq.NotifyError(message, map[string]string{"erro": err.Error()}); nerr != nil {
		logger.Warnf("Failed to notify Cliq: %v", nerr)
	}
}

func listTransfers(status models.TransferStatus) {
	logger := log.GetLogger()
	cfg, err := config.Load()
	if err != nil {
		logger.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	store, err := internal_storage.InitStore(cfg)
	if err != nil {
		logger.Errorf("Failed to connect to Oracle: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	transfers, err := store.ListTransfers(status)
	if err != nil {
		logger.Errorf("Failed to list transfers: %v", err)
		os.Exit(1)
	}
	if len(transfers) == 0 {
		fmt.Fprintf(os.Stdout, "No transfers with status %q.\n", status)
		return
	}
	for _, t := range transfers {
		fmt.Fprintf(os.Stdout, "- Repasse: %s, Terceiro: %d, Título: %s, Email: %s, Status: %s %s\n",
			t.TransferNo, t.ThirdPartySeq, t.InvoiceNo, t.Email, t.Status, t.StatusMsg)
	}
}

func engineConfig(cfg *config.Config) service.Config {
	return service.Config{
		BaseURL:           cfg.TasyURL,
		DevMode:           cfg.DevMode,
		DevEmail:          cfg.DevEmail,
		EvidenceDir:       filepath.Join(cfg.BasePath, "Evidencia"),
		Cutoff:            cfg.Cutoff,
		EstablishmentCode: cfg.EstablishmentCode,
		RowLimit:          cfg.RowLimit,
		ImportOnly:        cfg.ImportOnly,
		PollAttempts:      cfg.PollAttempts,
		PollInterval:      cfg.PollInterval,
		Unit:              cfg.Unit,
		Project:           cfg.Project,
		Script:            cfg.Script,
		Operator:          cfg.Operator,
	}
}
