package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/creedhall/doctrine/internal/config"
	"github.com/creedhall/doctrine/internal/home"
	"github.com/creedhall/doctrine/internal/oracle"
	"github.com/creedhall/doctrine/internal/pipeline"
	"github.com/creedhall/doctrine/internal/recovery"
	"github.com/creedhall/doctrine/internal/source"
	"github.com/creedhall/doctrine/internal/splitter"
	"github.com/creedhall/doctrine/internal/store"
)

var ingestBookID string

var ingestCmd = &cobra.Command{
	Use:   "ingest <pages-dir>",
	Short: "Run the doctrine pipeline over a directory of page text files",
	Long: `Ingest reads pre-paginated text (page_0001.txt, page_0002.txt, ...),
detects chapter boundaries, extracts doctrine per chapter in parallel, and
commits results in strict chapter order.

Pass --book-id to resume a previous run; already-committed chapters are
skipped after a hash check. Without --book-id a fresh book identity is
minted and every chapter is processed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		cm, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cfg := cm.Get()

		hd, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := hd.EnsureExists(); err != nil {
			return err
		}

		bookID := ingestBookID
		if bookID == "" {
			bookID = uuid.New().String()
			logger.Info("minted new book identity", "book_id", bookID)
		}

		pages, err := source.LoadPages(args[0])
		if err != nil {
			return err
		}
		logger.Info("loaded pages", "book_id", bookID, "pages", len(pages))

		chapters, err := splitter.Split(bookID, pages)
		if err != nil {
			return err
		}
		logger.Info("detected chapters", "book_id", bookID, "chapters", len(chapters))

		st := store.New(hd.BooksPath(), logger)
		ledger, err := st.ScanLedger(bookID)
		if err != nil {
			return err
		}

		coord := pipeline.NewCoordinator(pipeline.Config{
			Store:  st,
			Gate:   recovery.NewGate(ledger),
			Oracle: oracle.NewClient(oracle.ClientConfig{
				APIKey:     cfg.Oracle.APIKey,
				Model:      cfg.Oracle.Model,
				BaseURL:    cfg.Oracle.BaseURL,
				Timeout:    cfg.Oracle.Timeout(),
				MaxRetries: cfg.Oracle.MaxRetries,
				RetryDelay: cfg.Oracle.RetryDelay(),
				Logger:     logger,
			}),
			Workers:     cfg.Workers,
			WindowBytes: cfg.WindowBytes,
			Logger:      logger,
		})

		// Long books run for a while; watch the config file so worker and
		// window tuning applies without restarting the ingest.
		cm.OnChange(func(newCfg *config.Config) {
			coord.Tune(newCfg.Workers, newCfg.WindowBytes)
			logger.Info("configuration reloaded",
				"workers", newCfg.Workers,
				"window_bytes", newCfg.WindowBytes,
			)
		})
		cm.WatchConfig()

		result, runErr := coord.Run(cmd.Context(), bookID, chapters)

		out, err := yaml.Marshal(result)
		if err != nil {
			return err
		}
		fmt.Print(string(out))

		if runErr != nil {
			return fmt.Errorf("run failed at chapter %d: %w", result.FailedIndex, runErr)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(
		&ingestBookID, "book-id", "", "book identity to ingest under (default: mint a new one)",
	)
}
