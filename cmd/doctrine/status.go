package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/creedhall/doctrine/internal/home"
	"github.com/creedhall/doctrine/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status <book-id>",
	Short: "Report committed chapters for a book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hd, err := home.New(homeDir)
		if err != nil {
			return err
		}

		st := store.New(hd.BooksPath(), nil)
		ledger, err := st.ScanLedger(args[0])
		if err != nil {
			return err
		}

		out, err := yaml.Marshal(map[string]any{
			"book_id":   ledger.BookID(),
			"committed": ledger.Indices(),
			"count":     ledger.Len(),
		})
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}
