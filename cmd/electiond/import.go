package main

import (
	"io"
	"os"

	"github.com/gookit/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"election-backend/service"
)

func init() {
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import-voters <roll.csv>",
	Short: "Replace the eligible-voter roll from a CSV file",
	Long: `Reads a CSV with columns regNumber,phoneNumber,classLevel and replaces
the entire eligible-voter roll with its rows. Existing voter accounts are
untouched; only future registrations are checked against the new roll.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		st, err := f.Stat()
		if err != nil {
			return err
		}

		bar := progressbar.DefaultBytes(st.Size(), "reading roll")
		rows, err := service.ParseEligibleRoll(io.TeeReader(f, bar))
		if err != nil {
			color.Printf("<error>ERROR</>\t%s\n", err)
			return err
		}

		if err := app.store.ReplaceEligibleRoll(rows); err != nil {
			return err
		}

		color.Printf("Imported <suc>%d</> eligible voters\n", len(rows))
		return nil
	},
}
