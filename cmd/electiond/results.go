package main

import (
	"github.com/gookit/color"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(resultsCmd)
}

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Print election tallies from the vote ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}

		results, err := app.results.Tally()
		if err != nil {
			return err
		}

		if results.LedgerValid {
			color.Printf("Ledger : <suc>OK</>\n")
		} else {
			color.Printf("Ledger : <error>INVALID</>\n")
		}
		color.Printf("Votes  : <suc>%d</>\n\n", results.TotalVotes)

		for _, pos := range results.Positions {
			color.Info.Println(pos.Position)
			for _, c := range pos.Candidates {
				name := c.Name
				if name == "" {
					name = c.CandidateID
				}
				color.Printf("  %-30s <suc>%d</>\n", name, c.Votes)
			}
		}

		color.Info.Println("\nTurnout by class level")
		for level, n := range results.Demographics.ByClassLevel {
			color.Printf("  %-6s <suc>%d</>\n", level, n)
		}
		color.Info.Println("Turnout by gender")
		for gender, n := range results.Demographics.ByGender {
			color.Printf("  %-6s <suc>%d</>\n", gender, n)
		}

		return nil
	},
}
