package main

import (
	"encoding/hex"
	"errors"
	"path/filepath"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"election-backend/ledger"
)

var errChainInvalid = errors.New("vote ledger failed verification")

func init() {
	rootCmd.AddCommand(sealCmd)
}

var sealCmd = &cobra.Command{
	Use:   "seal",
	Short: "Sign the vote ledger head with the election seal key",
	Long: `Signs the current head hash of the vote ledger with the election seal
key, generating the key on first use. Publish the signature alongside the
ledger file so observers can detect any later rewrite.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}

		if !app.votes.Verify() {
			color.Println("<error>ledger verification FAILED, refusing to seal</>")
			return errChainInvalid
		}

		key, err := ledger.LoadOrGenerateSealKey(filepath.Join(dataDir, "seal_key.json"))
		if err != nil {
			return err
		}

		sig, err := app.votes.Seal(key)
		if err != nil {
			return err
		}

		color.Printf("Sealed <suc>%d</> blocks\n", app.votes.Count())
		color.Printf("head:      <cyan>%s</>\n", hex.EncodeToString(app.votes.HeadHash()))
		color.Printf("signature: <cyan>%s</>\n", hex.EncodeToString(sig))
		return nil
	},
}
