package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jchantrell/ssoformats/internal/export"
)

var (
	dumpJSON  bool
	dumpLimit int
)

var textCmd = &cobra.Command{
	Use:   "text",
	Short: "Inspect localized string tables",
}

var textDumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Decode a string table and print its entries",
	Long: `Dump decodes every entry of a string table and prints keys, values and the
cipher offsets used for each. Values are projected to single bytes unless the
raw value mode is selected, in which case the deciphered bytes are quoted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		f, err := hostWorkspace().ReadText(path, cfg.TextOptions())
		if err != nil {
			return err
		}
		defer f.Free()

		slog.Debug("Decoded string table", "path", path, "entries", f.EntryCount())

		if dumpJSON {
			if err := export.WriteJSON(cmd.OutOrStdout(), export.NewTextDocument(f)); err != nil {
				return fmt.Errorf("writing JSON: %w", err)
			}
			return nil
		}

		renderTextFile(cmd.OutOrStdout(), f, dumpLimit)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(textCmd)
	textCmd.AddCommand(textDumpCmd)
	textDumpCmd.Flags().BoolVar(&dumpJSON, "json", false, "print JSON instead of a table")
	textDumpCmd.Flags().IntVar(&dumpLimit, "limit", 0, "print at most this many entries (0 prints all)")
}
