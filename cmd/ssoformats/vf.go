package main

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/spf13/cobra"

	"github.com/jchantrell/ssoformats/internal/export"
	"github.com/jchantrell/ssoformats/internal/vf"
	"github.com/jchantrell/ssoformats/internal/workspace"
)

var (
	listJSON      bool
	removeIndexes []int
	resizeTo      int
	setVersion    int
)

var vfCmd = &cobra.Command{
	Use:   "vf",
	Short: "Inspect and edit asset manifests",
}

var vfListCmd = &cobra.Command{
	Use:   "list <file>",
	Short: "Decode a manifest and print its entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := hostWorkspace().ReadVF(args[0], cfg.VFOptions())
		if err != nil {
			return err
		}
		defer f.Free()

		if listJSON {
			if err := export.WriteJSON(cmd.OutOrStdout(), export.NewVFDocument(f)); err != nil {
				return fmt.Errorf("writing JSON: %w", err)
			}
			return nil
		}

		renderVFFile(cmd.OutOrStdout(), f)
		return nil
	},
}

var vfRewriteCmd = &cobra.Command{
	Use:   "rewrite <in> <out>",
	Short: "Edit a manifest and write it back out",
	Long: `Rewrite decodes a manifest, applies the requested edits and encodes the result
to a new file. Removals refer to entry indexes in the input and are applied
before any resize. The output is written to a temporary file and renamed into
place, so a failed rewrite never leaves a partial manifest behind.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		edits := manifestEdits{Remove: removeIndexes}
		if cmd.Flags().Changed("resize") {
			edits.Resize = &resizeTo
		}
		if cmd.Flags().Changed("set-version") {
			edits.Version = &setVersion
		}

		count, err := rewriteManifest(hostWorkspace(), args[0], args[1], cfg.VFOptions(), edits)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d entries to %s\n", count, args[1])
		return nil
	},
}

type manifestEdits struct {
	Remove  []int
	Resize  *int
	Version *int
}

// rewriteManifest applies edits to the manifest at in and writes it to out.
// It returns the entry count written.
func rewriteManifest(ws *workspace.Workspace, in, out string, opts *vf.Options, edits manifestEdits) (uint32, error) {
	f, err := ws.ReadVF(in, opts)
	if err != nil {
		return 0, err
	}
	defer f.Free()

	remove := slices.Clone(edits.Remove)
	slices.Sort(remove)
	remove = slices.Compact(remove)
	for _, idx := range slices.Backward(remove) {
		if idx < 0 || uint64(idx) > math.MaxUint32 {
			return 0, fmt.Errorf("invalid entry index %d", idx)
		}
		if err := f.RemoveEntry(uint32(idx)); err != nil {
			return 0, fmt.Errorf("removing entry %d: %w", idx, err)
		}
		slog.Debug("Removed manifest entry", "index", idx)
	}

	if edits.Resize != nil {
		if *edits.Resize < 0 || uint64(*edits.Resize) > math.MaxUint32 {
			return 0, fmt.Errorf("invalid entry count %d", *edits.Resize)
		}
		if err := f.Resize(uint32(*edits.Resize)); err != nil {
			return 0, err
		}
	}

	if edits.Version != nil {
		if *edits.Version < 0 || uint64(*edits.Version) > math.MaxUint32 {
			return 0, fmt.Errorf("invalid manifest version %d", *edits.Version)
		}
		f.Header.ManifestVersion = uint32(*edits.Version)
	}

	if err := ws.WriteVF(out, f); err != nil {
		return 0, err
	}

	slog.Info("Rewrote manifest", "input", in, "output", out, "entries", f.EntryCount())
	return f.EntryCount(), nil
}

func init() {
	rootCmd.AddCommand(vfCmd)
	vfCmd.AddCommand(vfListCmd, vfRewriteCmd)
	vfListCmd.Flags().BoolVar(&listJSON, "json", false, "print JSON instead of a table")
	vfRewriteCmd.Flags().IntSliceVar(&removeIndexes, "remove", nil, "entry index to remove (repeatable)")
	vfRewriteCmd.Flags().IntVar(&resizeTo, "resize", 0, "grow with empty entries or truncate to this count")
	vfRewriteCmd.Flags().IntVar(&setVersion, "set-version", 0, "replace the manifest version")
}
