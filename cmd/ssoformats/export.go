package main

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/jchantrell/ssoformats/internal/database"
	"github.com/jchantrell/ssoformats/internal/export"
	"github.com/jchantrell/ssoformats/internal/utils"
)

type ExportStats struct {
	StartTime      time.Time
	EndTime        time.Time
	TotalFiles     int
	ExportedFiles  int
	EntriesDecoded int64
	RowsInserted   int64
	Errors         int
}

var (
	exportFormat string
	exportDump   bool
	skipDatabase bool
	batchSize    int
)

var exportCmd = &cobra.Command{
	Use:   "export <files...>",
	Short: "Decode files into a SQLite database",
	Long: `Export decodes string tables and manifests into a queryable SQLite database.
The format of each file is detected from its leading magic unless --format is
given. Exporting a file that is already in the database replaces its rows.

With --dump a JSON document per file is also written to the output directory.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		stats := &ExportStats{
			StartTime:  time.Now(),
			TotalFiles: len(args),
		}

		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		if skipDatabase && !exportDump {
			return fmt.Errorf("nothing to do: --skip-database requires --dump")
		}

		slog.Info("Starting export...", "files", len(args), "format", format, "profile", cfg.ValueMode+"/"+cfg.Storage)

		var sink export.Sink
		if !skipDatabase {
			db, err := database.NewDatabase(database.DefaultDatabaseOptions(cfg.Database))
			if err != nil {
				return fmt.Errorf("creating database: %w", err)
			}
			defer db.Close()

			if err := database.NewDDLManager(db).CreateSchemas(ctx, nil); err != nil {
				return fmt.Errorf("creating schemas: %w", err)
			}

			bulkInsertOptions := database.DefaultBulkInsertOptions()
			if batchSize > 0 {
				bulkInsertOptions.BatchSize = batchSize
			}
			sink = database.NewBulkInserter(db, bulkInsertOptions)
		}

		exporter := export.NewExporter(hostWorkspace(), sink, &export.Options{
			Format: format,
			Magic:  cfg.Magic(),
			Text:   cfg.TextOptions(),
			VF:     cfg.VFOptions(),
			Dump:   exportDump,
		})

		progress := utils.NewProgress(len(args), progressEnabled())
		results, err := exporter.ExportFiles(ctx, args, func(current, total int, description string) {
			progress.Update(current, description)
		})
		progress.Finish()
		if err != nil {
			return err
		}

		for _, res := range results {
			if res.Err != nil {
				stats.Errors++
				continue
			}
			stats.ExportedFiles++
			stats.EntriesDecoded += int64(res.Entries)
			stats.RowsInserted += res.Rows
			if res.DumpPath != "" {
				slog.Info("Wrote JSON dump", "path", res.DumpPath)
			}
		}
		stats.EndTime = time.Now()

		printExportStats(cmd, stats)

		if stats.Errors > 0 {
			return fmt.Errorf("%d of %d files failed to export", stats.Errors, stats.TotalFiles)
		}
		return nil
	},
}

func printExportStats(cmd *cobra.Command, stats *ExportStats) {
	out := cmd.OutOrStdout()
	duration := stats.EndTime.Sub(stats.StartTime)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	var rowRate float64
	if seconds := duration.Seconds(); seconds > 0 {
		rowRate = float64(stats.RowsInserted) / seconds
	}

	fmt.Fprintf(out, "Files exported: %d/%d\n", stats.ExportedFiles, stats.TotalFiles)
	fmt.Fprintf(out, "Entries decoded: %s\n", utils.Number(stats.EntriesDecoded))
	if !skipDatabase {
		fmt.Fprintf(out, "Rows inserted: %s\n", utils.Number(stats.RowsInserted))
		fmt.Fprintf(out, "Insertion rate: %s rows/sec\n", utils.Rate(rowRate))
	}
	fmt.Fprintf(out, "Errors: %d\n", stats.Errors)
	fmt.Fprintf(out, "Duration: %s\n", utils.Duration(duration))
	fmt.Fprintf(out, "Memory usage: %s\n", utils.Bytes(int64(memStats.Alloc)))
	if !skipDatabase {
		fmt.Fprintln(out, "Try running: ssoformats query --tables")
	}
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportFormat, "format", "auto", "input format (auto, text, vf)")
	exportCmd.Flags().BoolVar(&exportDump, "dump", false, "also write a JSON document per file")
	exportCmd.Flags().BoolVar(&skipDatabase, "skip-database", false, "only write JSON dumps")
	exportCmd.Flags().IntVar(&batchSize, "batch-size", 0, "rows per insert transaction")
}
