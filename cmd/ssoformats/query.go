package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jchantrell/ssoformats/internal/database"
)

var queryCmd = &cobra.Command{
	Use:   "query [sql]",
	Short: "Query the export database directly from command line",
	Long: `Query allows you to execute SQL queries against exported entries,
list available tables, or show table schemas.

Examples:
  ssoformats query --tables
  ssoformats query --schema text_entries
  ssoformats query "SELECT key, value FROM text_entries WHERE key LIKE 'ui_%'"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		out := cmd.OutOrStdout()

		listTables, err := cmd.Flags().GetBool("tables")
		if err != nil {
			return fmt.Errorf("failed to get tables flag: %w", err)
		}
		schemaTable, err := cmd.Flags().GetString("schema")
		if err != nil {
			return fmt.Errorf("failed to get schema flag: %w", err)
		}

		slog.Debug("Query parameters",
			"database", cfg.Database,
			"list-tables", listTables,
			"schema", schemaTable)

		db, err := database.NewDatabase(database.DefaultDatabaseOptions(cfg.Database))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		if listTables {
			tables, err := db.Tables(ctx)
			if err != nil {
				return err
			}

			t := newTable(out)
			t.AppendHeader(table.Row{"Table"})
			for _, name := range tables {
				t.AppendRow(table.Row{name})
			}
			t.Render()
			return nil
		}

		if schemaTable != "" {
			columns, err := db.TableInfo(ctx, schemaTable)
			if err != nil {
				return err
			}

			t := newTable(out)
			t.SetTitle("Schema for table '%s'", schemaTable)
			t.AppendHeader(table.Row{"Column", "Type", "NotNull", "Default", "Primary"})
			for _, col := range columns {
				t.AppendRow(table.Row{col.Name, col.Type, yesNo(col.NotNull), displayCell(col.Default), yesNo(col.PrimaryKey)})
			}
			t.Render()
			return nil
		}

		if len(args) > 0 {
			slog.Debug("Executing SQL query", "query", args[0])

			columns, rows, err := db.QueryAll(ctx, args[0])
			if err != nil {
				return err
			}
			renderRows(out, columns, rows)
			return nil
		}

		return fmt.Errorf("no query provided, use --tables to list tables or --schema <table> to show schema")
	},
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().Bool("tables", false, "List available tables")
	queryCmd.Flags().String("schema", "", "Show schema for specified table")
}
