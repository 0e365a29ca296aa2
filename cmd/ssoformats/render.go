package main

import (
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"
	ptext "github.com/jedib0t/go-pretty/v6/text"

	"github.com/jchantrell/ssoformats/internal/codec"
	"github.com/jchantrell/ssoformats/internal/text"
	"github.com/jchantrell/ssoformats/internal/utils"
	"github.com/jchantrell/ssoformats/internal/vf"
)

const maxCellWidth = 60

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Footer = ptext.FormatDefault
	return t
}

// renderTextFile prints up to limit entries of f; limit 0 prints all.
func renderTextFile(w io.Writer, f *text.File, limit int) {
	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Key", "Value", "Key Off", "Value Off", "Length"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: ptext.AlignRight},
		{Number: 2, WidthMax: maxCellWidth},
		{Number: 3, WidthMax: maxCellWidth},
		{Number: 4, Align: ptext.AlignRight, AlignHeader: ptext.AlignCenter},
		{Number: 5, Align: ptext.AlignRight, AlignHeader: ptext.AlignCenter},
		{Number: 6, Align: ptext.AlignRight},
	})

	raw := f.Profile().Value == codec.ValueRaw
	for i, e := range f.Entries() {
		if limit > 0 && int(i) >= limit {
			break
		}
		t.AppendRow(table.Row{i, e.Key, displayValue(e.Value, raw), e.KeyOffset, e.ValueOffset, e.ValueLength})
	}

	t.AppendFooter(table.Row{"", fmt.Sprintf("%s entries", utils.Number(int64(f.EntryCount()))), f.Profile().String()})
	t.Render()
}

// renderVFFile prints every entry of f.
func renderVFFile(w io.Writer, f *vf.File) {
	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Name", "Path", "Size", "Source", "Original CRC", "Exported CRC"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: ptext.AlignRight},
		{Number: 3, WidthMax: maxCellWidth},
		{Number: 4, Align: ptext.AlignRight},
		{Number: 5, Align: ptext.AlignRight},
	})

	var total int64
	for i, e := range f.Entries() {
		total += int64(e.FileSize)
		t.AppendRow(table.Row{i, e.FileName, e.FilePath, utils.Bytes(int64(e.FileSize)), e.SourceFileNumber,
			fmt.Sprintf("%x", e.OriginalCRC), fmt.Sprintf("%x", e.ExportedCRC)})
	}

	t.AppendFooter(table.Row{"", fmt.Sprintf("%s entries", utils.Number(int64(f.EntryCount()))),
		fmt.Sprintf("%q v%d", f.Header.Magic[:], f.Header.ManifestVersion), utils.Bytes(total)})
	t.Render()
}

// renderRows prints a query result.
func renderRows(w io.Writer, columns []string, rows [][]any) {
	t := newTable(w)

	header := make(table.Row, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	t.AppendHeader(header)

	for _, values := range rows {
		row := make(table.Row, len(values))
		for i, v := range values {
			row[i] = displayCell(v)
		}
		t.AppendRow(row)
	}
	t.Render()
}

func displayValue(v string, raw bool) string {
	if raw || !utf8.ValidString(v) {
		return strconv.Quote(v)
	}
	return v
}

func displayCell(v any) any {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		if utf8.Valid(v) {
			return strconv.Quote(string(v))
		}
		return fmt.Sprintf("x'%x'", v)
	default:
		return v
	}
}
