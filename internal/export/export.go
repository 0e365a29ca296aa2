package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/jchantrell/ssoformats/internal/text"
	"github.com/jchantrell/ssoformats/internal/vf"
	"github.com/jchantrell/ssoformats/internal/workspace"
)

// Format names a container format.
type Format string

const (
	FormatAuto Format = "auto"
	FormatText Format = "text"
	FormatVF   Format = "vf"
)

// ParseFormat accepts auto, text or vf.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatText, FormatVF:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format '%s': expected auto, text or vf", s)
	}
}

// DetectFormat picks vf when head starts with magic and text otherwise.
// String tables have no magic of their own.
func DetectFormat(head []byte, magic [4]byte) Format {
	if bytes.HasPrefix(head, magic[:]) {
		return FormatVF
	}
	return FormatText
}

// Sink stores decoded files. *database.BulkInserter implements it.
type Sink interface {
	InsertText(ctx context.Context, path string, f *text.File) (int64, error)
	InsertVF(ctx context.Context, path string, f *vf.File) (int64, error)
}

// Options configures an Exporter.
type Options struct {
	// Format forces every input to one format; FormatAuto sniffs each file.
	Format Format

	// Magic identifies manifests when sniffing.
	Magic [4]byte

	Text *text.Options
	VF   *vf.Options

	// Dump writes a JSON document per input into the workspace directory.
	Dump bool
}

// ProgressCallback is called to report export progress
type ProgressCallback func(current int, total int, description string)

// Result reports the outcome of one input.
type Result struct {
	Path     string
	Format   Format
	Entries  uint32
	Rows     int64
	DumpPath string
	Err      error
}

// Exporter decodes container files and hands them to a Sink.
type Exporter struct {
	ws   *workspace.Workspace
	sink Sink
	opts *Options
}

// NewExporter creates a new exporter. sink may be nil when only JSON dumps
// are wanted.
func NewExporter(ws *workspace.Workspace, sink Sink, opts *Options) *Exporter {
	if opts == nil {
		opts = &Options{Format: FormatAuto, Magic: vf.DefaultMagic}
	}
	return &Exporter{ws: ws, sink: sink, opts: opts}
}

// ExportFiles decodes every file in order. A file that fails to decode or
// store is recorded in its Result and the export moves on; only a canceled
// context or an unusable output directory aborts the run.
func (e *Exporter) ExportFiles(ctx context.Context, files []string, progressCallback ProgressCallback) ([]Result, error) {
	if len(files) == 0 {
		return nil, nil
	}

	if e.opts.Dump {
		if err := e.ws.EnsureDir(e.ws.Dir()); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
	}

	results := make([]Result, 0, len(files))
	dumps := make(map[string]string)
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("export canceled: %w", err)
		}

		res := e.exportFile(ctx, path, dumps)
		if res.Err != nil {
			slog.Error("Failed to export file", "path", path, "format", res.Format, "error", res.Err)
		} else {
			slog.Debug("Exported file", "path", path, "format", res.Format, "entries", res.Entries, "rows", res.Rows)
		}
		results = append(results, res)

		if progressCallback != nil {
			progressCallback(i+1, len(files), path)
		}
	}

	return results, nil
}

// exportFile handles one input. dumps maps each JSON dump written so far in
// the run to its input.
func (e *Exporter) exportFile(ctx context.Context, path string, dumps map[string]string) Result {
	res := Result{Path: path, Format: e.opts.Format}

	if res.Format == "" || res.Format == FormatAuto {
		head, err := e.ws.Peek(path, 4)
		if err != nil {
			res.Err = err
			return res
		}
		res.Format = DetectFormat(head, e.opts.Magic)
	}

	var doc any
	switch res.Format {
	case FormatText:
		f, err := e.ws.ReadText(path, e.opts.Text)
		if err != nil {
			res.Err = err
			return res
		}
		defer f.Free()

		res.Entries = f.EntryCount()
		if e.sink != nil {
			if res.Rows, err = e.sink.InsertText(ctx, path, f); err != nil {
				res.Err = fmt.Errorf("storing %s: %w", path, err)
				return res
			}
		}
		if e.opts.Dump {
			doc = NewTextDocument(f)
		}

	case FormatVF:
		f, err := e.ws.ReadVF(path, e.opts.VF)
		if err != nil {
			res.Err = err
			return res
		}
		defer f.Free()

		res.Entries = f.EntryCount()
		if e.sink != nil {
			if res.Rows, err = e.sink.InsertVF(ctx, path, f); err != nil {
				res.Err = fmt.Errorf("storing %s: %w", path, err)
				return res
			}
		}
		if e.opts.Dump {
			doc = NewVFDocument(f)
		}

	default:
		res.Err = fmt.Errorf("unsupported format '%s'", res.Format)
		return res
	}

	if doc != nil {
		dumpPath := e.ws.OutputPath(path, ".json")
		if prev, ok := dumps[dumpPath]; ok {
			res.Err = fmt.Errorf("dump %s already written for %s", dumpPath, prev)
			return res
		}
		dumps[dumpPath] = path
		res.DumpPath = dumpPath
		if err := e.ws.WriteAtomic(res.DumpPath, func(w io.Writer) error {
			return WriteJSON(w, doc)
		}); err != nil {
			res.Err = err
		}
	}

	return res
}

// WriteJSON encodes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
