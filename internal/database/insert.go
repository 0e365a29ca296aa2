package database

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/jchantrell/ssoformats/internal/codec"
	"github.com/jchantrell/ssoformats/internal/text"
	"github.com/jchantrell/ssoformats/internal/vf"
)

// BulkInserter handles batch insertion of decoded container entries
type BulkInserter struct {
	db         *Database
	batchSize  int
	maxRetries int
	retryDelay time.Duration
}

// BulkInsertOptions configures bulk insertion behavior
type BulkInsertOptions struct {
	// BatchSize determines how many rows to insert per transaction
	BatchSize int

	// MaxRetries sets the maximum number of retry attempts for a batch that
	// failed because the database was busy
	MaxRetries int

	// RetryDelay is the pause before the first retry; it doubles each attempt
	RetryDelay time.Duration
}

// DefaultBulkInsertOptions returns sensible defaults for bulk insertion
func DefaultBulkInsertOptions() *BulkInsertOptions {
	return &BulkInsertOptions{
		BatchSize:  1000,
		MaxRetries: 3,
		RetryDelay: 50 * time.Millisecond,
	}
}

// NewBulkInserter creates a new bulk inserter with the given database and options
func NewBulkInserter(db *Database, options *BulkInsertOptions) *BulkInserter {
	if options == nil {
		options = DefaultBulkInsertOptions()
	}
	if options.BatchSize <= 0 {
		options.BatchSize = DefaultBulkInsertOptions().BatchSize
	}

	return &BulkInserter{
		db:         db,
		batchSize:  options.BatchSize,
		maxRetries: options.MaxRetries,
		retryDelay: options.RetryDelay,
	}
}

// Source is the sources row describing one exported file
type Source struct {
	Path            string
	Format          string
	Profile         codec.Profile
	EntryCount      uint32
	Magic           string
	ManifestVersion *uint32
	Header          []byte
}

// InsertText stores a decoded string table under path, replacing any
// previous export of the same path. It returns the number of rows inserted.
func (bi *BulkInserter) InsertText(ctx context.Context, path string, f *text.File) (int64, error) {
	if f == nil {
		return 0, fmt.Errorf("text file cannot be nil")
	}

	src := &Source{
		Path:       path,
		Format:     "text",
		Profile:    f.Profile(),
		EntryCount: f.EntryCount(),
		Header:     f.Header.Unknown[:],
	}

	raw := f.Profile().Value == codec.ValueRaw
	rows := func(yield func([]any) bool) {
		for i, e := range f.Entries() {
			var value any = e.Value
			if raw {
				value = []byte(e.Value)
			}
			opaque := make([]byte, 0, 13)
			opaque = append(opaque, e.Unknown[:]...)
			opaque = append(opaque, e.Unknown2[:]...)
			opaque = append(opaque, e.Unknown3[:]...)
			opaque = append(opaque, e.Unknown4, e.Unknown5, e.Unknown6)

			if !yield([]any{i, e.Key, value, e.KeyLength, e.KeyOffset, e.ValueLength, e.ValueOffset, opaque}) {
				return
			}
		}
	}

	return bi.insertSource(ctx, src, TextEntriesTable, rows)
}

// InsertVF stores a decoded manifest under path, replacing any previous
// export of the same path. It returns the number of rows inserted.
func (bi *BulkInserter) InsertVF(ctx context.Context, path string, f *vf.File) (int64, error) {
	if f == nil {
		return 0, fmt.Errorf("vf file cannot be nil")
	}

	version := f.Header.ManifestVersion
	src := &Source{
		Path:            path,
		Format:          "vf",
		Profile:         f.Profile(),
		EntryCount:      f.EntryCount(),
		Magic:           string(f.Header.Magic[:]),
		ManifestVersion: &version,
	}

	rows := func(yield func([]any) bool) {
		for i, e := range f.Entries() {
			opaque := make([]byte, 0, 24)
			opaque = append(opaque, e.Unknown1[:]...)
			opaque = append(opaque, e.Unknown2[:]...)
			opaque = append(opaque, e.Unknown4[:]...)
			opaque = append(opaque, e.Unknown5[:]...)

			row := []any{i, e.FileName, e.FilePath, e.FileSize, e.SourceFileNumber,
				hex.EncodeToString(e.OriginalCRC[:]), hex.EncodeToString(e.ExportedCRC[:]), opaque}
			if !yield(row) {
				return
			}
		}
	}

	return bi.insertSource(ctx, src, VFEntriesTable, rows)
}

func (bi *BulkInserter) insertSource(ctx context.Context, src *Source, table string, rows iter.Seq[[]any]) (int64, error) {
	sourceID, err := bi.replaceSource(ctx, src)
	if err != nil {
		return 0, fmt.Errorf("registering source %s: %w", src.Path, err)
	}

	insertSQL, err := generateInsertSQL(table)
	if err != nil {
		return 0, err
	}

	var (
		inserted int64
		batch    = make([][]any, 0, bi.batchSize)
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := bi.insertBatchWithRetry(ctx, insertSQL, batch); err != nil {
			return fmt.Errorf("inserting batch %d-%d into %s: %w", inserted, inserted+int64(len(batch))-1, table, err)
		}
		inserted += int64(len(batch))
		batch = batch[:0]
		return nil
	}

	for row := range rows {
		batch = append(batch, append([]any{sourceID}, row...))
		if len(batch) == bi.batchSize {
			if err = flush(); err != nil {
				break
			}
		}
	}
	if err == nil {
		err = flush()
	}

	if err != nil {
		if _, cleanupErr := bi.db.Exec(context.WithoutCancel(ctx), `DELETE FROM sources WHERE id = ?`, sourceID); cleanupErr != nil {
			slog.Warn("Failed to remove partial export", "path", src.Path, "error", cleanupErr)
		}
		return 0, err
	}

	slog.Debug("Inserted source", "path", src.Path, "table", table, "rows", inserted)
	return inserted, nil
}

// replaceSource drops any previous export of src.Path, cascading to its
// entries, and inserts a fresh sources row.
func (bi *BulkInserter) replaceSource(ctx context.Context, src *Source) (int64, error) {
	tx, err := bi.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback() // Safe to call even after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM sources WHERE path = ?`, src.Path); err != nil {
		return 0, fmt.Errorf("removing previous export: %w", err)
	}

	var magic any
	if src.Magic != "" {
		magic = src.Magic
	}
	var version any
	if src.ManifestVersion != nil {
		version = *src.ManifestVersion
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO sources (path, format, profile, entry_count, magic, manifest_version, header) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		src.Path, src.Format, src.Profile.String(), src.EntryCount, magic, version, src.Header)
	if err != nil {
		return 0, fmt.Errorf("inserting source: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading source id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing source: %w", err)
	}
	return id, nil
}

// generateInsertSQL builds a parameterized INSERT covering every column of table
func generateInsertSQL(table string) (string, error) {
	for _, schema := range Schemas {
		if schema.Name != table {
			continue
		}
		columns := make([]string, len(schema.Columns))
		placeholders := make([]string, len(schema.Columns))
		for i, col := range schema.Columns {
			columns[i] = quoteSQLIdentifier(col.Name)
			placeholders[i] = "?"
		}
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			quoteSQLIdentifier(table), strings.Join(columns, ", "), strings.Join(placeholders, ", ")), nil
	}
	return "", fmt.Errorf("unknown table %s", table)
}

func (bi *BulkInserter) insertBatchWithRetry(ctx context.Context, insertSQL string, batch [][]any) error {
	delay := bi.retryDelay
	for attempt := 0; ; attempt++ {
		err := bi.insertBatch(ctx, insertSQL, batch)
		if err == nil || !isBusy(err) || attempt >= bi.maxRetries {
			return err
		}

		slog.Debug("Database busy, retrying batch", "attempt", attempt+1, "delay", delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// insertBatch inserts a single batch of rows within a transaction
func (bi *BulkInserter) insertBatch(ctx context.Context, insertSQL string, batch [][]any) error {
	tx, err := bi.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // Safe to call even after commit

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range batch {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("inserting row %v: %w", row[1], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}
