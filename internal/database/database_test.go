package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jchantrell/ssoformats/internal/codec"
	"github.com/jchantrell/ssoformats/internal/text"
	"github.com/jchantrell/ssoformats/internal/vf"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(DefaultDatabaseOptions(filepath.Join(t.TempDir(), "nested", "export.db")))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, NewDDLManager(db).CreateSchemas(context.Background(), nil))
	return db
}

func textFile(t *testing.T, opts *text.Options, pairs ...string) *text.File {
	t.Helper()
	f := text.NewFile(opts)
	for i := 0; i+1 < len(pairs); i += 2 {
		e := text.NewEntry()
		e.SetKey(pairs[i])
		e.SetValue(pairs[i+1])
		require.NoError(t, f.AddEntry(e))
	}
	return f
}

func TestNewDatabaseValidation(t *testing.T) {
	_, err := NewDatabase(nil)
	assert.Error(t, err)

	_, err = NewDatabase(&DatabaseOptions{})
	assert.Error(t, err)
}

func TestCreateSchemas(t *testing.T) {
	db, err := NewDatabase(DefaultDatabaseOptions(filepath.Join(t.TempDir(), "schema.db")))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	has, err := db.HasUserTables(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	var progress []string
	ddl := NewDDLManager(db)
	require.NoError(t, ddl.CreateSchemas(ctx, func(current, total int, description string) {
		assert.Equal(t, len(Schemas), total)
		progress = append(progress, description)
	}))
	assert.Equal(t, []string{SourcesTable, TextEntriesTable, VFEntriesTable}, progress)

	// idempotent
	require.NoError(t, ddl.CreateSchemas(ctx, nil))

	tables, err := db.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{SourcesTable, TextEntriesTable, VFEntriesTable}, tables)

	columns, err := db.TableInfo(ctx, VFEntriesTable)
	require.NoError(t, err)
	require.Len(t, columns, len(Schemas[2].Columns))
	assert.Equal(t, "source_id", columns[0].Name)
	assert.True(t, columns[0].PrimaryKey)
	assert.True(t, columns[0].NotNull)

	_, err = db.TableInfo(ctx, "missing")
	assert.Error(t, err)
}

func TestGenerateTableDDL(t *testing.T) {
	ddl := NewDDLManager(nil)

	sql, err := ddl.GenerateTableDDL(&TableSchema{
		Name:        "t",
		Columns:     []Column{{Name: "a", Type: "INTEGER", Constraint: "NOT NULL"}, {Name: "b", Type: "TEXT"}},
		Constraints: []string{"PRIMARY KEY (a)"},
	})
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS \"t\" (\n    \"a\" INTEGER NOT NULL,\n    \"b\" TEXT,\n    PRIMARY KEY (a)\n)", sql)

	_, err = ddl.GenerateTableDDL(&TableSchema{Name: "empty"})
	assert.Error(t, err)
	_, err = ddl.GenerateTableDDL(nil)
	assert.Error(t, err)

	assert.Equal(t, []string{`CREATE INDEX IF NOT EXISTS "idx_t_b" ON "t" ("b")`},
		ddl.GenerateIndexDDL(&TableSchema{Name: "t", Indexes: [][]string{{"b"}}}))
}

func TestInsertTextAndQuery(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	bi := NewBulkInserter(db, &BulkInsertOptions{BatchSize: 2})
	n, err := bi.InsertText(ctx, "lang/en.dat", textFile(t, nil, "greeting", "hello", "farewell", "bye", "empty", ""))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	columns, rows, err := db.QueryAll(ctx,
		`SELECT key, value, value_length FROM text_entries ORDER BY idx`)
	require.NoError(t, err)
	assert.Equal(t, []string{"key", "value", "value_length"}, columns)
	require.Len(t, rows, 3)
	assert.Equal(t, "greeting", rows[0][0])
	assert.Equal(t, "hello", rows[0][1])
	assert.Equal(t, int64(5), rows[0][2])
	assert.Equal(t, "", rows[2][1])

	var format, profile string
	var count int
	require.NoError(t, db.QueryRow(ctx,
		`SELECT format, profile, entry_count FROM sources WHERE path = ?`, "lang/en.dat").Scan(&format, &profile, &count))
	assert.Equal(t, "text", format)
	assert.Equal(t, "narrow/heap", profile)
	assert.Equal(t, 3, count)
}

func TestInsertRawValuesAsBlobs(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	opts := text.DefaultOptions()
	opts.Profile.Value = codec.ValueRaw
	_, err := NewBulkInserter(db, nil).InsertText(ctx, "raw.dat", textFile(t, opts, "k", "h\x00i\x00"))
	require.NoError(t, err)

	_, rows, err := db.QueryAll(ctx, `SELECT value, typeof(value) FROM text_entries`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []byte("h\x00i\x00"), rows[0][0])
	assert.Equal(t, "blob", rows[0][1])
}

func TestInsertReplacesPreviousExport(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	bi := NewBulkInserter(db, nil)

	_, err := bi.InsertText(ctx, "same.dat", textFile(t, nil, "a", "1", "b", "2"))
	require.NoError(t, err)
	_, err = bi.InsertText(ctx, "same.dat", textFile(t, nil, "c", "3"))
	require.NoError(t, err)

	var sources, entries int
	require.NoError(t, db.QueryRow(ctx, `SELECT COUNT(*) FROM sources`).Scan(&sources))
	require.NoError(t, db.QueryRow(ctx, `SELECT COUNT(*) FROM text_entries`).Scan(&entries))
	assert.Equal(t, 1, sources)
	assert.Equal(t, 1, entries)
}

func TestInsertVF(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	f := vf.NewFile(vf.DefaultMagic, 4, nil)
	e := vf.NewEntry()
	e.SetName("a.txt")
	e.SetPath("dir/a.txt")
	e.FileSize = 10
	e.SourceFileNumber = 2
	require.NoError(t, e.SetOriginalCRC([]byte{0xde, 0xad, 0xbe, 0xef}))
	require.NoError(t, f.AddEntry(e))

	n, err := NewBulkInserter(db, nil).InsertVF(ctx, "manifest.vf", f)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, rows, err := db.QueryAll(ctx, `
		SELECT s.magic, s.manifest_version, v.file_name, v.file_path, v.file_size, v.original_crc, length(v.opaque)
		FROM vf_entries v JOIN sources s ON s.id = v.source_id`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []any{"VFMF", int64(4), "a.txt", "dir/a.txt", int64(10), "deadbeef", int64(24)}, rows[0])
}

func TestInsertNil(t *testing.T) {
	db := openTestDB(t)
	bi := NewBulkInserter(db, nil)

	_, err := bi.InsertText(context.Background(), "x", nil)
	assert.Error(t, err)
	_, err = bi.InsertVF(context.Background(), "x", nil)
	assert.Error(t, err)
}

func TestClosedDatabase(t *testing.T) {
	db, err := NewDatabase(DefaultDatabaseOptions(filepath.Join(t.TempDir(), "closed.db")))
	require.NoError(t, err)
	require.NoError(t, db.Close())
	require.NoError(t, db.Close())

	_, err = db.Tables(context.Background())
	assert.Error(t, err)
}
