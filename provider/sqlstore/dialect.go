package sqlstore

import (
	"strings"
	"time"

	"github.com/unkn0wn-root/cachekit"
)

// dialect holds the statements for one SQL engine. Statements use sqlx named
// parameters and are rebound to the driver's placeholder style at call time.
type dialect struct {
	name      string
	driver    string // database/sql driver name
	tableRef  string // schema-qualified, quoted
	tableName string // unquoted, for logs and hooks

	timeArg func(time.Time) any

	tableExists    string
	get            string
	upsert         string
	insertIfAbsent string
	increment      string
	expire         string
	deleteOne      string
	deleteMany     string // sqlx.In style, expanded per call
	sweep          string
	ddl            []string
}

// Portable statements. Identifiers are written ANSI-quoted and converted to
// brackets for SQL Server.
const (
	getSQL        = `SELECT "Value" FROM {t} WHERE "Key" = :key AND "ExpiresAt" > :now`
	expireSQL     = `UPDATE {t} SET "ExpiresAt" = :expires WHERE "Key" = :key AND "ExpiresAt" > :now`
	deleteOneSQL  = `DELETE FROM {t} WHERE "Key" = :key`
	deleteManySQL = `DELETE FROM {t} WHERE "Key" IN (?)`
	sweepSQL      = `DELETE FROM {t} WHERE "ExpiresAt" <= :now`
)

// ON CONFLICT flavour, shared by PostgreSQL and SQLite. {n} is the bare
// quoted table name used to reference the existing row.
const (
	upsertOnConflictSQL = `INSERT INTO {t} ("Key", "Value", "ExpiresAt", "CreatedAt")
VALUES (:key, :value, :expires, :created)
ON CONFLICT ("Key") DO UPDATE SET "Value" = excluded."Value", "ExpiresAt" = excluded."ExpiresAt"`

	insertIfAbsentOnConflictSQL = `INSERT INTO {t} ("Key", "Value", "ExpiresAt", "CreatedAt")
VALUES (:key, :value, :expires, :created)
ON CONFLICT ("Key") DO UPDATE SET "Value" = excluded."Value", "ExpiresAt" = excluded."ExpiresAt", "CreatedAt" = excluded."CreatedAt"
WHERE {n}."ExpiresAt" <= :now`

	incrementOnConflictSQL = `INSERT INTO {t} ("Key", "Value", "ExpiresAt", "CreatedAt")
VALUES (:key, CAST(:delta AS {text}), :default_expiry, :created)
ON CONFLICT ("Key") DO UPDATE SET
	"Value" = CAST(CASE WHEN {n}."ExpiresAt" > :now THEN COALESCE(CAST({n}."Value" AS {int}), 0) ELSE 0 END + :delta AS {text}),
	"ExpiresAt" = CASE WHEN {n}."ExpiresAt" > :now THEN {n}."ExpiresAt" ELSE excluded."ExpiresAt" END
RETURNING "Value"`
)

// SQL Server has no ON CONFLICT; MERGE with HOLDLOCK serializes racing
// writers on the key range.
const (
	upsertMergeSQL = `MERGE {t} WITH (HOLDLOCK) AS target
USING (SELECT :key AS "Key") AS source ON target."Key" = source."Key"
WHEN MATCHED THEN UPDATE SET "Value" = :value, "ExpiresAt" = :expires
WHEN NOT MATCHED THEN INSERT ("Key", "Value", "ExpiresAt", "CreatedAt") VALUES (:key, :value, :expires, :created);`

	insertIfAbsentMergeSQL = `MERGE {t} WITH (HOLDLOCK) AS target
USING (SELECT :key AS "Key") AS source ON target."Key" = source."Key"
WHEN MATCHED AND target."ExpiresAt" <= :now THEN UPDATE SET "Value" = :value, "ExpiresAt" = :expires, "CreatedAt" = :created
WHEN NOT MATCHED THEN INSERT ("Key", "Value", "ExpiresAt", "CreatedAt") VALUES (:key, :value, :expires, :created);`

	incrementMergeSQL = `MERGE {t} WITH (HOLDLOCK) AS target
USING (SELECT :key AS "Key") AS source ON target."Key" = source."Key"
WHEN MATCHED THEN UPDATE SET
	"Value" = CAST(CASE WHEN target."ExpiresAt" > :now THEN COALESCE(CAST(target."Value" AS BIGINT), 0) ELSE 0 END + :delta AS NVARCHAR(MAX)),
	"ExpiresAt" = CASE WHEN target."ExpiresAt" > :now THEN target."ExpiresAt" ELSE :default_expiry END
WHEN NOT MATCHED THEN INSERT ("Key", "Value", "ExpiresAt", "CreatedAt") VALUES (:key, CAST(:delta AS NVARCHAR(MAX)), :default_expiry, :created)
OUTPUT inserted."Value";`
)

var bracketize = strings.NewReplacer(
	`"Key"`, `[Key]`,
	`"Value"`, `[Value]`,
	`"ExpiresAt"`, `[ExpiresAt]`,
	`"CreatedAt"`, `[CreatedAt]`,
)

func newDialect(opts cachekit.SQLOptions) (dialect, error) {
	table, schema := opts.TableName, opts.SchemaName
	d := dialect{name: opts.Driver, tableName: table}

	switch opts.Driver {
	case cachekit.ProviderSQLServer:
		d.driver = "sqlserver"
		d.tableRef = "[" + schema + "].[" + table + "]"
		d.timeArg = func(t time.Time) any { return t.UTC() }
		d.tableExists = `SELECT COUNT(*) FROM sys.tables t JOIN sys.schemas s ON t.schema_id = s.schema_id WHERE s.name = :schema AND t.name = :table`
		r := strings.NewReplacer("{t}", d.tableRef)
		fix := func(q string) string { return bracketize.Replace(r.Replace(q)) }
		d.get, d.expire, d.deleteOne, d.deleteMany, d.sweep = fix(getSQL), fix(expireSQL), fix(deleteOneSQL), fix(deleteManySQL), fix(sweepSQL)
		d.upsert, d.insertIfAbsent, d.increment = fix(upsertMergeSQL), fix(insertIfAbsentMergeSQL), fix(incrementMergeSQL)

	case cachekit.ProviderPostgres, cachekit.ProviderSQLite:
		name := `"` + table + `"`
		d.tableRef = name
		intType, textType := "INTEGER", "TEXT"
		if opts.Driver == cachekit.ProviderPostgres {
			d.driver = "postgres"
			d.tableRef = `"` + schema + `".` + name
			d.timeArg = func(t time.Time) any { return t.UTC() }
			d.tableExists = `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = :schema AND table_name = :table`
			intType = "BIGINT"
		} else {
			d.driver = "sqlite"
			d.timeArg = func(t time.Time) any { return t.UnixMilli() }
			d.tableExists = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = :table`
		}
		r := strings.NewReplacer("{t}", d.tableRef, "{n}", name, "{int}", intType, "{text}", textType)
		d.get, d.expire, d.deleteOne, d.deleteMany, d.sweep = r.Replace(getSQL), r.Replace(expireSQL), r.Replace(deleteOneSQL), r.Replace(deleteManySQL), r.Replace(sweepSQL)
		d.upsert, d.insertIfAbsent, d.increment = r.Replace(upsertOnConflictSQL), r.Replace(insertIfAbsentOnConflictSQL), r.Replace(incrementOnConflictSQL)

	default:
		return dialect{}, cachekit.InvalidArgument("sql: unknown driver %q", opts.Driver)
	}

	d.ddl = CreateTableStatements(opts.Driver, schema, table)
	return d, nil
}
