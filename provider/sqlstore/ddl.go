package sqlstore

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/unkn0wn-root/cachekit"
)

// CreateTableStatements returns the DDL that provisions the cache table and
// its ExpiresAt index for driver. The provider never runs it itself.
func CreateTableStatements(driver, schema, table string) []string {
	idx := "IX_" + table + "_ExpiresAt"
	switch driver {
	case cachekit.ProviderSQLServer:
		ref := "[" + schema + "].[" + table + "]"
		return []string{
			`CREATE TABLE ` + ref + ` (
    [Key] NVARCHAR(900) NOT NULL PRIMARY KEY,
    [Value] NVARCHAR(MAX) NULL,
    [ExpiresAt] DATETIME2 NOT NULL,
    [CreatedAt] DATETIME2 NOT NULL DEFAULT GETUTCDATE()
)`,
			`CREATE INDEX [` + idx + `] ON ` + ref + ` ([ExpiresAt])`,
		}
	case cachekit.ProviderPostgres:
		ref := `"` + schema + `"."` + table + `"`
		return []string{
			`CREATE TABLE ` + ref + ` (
    "Key" VARCHAR(900) NOT NULL PRIMARY KEY,
    "Value" TEXT NULL,
    "ExpiresAt" TIMESTAMP NOT NULL,
    "CreatedAt" TIMESTAMP NOT NULL DEFAULT (NOW() AT TIME ZONE 'utc')
)`,
			`CREATE INDEX "` + idx + `" ON ` + ref + ` ("ExpiresAt")`,
		}
	default:
		ref := `"` + table + `"`
		return []string{
			`CREATE TABLE ` + ref + ` (
    "Key" TEXT NOT NULL PRIMARY KEY,
    "Value" TEXT NULL,
    "ExpiresAt" INTEGER NOT NULL,
    "CreatedAt" INTEGER NOT NULL DEFAULT (CAST(strftime('%s', 'now') AS INTEGER) * 1000)
)`,
			`CREATE INDEX "` + idx + `" ON ` + ref + ` ("ExpiresAt")`,
		}
	}
}

// CreateTableScript is CreateTableStatements joined into one script.
func CreateTableScript(driver, schema, table string) string {
	return strings.Join(CreateTableStatements(driver, schema, table), ";\n") + ";"
}

// verifyTable fails with ErrProvisioning when the cache table is missing or
// cannot be checked. The error carries the DDL needed to fix it.
func (p *Provider) verifyTable(ctx context.Context) error {
	script := strings.Join(p.d.ddl, ";\n") + ";"

	q, args, err := p.bind(p.d.tableExists, map[string]any{
		"schema": p.schema,
		"table":  p.d.tableName,
	})
	if err != nil {
		return err
	}

	var n int
	if err := p.db.QueryRowxContext(ctx, q, args...).Scan(&n); err != nil {
		return errors.Mark(
			errors.WithHint(
				errors.Wrapf(err, "verify cache table %s; if it does not exist, create it with:\n%s", p.d.tableRef, script),
				script),
			cachekit.ErrProvisioning)
	}
	if n == 0 {
		return errors.Mark(
			errors.WithHint(
				errors.Newf("cache table %s does not exist; create it with:\n%s", p.d.tableRef, script),
				script),
			cachekit.ErrProvisioning)
	}
	return nil
}
