package tracker

// TableName is the append-only table recording which revision a database is at.
const TableName = "sqlaltery_migration"

// createSchemaSQL is the DDL for the revision table. "order" strictly
// increases with every stamp; the row with the highest order is current.
const createSchemaSQL = `CREATE TABLE IF NOT EXISTS sqlaltery_migration (
    "order"       INTEGER PRIMARY KEY,
    revision      INTEGER NOT NULL,
    date_applied  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const existsSQL = `SELECT to_regclass('sqlaltery_migration') IS NOT NULL`

const currentSQL = `SELECT revision FROM sqlaltery_migration ORDER BY "order" DESC LIMIT 1`

const stampSQL = `INSERT INTO sqlaltery_migration ("order", revision)
     SELECT COALESCE(MAX("order"), -1) + 1, $1 FROM sqlaltery_migration
     RETURNING "order", revision, date_applied`

const historySQL = `SELECT "order", revision, date_applied FROM sqlaltery_migration ORDER BY "order"`
