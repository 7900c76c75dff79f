package sqlite

// Schema DDL. Statements are idempotent so an existing database is reused.
const (
	createStorageItems = `CREATE TABLE IF NOT EXISTS storage_items (
    scope TEXT NOT NULL,
    key TEXT NOT NULL,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (scope, key)
);`

	createDatasetRows = `CREATE TABLE IF NOT EXISTS dataset_rows (
    dataset TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    data TEXT NOT NULL,
    PRIMARY KEY (dataset, ordinal)
);`
)

// Index DDL.
const (
	idxStorageItemsScope = `CREATE INDEX IF NOT EXISTS idx_storage_items_scope ON storage_items(scope);`
)

// schemaDDL lists all statements in execution order.
var schemaDDL = []string{
	createStorageItems,
	createDatasetRows,
	idxStorageItemsScope,
}
