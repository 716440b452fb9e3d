package offload

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the resource tables.
const Schema = `
CREATE TABLE IF NOT EXISTS resources (
    id TEXT PRIMARY KEY,
    uri TEXT NOT NULL,
    tool TEXT,
    content_type TEXT NOT NULL,
    encoding TEXT NOT NULL,
    size INTEGER NOT NULL,
    data BLOB,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_resources_created_at ON resources(created_at);
`

const insertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

const getSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const (
	insertResource = `
INSERT INTO resources (id, uri, tool, content_type, encoding, size, data, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    uri = excluded.uri,
    tool = excluded.tool,
    content_type = excluded.content_type,
    encoding = excluded.encoding,
    size = excluded.size,
    data = excluded.data,
    created_at = excluded.created_at;
`

	selectResource = `
SELECT id, uri, tool, content_type, encoding, size, data, created_at
FROM resources WHERE id = ?;
`

	deleteResource = `DELETE FROM resources WHERE id = ?;`

	pruneResources = `DELETE FROM resources WHERE created_at < ?;`
)
