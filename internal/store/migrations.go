package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS summaries (
	message_id TEXT PRIMARY KEY,
	summary    TEXT NOT NULL,
	model      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS sent_replies (
	id        TEXT PRIMARY KEY,
	thread_id TEXT NOT NULL DEFAULT '',
	recipient TEXT NOT NULL,
	subject   TEXT NOT NULL,
	sent_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sent_replies_sent_at ON sent_replies(sent_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
