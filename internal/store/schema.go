package store

// schemaVersion is the tag checked against PRAGMA user_version at open.
// A mismatch rebuilds the store; unsynced highlight rows are carried
// across the rebuild (see Open).
const schemaVersion = 1

// Articles are keyed by the remote bookmark id, so a bookmark received
// twice always lands on the same row. Highlights keep a local surrogate
// key because pending rows exist before the server assigns an id; the
// partial unique index blocks re-importing the same server highlight
// twice while leaving pending rows (highlight_id IS NULL) unconstrained.
const schema = `
CREATE TABLE IF NOT EXISTS articles (
	bookmark_id  INTEGER PRIMARY KEY,
	title        TEXT NOT NULL DEFAULT '',
	url          TEXT NOT NULL DEFAULT '',
	content_file TEXT NOT NULL DEFAULT '',
	content_size INTEGER NOT NULL DEFAULT 0,
	progress     REAL NOT NULL DEFAULT 0,
	starred      INTEGER NOT NULL DEFAULT 0,
	is_archived  INTEGER NOT NULL DEFAULT 0,
	time_added   INTEGER NOT NULL DEFAULT 0,
	time_updated INTEGER NOT NULL DEFAULT 0,
	time_synced  INTEGER NOT NULL DEFAULT 0,
	sync_status  TEXT NOT NULL DEFAULT 'synced',
	word_count   INTEGER NOT NULL DEFAULT 0,
	reading_time INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS highlights (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	highlight_id INTEGER,
	bookmark_id  INTEGER NOT NULL,
	text         TEXT NOT NULL,
	note         TEXT NOT NULL DEFAULT '',
	position     INTEGER NOT NULL DEFAULT 0,
	time_created INTEGER NOT NULL DEFAULT 0,
	time_updated INTEGER NOT NULL DEFAULT 0,
	sync_status  TEXT NOT NULL DEFAULT 'pending'
		CHECK (sync_status IN ('synced', 'pending', 'pending_delete'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_highlights_remote
	ON highlights(bookmark_id, highlight_id)
	WHERE highlight_id IS NOT NULL;

CREATE INDEX IF NOT EXISTS idx_highlights_bookmark
	ON highlights(bookmark_id);

CREATE TABLE IF NOT EXISTS queued_requests (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	url        TEXT NOT NULL,
	params     TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS credentials (
	username            TEXT PRIMARY KEY,
	token               TEXT NOT NULL,
	token_secret_sealed TEXT NOT NULL,
	created_at          INTEGER NOT NULL
);
`

// dropSchema removes every table ahead of a rebuild.
const dropSchema = `
DROP INDEX IF EXISTS idx_highlights_remote;
DROP INDEX IF EXISTS idx_highlights_bookmark;
DROP TABLE IF EXISTS articles;
DROP TABLE IF EXISTS highlights;
DROP TABLE IF EXISTS queued_requests;
DROP TABLE IF EXISTS credentials;
`
