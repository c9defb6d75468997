package database

import (
	"database/sql"
	"fmt"
)

// schema mirrors docs/schema.sql. Kept inline so migrations work no
// matter what the process working directory is (in-memory test stores
// included).
const schema = `
CREATE TABLE IF NOT EXISTS server_settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS libraries (
    library_id INTEGER PRIMARY KEY,
    title      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS series (
    series_id INTEGER PRIMARY KEY,
    title     TEXT NOT NULL,
    read      INTEGER NOT NULL DEFAULT 0,
    pages     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS volumes (
    volume_id  INTEGER PRIMARY KEY,
    series_id  INTEGER NOT NULL,
    chapter_id INTEGER NOT NULL,
    title      TEXT NOT NULL,
    read       INTEGER NOT NULL DEFAULT 0,
    pages      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS series_covers (
    series_id INTEGER PRIMARY KEY,
    filepath  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS volume_covers (
    volume_id INTEGER PRIMARY KEY,
    filepath  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS manga_pictures (
    chapter_id INTEGER NOT NULL,
    page       INTEGER NOT NULL,
    filepath   TEXT NOT NULL,
    UNIQUE (chapter_id, page)
);

CREATE TABLE IF NOT EXISTS read_progress (
    series_id  INTEGER NOT NULL,
    volume_id  INTEGER NOT NULL,
    chapter_id INTEGER NOT NULL,
    page       INTEGER NOT NULL,
    UNIQUE (series_id, volume_id, chapter_id)
);
`

func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
