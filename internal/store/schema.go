package store

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;

-- One row per labeled document; result_json holds the full engine result.
CREATE TABLE IF NOT EXISTS documents (
    doc_id TEXT PRIMARY KEY,
    filename TEXT NOT NULL,
    title TEXT,
    content_hash TEXT NOT NULL,
    anchor_count INTEGER NOT NULL DEFAULT 0,
    unresolved_count INTEGER NOT NULL DEFAULT 0,
    result_json TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents(content_hash);

-- Anchor table rows, queryable without decoding the stored result.
CREATE TABLE IF NOT EXISTS anchors (
    doc_id TEXT NOT NULL,
    anchor_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    kind TEXT NOT NULL,
    role TEXT,
    label TEXT,
    xref TEXT,
    value TEXT,
    level INTEGER NOT NULL DEFAULT 0,
    title TEXT,
    system_id BOOLEAN DEFAULT 0,
    bib_json TEXT,
    PRIMARY KEY (doc_id, anchor_id),
    FOREIGN KEY (doc_id) REFERENCES documents(doc_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_anchors_kind ON anchors(doc_id, kind);
`
