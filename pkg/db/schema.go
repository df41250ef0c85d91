package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- Loads: one row per Populate call, newest is the live dataset version
CREATE TABLE IF NOT EXISTS loads (
    load_id INTEGER PRIMARY KEY AUTOINCREMENT,
    version TEXT NOT NULL,
    loaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    complex_count INTEGER NOT NULL DEFAULT 0,
    participant_count INTEGER NOT NULL DEFAULT 0,
    skipped_rows INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_loads_loaded ON loads(loaded_at DESC);

-- Complexes: one row per Complex Portal accession
CREATE TABLE IF NOT EXISTS complexes (
    complex_id INTEGER PRIMARY KEY AUTOINCREMENT,
    accession TEXT NOT NULL UNIQUE,
    name TEXT,
    taxonomy_id TEXT,
    load_id INTEGER NOT NULL,
    FOREIGN KEY (load_id) REFERENCES loads(load_id)
);

CREATE INDEX IF NOT EXISTS idx_complexes_taxonomy ON complexes(taxonomy_id);

-- Complex participants: proteins, chemicals, RNAs and nested complexes
CREATE TABLE IF NOT EXISTS complex_participants (
    participant_id INTEGER PRIMARY KEY AUTOINCREMENT,
    complex_id INTEGER NOT NULL,
    namespace TEXT NOT NULL,
    identifier TEXT NOT NULL,
    function TEXT NOT NULL,
    FOREIGN KEY (complex_id) REFERENCES complexes(complex_id) ON DELETE CASCADE,
    UNIQUE(complex_id, namespace, identifier)
);

CREATE INDEX IF NOT EXISTS idx_participants_complex ON complex_participants(complex_id);
CREATE INDEX IF NOT EXISTS idx_participants_identifier ON complex_participants(namespace, identifier);

-- Fetches: every download attempt of the remote table
CREATE TABLE IF NOT EXISTS fetches (
    fetch_id INTEGER PRIMARY KEY AUTOINCREMENT,
    uri TEXT NOT NULL,
    fetched_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    success BOOLEAN NOT NULL,
    error_type TEXT,
    error_message TEXT,
    digest TEXT,
    size_bytes INTEGER
);

CREATE INDEX IF NOT EXISTS idx_fetches_time ON fetches(fetched_at);
`
