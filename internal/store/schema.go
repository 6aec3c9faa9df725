package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS snapshots (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    fetched_at           TEXT NOT NULL,
    inflation            REAL,
    tbill                REAL,
    bond_yield           REAL,
    tips_yield           REAL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_fetched ON snapshots(fetched_at);
`
