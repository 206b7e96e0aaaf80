package prcache

const schema = `
CREATE TABLE IF NOT EXISTS prs (
    number INTEGER PRIMARY KEY,
    title TEXT NOT NULL,
    author TEXT,
    merged_at TEXT,
    updated_at TEXT
);

CREATE TABLE IF NOT EXISTS pr_files (
    pr_number INTEGER NOT NULL REFERENCES prs(number),
    position INTEGER NOT NULL,
    path TEXT NOT NULL,
    PRIMARY KEY (pr_number, position)
);

CREATE INDEX IF NOT EXISTS idx_pr_files_number ON pr_files(pr_number);

CREATE TABLE IF NOT EXISTS tag_ranges (
    range_key TEXT PRIMARY KEY,
    pr_numbers TEXT NOT NULL,
    fetched_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    start_ref TEXT NOT NULL,
    end_ref TEXT NOT NULL,
    started_at TIMESTAMP,
    groups INTEGER,
    compiler_groups INTEGER,
    parse_warnings INTEGER
);
`
