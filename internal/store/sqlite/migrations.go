package sqlite

// Derived per-participant columns (last_written*, keywords) are written on
// every save so listings never have to replay the message log.
const schema = `
CREATE TABLE IF NOT EXISTS participants (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL DEFAULT '',
    email       TEXT NOT NULL DEFAULT '',
    created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS threads (
    id          TEXT PRIMARY KEY,
    subject     TEXT NOT NULL DEFAULT '',
    keywords    TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL,
    version     INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS thread_participants (
    thread_id             TEXT NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
    participant_id        TEXT NOT NULL REFERENCES participants(id),
    position              INTEGER NOT NULL,
    is_deleted            BOOLEAN NOT NULL DEFAULT FALSE,
    last_written          INTEGER NOT NULL DEFAULT 0,
    last_written_by_other INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (thread_id, participant_id)
);

CREATE TABLE IF NOT EXISTS messages (
    id          TEXT PRIMARY KEY,
    thread_id   TEXT NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
    position    INTEGER NOT NULL,
    sender_id   TEXT NOT NULL REFERENCES participants(id),
    body        TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS message_reads (
    message_id      TEXT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
    participant_id  TEXT NOT NULL REFERENCES participants(id),
    is_read         BOOLEAN NOT NULL DEFAULT FALSE,
    PRIMARY KEY (message_id, participant_id)
);

CREATE INDEX IF NOT EXISTS idx_thread_participants_participant ON thread_participants(participant_id);
CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages(thread_id, position);
CREATE INDEX IF NOT EXISTS idx_message_reads_participant ON message_reads(participant_id, is_read);
`
