// Package postgres implements the PostgreSQL persistence layer of the Tumae
// matching engine.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE QUESTIONS AND ANSWERS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create questions and answers tables
-- Version: 001

-- Engine view of a community question: identity, owner, acceptance state,
-- and the version used by the optimistic check-and-flip.
CREATE TABLE IF NOT EXISTS questions (
    id BIGINT PRIMARY KEY,
    owner_id BIGINT NOT NULL,
    state VARCHAR(20) NOT NULL DEFAULT 'open',
    accepted_answer_id BIGINT,
    version BIGINT NOT NULL DEFAULT 1,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_state CHECK (state IN ('open', 'accepted')),
    CONSTRAINT valid_version CHECK (version >= 1),
    -- An accepted question always names its answer; an open one never does.
    CONSTRAINT accepted_has_answer CHECK (
        (state = 'open' AND accepted_answer_id IS NULL) OR
        (state = 'accepted' AND accepted_answer_id IS NOT NULL)
    )
);

CREATE INDEX IF NOT EXISTS idx_questions_owner_id ON questions(owner_id);
CREATE INDEX IF NOT EXISTS idx_questions_state ON questions(state) WHERE state = 'open';

-- Engine view of an answer: parent question, author, accepted flag.
CREATE TABLE IF NOT EXISTS answers (
    id BIGINT PRIMARY KEY,
    question_id BIGINT NOT NULL REFERENCES questions(id),
    author_id BIGINT NOT NULL,
    accepted BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_answers_question_id ON answers(question_id);
CREATE INDEX IF NOT EXISTS idx_answers_author_id ON answers(author_id);

-- At most one accepted answer per question, enforced by the database as the
-- last line of defense behind the accept transaction.
CREATE UNIQUE INDEX IF NOT EXISTS idx_answers_one_accepted
    ON answers(question_id) WHERE accepted;
`

const migration001Down = `
DROP TABLE IF EXISTS answers;
DROP TABLE IF EXISTS questions;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE REPUTATION RECORDS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create reputation records table
-- Version: 002

-- Per-tutor accepted-answer counter. Monotonically non-decreasing; the only
-- writer is the atomic upsert in the accept transaction.
CREATE TABLE IF NOT EXISTS reputation_records (
    tutor_id BIGINT PRIMARY KEY,
    accepted_count BIGINT NOT NULL DEFAULT 0,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_accepted_count CHECK (accepted_count >= 0)
);

-- Ranking reads: counter descending, tutor id ascending.
CREATE INDEX IF NOT EXISTS idx_reputation_ranking
    ON reputation_records(accepted_count DESC, tutor_id ASC);
`

const migration002Down = `
DROP TABLE IF EXISTS reputation_records;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE TUTOR PROFILES
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create tutor profile tables
-- Version: 003

-- Profile dimensions the match scorer needs. The profile service owns the
-- full tutor records; this is the engine's read model.
CREATE TABLE IF NOT EXISTS tutor_profiles (
    tutor_id BIGINT PRIMARY KEY,
    region_id BIGINT NOT NULL DEFAULT 0,
    hourly_rate BIGINT NOT NULL DEFAULT 0,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_hourly_rate CHECK (hourly_rate >= 0)
);

CREATE INDEX IF NOT EXISTS idx_tutor_profiles_region ON tutor_profiles(region_id);

-- Subjects a tutor offers (catalog ids).
CREATE TABLE IF NOT EXISTS tutor_subjects (
    tutor_id BIGINT NOT NULL REFERENCES tutor_profiles(tutor_id) ON DELETE CASCADE,
    subject_id BIGINT NOT NULL,

    PRIMARY KEY (tutor_id, subject_id)
);

CREATE INDEX IF NOT EXISTS idx_tutor_subjects_subject ON tutor_subjects(subject_id);

-- Weekly availability windows: weekday (0 = Monday) plus a half-open
-- [start, end) interval in minutes since midnight.
CREATE TABLE IF NOT EXISTS tutor_availabilities (
    id BIGSERIAL PRIMARY KEY,
    tutor_id BIGINT NOT NULL REFERENCES tutor_profiles(tutor_id) ON DELETE CASCADE,
    weekday SMALLINT NOT NULL,
    start_minute INTEGER NOT NULL,
    end_minute INTEGER NOT NULL,

    CONSTRAINT valid_weekday CHECK (weekday >= 0 AND weekday <= 6),
    CONSTRAINT valid_window CHECK (
        start_minute >= 0 AND end_minute <= 1440 AND start_minute < end_minute
    )
);

CREATE INDEX IF NOT EXISTS idx_tutor_availabilities_tutor ON tutor_availabilities(tutor_id);
`

const migration003Down = `
DROP TABLE IF EXISTS tutor_availabilities;
DROP TABLE IF EXISTS tutor_subjects;
DROP TABLE IF EXISTS tutor_profiles;
`
