package store

import "entgo.io/ent/dialect"

const (
	tableAssessments = "assessments"
	tableLLMRequests = "llm_requests"
)

// Timestamps are stored as unix milliseconds so both dialects scan them
// the same way.
var schema = map[string][]string{
	dialect.SQLite: {
		`CREATE TABLE IF NOT EXISTS assessments (
			id TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			source TEXT NOT NULL,
			vector TEXT NOT NULL,
			label INTEGER,
			confidence REAL,
			classifier TEXT NOT NULL DEFAULT '',
			model_mode TEXT NOT NULL,
			risk_score INTEGER NOT NULL,
			risk_tier TEXT NOT NULL,
			statuses TEXT NOT NULL,
			narrative TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS assessments_created_at ON assessments (created_at)`,
		`CREATE TABLE IF NOT EXISTS llm_requests (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at INTEGER NOT NULL,
			provider TEXT NOT NULL,
			model TEXT NOT NULL,
			purpose TEXT NOT NULL,
			input_tokens INTEGER NOT NULL DEFAULT 0,
			output_tokens INTEGER NOT NULL DEFAULT 0,
			latency_ms INTEGER NOT NULL DEFAULT 0,
			success BOOLEAN NOT NULL,
			error_message TEXT NOT NULL DEFAULT '',
			request_body TEXT NOT NULL DEFAULT '',
			response_body TEXT NOT NULL DEFAULT ''
		)`,
	},
	dialect.Postgres: {
		`CREATE TABLE IF NOT EXISTS assessments (
			id TEXT PRIMARY KEY,
			created_at BIGINT NOT NULL,
			source TEXT NOT NULL,
			vector TEXT NOT NULL,
			label INTEGER,
			confidence DOUBLE PRECISION,
			classifier TEXT NOT NULL DEFAULT '',
			model_mode TEXT NOT NULL,
			risk_score INTEGER NOT NULL,
			risk_tier TEXT NOT NULL,
			statuses TEXT NOT NULL,
			narrative TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS assessments_created_at ON assessments (created_at)`,
		`CREATE TABLE IF NOT EXISTS llm_requests (
			id BIGSERIAL PRIMARY KEY,
			created_at BIGINT NOT NULL,
			provider TEXT NOT NULL,
			model TEXT NOT NULL,
			purpose TEXT NOT NULL,
			input_tokens INTEGER NOT NULL DEFAULT 0,
			output_tokens INTEGER NOT NULL DEFAULT 0,
			latency_ms BIGINT NOT NULL DEFAULT 0,
			success BOOLEAN NOT NULL,
			error_message TEXT NOT NULL DEFAULT '',
			request_body TEXT NOT NULL DEFAULT '',
			response_body TEXT NOT NULL DEFAULT ''
		)`,
	},
}
