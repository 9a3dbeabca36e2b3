package storage

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS repositories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL UNIQUE,
		created_at DATETIME NOT NULL,
		last_analyzed_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS authors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		is_ai INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS commits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		repository_id INTEGER NOT NULL,
		author_id INTEGER NOT NULL,
		hash TEXT NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		committed_at DATETIME NOT NULL,
		day TEXT NOT NULL,
		added_lines INTEGER NOT NULL DEFAULT 0,
		deleted_lines INTEGER NOT NULL DEFAULT 0,
		files_changed INTEGER NOT NULL DEFAULT 0,
		UNIQUE (repository_id, hash),
		FOREIGN KEY (repository_id) REFERENCES repositories(id),
		FOREIGN KEY (author_id) REFERENCES authors(id)
	);

	CREATE TABLE IF NOT EXISTS commit_co_authors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		commit_id INTEGER NOT NULL,
		author_id INTEGER NOT NULL,
		UNIQUE (commit_id, author_id),
		FOREIGN KEY (commit_id) REFERENCES commits(id),
		FOREIGN KEY (author_id) REFERENCES authors(id)
	);

	CREATE TABLE IF NOT EXISTS daily_author_stats (
		repository_id INTEGER NOT NULL,
		author_id INTEGER NOT NULL,
		day TEXT NOT NULL,
		commits_count INTEGER NOT NULL DEFAULT 0,
		added_lines INTEGER NOT NULL DEFAULT 0,
		deleted_lines INTEGER NOT NULL DEFAULT 0,
		files_changed INTEGER NOT NULL DEFAULT 0,
		co_authored_commits INTEGER NOT NULL DEFAULT 0,
		co_authored_added INTEGER NOT NULL DEFAULT 0,
		co_authored_deleted INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (repository_id, author_id, day),
		FOREIGN KEY (repository_id) REFERENCES repositories(id),
		FOREIGN KEY (author_id) REFERENCES authors(id)
	);

	CREATE TABLE IF NOT EXISTS analysis_runs (
		id TEXT PRIMARY KEY,
		repository_id INTEGER NOT NULL,
		status TEXT NOT NULL,
		kind TEXT NOT NULL,
		date_from TEXT NOT NULL,
		date_to TEXT NOT NULL,
		days_processed INTEGER NOT NULL DEFAULT 0,
		days_failed INTEGER NOT NULL DEFAULT 0,
		commits_ingested INTEGER NOT NULL DEFAULT 0,
		commits_skipped INTEGER NOT NULL DEFAULT 0,
		advisory TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		started_at DATETIME,
		completed_at DATETIME,
		FOREIGN KEY (repository_id) REFERENCES repositories(id)
	);

	CREATE INDEX IF NOT EXISTS idx_commits_repo_day ON commits(repository_id, day);
	CREATE INDEX IF NOT EXISTS idx_co_authors_author ON commit_co_authors(author_id);
	CREATE INDEX IF NOT EXISTS idx_daily_stats_day ON daily_author_stats(day);
	CREATE INDEX IF NOT EXISTS idx_runs_repo ON analysis_runs(repository_id, created_at);
`

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS repositories (
		id BIGSERIAL PRIMARY KEY,
		path TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL,
		last_analyzed_at TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS authors (
		id BIGSERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		is_ai BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS commits (
		id BIGSERIAL PRIMARY KEY,
		repository_id BIGINT NOT NULL REFERENCES repositories(id),
		author_id BIGINT NOT NULL REFERENCES authors(id),
		hash TEXT NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		committed_at TIMESTAMPTZ NOT NULL,
		day TEXT NOT NULL,
		added_lines INTEGER NOT NULL DEFAULT 0,
		deleted_lines INTEGER NOT NULL DEFAULT 0,
		files_changed INTEGER NOT NULL DEFAULT 0,
		UNIQUE (repository_id, hash)
	);

	CREATE TABLE IF NOT EXISTS commit_co_authors (
		id BIGSERIAL PRIMARY KEY,
		commit_id BIGINT NOT NULL REFERENCES commits(id),
		author_id BIGINT NOT NULL REFERENCES authors(id),
		UNIQUE (commit_id, author_id)
	);

	CREATE TABLE IF NOT EXISTS daily_author_stats (
		repository_id BIGINT NOT NULL REFERENCES repositories(id),
		author_id BIGINT NOT NULL REFERENCES authors(id),
		day TEXT NOT NULL,
		commits_count INTEGER NOT NULL DEFAULT 0,
		added_lines INTEGER NOT NULL DEFAULT 0,
		deleted_lines INTEGER NOT NULL DEFAULT 0,
		files_changed INTEGER NOT NULL DEFAULT 0,
		co_authored_commits INTEGER NOT NULL DEFAULT 0,
		co_authored_added INTEGER NOT NULL DEFAULT 0,
		co_authored_deleted INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (repository_id, author_id, day)
	);

	CREATE TABLE IF NOT EXISTS analysis_runs (
		id TEXT PRIMARY KEY,
		repository_id BIGINT NOT NULL REFERENCES repositories(id),
		status TEXT NOT NULL,
		kind TEXT NOT NULL,
		date_from TEXT NOT NULL,
		date_to TEXT NOT NULL,
		days_processed INTEGER NOT NULL DEFAULT 0,
		days_failed INTEGER NOT NULL DEFAULT 0,
		commits_ingested INTEGER NOT NULL DEFAULT 0,
		commits_skipped INTEGER NOT NULL DEFAULT 0,
		advisory TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		started_at TIMESTAMPTZ,
		completed_at TIMESTAMPTZ
	);

	CREATE INDEX IF NOT EXISTS idx_commits_repo_day ON commits(repository_id, day);
	CREATE INDEX IF NOT EXISTS idx_co_authors_author ON commit_co_authors(author_id);
	CREATE INDEX IF NOT EXISTS idx_daily_stats_day ON daily_author_stats(day);
	CREATE INDEX IF NOT EXISTS idx_runs_repo ON analysis_runs(repository_id, created_at);
`
