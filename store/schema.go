package store

const Schema = `
CREATE TABLE IF NOT EXISTS risk_state (
	day TEXT NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (day, key)
);
`
