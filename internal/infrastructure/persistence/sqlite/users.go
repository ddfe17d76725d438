package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/evanblokender/Youtube-vm/internal/domain"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(dbPath string) (*UserStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite: empty db path")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: creating dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &UserStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS users (
	user_id TEXT PRIMARY KEY,
	display_name TEXT NOT NULL,
	points INTEGER NOT NULL DEFAULT 0,
	commands_executed INTEGER NOT NULL DEFAULT 0,
	votes_cast INTEGER NOT NULL DEFAULT 0,
	votes_won INTEGER NOT NULL DEFAULT 0,
	joined_at TIMESTAMP NOT NULL,
	last_active TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_users_points ON users(points DESC);`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite: migrate users: %w", err)
	}

	return nil
}

func (s *UserStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// GetOrCreate upserta el registro: crea con los contadores en cero o
// refresca display_name y last_active si ya existe.
func (s *UserStore) GetOrCreate(ctx context.Context, userID, displayName string) (*domain.UserRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("sqlite: empty user id")
	}

	now := time.Now().UTC()
	const stmt = `
INSERT INTO users (user_id, display_name, joined_at, last_active)
VALUES (?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
	display_name=excluded.display_name,
	last_active=excluded.last_active;
`

	if _, err := s.db.ExecContext(ctx, stmt, userID, displayName, now, now); err != nil {
		return nil, fmt.Errorf("sqlite: upsert user: %w", err)
	}

	return s.Stats(ctx, userID)
}

func (s *UserStore) AddPoints(ctx context.Context, userID string, points int) error {
	if points == 0 {
		return nil
	}
	const stmt = `UPDATE users SET points = points + ?, last_active = ? WHERE user_id = ?;`
	if _, err := s.db.ExecContext(ctx, stmt, points, time.Now().UTC(), userID); err != nil {
		return fmt.Errorf("sqlite: add points: %w", err)
	}
	return nil
}

func (s *UserStore) IncrementCommands(ctx context.Context, userID string) error {
	return s.increment(ctx, userID, "commands_executed")
}

func (s *UserStore) IncrementVotesCast(ctx context.Context, userID string) error {
	return s.increment(ctx, userID, "votes_cast")
}

func (s *UserStore) IncrementVotesWon(ctx context.Context, userID string) error {
	return s.increment(ctx, userID, "votes_won")
}

func (s *UserStore) increment(ctx context.Context, userID, column string) error {
	// column viene de los tres wrappers de arriba, nunca de input externo.
	stmt := fmt.Sprintf(`UPDATE users SET %s = %s + 1, last_active = ? WHERE user_id = ?;`, column, column)
	if _, err := s.db.ExecContext(ctx, stmt, time.Now().UTC(), userID); err != nil {
		return fmt.Errorf("sqlite: increment %s: %w", column, err)
	}
	return nil
}

func (s *UserStore) Stats(ctx context.Context, userID string) (*domain.UserRecord, error) {
	const query = `
SELECT user_id, display_name, points, commands_executed, votes_cast, votes_won, joined_at, last_active
FROM users
WHERE user_id = ?
LIMIT 1;
`

	row := s.db.QueryRowContext(ctx, query, userID)

	record, err := scanUser(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite: get user: %w", err)
	}
	return record, nil
}

func (s *UserStore) Leaderboard(ctx context.Context, limit int) ([]*domain.UserRecord, error) {
	if limit <= 0 {
		limit = 5
	}
	const query = `
SELECT user_id, display_name, points, commands_executed, votes_cast, votes_won, joined_at, last_active
FROM users
ORDER BY points DESC, display_name ASC
LIMIT ?;
`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: leaderboard: %w", err)
	}
	defer rows.Close()

	var out []*domain.UserRecord
	for rows.Next() {
		record, err := scanUser(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan user: %w", err)
		}
		out = append(out, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: leaderboard rows: %w", err)
	}

	return out, nil
}

func scanUser(scan func(dest ...any) error) (*domain.UserRecord, error) {
	var record domain.UserRecord
	var joinedAt, lastActive sql.NullTime

	if err := scan(
		&record.UserID,
		&record.DisplayName,
		&record.Points,
		&record.CommandsExecuted,
		&record.VotesCast,
		&record.VotesWon,
		&joinedAt,
		&lastActive,
	); err != nil {
		return nil, err
	}

	record.JoinedAt = joinedAt.Time
	record.LastActive = lastActive.Time
	return &record, nil
}

var _ domain.UserRepository = (*UserStore)(nil)
