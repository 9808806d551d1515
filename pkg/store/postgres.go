package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shouni/gemini-facade-studio/pkg/domain"
)

// PostgresStore は PostgreSQL にセッション一覧を保存します。
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore は接続プールを作成し、スキーマを用意します。
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse database url: %v", domain.ErrStoreUnavailable, err)
	}

	poolCfg.MaxConns = 4
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: connect database: %v", domain.ErrStoreUnavailable, err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping database: %v", domain.ErrStoreUnavailable, err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ensure schema: %v", domain.ErrStoreUnavailable, err)
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS studio_sessions (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL,
	position    INTEGER NOT NULL,
	width       INTEGER NOT NULL,
	height      INTEGER NOT NULL,
	base_mime   TEXT NOT NULL,
	base_data   BYTEA NOT NULL,
	thumb_mime  TEXT NOT NULL DEFAULT '',
	thumb_data  BYTEA
);

CREATE TABLE IF NOT EXISTS studio_history (
	session_id  TEXT NOT NULL REFERENCES studio_sessions(id) ON DELETE CASCADE,
	seq         INTEGER NOT NULL,
	mime        TEXT NOT NULL,
	data        BYTEA NOT NULL,
	PRIMARY KEY(session_id, seq)
);
`)
	return err
}

// Close は接続プールを閉じます。
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// LoadAll は全セッションを作成日時の新しい順に返します。
func (s *PostgresStore) LoadAll(ctx context.Context) ([]domain.Session, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, name, created_at, width, height, base_mime, base_data, thumb_mime, thumb_data
FROM studio_sessions
ORDER BY created_at DESC, position ASC;
`)
	if err != nil {
		return nil, fmt.Errorf("%w: query sessions: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var sessions []domain.Session
	index := make(map[string]int)
	for rows.Next() {
		var sess domain.Session
		if err := rows.Scan(&sess.ID, &sess.Name, &sess.CreatedAt,
			&sess.OriginalDimensions.Width, &sess.OriginalDimensions.Height,
			&sess.BaseImage.MimeType, &sess.BaseImage.Data,
			&sess.Thumbnail.MimeType, &sess.Thumbnail.Data); err != nil {
			return nil, fmt.Errorf("%w: scan session: %v", domain.ErrStoreUnavailable, err)
		}
		sess.History = []domain.ImageAsset{}
		index[sess.ID] = len(sessions)
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate sessions: %v", domain.ErrStoreUnavailable, err)
	}

	hrows, err := s.pool.Query(ctx, `
SELECT session_id, mime, data
FROM studio_history
ORDER BY session_id, seq ASC;
`)
	if err != nil {
		return nil, fmt.Errorf("%w: query history: %v", domain.ErrStoreUnavailable, err)
	}
	defer hrows.Close()

	for hrows.Next() {
		var (
			sessionID string
			asset     domain.ImageAsset
		)
		if err := hrows.Scan(&sessionID, &asset.MimeType, &asset.Data); err != nil {
			return nil, fmt.Errorf("%w: scan history: %v", domain.ErrStoreUnavailable, err)
		}
		if i, ok := index[sessionID]; ok {
			sessions[i].History = append(sessions[i].History, asset)
		}
	}
	if err := hrows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate history: %v", domain.ErrStoreUnavailable, err)
	}
	return sessions, nil
}

// ReplaceAll は保存済みの内容を sessions で置き換えます。
// 履歴は COPY でまとめて書き込みます。
func (s *PostgresStore) ReplaceAll(ctx context.Context, sessions []domain.Session) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrStoreUnavailable, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM studio_history;`); err != nil {
		return fmt.Errorf("%w: clear history: %v", domain.ErrStoreUnavailable, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM studio_sessions;`); err != nil {
		return fmt.Errorf("%w: clear sessions: %v", domain.ErrStoreUnavailable, err)
	}

	batch := &pgx.Batch{}
	var history [][]any
	for pos, sess := range sessions {
		batch.Queue(`
INSERT INTO studio_sessions (id, name, created_at, position, width, height, base_mime, base_data, thumb_mime, thumb_data)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`, sess.ID, sess.Name, sess.CreatedAt, pos,
			sess.OriginalDimensions.Width, sess.OriginalDimensions.Height,
			sess.BaseImage.MimeType, sess.BaseImage.Data,
			sess.Thumbnail.MimeType, sess.Thumbnail.Data)
		for seq, h := range sess.History {
			history = append(history, []any{sess.ID, seq, h.MimeType, h.Data})
		}
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("%w: insert sessions: %v", domain.ErrStoreUnavailable, err)
		}
	}
	if len(history) > 0 {
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"studio_history"},
			[]string{"session_id", "seq", "mime", "data"},
			pgx.CopyFromRows(history),
		); err != nil {
			return fmt.Errorf("%w: copy history: %v", domain.ErrStoreUnavailable, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}
