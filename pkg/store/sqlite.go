package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shouni/gemini-facade-studio/pkg/domain"

	_ "modernc.org/sqlite"
)

// sqliteSchemaVersion は PRAGMA user_version に記録するスキーマの版です。
const sqliteSchemaVersion = 1

// SQLiteStore は SQLite (WAL モード) にセッション一覧を保存します。
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore はデータベースを開き、スキーマを用意します。
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("%w: sqlite db path is empty", domain.ErrStoreUnavailable)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create db directory: %v", domain.ErrStoreUnavailable, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %v", domain.ErrStoreUnavailable, err)
	}
	// 書き込みは ReplaceAll のトランザクションだけなので、接続は 1 本に絞ります。
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: exec %q: %v", domain.ErrStoreUnavailable, p, err)
		}
	}

	s := &SQLiteStore{db: db, path: dbPath}
	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ensure schema: %v", domain.ErrStoreUnavailable, err)
	}
	return s, nil
}

func (s *SQLiteStore) ensureSchema() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}
	if version > sqliteSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, sqliteSchemaVersion)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL DEFAULT '',
		created_at  INTEGER NOT NULL,
		position    INTEGER NOT NULL,
		width       INTEGER NOT NULL,
		height      INTEGER NOT NULL,
		base_mime   TEXT NOT NULL,
		base_data   BLOB NOT NULL,
		thumb_mime  TEXT NOT NULL DEFAULT '',
		thumb_data  BLOB
	);

	CREATE TABLE IF NOT EXISTS history (
		session_id  TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		seq         INTEGER NOT NULL,
		mime        TEXT NOT NULL,
		data        BLOB NOT NULL,
		PRIMARY KEY(session_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at DESC, position ASC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", sqliteSchemaVersion))
	return err
}

// Path はデータベースファイルのパスを返します。
func (s *SQLiteStore) Path() string { return s.path }

// Close はデータベース接続を閉じます。
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// LoadAll は全セッションを作成日時の新しい順に返します。
func (s *SQLiteStore) LoadAll(ctx context.Context) ([]domain.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at, width, height, base_mime, base_data, thumb_mime, thumb_data
		FROM sessions
		ORDER BY created_at DESC, position ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: query sessions: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var sessions []domain.Session
	index := make(map[string]int)
	for rows.Next() {
		var (
			sess    domain.Session
			created int64
		)
		if err := rows.Scan(&sess.ID, &sess.Name, &created,
			&sess.OriginalDimensions.Width, &sess.OriginalDimensions.Height,
			&sess.BaseImage.MimeType, &sess.BaseImage.Data,
			&sess.Thumbnail.MimeType, &sess.Thumbnail.Data); err != nil {
			return nil, fmt.Errorf("%w: scan session: %v", domain.ErrStoreUnavailable, err)
		}
		sess.CreatedAt = time.Unix(0, created).UTC()
		sess.History = []domain.ImageAsset{}
		index[sess.ID] = len(sessions)
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate sessions: %v", domain.ErrStoreUnavailable, err)
	}

	hrows, err := s.db.QueryContext(ctx, `
		SELECT session_id, mime, data
		FROM history
		ORDER BY session_id, seq ASC`)
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
// 1 つのトランザクションで実行するため、途中で失敗した場合は以前の内容が残ります。
func (s *SQLiteStore) ReplaceAll(ctx context.Context, sessions []domain.Session) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrStoreUnavailable, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("%w: clear history: %v", domain.ErrStoreUnavailable, err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("%w: clear sessions: %v", domain.ErrStoreUnavailable, err)
	}

	sessStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sessions (id, name, created_at, position, width, height, base_mime, base_data, thumb_mime, thumb_data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: prepare sessions: %v", domain.ErrStoreUnavailable, err)
	}
	defer sessStmt.Close()

	histStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO history (session_id, seq, mime, data)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: prepare history: %v", domain.ErrStoreUnavailable, err)
	}
	defer histStmt.Close()

	for pos, sess := range sessions {
		if _, err = sessStmt.ExecContext(ctx, sess.ID, sess.Name, sess.CreatedAt.UnixNano(), pos,
			sess.OriginalDimensions.Width, sess.OriginalDimensions.Height,
			sess.BaseImage.MimeType, sess.BaseImage.Data,
			sess.Thumbnail.MimeType, sess.Thumbnail.Data); err != nil {
			return fmt.Errorf("%w: insert session %s: %v", domain.ErrStoreUnavailable, sess.ID, err)
		}
		for seq, h := range sess.History {
			if _, err = histStmt.ExecContext(ctx, sess.ID, seq, h.MimeType, h.Data); err != nil {
				return fmt.Errorf("%w: insert history %s/%d: %v", domain.ErrStoreUnavailable, sess.ID, seq, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}
