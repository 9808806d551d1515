// Package store はセッション一覧の保存先を提供します。
// どの実装も一覧全体の読み込みと置き換えだけを行い、差分更新は持ちません。
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/shouni/gemini-facade-studio/pkg/domain"
	"github.com/shouni/gemini-facade-studio/pkg/session"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Store は session.Repository に Close を加えたものです。
type Store interface {
	session.Repository
	Close() error
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

// Open は driver に応じた Store を開きます。
// sqlite ではファイルパス、postgres では接続 URL を dsn に渡します。
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverSQLite, "":
		return NewSQLiteStore(dsn)
	case DriverPostgres, "postgresql", "pgx":
		return NewPostgresStore(ctx, dsn)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", domain.ErrStoreUnavailable, driver)
	}
}
