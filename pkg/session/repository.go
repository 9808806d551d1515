package session

import (
	"context"

	"github.com/shouni/gemini-facade-studio/pkg/domain"
)

// Repository はセッション一覧全体を永続化の単位とするストアです。
// ReplaceAll は全件を 1 トランザクションで置き換え、途中までの書き込みを残してはいけません。
// LoadAll は作成日時の新しい順にセッションを返します。
type Repository interface {
	LoadAll(ctx context.Context) ([]domain.Session, error)
	ReplaceAll(ctx context.Context, sessions []domain.Session) error
}
