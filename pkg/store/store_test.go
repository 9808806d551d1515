package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/gemini-facade-studio/pkg/domain"
)

func asset(s string) domain.ImageAsset {
	return domain.ImageAsset{MimeType: "image/jpeg", Data: []byte(s)}
}

func sampleSession(id string, created time.Time, history ...string) domain.Session {
	sess := domain.Session{
		ID:                 id,
		Name:               "Project " + id,
		CreatedAt:          created,
		Thumbnail:          asset("thumb-" + id),
		BaseImage:          asset("base-" + id),
		OriginalDimensions: domain.Dimensions{Width: 640, Height: 480},
		History:            []domain.ImageAsset{},
	}
	for _, h := range history {
		sess.History = append(sess.History, asset(h))
	}
	return sess
}

// runRepositoryContract はどの Store でも満たすべき振る舞いを検証します。
func runRepositoryContract(t *testing.T, open func(t *testing.T) Store) {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("空のストア", func(t *testing.T) {
		s := open(t)
		got, err := s.LoadAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("新しい順に読み込まれる", func(t *testing.T) {
		s := open(t)
		s1 := sampleSession("s1", base)
		s2 := sampleSession("s2", base.Add(time.Minute), "a")
		s3 := sampleSession("s3", base.Add(2*time.Minute), "x", "y", "z")

		require.NoError(t, s.ReplaceAll(ctx, []domain.Session{s3, s2, s1}))

		got, err := s.LoadAll(ctx)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []string{"s3", "s2", "s1"}, []string{got[0].ID, got[1].ID, got[2].ID})

		assert.Equal(t, s3.Name, got[0].Name)
		assert.True(t, s3.CreatedAt.Equal(got[0].CreatedAt))
		assert.Equal(t, s3.OriginalDimensions, got[0].OriginalDimensions)
		assert.Equal(t, s3.BaseImage, got[0].BaseImage)
		assert.Equal(t, s3.Thumbnail, got[0].Thumbnail)
		require.Len(t, got[0].History, 3)
		assert.Equal(t, []byte("x"), got[0].History[0].Data)
		assert.Equal(t, []byte("z"), got[0].History[2].Data)
		assert.Empty(t, got[2].History)
	})

	t.Run("置き換えで削除と変更が反映される", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.ReplaceAll(ctx, []domain.Session{
			sampleSession("s2", base.Add(time.Minute), "a", "b"),
			sampleSession("s1", base),
		}))

		renamed := sampleSession("s2", base.Add(time.Minute), "a")
		renamed.Name = "Renamed"
		require.NoError(t, s.ReplaceAll(ctx, []domain.Session{renamed}))

		got, err := s.LoadAll(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Renamed", got[0].Name)
		assert.Len(t, got[0].History, 1)

		require.NoError(t, s.ReplaceAll(ctx, nil))
		got, err = s.LoadAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestMemoryStore(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestSQLiteStore(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) Store {
		s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "studio.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "studio.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.ReplaceAll(ctx, []domain.Session{sampleSession("s1", time.Now(), "a")}))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0].History, 1)
}

func TestSQLiteStore_ReplaceAllIsAtomic(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "studio.db"))
	require.NoError(t, err)
	defer s.Close()

	before := []domain.Session{sampleSession("s1", time.Now(), "a")}
	require.NoError(t, s.ReplaceAll(ctx, before))

	// ID の重複で途中の INSERT が失敗する
	dup := sampleSession("dup", time.Now())
	err = s.ReplaceAll(ctx, []domain.Session{dup, dup})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	got, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1, "失敗した置き換えの前の内容が残ること")
	assert.Equal(t, "s1", got[0].ID)
}

func TestSQLiteStore_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStore("  ")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN が未設定のためスキップします")
	}
	runRepositoryContract(t, func(t *testing.T) Store {
		s, err := NewPostgresStore(context.Background(), dsn)
		require.NoError(t, err)
		require.NoError(t, s.ReplaceAll(context.Background(), nil))
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, "memory", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, "sqlite", filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, "mongo", "")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), fmt.Sprintf("%q", "mongo"))
}
