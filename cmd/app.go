package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/patrickmn/go-cache"

	"github.com/shouni/gemini-facade-studio/internal/config"
	"github.com/shouni/gemini-facade-studio/pkg/domain"
	"github.com/shouni/gemini-facade-studio/pkg/generator"
	"github.com/shouni/gemini-facade-studio/pkg/publish"
	"github.com/shouni/gemini-facade-studio/pkg/session"
	"github.com/shouni/gemini-facade-studio/pkg/store"
)

// app はコマンドが共有する依存関係です。
type app struct {
	cfg       *config.Config
	store     store.Store
	studio    *session.Studio
	publisher publish.Publisher
	files     *remoteIO
}

// newApp は設定から依存関係を組み立て、保存済みのセッションを読み込みます。
// requireModel が false の場合、API キーが無くても生成以外のコマンドは動作します。
// 保存済みのセッションを読み込めない場合はエラーを返します。
func newApp(ctx context.Context, opts *rootOptions, requireModel bool) (*app, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}
	if requireModel {
		if err := cfg.RequireAPIKey(); err != nil {
			return nil, err
		}
	}

	editor, err := newEditor(ctx, cfg)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN())
	if err != nil {
		return nil, err
	}

	studio, err := session.NewStudio(editor, st)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	if err := studio.Load(ctx); err != nil {
		_ = st.Close()
		return nil, userError(err)
	}

	files := newRemoteIO()
	publisher, err := newPublisher(ctx, cfg.Export, files)
	if err != nil {
		_ = st.Close()
		_ = files.Close()
		return nil, err
	}

	return &app{cfg: cfg, store: st, studio: studio, publisher: publisher, files: files}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Error("ストアのクローズに失敗しました", "error", err)
	}
	if err := a.files.Close(); err != nil {
		slog.Error("ストレージクライアントのクローズに失敗しました", "error", err)
	}
}

func newEditor(ctx context.Context, cfg *config.Config) (generator.ImageEditor, error) {
	if strings.TrimSpace(cfg.Gemini.APIKey) == "" {
		return unavailableEditor{}, nil
	}

	model, err := generator.NewGenAIModel(ctx, cfg.Gemini.APIKey)
	if err != nil {
		return nil, err
	}
	refCache := cache.New(cfg.Gemini.ReferenceCacheTTL, 2*cfg.Gemini.ReferenceCacheTTL)
	core, err := generator.NewGeminiImageCore(
		model,
		generator.NewReferenceFetcher(cfg.Gemini.FetchTimeout),
		refCache,
		cfg.Gemini.ReferenceCacheTTL,
		cfg.Gemini.Model,
	)
	if err != nil {
		return nil, err
	}
	return generator.NewEditor(core, cfg.Gemini.EditTimeout)
}

func newPublisher(ctx context.Context, cfg config.ExportConfig, files *remoteIO) (publish.Publisher, error) {
	if !cfg.UseMinio() {
		if cfg.UseRemote() {
			w, err := files.writer(ctx, cfg.RemoteURI)
			if err != nil {
				return nil, err
			}
			return publish.NewRemotePublisher(w, cfg.RemoteURI)
		}
		return publish.NewLocalPublisher(cfg.LocalDir), nil
	}
	opts := publish.MinioOptions{
		Endpoint:   cfg.MinioEndpoint,
		AccessKey:  cfg.MinioAccessKey,
		SecretKey:  cfg.MinioSecretKey,
		Bucket:     cfg.MinioBucket,
		Region:     cfg.MinioRegion,
		UseSSL:     cfg.MinioUseSSL,
		PresignTTL: cfg.MinioPresignTTL,
	}
	client, err := publish.NewMinioClient(opts)
	if err != nil {
		return nil, err
	}
	return publish.NewMinioPublisher(client, opts)
}

// unavailableEditor は API キーが未設定のときに生成操作を拒否します。
type unavailableEditor struct{}

func (unavailableEditor) Redesign(context.Context, domain.RedesignRequest) (*domain.EditResult, error) {
	return nil, fmt.Errorf("GEMINI_API_KEY is required for editing")
}

func (unavailableEditor) Rotate(context.Context, domain.RotateRequest) (*domain.EditResult, error) {
	return nil, fmt.Errorf("GEMINI_API_KEY is required for editing")
}

// isURL は参照画像の指定が URL かどうかを判定します。
func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// activate は --session が指定されていればそのセッションをアクティブにします。
func (a *app) activate(id string) error {
	if id == "" {
		return nil
	}
	_, err := a.studio.Activate(id)
	return err
}

// userError は利用者向けの文言に詳細を添えたエラーを返します。
func userError(err error) error {
	return fmt.Errorf("%s (%w)", domain.UserMessage(err), err)
}
