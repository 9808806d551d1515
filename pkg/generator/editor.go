package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/gemini-facade-studio/pkg/domain"
	"github.com/shouni/gemini-facade-studio/pkg/imgutil"
	"github.com/shouni/gemini-facade-studio/pkg/prompt"
)

// Editor は正規化、指示の組み立て、生成呼び出し、アスペクト比の復元を一括で行います。
type Editor struct {
	exec    ImageExecutor
	timeout time.Duration
	size    int
}

// NewEditor は Editor を初期化します。timeout が 0 以下の場合は DefaultTimeout を使います。
func NewEditor(exec ImageExecutor, timeout time.Duration) (*Editor, error) {
	if exec == nil {
		return nil, fmt.Errorf("exec (ImageExecutor) is required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Editor{exec: exec, timeout: timeout, size: imgutil.TargetSize}, nil
}

// Redesign は作業画像に自由記述の編集と任意の商品・背景画像を適用します。
func (e *Editor) Redesign(ctx context.Context, req domain.RedesignRequest) (*domain.EditResult, error) {
	if !req.Dimensions.Valid() {
		return nil, fmt.Errorf("%w: %dx%d", domain.ErrDimensionRead, req.Dimensions.Width, req.Dimensions.Height)
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	product, err := e.reference(ctx, req.Product, req.ProductURL)
	if err != nil {
		return nil, fmt.Errorf("product image: %w", err)
	}
	background, err := e.reference(ctx, req.Background, req.BackgroundURL)
	if err != nil {
		return nil, fmt.Errorf("background image: %w", err)
	}

	primary, err := imgutil.Normalize(req.Image.Data, e.size)
	if err != nil {
		return nil, fmt.Errorf("normalize working image: %w", err)
	}
	if product, err = e.normalizeOptional(product); err != nil {
		return nil, fmt.Errorf("normalize product image: %w", err)
	}
	if background, err = e.normalizeOptional(background); err != nil {
		return nil, fmt.Errorf("normalize background image: %w", err)
	}

	comp, err := prompt.Redesign(prompt.RedesignInput{
		Primary:    primary,
		Prompt:     req.Prompt,
		Product:    product,
		Background: background,
		IsSketched: req.IsSketched,
	})
	if err != nil {
		return nil, err
	}

	final, err := e.submitAndRestore(ctx, comp, req.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("redesign: %w", err)
	}
	return &domain.EditResult{FinalImage: final, DebugImage: primary, PromptText: comp.Text}, nil
}

// Rotate はカメラ位置を左右に 45 度回転させた視点で再描画します。
func (e *Editor) Rotate(ctx context.Context, req domain.RotateRequest) (*domain.EditResult, error) {
	if !req.Dimensions.Valid() {
		return nil, fmt.Errorf("%w: %dx%d", domain.ErrDimensionRead, req.Dimensions.Width, req.Dimensions.Height)
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	primary, err := imgutil.Normalize(req.Image.Data, e.size)
	if err != nil {
		return nil, fmt.Errorf("normalize working image: %w", err)
	}
	comp, err := prompt.Rotate(prompt.RotateInput{Primary: primary, Direction: req.Direction})
	if err != nil {
		return nil, err
	}

	final, err := e.submitAndRestore(ctx, comp, req.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("rotate %s: %w", req.Direction, err)
	}
	return &domain.EditResult{FinalImage: final, DebugImage: primary, PromptText: comp.Text}, nil
}

func (e *Editor) submitAndRestore(ctx context.Context, comp prompt.Composition, dims domain.Dimensions) (domain.ImageAsset, error) {
	start := time.Now()
	out, err := e.exec.ExecuteRequest(ctx, comp)
	if err != nil {
		return domain.ImageAsset{}, timeoutError(ctx, err)
	}
	slog.InfoContext(ctx, "画像を受信しました", "mime_type", out.MimeType, "bytes", len(out.Data), "elapsed", time.Since(start))

	return imgutil.Restore(out.Data, dims.Width, dims.Height, e.size)
}

func (e *Editor) reference(ctx context.Context, asset domain.ImageAsset, rawURL string) (domain.ImageAsset, error) {
	if !asset.IsZero() || rawURL == "" {
		return asset, nil
	}
	ref, err := e.exec.PrepareReference(ctx, rawURL)
	if err != nil {
		return domain.ImageAsset{}, timeoutError(ctx, err)
	}
	return ref, nil
}

func (e *Editor) normalizeOptional(asset domain.ImageAsset) (domain.ImageAsset, error) {
	if asset.IsZero() {
		return asset, nil
	}
	return imgutil.Normalize(asset.Data, e.size)
}

func timeoutError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}
	return err
}
