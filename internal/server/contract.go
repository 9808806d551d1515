package server

import (
	"context"

	"github.com/shouni/gemini-facade-studio/pkg/domain"
	"github.com/shouni/gemini-facade-studio/pkg/session"
)

type studioService interface {
	Sessions() []session.Summary
	Active() (session.View, error)
	WorkingImage() (domain.ImageAsset, error)
	Create(ctx context.Context, name string, image domain.ImageAsset) (domain.Session, error)
	Activate(id string) (session.View, error)
	Delete(ctx context.Context, id string) error
	Rename(ctx context.Context, id, name string) error
	SetOverlay(image domain.ImageAsset) (session.View, error)
	ClearOverlay() (session.View, error)
	Undo() (session.View, error)
	Redo() (session.View, error)
	Revert(ctx context.Context) (session.View, error)
	ReplaceBase(ctx context.Context, image domain.ImageAsset) (session.View, error)
	Redesign(ctx context.Context, in session.RedesignInput) (*domain.EditResult, error)
	Rotate(ctx context.Context, direction domain.Direction) (*domain.EditResult, error)
}

var _ studioService = (*session.Studio)(nil)
