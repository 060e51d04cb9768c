package ports

import (
	"context"

	"github.com/avatarctic/headless-gateway/internal/core/domain/revalidation"
)

// RenderCache is the store of rendered pages that revalidation invalidates.
// Both operations must be idempotent.
type RenderCache interface {
	InvalidatePaths(ctx context.Context, paths []string) error
	InvalidateAll(ctx context.Context) error
}

// RevalidationService validates and applies incoming webhook requests.
type RevalidationService interface {
	// Authorize compares the presented secret with the configured one.
	Authorize(secret string) error
	Revalidate(ctx context.Context, req *revalidation.Request) (*revalidation.Response, error)
}

// RevalidationNotifier delivers webhook requests to the frontend on a best-effort basis.
type RevalidationNotifier interface {
	// Notify sends req without blocking the caller; failures are logged, never returned.
	Notify(req revalidation.Request)
}

// RenderTracker lets the renderer record fresh renders and ask whether a path
// must be regenerated.
type RenderTracker interface {
	MarkRendered(path string)
	IsStale(path string) bool
}
