package services

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/avatarctic/headless-gateway/internal/core/domain/apperr"
	"github.com/avatarctic/headless-gateway/internal/core/domain/revalidation"
	"github.com/avatarctic/headless-gateway/internal/core/ports"
	"github.com/sirupsen/logrus"
)

// RevalidationService applies webhook requests to the render cache.
type RevalidationService struct {
	secret string
	render ports.RenderCache
	logger *logrus.Logger
}

func NewRevalidationService(secret string, render ports.RenderCache, logger *logrus.Logger) ports.RevalidationService {
	return &RevalidationService{secret: secret, render: render, logger: logger}
}

func (s *RevalidationService) Authorize(secret string) error {
	if s.secret == "" {
		return fmt.Errorf("REVALIDATE_SECRET: %w", apperr.ErrNotConfigured)
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.secret)) != 1 {
		return apperr.Unauthorized("Invalid secret")
	}
	return nil
}

// Revalidate invalidates the whole site or exactly the listed paths. Paths are
// applied in order, repeated entries once.
func (s *RevalidationService) Revalidate(ctx context.Context, req *revalidation.Request) (*revalidation.Response, error) {
	if req == nil {
		return nil, apperr.Validation("No paths provided")
	}

	if req.All {
		if err := s.render.InvalidateAll(ctx); err != nil {
			return nil, fmt.Errorf("failed to invalidate site: %w", err)
		}
		if s.logger != nil {
			s.logger.WithField("scope", revalidation.ScopeAll).Info("revalidated")
		}
		return &revalidation.Response{Revalidated: true, Scope: revalidation.ScopeAll}, nil
	}

	paths := revalidation.Dedupe(req.Paths)
	if len(paths) == 0 {
		return nil, apperr.Validation("No paths provided")
	}
	if err := s.render.InvalidatePaths(ctx, paths); err != nil {
		return nil, fmt.Errorf("failed to invalidate paths: %w", err)
	}
	if s.logger != nil {
		s.logger.WithField("paths", paths).Info("revalidated")
	}
	return &revalidation.Response{Revalidated: true, Paths: paths}, nil
}
