// Package store reads the joined application detail, either by composing the
// per-module stores or with a single Postgres query.
package store

import (
	"context"
	"errors"

	appModels "healthfund/internal/application/models"
	certModels "healthfund/internal/certification/models"
	"healthfund/internal/detail/models"
	reviewModels "healthfund/internal/review/models"
	"healthfund/pkg/platform/sentinel"
)

type applicationFinder interface {
	FindByCode(ctx context.Context, code string) (*appModels.Application, error)
}

type certificationFinder interface {
	FindByCode(ctx context.Context, code string) (*certModels.Certification, error)
}

type decisionFinder interface {
	Latest(ctx context.Context, code string) (*reviewModels.Decision, error)
}

// CompositeReader assembles a Detail from the application, certification and
// decision stores. Used with the in-memory engine.
type CompositeReader struct {
	apps      applicationFinder
	certs     certificationFinder
	decisions decisionFinder
}

// NewCompositeReader creates a reader over the three stores.
func NewCompositeReader(apps applicationFinder, certs certificationFinder, decisions decisionFinder) *CompositeReader {
	return &CompositeReader{apps: apps, certs: certs, decisions: decisions}
}

// Detail returns sentinel.ErrNotFound when the application does not exist.
func (r *CompositeReader) Detail(ctx context.Context, code string) (*models.Detail, error) {
	app, err := r.apps.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	cert, err := r.certs.FindByCode(ctx, code)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, err
	}

	latest, err := r.decisions.Latest(ctx, code)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, err
	}

	return &models.Detail{
		Application:   app,
		Certification: cert,
		Approval:      models.ApprovalFrom(latest),
	}, nil
}
