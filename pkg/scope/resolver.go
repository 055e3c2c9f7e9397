// Package scope derives the row-visibility boundary for a request from
// the caller's identity and role. The scope is enforced structurally by
// the execution engine; the planner never sees unscoped data and cannot
// widen the scope however the question is phrased.
package scope

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abilabs/insight-engine/pkg/apperrors"
	"github.com/abilabs/insight-engine/pkg/logging"
	"github.com/abilabs/insight-engine/pkg/models"
	"github.com/abilabs/insight-engine/pkg/store"
)

// Resolver validates identities and produces access scopes.
type Resolver struct {
	logger *zap.Logger
}

// NewResolver creates a scope resolver.
func NewResolver(logger *zap.Logger) *Resolver {
	return &Resolver{logger: logger.Named("scope")}
}

// Resolve computes the access scope for a caller. Customer identities are
// validated against the customers collection of the given snapshot; an
// unknown id fails with apperrors.ErrUnknownCustomer rather than an empty
// scope, so a typo cannot degrade into a silent zero-row session.
func (r *Resolver) Resolve(ctx context.Context, identity string, role models.Role, snap *store.Snapshot) (models.AccessScope, error) {
	if err := ctx.Err(); err != nil {
		return models.AccessScope{}, err
	}

	switch role {
	case models.RoleBusiness:
		return models.AccessScope{Role: models.RoleBusiness}, nil

	case models.RoleCustomer:
		if _, ok := snap.CustomerByID[identity]; !ok {
			r.logger.Warn("scope rejected",
				zap.String("subject", logging.MaskSubjectID(identity)))
			return models.AccessScope{}, fmt.Errorf("identity %q: %w",
				logging.MaskSubjectID(identity), apperrors.ErrUnknownCustomer)
		}
		return models.AccessScope{Role: models.RoleCustomer, SubjectID: identity}, nil
	}

	return models.AccessScope{}, fmt.Errorf("unsupported role %q", role)
}
