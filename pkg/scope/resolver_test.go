package scope

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abilabs/insight-engine/pkg/apperrors"
	"github.com/abilabs/insight-engine/pkg/models"
	"github.com/abilabs/insight-engine/pkg/testhelpers"
)

func TestResolve_Business(t *testing.T) {
	r := NewResolver(zap.NewNop())

	got, err := r.Resolve(context.Background(), "", models.RoleBusiness, testhelpers.Snapshot())
	require.NoError(t, err)
	assert.True(t, got.Business())
	assert.Empty(t, got.SubjectID)
}

func TestResolve_KnownCustomer(t *testing.T) {
	r := NewResolver(zap.NewNop())

	got, err := r.Resolve(context.Background(), "cust-001", models.RoleCustomer, testhelpers.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, got.Role)
	assert.Equal(t, "cust-001", got.SubjectID)
	assert.True(t, got.AdmitsCustomer("cust-001"))
	assert.False(t, got.AdmitsCustomer("cust-002"))
}

func TestResolve_UnknownCustomer(t *testing.T) {
	r := NewResolver(zap.NewNop())

	_, err := r.Resolve(context.Background(), "cust-999", models.RoleCustomer, testhelpers.Snapshot())
	require.ErrorIs(t, err, apperrors.ErrUnknownCustomer)
	// The raw identity must not appear in the error text.
	assert.NotContains(t, err.Error(), "cust-999")
}

func TestResolve_CancelledContext(t *testing.T) {
	r := NewResolver(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, "cust-001", models.RoleCustomer, testhelpers.Snapshot())
	require.ErrorIs(t, err, context.Canceled)
}
