//go:build unit

package jwt_test

import (
	"testing"
	"time"

	"restaurant-ordering/internal/domain/staff"
	"restaurant-ordering/internal/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_RoundTrip(t *testing.T) {
	svc := jwt.NewService("test-secret", time.Hour)
	p := staff.Principal{ID: "s1", TenantID: "t1", Role: staff.RoleWaiter}

	token, err := svc.GenerateToken(p)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "s1", claims.StaffID)
	assert.Equal(t, "t1", claims.TenantID)
	assert.Equal(t, "waiter", claims.Role)
}

func TestService_Rejects(t *testing.T) {
	p := staff.Principal{ID: "s1", TenantID: "t1", Role: staff.RoleWaiter}

	expired, err := jwt.NewService("test-secret", -time.Minute).GenerateToken(p)
	require.NoError(t, err)
	_, err = jwt.NewService("test-secret", time.Hour).ValidateToken(expired)
	assert.ErrorIs(t, err, jwt.ErrExpiredToken)

	foreign, err := jwt.NewService("other-secret", time.Hour).GenerateToken(p)
	require.NoError(t, err)
	_, err = jwt.NewService("test-secret", time.Hour).ValidateToken(foreign)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}
