package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carebook/internal/identity/models"
	id "carebook/pkg/domain"
	dErrors "carebook/pkg/domain-errors"
)

func TestIssuer_RoundTrip(t *testing.T) {
	issuer := NewIssuer("test-key", time.Hour)
	user := &models.User{ID: "1", Profile: models.DoctorProfile{Specialization: "Cardiology"}}

	token, err := issuer.Issue(user)
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id.UserID("1"), claims.UserID)
	assert.Equal(t, id.RoleDoctor, claims.Role)
}

func TestIssuer_Rejects(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	issuer := NewIssuer("test-key", time.Minute, WithClock(func() time.Time { return now }))
	user := &models.User{ID: "4", Profile: models.PatientProfile{}}
	token, err := issuer.Issue(user)
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := NewIssuer("test-key", time.Minute, WithClock(func() time.Time { return now.Add(time.Hour) }))
		_, err := later.Verify(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		assert.Contains(t, err.Error(), "expired")
	})

	t.Run("wrong key", func(t *testing.T) {
		other := NewIssuer("other-key", time.Minute, WithClock(func() time.Time { return now }))
		_, err := other.Verify(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Verify("not.a.token")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
