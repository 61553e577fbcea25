package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSRFEnsureTokenIsStable(t *testing.T) {
	ctx := context.Background()
	m := NewCSRFManager("secret")
	sess := &Session{ID: "s1", values: map[string]string{}}

	first, err := m.EnsureToken(ctx, sess)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := m.EnsureToken(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	require.NoError(t, m.VerifyToken(ctx, sess, first))
}

func TestCSRFVerifyFailures(t *testing.T) {
	ctx := context.Background()
	m := NewCSRFManager("secret")
	sess := &Session{ID: "s1", values: map[string]string{}}

	assert.ErrorIs(t, m.VerifyToken(ctx, sess, "anything"), ErrCSRFTokenMissing)
	assert.ErrorIs(t, m.VerifyToken(ctx, nil, "anything"), ErrCSRFTokenMissing)

	_, err := m.EnsureToken(ctx, sess)
	require.NoError(t, err)
	assert.ErrorIs(t, m.VerifyToken(ctx, sess, ""), ErrCSRFTokenMissing)
	assert.ErrorIs(t, m.VerifyToken(ctx, sess, "forged"), ErrCSRFTokenMismatch)
}

func TestCSRFRotateToken(t *testing.T) {
	ctx := context.Background()
	m := NewCSRFManager("secret")
	sess := &Session{ID: "s1", values: map[string]string{}}

	old, err := m.EnsureToken(ctx, sess)
	require.NoError(t, err)
	fresh, err := m.RotateToken(ctx, sess)
	require.NoError(t, err)

	assert.NotEqual(t, old, fresh)
	assert.ErrorIs(t, m.VerifyToken(ctx, sess, old), ErrCSRFTokenMismatch)
	assert.NoError(t, m.VerifyToken(ctx, sess, fresh))

	_, err = m.EnsureToken(ctx, nil)
	assert.Error(t, err)
}
