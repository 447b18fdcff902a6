package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerify(t *testing.T) {
	j := New("s3cret")
	tok, err := j.Sign("ops", ScopeRoomsRead, time.Minute)
	require.NoError(t, err)

	sub, err := j.Verify(tok, ScopeRoomsRead)
	require.NoError(t, err)
	assert.Equal(t, "ops", sub)
}

func TestVerifyRejects(t *testing.T) {
	j := New("s3cret")

	expired, err := j.Sign("ops", ScopeRoomsRead, -time.Minute)
	require.NoError(t, err)
	_, err = j.Verify(expired, ScopeRoomsRead)
	assert.Error(t, err)

	other, err := New("different").Sign("ops", ScopeRoomsRead, time.Minute)
	require.NoError(t, err)
	_, err = j.Verify(other, ScopeRoomsRead)
	assert.Error(t, err)

	wrongScope, err := j.Sign("ops", "rooms:write", time.Minute)
	require.NoError(t, err)
	_, err = j.Verify(wrongScope, ScopeRoomsRead)
	assert.ErrorIs(t, err, ErrScope)

	_, err = j.Sign("", ScopeRoomsRead, time.Minute)
	assert.Error(t, err)
}

func TestSubjectContext(t *testing.T) {
	assert.Empty(t, Subject(context.Background()))
	assert.Equal(t, "ops", Subject(WithSubject(context.Background(), "ops")))
}
