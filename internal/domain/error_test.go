package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorKind
	}{
		{400, KindValidation},
		{422, KindValidation},
		{401, KindNotAuthenticated},
		{403, KindNotAuthenticated},
		{404, KindNotFound},
		{409, KindConflict},
		{500, KindRemote},
		{502, KindRemote},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, KindForStatus(tt.status))
		})
	}
}

func TestError_WrappingAndKind(t *testing.T) {
	remote := Remote(409, "username already taken")
	wrapped := fmt.Errorf("sign up: %w", remote)

	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.Equal(t, "username already taken", MessageOf(wrapped))
	assert.True(t, IsKind(wrapped, KindConflict))
	assert.False(t, IsKind(nil, KindConflict))

	de, ok := AsError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, 409, de.Status)
}

func TestError_IsMatchesKind(t *testing.T) {
	err := Remote(401, "token expired")
	assert.True(t, errors.Is(err, ErrNotAuthenticated))
	assert.False(t, errors.Is(Remote(404, "missing"), ErrNotAuthenticated))
}

func TestTransport_UnwrapsCause(t *testing.T) {
	err := Transport(context.DeadlineExceeded)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, KindTransport, KindOf(err))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}
