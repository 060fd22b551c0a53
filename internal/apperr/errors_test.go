package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindPredicates(t *testing.T) {
	require.True(t, IsInvalidArgument(InvalidArgument("bad id")))
	require.True(t, IsUnauthorized(Unauthorized("nope")))
	require.True(t, IsNotFound(NotFound("missing")))
	require.True(t, IsForbidden(Forbidden("not yours")))
	require.True(t, IsConflict(Conflict("taken")))
	require.False(t, IsNotFound(Unauthorized("nope")))
}

func TestUpstreamKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Upstream(cause, "load user")

	require.True(t, IsUpstream(err))
	require.ErrorIs(t, err, cause)
	require.Equal(t, "load user", MessageOf(err))
	require.Equal(t, "load user: connection refused", err.Error())
}

func TestKindOfForeignError(t *testing.T) {
	err := errors.New("boom")
	require.Equal(t, ErrInternal, KindOf(err))
	require.Equal(t, "internal server error", MessageOf(err))
}

func TestSelfReferenceIsInvalidArgument(t *testing.T) {
	err := SelfReference("cannot subscribe to yourself")
	require.True(t, IsInvalidArgument(err))
	require.True(t, IsSelfReference(err))
	require.Equal(t, ErrInvalidArgument, KindOf(err))
	require.False(t, IsSelfReference(InvalidArgument("bad id")))
}
