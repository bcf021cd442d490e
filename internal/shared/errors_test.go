package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("%w: order ORD-1", ErrNotFound), CodeNotFound},
		{ErrAlreadyExists, CodeInvalidTransition},
		{fmt.Errorf("quotation: %w", ErrExpired), CodeInvalidTransition},
		{fmt.Errorf("%w: not the provider", ErrUnauthorized), CodeUnauthorized},
		{fmt.Errorf("%w: amount must be positive", ErrValidation), CodeValidationFailed},
		{ErrAllocationExhausted, CodeAllocationExhausted},
		{errors.New("boom"), CodeInternal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CodeOf(tc.err), "%v", tc.err)
	}
}

func TestAlreadyExistsIsInvalidTransition(t *testing.T) {
	require.ErrorIs(t, ErrAlreadyExists, ErrInvalidTransition)
	require.ErrorIs(t, ErrIdempotencyConflict, ErrAlreadyExists)
	require.NotErrorIs(t, ErrExpired, ErrAlreadyExists)
	require.Equal(t, "invalid transition: already exists", ErrAlreadyExists.Error())
}

func TestActorContextRoundTrip(t *testing.T) {
	_, ok := ActorFromContext(context.Background())
	require.False(t, ok)

	ctx := ContextWithActor(context.Background(), Actor{ID: "u-1", Role: RoleUser})
	actor, ok := ActorFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "u-1", actor.ID)
	require.NoError(t, actor.Validate())

	require.ErrorIs(t, Actor{Role: RoleAdmin}.Validate(), ErrUnauthorized)
	require.ErrorIs(t, Actor{ID: "x", Role: "guest"}.Validate(), ErrUnauthorized)
}

func TestPageNormalize(t *testing.T) {
	p := Page{}.Normalize()
	require.Equal(t, 1, p.Page)
	require.Equal(t, 20, p.PageSize)
	require.Equal(t, 100, Page{PageSize: 500}.Normalize().PageSize)
	require.Equal(t, 40, Page{Page: 3, PageSize: 20}.Offset())

	meta := NewPagination(2, 10, 25)
	require.Equal(t, 3, meta.TotalPages)
	require.True(t, meta.HasNext)
}
