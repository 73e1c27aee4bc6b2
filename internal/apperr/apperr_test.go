package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"storefront/internal/apperr"

	"github.com/stretchr/testify/assert"
)

func TestNew_MatchesSentinelByCode(t *testing.T) {
	err := apperr.New(apperr.ErrInsufficientStock, "only %d units of %s are available", 2, "P101")

	assert.True(t, errors.Is(err, apperr.ErrInsufficientStock))
	assert.False(t, errors.Is(err, apperr.ErrOutOfStock))
	assert.Equal(t, "only 2 units of P101 are available", err.Error())
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestIs_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("place order: %w", apperr.New(apperr.ErrEmptyCart, "your cart is empty"))

	assert.ErrorIs(t, err, apperr.ErrEmptyCart)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	appErr, ok := apperr.As(err)
	assert.True(t, ok)
	assert.Equal(t, "EMPTY_CART", appErr.Code)
}

func TestStorage_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := apperr.Storage("failed to save order", cause)

	assert.ErrorIs(t, err, apperr.ErrStorage)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to save order: connection reset", err.Error())
}

func TestKindOf_UnclassifiedIsStorage(t *testing.T) {
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(errors.New("boom")))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(apperr.ErrOrderNotFound))
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(apperr.ErrInvalidSortField))
}
