package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesKindAndCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Persistence("repository.create", cause)

	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrInference)
	assert.Equal(t, "repository.create: persistence error: disk full", err.Error())
}

func TestWrapDoesNotDoubleWrapSameKind(t *testing.T) {
	inner := Inference("llm.complete", errors.New("timeout"))
	outer := Inference("responder.respond", inner)

	assert.Same(t, inner, outer)
}

func TestWrapAcrossKinds(t *testing.T) {
	inner := Persistence("repository.list", errors.New("no such table"))
	outer := Initialization("service.start", inner)

	assert.ErrorIs(t, outer, ErrInitialization)
	assert.ErrorIs(t, outer, ErrPersistence)
	assert.Equal(t, ErrInitialization, KindOf(outer))
}

func TestKindOf(t *testing.T) {
	assert.Nil(t, KindOf(errors.New("plain")))
	assert.Equal(t, ErrInference, KindOf(fmt.Errorf("turn: %w", Inference("x", nil))))
	assert.Equal(t, "x: inference error", Inference("x", nil).Error())
}
