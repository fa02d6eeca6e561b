package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishInput struct {
	Channel string `json:"channel" validate:"required,max=8"`
	Event   string `json:"event" validate:"required"`
	Kind    string `json:"kind" validate:"omitempty,oneof=chat moods"`
	Limit   int    `json:"limit" validate:"gte=0,max=100"`
}

func TestValidate(t *testing.T) {
	v := NewValidator()

	errs, ok := v.Validate(publishInput{Channel: "game-42", Event: "x"})
	assert.True(t, ok)
	assert.Empty(t, errs)

	errs, ok = v.Validate(publishInput{Channel: "too-long-channel", Kind: "other", Limit: 500})
	require.False(t, ok)

	byField := make(map[string]ValidationError)
	for _, e := range errs {
		byField[e.Field] = e
	}

	require.Len(t, byField, 4)
	assert.Equal(t, "MAX", byField["channel"].Code)
	assert.Equal(t, "channel must not exceed 8 characters", byField["channel"].Message)
	assert.Equal(t, "REQUIRED", byField["event"].Code)
	assert.Equal(t, "event is required", byField["event"].Message)
	assert.Equal(t, "ONEOF", byField["kind"].Code)
	assert.Equal(t, "limit must not exceed 100", byField["limit"].Message)
}
