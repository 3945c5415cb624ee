package mq

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermanentWrapping(t *testing.T) {
	base := errors.New("bad payload")

	assert.Nil(t, Permanent(nil))
	assert.False(t, IsPermanent(base))

	wrapped := Permanent(base)
	assert.True(t, IsPermanent(wrapped))
	assert.ErrorIs(t, wrapped, base)
	assert.Equal(t, "bad payload", wrapped.Error())

	// still detected once wrapped again by a caller
	assert.True(t, IsPermanent(fmt.Errorf("handle todo.overdue: %w", wrapped)))
}
