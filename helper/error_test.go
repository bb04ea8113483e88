package helper

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewError(t *testing.T) {
	errBase := errors.New("connection refused")

	t.Run("Nil error stays nil", func(t *testing.T) {
		assert.NoError(t, NewError("insert node", nil))
	})

	t.Run("Wraps the original error", func(t *testing.T) {
		err := NewError("insert node", errBase)

		require.Error(t, err)
		assert.ErrorIs(t, err, errBase)
		assert.Equal(t, "insert node: connection refused", err.Error())
	})

	t.Run("Extends the trace instead of nesting", func(t *testing.T) {
		err := NewError("reload graph", NewError("select nodes", errBase))

		var e *Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, []string{"reload graph", "select nodes"}, e.Trace)
		assert.Equal(t, "reload graph: select nodes: connection refused", err.Error())
	})
}
