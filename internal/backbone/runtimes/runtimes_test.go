package runtimes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/backbone"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
)

func TestOpenUnknownRuntime(t *testing.T) {
	t.Parallel()

	fe, err := Open(backbone.Options{Runtime: "pytorch", Path: "model.pt"})
	require.Error(t, err)
	assert.Nil(t, fe)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}
