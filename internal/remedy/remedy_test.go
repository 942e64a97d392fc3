package remedy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
)

func TestLookup(t *testing.T) {
	t.Parallel()

	table := Default()
	tests := []struct {
		label string
		want  string
	}{
		{"Tomato___healthy", "Plant is healthy. Ensure proper sunlight and soil care."},
		{"Pepper__bell___Bacterial_spot", "Use copper-based fungicides. Avoid overhead irrigation. Remove infected leaves."},
		{"Pepper__bell___healthy", "Plant is healthy. Maintain proper watering and nutrients."},
		{"Tomato___Late_blight", "Apply fungicides like chlorothalonil or mancozeb. Remove infected leaves."},
		{"Tomato___Early_blight", "Use fungicide sprays and practice crop rotation."},
		{"Unknown___Disease", "No treatment information available. Consult an agricultural expert."},
		{"", Fallback},
		{"tomato___healthy", Fallback},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, table.Lookup(tt.label))
		})
	}
}

func TestDefaultTable(t *testing.T) {
	t.Parallel()

	table := Default()
	assert.Equal(t, 5, table.Len())
	assert.Equal(t, []string{
		"Pepper__bell___Bacterial_spot",
		"Pepper__bell___healthy",
		"Tomato___Early_blight",
		"Tomato___Late_blight",
		"Tomato___healthy",
	}, table.Labels())

	e, ok := table.Entry("Tomato___Early_blight")
	require.True(t, ok)
	assert.NotEmpty(t, e.Prevention)
}

func TestLoadOverride(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "remedies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
Tomato___healthy:
  treatment: Keep doing what you are doing.
Potato___Late_blight:
  treatment: Remove and destroy infected haulms.
`), 0o600))

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6, table.Len())
	assert.Equal(t, "Keep doing what you are doing.", table.Lookup("Tomato___healthy"))
	assert.Equal(t, "Remove and destroy infected haulms.", table.Lookup("Potato___Late_blight"))
	assert.Equal(t, "Use fungicide sprays and practice crop rotation.", table.Lookup("Tomato___Early_blight"))

	// overrides never leak into the built-in table
	assert.Equal(t, "Plant is healthy. Ensure proper sunlight and soil care.", Default().Lookup("Tomato___healthy"))
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))

	_, err = Parse([]byte("Tomato___healthy:\n  prevention: [a]\n"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	_, err = Parse([]byte("- just\n- a list\n"))
	require.Error(t, err)

	table, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, table.Len())
}
