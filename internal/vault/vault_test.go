package vault

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRead(t *testing.T) {
	v := NewWithFs(afero.NewMemMapFs())

	require.NoError(t, v.Write("notes/research.md", "# Research\n"))
	got, err := v.Read("notes/research.md")
	require.NoError(t, err)
	assert.Equal(t, "# Research\n", got)

	require.NoError(t, v.Write("notes/research.md", "replaced"))
	got, err = v.Read("notes/research.md")
	require.NoError(t, err)
	assert.Equal(t, "replaced", got)
}

func TestReadMissing(t *testing.T) {
	v := NewWithFs(afero.NewMemMapFs())
	_, err := v.Read("missing.md")
	assert.Error(t, err)
}

func TestSaveBinary(t *testing.T) {
	v := NewWithFs(afero.NewMemMapFs())

	rel, err := v.SaveBinary("assets", "image.png", []byte{1})
	require.NoError(t, err)
	assert.Equal(t, "assets/image.png", rel)

	rel, err = v.SaveBinary("assets", "image.png", []byte{2})
	require.NoError(t, err)
	assert.Equal(t, "assets/image-1.png", rel)

	assert.True(t, v.Exists("assets/image.png"))
	assert.True(t, v.Exists("assets/image-1.png"))
}

func TestRejectsEscapingPaths(t *testing.T) {
	v := NewWithFs(afero.NewMemMapFs())

	tests := []string{"../outside.md", "notes/../../outside.md"}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, v.Write(name, "x"), ErrOutsideVault)
		})
	}
}
