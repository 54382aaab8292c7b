package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorBLOBCodec(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		vec := []float32{0.25, -1.5, 0, 3.14159, 1e-7}
		decoded, err := blobToFloat32Array(float32ArrayToBLOB(vec))
		require.NoError(t, err)
		assert.Equal(t, vec, decoded)
	})

	t.Run("EmptyVectorIsNullBlob", func(t *testing.T) {
		assert.Nil(t, float32ArrayToBLOB(nil))

		decoded, err := blobToFloat32Array(nil)
		require.NoError(t, err)
		assert.Nil(t, decoded)
	})

	t.Run("TruncatedBlob", func(t *testing.T) {
		blob := float32ArrayToBLOB([]float32{1, 2, 3})
		_, err := blobToFloat32Array(blob[:len(blob)-2])
		assert.Error(t, err)
	})
}
