package sqlite

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// Vectors are stored as little-endian float32 BLOBs, 4 bytes per component.

// float32ArrayToBLOB converts a []float32 to its BLOB form. An empty vector
// maps to nil so the column stays NULL.
func float32ArrayToBLOB(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(v))
	}
	return buf
}

// blobToFloat32Array is the inverse of float32ArrayToBLOB.
func blobToFloat32Array(blob []byte) ([]float32, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	if len(blob)%4 != 0 {
		return nil, errors.Errorf("invalid BLOB length %d, not a multiple of 4", len(blob))
	}
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4 : i*4+4]))
	}
	return vec, nil
}
