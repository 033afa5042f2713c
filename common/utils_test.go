package common

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 5, Coalesce(0, 5, 7))
	assert.Equal(t, "a", Coalesce("a", "b"))
	assert.Equal(t, 0, Coalesce(0, 0))
	assert.Equal(t, uint64(9), Coalesce[uint64](9))
}

func TestSliceToBytesLayout(t *testing.T) {
	type probe struct {
		A uint32
		B float32
	}
	raw := SliceToBytes([]probe{{A: 7, B: 1.5}, {A: 9, B: -2}})
	require.Len(t, raw, 16)
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(raw[0:4]))
	assert.Equal(t, float32(1.5), math.Float32frombits(binary.LittleEndian.Uint32(raw[4:8])))
	assert.Equal(t, uint32(9), binary.LittleEndian.Uint32(raw[8:12]))
	assert.Equal(t, float32(-2), math.Float32frombits(binary.LittleEndian.Uint32(raw[12:16])))

	assert.Nil(t, SliceToBytes([]probe(nil)))
}

func TestStructToBytes(t *testing.T) {
	v := struct {
		X uint16
		Y uint16
	}{X: 0x0102, Y: 0x0304}
	raw := StructToBytes(&v)
	require.Len(t, raw, 4)
	assert.Equal(t, uint16(0x0102), binary.LittleEndian.Uint16(raw[0:2]))
	assert.Equal(t, uint16(0x0304), binary.LittleEndian.Uint16(raw[2:4]))
}
