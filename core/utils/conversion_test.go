package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToInt(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
	}{
		{"Int", 7, 7},
		{"Float64", float64(42), 42},
		{"FloatTruncates", 3.9, 3},
		{"String", "12", 12},
		{"FloatString", "12.5", 12},
		{"Bytes", []byte("5"), 5},
		{"BoolTrue", true, 1},
		{"Nil", nil, 0},
		{"Garbage", "abc", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToInt(tt.in))
		})
	}
}

func TestToFloat(t *testing.T) {
	assert.Equal(t, 10276.64, ToFloat("10276.64"))
	assert.Equal(t, 3.0, ToFloat(3))
	assert.Equal(t, 0.0, ToFloat(nil))
	assert.Equal(t, 0.0, ToFloat(struct{}{}))
}

func TestToString(t *testing.T) {
	assert.Equal(t, "chunk-1", ToString("chunk-1"))
	assert.Equal(t, "2", ToString(float64(2)))
	assert.Equal(t, "0.5", ToString(0.5))
	assert.Equal(t, "", ToString(nil))
}

func TestToBool(t *testing.T) {
	assert.True(t, ToBool(true))
	assert.True(t, ToBool("TRUE"))
	assert.True(t, ToBool(float64(1)))
	assert.False(t, ToBool("no"))
	assert.False(t, ToBool(nil))
}

func TestToStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ToStrings([]any{"a", "b"}))
	assert.Equal(t, []string{"x"}, ToStrings([]string{"x"}))
	assert.Nil(t, ToStrings("x"))
}
