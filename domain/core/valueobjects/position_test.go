package valueobjects

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPosition(t *testing.T) {
	tests := []struct {
		name    string
		x, y    float64
		wantErr bool
		errMsg  string
	}{
		{name: "origin", x: 0, y: 0},
		{name: "negative coordinates", x: -100.5, y: -200.75},
		{name: "very large coordinates", x: 1e10, y: -1e10},
		{name: "NaN x", x: math.NaN(), y: 0, wantErr: true, errMsg: "invalid coordinates"},
		{name: "infinite y", x: 0, y: math.Inf(1), wantErr: true, errMsg: "invalid coordinates"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, err := NewPosition(tt.x, tt.y)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.x, pos.X())
			assert.Equal(t, tt.y, pos.Y())
		})
	}
}

func TestPosition_TranslateAndDelta(t *testing.T) {
	start := MustPosition(100, 100)

	moved, err := start.Translate(25, -10)
	require.NoError(t, err)
	assert.True(t, moved.Equals(MustPosition(125, 90)))

	dx, dy := start.Delta(moved)
	assert.Equal(t, 25.0, dx)
	assert.Equal(t, -10.0, dy)

	_, err = start.Translate(math.Inf(-1), 0)
	assert.Error(t, err)
}
