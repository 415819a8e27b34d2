package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "bloodlink/pkg/domain-errors"
)

func TestDistanceKnownPairs(t *testing.T) {
	tests := []struct {
		name string
		a, b Location
		want float64
	}{
		{"same point", At(27.7172, 85.3240), At(27.7172, 85.3240), 0},
		{"one degree of longitude at equator", At(0, 0), At(0, 1), 111.19},
		{"one degree of latitude", At(0, 0), At(1, 0), 111.19},
		{"pole to pole", At(90, 0), At(-90, 0), 20015.09},
		{"antipodal on equator", At(0, 0), At(0, 180), 20015.09},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := Distance(tt.a, tt.b)
			require.NoError(t, err)
			require.True(t, ok)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestDistanceIsSymmetric(t *testing.T) {
	pairs := [][2]Location{
		{At(27.7172, 85.3240), At(28.2096, 83.9856)},
		{At(-33.8688, 151.2093), At(51.5074, -0.1278)},
		{At(40.7128, -74.0060), At(34.0522, -118.2437)},
	}
	for _, p := range pairs {
		ab, ok1, err1 := Distance(p[0], p[1])
		ba, ok2, err2 := Distance(p[1], p[0])
		require.NoError(t, err1)
		require.NoError(t, err2)
		require.True(t, ok1 && ok2)
		assert.Equal(t, ab, ba)
	}
}

func TestDistanceRoundsToTwoDecimals(t *testing.T) {
	got, ok, err := Distance(At(27.7172, 85.3240), At(28.2096, 83.9856))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, got, math.Round(got*100)/100)
}

func TestDistanceUnknownWhenCoordinateMissing(t *testing.T) {
	lat := 10.0
	partial := Location{Latitude: &lat}

	cases := [][2]Location{
		{partial, At(0, 0)},
		{At(0, 0), partial},
		{Location{}, Location{}},
	}
	for _, c := range cases {
		_, ok, err := Distance(c[0], c[1])
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestDistanceRejectsMalformedInput(t *testing.T) {
	cases := []Location{
		At(math.NaN(), 0),
		At(0, math.Inf(1)),
		At(91, 0),
		At(0, -180.5),
	}
	for _, bad := range cases {
		_, ok, err := Distance(bad, At(0, 0))
		require.Error(t, err)
		assert.False(t, ok)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	}
}
