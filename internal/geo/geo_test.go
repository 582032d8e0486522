package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestHaversine(t *testing.T) {
	t.Run("coincident points", func(t *testing.T) {
		p := orb.Point{-74.0060, 40.7128}
		assert.Equal(t, 0.0, Haversine(p, p))
	})

	t.Run("empire state to city hall", func(t *testing.T) {
		d := Haversine(orb.Point{-73.9857, 40.7484}, orb.Point{-74.0060, 40.7128})
		assert.InDelta(t, 4.3, d, 0.1)
	})

	t.Run("symmetric", func(t *testing.T) {
		a := orb.Point{-73.95, 40.78}
		b := orb.Point{-73.80, 40.65}
		assert.InDelta(t, Haversine(a, b), Haversine(b, a), 1e-9)
	})

	t.Run("nan propagates", func(t *testing.T) {
		d := Haversine(orb.Point{math.NaN(), 40.7}, orb.Point{-73.9, 40.7})
		assert.True(t, math.IsNaN(d))
	})
}

func TestContains(t *testing.T) {
	tests := []struct {
		name string
		p    orb.Point
		want bool
	}{
		{"inside", orb.Point{-73.98, 40.75}, true},
		{"min corner", orb.Point{-74.05, 40.55}, true},
		{"max corner", orb.Point{-73.69, 40.90}, true},
		{"west of bound", orb.Point{-74.0501, 40.75}, false},
		{"north of bound", orb.Point{-73.98, 40.9001}, false},
		{"null island", orb.Point{0, 0}, false},
		{"nan lon", orb.Point{math.NaN(), 40.75}, false},
		{"nan lat", orb.Point{-73.98, math.NaN()}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Contains(NYCBound, tt.p))
		})
	}
}
