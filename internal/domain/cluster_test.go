package domain

import (
	"testing"

	"github.com/Vovarama1992/grenades/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func throwAt(id string, tx, ty, lx, ly float64) models.GrenadeThrow {
	return models.GrenadeThrow{
		ID:            id,
		ThrowPointX:   tx,
		ThrowPointY:   ty,
		LandingPointX: lx,
		LandingPointY: ly,
	}
}

func ids(throws []models.GrenadeThrow) []string {
	out := make([]string, 0, len(throws))
	for _, t := range throws {
		out = append(out, t.ID)
	}
	return out
}

func TestGroupNearbyThrows(t *testing.T) {
	throws := []models.GrenadeThrow{
		throwAt("a", 10, 10, 0, 0),
		throwAt("b", 11, 11, 0, 0),
		throwAt("c", 50, 50, 0, 0),
	}

	clusters := GroupNearbyThrows(throws, ThrowPointSide)

	require.Len(t, clusters, 2)
	assert.Equal(t, []string{"a", "b"}, ids(clusters[0].Throws))
	assert.Equal(t, models.Point{X: 10, Y: 10}, clusters[0].Position)
	assert.Equal(t, []string{"c"}, ids(clusters[1].Throws))
}

func TestGroupNearbyThrowsEmpty(t *testing.T) {
	assert.Empty(t, GroupNearbyThrows(nil, ThrowPointSide))
}

func TestGroupNearbyThrowsRadiusIsInclusive(t *testing.T) {
	throws := []models.GrenadeThrow{
		throwAt("a", 10, 10, 0, 0),
		throwAt("b", 13, 10, 0, 0),
		throwAt("c", 13.01, 10, 0, 0),
	}

	clusters := GroupNearbyThrows(throws, ThrowPointSide)

	require.Len(t, clusters, 2)
	assert.Equal(t, []string{"a", "b"}, ids(clusters[0].Throws))
	assert.Equal(t, []string{"c"}, ids(clusters[1].Throws))
}

func TestGroupNearbyThrowsSidesAreIndependent(t *testing.T) {
	// same lineup spot, different landing spots
	throws := []models.GrenadeThrow{
		throwAt("a", 20, 20, 60, 60),
		throwAt("b", 20, 21, 80, 80),
	}

	assert.Len(t, GroupNearbyThrows(throws, ThrowPointSide), 1)
	assert.Len(t, GroupNearbyThrows(throws, LandingPointSide), 2)
}

func TestGroupNearbyThrowsDependsOnOrder(t *testing.T) {
	a := throwAt("a", 10, 10, 0, 0)
	b := throwAt("b", 12.5, 10, 0, 0)
	c := throwAt("c", 15, 10, 0, 0)

	// a opens and takes b; c is 5 away from a
	first := GroupNearbyThrows([]models.GrenadeThrow{a, b, c}, ThrowPointSide)
	require.Len(t, first, 2)
	assert.Equal(t, []string{"a", "b"}, ids(first[0].Throws))

	// b opens and takes both neighbours
	second := GroupNearbyThrows([]models.GrenadeThrow{b, a, c}, ThrowPointSide)
	require.Len(t, second, 1)
	assert.Equal(t, []string{"b", "a", "c"}, ids(second[0].Throws))
}

func TestGroupNearbyThrowsCoversEveryThrowOnce(t *testing.T) {
	var throws []models.GrenadeThrow
	for i := 0; i < 20; i++ {
		x := float64(i * 2)
		throws = append(throws, throwAt(string(rune('a'+i)), x, x/2, 100-x, x))
	}

	for _, side := range []Side{ThrowPointSide, LandingPointSide} {
		seen := map[string]int{}
		for _, c := range GroupNearbyThrows(throws, side) {
			require.NotEmpty(t, c.Throws, side.String())
			for _, th := range c.Throws {
				seen[th.ID]++
			}
		}
		assert.Len(t, seen, len(throws), side.String())
		for id, n := range seen {
			assert.Equal(t, 1, n, "throw %s on %s side", id, side)
		}
	}
}
