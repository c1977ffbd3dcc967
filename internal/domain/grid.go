package domain

import (
	"fmt"
	"math"
	"sort"
)

// Grid is a labeled latitude/longitude dataset holding one layer of values
// per weather variable. Layers are row-major over (latitude, longitude):
// Layers[name][i*len(Lons)+j] is the value at (Lats[i], Lons[j]).
type Grid struct {
	Lats   []float64
	Lons   []float64
	Layers map[string][]float64
}

// NumPoints returns the number of grid points.
func (g *Grid) NumPoints() int {
	return len(g.Lats) * len(g.Lons)
}

// Validate checks that every layer matches the grid dimensions.
func (g *Grid) Validate() error {
	if len(g.Lats) == 0 || len(g.Lons) == 0 {
		return fmt.Errorf("empty grid: %d latitudes, %d longitudes", len(g.Lats), len(g.Lons))
	}
	want := g.NumPoints()
	for name, layer := range g.Layers {
		if len(layer) != want {
			return fmt.Errorf("layer %q has %d values, grid has %d points", name, len(layer), want)
		}
	}
	return nil
}

// NormalizeLongitude maps a longitude in degrees to [-180, 180). Total over
// all finite inputs.
func NormalizeLongitude(lon float64) float64 {
	m := math.Mod(lon+180, 360)
	if m < 0 {
		m += 360
	}
	return m - 180
}

// NormalizeLongitudes rewrites the grid's longitude coordinate from the
// [0, 360) convention used by GFS to [-180, 180), then re-sorts the
// longitude axis ascending and reorders every layer's columns to match. A
// second application is a no-op: remapped values already lie in [-180, 180)
// and are already sorted.
func (g *Grid) NormalizeLongitudes() {
	remapped := make([]float64, len(g.Lons))
	perm := make([]int, len(g.Lons))
	for j, lon := range g.Lons {
		remapped[j] = NormalizeLongitude(lon)
		perm[j] = j
	}
	sort.SliceStable(perm, func(a, b int) bool {
		return remapped[perm[a]] < remapped[perm[b]]
	})

	sorted := make([]float64, len(g.Lons))
	for j, src := range perm {
		sorted[j] = remapped[src]
	}
	g.Lons = sorted

	for name, layer := range g.Layers {
		out := make([]float64, len(layer))
		for i := range g.Lats {
			row := i * len(perm)
			for j, src := range perm {
				out[row+j] = layer[row+src]
			}
		}
		g.Layers[name] = out
	}
}
