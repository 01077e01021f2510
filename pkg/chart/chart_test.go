package chart

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kass/go-gazetteer/pkg/infiltration"
	"github.com/kass/go-gazetteer/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func assertPNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), len(pngMagic))
	assert.Equal(t, pngMagic, data[:len(pngMagic)])
}

func TestInfiltration(t *testing.T) {
	p := infiltration.Params{Ks: 0.53, ThetaS: 0.518, ThetaI: 0.215, Psi: -9.37, RainIntensity: 6.5}
	c, err := infiltration.Compute(p, 1.0, 500)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "infiltration.png")
	require.NoError(t, Infiltration(c, p, path))
	assertPNG(t, path)
}

func TestInfiltration_SkipsNonFinite(t *testing.T) {
	p := infiltration.Params{Ks: 0.53, ThetaS: 0.518, ThetaI: 0.215, Psi: -9.37, RainIntensity: 0.3}
	c, err := infiltration.Compute(p, 1.0, 50)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "no_ponding.png")
	require.NoError(t, Infiltration(c, p, path))
	assertPNG(t, path)
}

func TestCentroids(t *testing.T) {
	ds := &models.CentroidDataset{
		SRID: models.SRIDWGS84,
		Centroids: []models.Centroid{
			models.NewCentroid("00501", 40.813078, -73.046388),
			models.NewCentroid("00601", 18.180555, -66.749961),
			models.NewCentroid("99929", 56.370930, -131.893282),
		},
	}

	path := filepath.Join(t.TempDir(), "zip_code_centroids.png")
	require.NoError(t, Centroids(ds, path))
	assertPNG(t, path)
}

func TestCentroids_Empty(t *testing.T) {
	err := Centroids(&models.CentroidDataset{}, filepath.Join(t.TempDir(), "empty.png"))
	require.ErrorIs(t, err, ErrNothingToDraw)
}
