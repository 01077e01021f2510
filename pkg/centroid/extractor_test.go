package centroid

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/Flaque/filet"
	"github.com/jonboulle/clockwork"
	"github.com/kass/go-gazetteer/pkg/config"
	"github.com/kass/go-gazetteer/pkg/gazetteer"
	"github.com/kass/go-gazetteer/pkg/models"
	"github.com/kass/go-gazetteer/pkg/shapefile"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gazSample = "GEOID|ALAND|AWATER|INTPTLAT|INTPTLONG\n" +
	"00501|0|0|40.813078|-73.046388\n" +
	"00601|166836392|799300|18.180555|-66.749961\n" +
	"00602|78546588|4428425||-67.175597\n" +
	"00603|0|0|18.4|n/a\n" +
	"00604|0|0|NaN|-67.1\n" +
	"00606|0|0| 18.182151 | -66.9588\n"

func TestCoerce(t *testing.T) {
	records := []models.InputRecord{
		{Identifier: "00501", LatitudeRaw: "40.813078", LongitudeRaw: "-73.046388"},
		{Identifier: "00602", LatitudeRaw: "", LongitudeRaw: "-67.175597"},
		{Identifier: "00603", LatitudeRaw: "18.4", LongitudeRaw: "abc"},
		{Identifier: "00604", LatitudeRaw: "Inf", LongitudeRaw: "-67.1"},
		{Identifier: "00605", LatitudeRaw: "18.3", LongitudeRaw: "nan"},
		{Identifier: "00606", LatitudeRaw: " 18.182151", LongitudeRaw: "-66.9588 "},
	}

	points, dropped := Coerce(records)
	assert.Equal(t, 4, dropped)
	require.Len(t, points, 2)
	assert.Equal(t, "00501", points[0].ID)
	assert.Equal(t, "00606", points[1].ID)
	assert.InDelta(t, 18.182151, points[1].Location.Lat, 1e-12)
	assert.InDelta(t, -66.9588, points[1].Location.Lon, 1e-12)
}

func TestCoerce_RejectsHexFloats(t *testing.T) {
	records := []models.InputRecord{
		{Identifier: "00701", LatitudeRaw: "0x1p4", LongitudeRaw: "-67.1"},
		{Identifier: "00702", LatitudeRaw: "18.4", LongitudeRaw: "-0X1p6"},
		{Identifier: "00703", LatitudeRaw: "+0x12", LongitudeRaw: "-67.1"},
		{Identifier: "00704", LatitudeRaw: "0.5", LongitudeRaw: "-0.25"},
	}

	points, dropped := Coerce(records)
	assert.Equal(t, 3, dropped)
	require.Len(t, points, 1)
	assert.Equal(t, "00704", points[0].ID)
}

func TestCoerce_CountInvariant(t *testing.T) {
	records, err := gazetteer.Read(bytes.NewBufferString(gazSample), '|',
		gazetteer.Columns{ID: "GEOID", Lat: "INTPTLAT", Lon: "INTPTLONG"})
	require.NoError(t, err)

	points, dropped := Coerce(records)
	assert.Equal(t, len(records), len(points)+dropped)
}

func TestBuildDataset_CoordinateOrder(t *testing.T) {
	ds := BuildDataset([]models.Point{{ID: "08001", Location: &models.Location{Lat: 40.0, Lon: -75.0}}})

	require.Equal(t, 1, ds.Len())
	assert.Equal(t, models.SRIDWGS84, ds.SRID)
	c := ds.Centroids[0]
	assert.Equal(t, -75.0, c.Geometry.X())
	assert.Equal(t, 40.0, c.Geometry.Y())
	assert.Equal(t, models.SRIDWGS84, c.Geometry.SRID())
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Cleanup(func() { filet.CleanUp(t) })

	dir := t.TempDir()
	input := filepath.Join(dir, "2025_Gaz_zcta_national.txt")
	filet.File(t, input, gazSample)

	cfg := config.Default()
	cfg.Input = input
	cfg.Output = filepath.Join(dir, "zip_code_centroids.shp")
	return cfg
}

func TestExtractor_Run(t *testing.T) {
	cfg := newTestConfig(t)
	var out bytes.Buffer

	ex := NewExtractor(cfg, zerolog.Nop(), &out)
	clock := clockwork.NewFakeClock()
	ex.SetClock(clock)

	ds, res, err := ex.Run()
	require.NoError(t, err)

	assert.Equal(t, 6, res.Total)
	assert.Equal(t, 3, res.Written)
	assert.Equal(t, 3, res.Dropped)
	assert.Equal(t, time.Duration(0), res.Elapsed)
	assert.Equal(t, "Writing 3 centroids to "+cfg.Output+"...\nDone.\n", out.String())

	got, err := shapefile.Read(cfg.Output)
	require.NoError(t, err)
	assert.Equal(t, []string{"geometry", "ZIP"}, got.Fields)
	require.Equal(t, ds.Len(), got.Dataset.Len())
	for i, c := range got.Dataset.Centroids {
		assert.Equal(t, ds.Centroids[i].ID, c.ID)
		assert.InDelta(t, ds.Centroids[i].Lon(), c.Lon(), 1e-9)
		assert.InDelta(t, ds.Centroids[i].Lat(), c.Lat(), 1e-9)
	}
	assert.Equal(t, "00501", got.Dataset.Centroids[0].ID)
}

func TestExtractor_MissingInput(t *testing.T) {
	cfg := config.Default()
	cfg.Input = filepath.Join(t.TempDir(), "absent.txt")
	cfg.Output = filepath.Join(t.TempDir(), "out.shp")

	_, _, err := NewExtractor(cfg, zerolog.Nop(), nil).Run()
	require.ErrorIs(t, err, gazetteer.ErrMissingInput)
}

func TestExtractor_AllRowsDropped(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "bad.txt")
	filet.File(t, input, "GEOID|INTPTLAT|INTPTLONG\n00501||\n00601|x|y\n")
	defer filet.CleanUp(t)

	cfg := config.Default()
	cfg.Input = input
	cfg.Output = filepath.Join(dir, "out.shp")

	_, res, err := NewExtractor(cfg, zerolog.Nop(), nil).Run()
	require.ErrorIs(t, err, shapefile.ErrEmptyDataset)
	assert.Equal(t, 2, res.Dropped)
	assert.Equal(t, 0, res.Written)
}
