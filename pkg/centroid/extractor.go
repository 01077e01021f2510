// Package centroid turns gazetteer rows into a WGS84 point dataset and
// writes it out as a shapefile.
package centroid

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/kass/go-gazetteer/pkg/config"
	"github.com/kass/go-gazetteer/pkg/gazetteer"
	"github.com/kass/go-gazetteer/pkg/models"
	"github.com/kass/go-gazetteer/pkg/shapefile"
	"github.com/rs/zerolog"
)

// Result summarizes one extraction run
type Result struct {
	Input   string
	Output  string
	Total   int
	Written int
	Dropped int
	Elapsed time.Duration
}

// Extractor runs the load, coerce, filter, construct and write stages
type Extractor struct {
	cfg    *config.Config
	logger zerolog.Logger
	clock  clockwork.Clock
	out    io.Writer
}

// NewExtractor creates an extractor. Progress lines go to out; nil discards them.
func NewExtractor(cfg *config.Config, logger zerolog.Logger, out io.Writer) *Extractor {
	if out == nil {
		out = io.Discard
	}
	return &Extractor{
		cfg:    cfg,
		logger: logger.With().Str("component", "extractor").Logger(),
		clock:  clockwork.NewRealClock(),
		out:    out,
	}
}

// SetClock replaces the clock used to time runs
func (e *Extractor) SetClock(c clockwork.Clock) {
	e.clock = c
}

// Run executes the whole pipeline once. Rows with a missing or non-numeric
// coordinate are dropped and counted; they never fail the run.
func (e *Extractor) Run() (*models.CentroidDataset, Result, error) {
	start := e.clock.Now()
	res := Result{Input: e.cfg.Input, Output: e.cfg.Output}

	cols := gazetteer.Columns{
		ID:  e.cfg.Columns.ID,
		Lat: e.cfg.Columns.Lat,
		Lon: e.cfg.Columns.Lon,
	}
	records, err := gazetteer.ReadFile(e.cfg.Input, e.cfg.DelimiterRune(), cols)
	if err != nil {
		return nil, res, fmt.Errorf("failed to load gazetteer: %w", err)
	}
	res.Total = len(records)
	e.logger.Debug().Str("input", e.cfg.Input).Int("rows", res.Total).Msg("gazetteer loaded")

	points, dropped := Coerce(records)
	res.Dropped = dropped

	ds := BuildDataset(points)
	res.Written = ds.Len()

	fmt.Fprintf(e.out, "Writing %d centroids to %s...\n", res.Written, e.cfg.Output)
	if err := shapefile.Write(e.cfg.Output, e.cfg.IDField, ds); err != nil {
		return nil, res, fmt.Errorf("failed to write centroids: %w", err)
	}
	fmt.Fprintln(e.out, "Done.")

	res.Elapsed = e.clock.Since(start)
	e.logger.Info().
		Int("total", res.Total).
		Int("written", res.Written).
		Int("dropped", res.Dropped).
		Dur("elapsed", res.Elapsed).
		Msg("extraction complete")

	return ds, res, nil
}

// Coerce converts raw coordinate text to numbers, keeping input order.
// It returns the surviving points and how many rows were dropped.
func Coerce(records []models.InputRecord) ([]models.Point, int) {
	points := make([]models.Point, 0, len(records))
	dropped := 0
	for _, rec := range records {
		lat, ok := parseCoordinate(rec.LatitudeRaw)
		if !ok {
			dropped++
			continue
		}
		lon, ok := parseCoordinate(rec.LongitudeRaw)
		if !ok {
			dropped++
			continue
		}
		points = append(points, models.Point{
			ID:       rec.Identifier,
			Location: &models.Location{Lat: lat, Lon: lon},
		})
	}
	return points, dropped
}

// BuildDataset lays each point out as (lon, lat) and tags the set as WGS84
func BuildDataset(points []models.Point) *models.CentroidDataset {
	ds := &models.CentroidDataset{
		SRID:      models.SRIDWGS84,
		Centroids: make([]models.Centroid, 0, len(points)),
	}
	for _, p := range points {
		ds.Centroids = append(ds.Centroids, models.NewCentroid(p.ID, p.Location.Lat, p.Location.Lon))
	}
	return ds
}

// parseCoordinate treats blank, unparseable and non-finite text as missing.
// Only decimal notation counts; ParseFloat also takes hex floats like 0x1p4.
func parseCoordinate(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if digits := strings.ToLower(strings.TrimLeft(s, "+-")); strings.HasPrefix(digits, "0x") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
