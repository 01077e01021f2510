// Package shapefile serializes centroid datasets as ESRI point shapefiles
// (.shp, .shx, .dbf) with a WGS84 .prj sidecar, and reads them back.
package shapefile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/kass/go-gazetteer/pkg/models"
)

var (
	// ErrWriteFailure wraps every error raised while writing a dataset
	ErrWriteFailure = errors.New("write failure")
	// ErrEmptyDataset is returned instead of writing a shapefile with no points
	ErrEmptyDataset = errors.New("dataset has no centroids")
	// ErrNotPoint is returned when reading a shapefile whose shapes are not single points
	ErrNotPoint = errors.New("geometry is not a point")
)

// maxStringField is the widest character field dBASE allows
const maxStringField = 254

// wgs84 is the ESRI WKT for EPSG:4326
const wgs84 = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

// Contents is a shapefile read back from disk
type Contents struct {
	Fields  []string
	Dataset *models.CentroidDataset
}

// BasePath strips a trailing .shp so sidecar files can be derived from it
func BasePath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".shp") {
		return path[:len(path)-len(".shp")]
	}
	return path
}

// Write stores the dataset at path, replacing any shapefile already there.
// Only the identifier attribute and the point geometry are written.
func Write(path, idField string, ds *models.CentroidDataset) error {
	if ds.Len() == 0 {
		return fmt.Errorf("%w: %w", ErrWriteFailure, ErrEmptyDataset)
	}

	base := BasePath(path)
	width, err := fieldWidth(ds)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}

	writer, err := shp.Create(base+".shp", shp.POINT)
	if err != nil {
		return fmt.Errorf("%w: failed to create shapefile: %w", ErrWriteFailure, err)
	}

	if err := writer.SetFields([]shp.Field{shp.StringField(idField, width)}); err != nil {
		writer.Close()
		return fmt.Errorf("%w: failed to set fields: %w", ErrWriteFailure, err)
	}

	for _, c := range ds.Centroids {
		row := writer.Write(&shp.Point{X: c.Lon(), Y: c.Lat()})
		if err := writer.WriteAttribute(int(row), 0, c.ID); err != nil {
			writer.Close()
			return fmt.Errorf("%w: failed to write attribute for %q: %w", ErrWriteFailure, c.ID, err)
		}
	}
	writer.Close()

	// go-shp v0.1.1 names the attribute table <base>dbf
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		return fmt.Errorf("%w: failed to place attribute table: %w", ErrWriteFailure, err)
	}

	if ds.SRID == models.SRIDWGS84 {
		if err := os.WriteFile(base+".prj", []byte(wgs84), 0o644); err != nil {
			return fmt.Errorf("%w: failed to write projection: %w", ErrWriteFailure, err)
		}
	}
	if err := os.WriteFile(base+".cpg", []byte("UTF-8"), 0o644); err != nil {
		return fmt.Errorf("%w: failed to write code page: %w", ErrWriteFailure, err)
	}

	return nil
}

// Read loads a point shapefile written by Write. The first attribute is
// taken as the identifier. dBASE pads character fields with blanks, so an
// identifier written with trailing spaces comes back without them.
func Read(path string) (*Contents, error) {
	base := BasePath(path)

	reader, err := shp.Open(base + ".shp")
	if err != nil {
		return nil, fmt.Errorf("failed to open shapefile: %w", err)
	}
	defer reader.Close()

	if reader.GeometryType != shp.POINT {
		return nil, fmt.Errorf("%w: shape type %d", ErrNotPoint, reader.GeometryType)
	}

	fields := reader.Fields()
	names := make([]string, 0, len(fields)+1)
	names = append(names, "geometry")
	for _, f := range fields {
		names = append(names, f.String())
	}

	ds := &models.CentroidDataset{SRID: readSRID(base)}
	for reader.Next() {
		n, shape := reader.Shape()
		pt, ok := shape.(*shp.Point)
		if !ok {
			return nil, fmt.Errorf("%w: record %d is %T", ErrNotPoint, n, shape)
		}

		id := ""
		if len(fields) > 0 {
			id = strings.TrimRight(reader.ReadAttribute(n, 0), "\x00 ")
		}
		ds.Centroids = append(ds.Centroids, models.NewCentroid(id, pt.Y, pt.X))
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("failed to read shapes: %w", err)
	}

	return &Contents{Fields: names, Dataset: ds}, nil
}

func fieldWidth(ds *models.CentroidDataset) (uint8, error) {
	width := 1
	for _, c := range ds.Centroids {
		if len(c.ID) > width {
			width = len(c.ID)
		}
	}
	if width > maxStringField {
		return 0, fmt.Errorf("identifier longer than %d bytes", maxStringField)
	}
	return uint8(width), nil
}

func readSRID(base string) int {
	data, err := os.ReadFile(base + ".prj")
	if err != nil {
		return 0
	}
	if strings.Contains(string(data), "WGS_1984") {
		return models.SRIDWGS84
	}
	return 0
}
