// Package geo indexes a centroid dataset in an R-tree so written output can
// be spot checked by bounding box, radius or nearest neighbour.
package geo

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/dhconnelly/rtreego"
	"github.com/kass/go-gazetteer/pkg/models"
)

const (
	tolerance   = 0.0001
	minChildren = 25
	maxChildren = 50
	dimensions  = 2
	earthRadius = 6371.0 // km

	// beyond this latitude a radius box spans every longitude
	maxLatForLonScaling = 89.0
)

// Neighbor is a search hit with its great-circle distance from the query
type Neighbor struct {
	Centroid   models.Centroid
	DistanceKm float64
}

// spatialItem wraps a centroid for R-tree indexing. Axes are (lon, lat).
type spatialItem struct {
	centroid models.Centroid
	rect     rtreego.Rect
}

func (si *spatialItem) Bounds() rtreego.Rect {
	return si.rect
}

func (si *spatialItem) location() models.Location {
	return models.Location{Lat: si.centroid.Lat(), Lon: si.centroid.Lon()}
}

// Index is a read-mostly R-tree over centroids
type Index struct {
	tree *rtreego.Rtree
	mu   sync.RWMutex
}

// NewIndex creates an empty index
func NewIndex() *Index {
	return &Index{
		tree: rtreego.NewTree(dimensions, minChildren, maxChildren),
	}
}

// Load replaces the index contents with the dataset, bulk loading the tree.
// Item rectangles are built in parallel across CPUs.
func (g *Index) Load(ds *models.CentroidDataset) {
	items := buildItems(ds)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.tree = rtreego.NewTree(dimensions, minChildren, maxChildren, items...)
}

func buildItems(ds *models.CentroidDataset) []rtreego.Spatial {
	n := ds.Len()
	if n == 0 {
		return nil
	}

	items := make([]rtreego.Spatial, n)
	workers := runtime.NumCPU()
	batch := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += batch {
		end := min(start+batch, n)
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				c := ds.Centroids[i]
				p := rtreego.Point{c.Lon(), c.Lat()}
				items[i] = &spatialItem{centroid: c, rect: p.ToRect(tolerance)}
			}
		}(start, end)
	}
	wg.Wait()

	return items
}

// SearchBox returns every centroid inside the box, edges included
func (g *Index) SearchBox(box models.BoundingBox) ([]models.Centroid, error) {
	bl, tr := box.BottomLeft, box.TopRight
	if tr.Lat < bl.Lat || tr.Lon < bl.Lon {
		return nil, fmt.Errorf("invalid bounding box: top right %v is below or left of bottom left %v", tr, bl)
	}
	bounds, err := rtreego.NewRectFromPoints(
		rtreego.Point{bl.Lon, bl.Lat},
		rtreego.Point{tr.Lon, tr.Lat},
	)
	if err != nil {
		return nil, fmt.Errorf("invalid bounding box: %w", err)
	}

	g.mu.RLock()
	results := g.tree.SearchIntersect(bounds)
	g.mu.RUnlock()

	centroids := make([]models.Centroid, 0, len(results))
	for _, result := range results {
		item, ok := result.(*spatialItem)
		if !ok {
			continue
		}
		lat, lon := item.centroid.Lat(), item.centroid.Lon()
		if lat >= bl.Lat && lat <= tr.Lat && lon >= bl.Lon && lon <= tr.Lon {
			centroids = append(centroids, item.centroid)
		}
	}
	return centroids, nil
}

// SearchRadius returns the centroids within radiusKm of the center, closest first
func (g *Index) SearchRadius(center models.Location, radiusKm float64) ([]Neighbor, error) {
	if radiusKm <= 0 {
		return nil, fmt.Errorf("invalid radius search: radius must be positive, got %g", radiusKm)
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.within(center, radiusKm)
}

// NearestNeighbors returns up to n centroids closest to the location by
// great-circle distance. The tree ranks candidates in degree space, so the
// farthest of its n picks only bounds the answer; a radius search at that
// distance yields the exact set.
func (g *Index) NearestNeighbors(loc models.Location, n int) []Neighbor {
	if n <= 0 {
		return nil
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	var bound float64
	found := 0
	for _, result := range g.tree.NearestNeighbors(n, rtreego.Point{loc.Lon, loc.Lat}) {
		item, ok := result.(*spatialItem)
		if !ok {
			continue
		}
		found++
		bound = math.Max(bound, Distance(loc, item.location()))
	}
	if found == 0 {
		return nil
	}

	// widen slightly so the bounding centroid survives float rounding
	neighbors, err := g.within(loc, bound*(1+1e-9)+1e-9)
	if err != nil {
		return nil
	}
	if len(neighbors) > n {
		neighbors = neighbors[:n]
	}
	return neighbors
}

// within runs the radius search; callers hold the read lock
func (g *Index) within(center models.Location, radiusKm float64) ([]Neighbor, error) {
	rects, err := searchRects(center, radiusKm)
	if err != nil {
		return nil, fmt.Errorf("invalid radius search: %w", err)
	}

	var neighbors []Neighbor
	for _, bounds := range rects {
		for _, result := range g.tree.SearchIntersect(bounds) {
			item, ok := result.(*spatialItem)
			if !ok {
				continue
			}
			d := Distance(center, item.location())
			if d <= radiusKm {
				neighbors = append(neighbors, Neighbor{Centroid: item.centroid, DistanceKm: d})
			}
		}
	}
	sortByDistance(neighbors)
	return neighbors, nil
}

// searchRects covers the circle around center with (lon, lat) rectangles.
// The longitude half-span grows as 1/cos(lat) toward the poles; a box that
// reaches a pole spans every longitude, and one crossing ±180 is split in two.
func searchRects(center models.Location, radiusKm float64) ([]rtreego.Rect, error) {
	deg := (radiusKm / earthRadius) * (180 / math.Pi)
	minLat := math.Max(center.Lat-deg, -90)
	maxLat := math.Min(center.Lat+deg, 90)

	poleward := math.Max(math.Abs(minLat), math.Abs(maxLat))
	var spans [][2]float64
	if poleward >= maxLatForLonScaling {
		spans = [][2]float64{{-180, 180}}
	} else {
		half := deg / math.Cos(poleward*math.Pi/180)
		lo, hi := center.Lon-half, center.Lon+half
		switch {
		case hi-lo >= 360:
			spans = [][2]float64{{-180, 180}}
		case lo < -180:
			spans = [][2]float64{{lo + 360, 180}, {-180, hi}}
		case hi > 180:
			spans = [][2]float64{{lo, 180}, {-180, hi - 360}}
		default:
			spans = [][2]float64{{lo, hi}}
		}
	}

	rects := make([]rtreego.Rect, 0, len(spans))
	for _, span := range spans {
		r, err := rtreego.NewRectFromPoints(
			rtreego.Point{span[0], minLat},
			rtreego.Point{span[1], maxLat},
		)
		if err != nil {
			return nil, err
		}
		rects = append(rects, r)
	}
	return rects, nil
}

// Size returns the number of indexed centroids
func (g *Index) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.tree.Size()
}

// Clear removes all centroids from the index
func (g *Index) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tree = rtreego.NewTree(dimensions, minChildren, maxChildren)
}

// Distance is the haversine distance between two locations in kilometers
func Distance(a, b models.Location) float64 {
	lat1 := a.Lat * math.Pi / 180.0
	lat2 := b.Lat * math.Pi / 180.0
	dLat := lat2 - lat1
	dLon := (b.Lon - a.Lon) * math.Pi / 180.0

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadius * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func sortByDistance(ns []Neighbor) {
	sort.SliceStable(ns, func(i, j int) bool {
		return ns[i].DistanceKm < ns[j].DistanceKm
	})
}
