// Package district loads administrative district boundaries from a shapefile
// and serves them as GeoJSON. Reference data: loaded once, read-only after.
package district

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// District is one administrative area with its boundary in geographic
// coordinates.
type District struct {
	ID       int
	Name     string
	Geometry orb.Polygon
}

// Store holds the loaded districts.
type Store struct {
	districts []District
}

// Load reads district polygons from a shapefile. idField names the attribute
// carrying the numeric district id; a "name" attribute is picked up when
// present. Records without a parsable id or without geometry are skipped and
// logged.
func Load(path, idField string) (*Store, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "district: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	idIdx, nameIdx := -1, -1
	for i, f := range fields {
		name := strings.ToLower(strings.TrimRight(f.String(), "\x00"))
		switch name {
		case strings.ToLower(idField):
			idIdx = i
		case "name":
			nameIdx = i
		}
	}
	if idIdx < 0 {
		return nil, eris.Errorf("district: shapefile %s has no %q attribute", path, idField)
	}

	var districts []District
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()

		poly, ok := shape.(*shp.Polygon)
		if !ok || len(poly.Points) == 0 {
			skipped++
			continue
		}

		rawID := strings.TrimSpace(strings.TrimRight(reader.Attribute(idIdx), "\x00"))
		id, err := strconv.Atoi(rawID)
		if err != nil {
			skipped++
			zap.L().Warn("district: skipping record with bad id",
				zap.String("raw_id", rawID),
			)
			continue
		}

		d := District{ID: id, Geometry: toOrbPolygon(poly)}
		if nameIdx >= 0 {
			d.Name = strings.TrimSpace(strings.TrimRight(reader.Attribute(nameIdx), "\x00"))
		}
		districts = append(districts, d)
	}

	zap.L().Info("district: loaded shapefile",
		zap.String("path", path),
		zap.Int("districts", len(districts)),
		zap.Int("skipped", skipped),
	)
	return &Store{districts: districts}, nil
}

// NewStore wraps pre-built districts (tests, alternative loaders).
func NewStore(districts []District) *Store {
	return &Store{districts: districts}
}

// All returns the districts in load order.
func (s *Store) All() []District { return s.districts }

func (s *Store) Len() int { return len(s.districts) }

// FeatureCollection renders the districts as GeoJSON.
func (s *Store) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, d := range s.districts {
		f := geojson.NewFeature(d.Geometry)
		f.Properties = geojson.Properties{"district_id": d.ID}
		if d.Name != "" {
			f.Properties["name"] = d.Name
		}
		fc.Append(f)
	}
	return fc
}

// toOrbPolygon converts shapefile parts into polygon rings, closing any ring
// the file left open.
func toOrbPolygon(p *shp.Polygon) orb.Polygon {
	parts := append([]int32{}, p.Parts...)
	parts = append(parts, int32(len(p.Points)))

	var poly orb.Polygon
	for i := 0; i+1 < len(parts); i++ {
		ring := make(orb.Ring, 0, parts[i+1]-parts[i]+1)
		for _, pt := range p.Points[parts[i]:parts[i+1]] {
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}
		if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
			ring = append(ring, ring[0])
		}
		poly = append(poly, ring)
	}
	return poly
}
