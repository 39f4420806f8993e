package spatial

import (
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	kml "github.com/twpayne/go-kml/v3"
)

// EncodeFeatureCollection writes polygons as a GeoJSON FeatureCollection of
// simple polygons with closed [longitude, latitude] exterior rings
func EncodeFeatureCollection(polygons []orb.Polygon) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, p := range Exteriors(polygons) {
		fc.Append(geojson.NewFeature(p))
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode feature collection: %w", err)
	}
	return data, nil
}

// DecodeFeatureCollection reads polygons back from a stored FeatureCollection.
// Interior rings are dropped.
func DecodeFeatureCollection(data []byte) ([]orb.Polygon, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode feature collection: %w", err)
	}

	var polygons []orb.Polygon
	for i, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			polygons = append(polygons, Exteriors([]orb.Polygon{g})...)
		case orb.MultiPolygon:
			polygons = append(polygons, Exteriors(g)...)
		default:
			return nil, fmt.Errorf("feature %d: unsupported geometry %T", i, f.Geometry)
		}
	}
	return polygons, nil
}

// WriteKML writes polygons as a KML document with one placemark per component
func WriteKML(w io.Writer, name string, polygons []orb.Polygon) error {
	elements := []kml.Element{kml.Name(name)}
	for i, p := range Exteriors(polygons) {
		coords := make([]kml.Coordinate, len(p[0]))
		for j, pt := range p[0] {
			coords[j] = kml.Coordinate{Lon: pt[0], Lat: pt[1]}
		}
		elements = append(elements, kml.Placemark(
			kml.Name(fmt.Sprintf("area %d", i+1)),
			kml.Polygon(
				kml.OuterBoundaryIs(
					kml.LinearRing(
						kml.Coordinates(coords...),
					),
				),
			),
		))
	}

	doc := kml.KML(
		kml.Document(elements...),
	)
	if err := doc.WriteIndent(w, "", "  "); err != nil {
		return fmt.Errorf("failed to write KML: %w", err)
	}
	return nil
}
