package spatial

import (
	"fmt"
	"math"
)

// Cluster is an ordered group of nearby points
type Cluster []Point

// ClusterPoints groups points by greedy single-linkage chaining.
// Points are taken in input order; each one joins the first existing cluster
// that has any member within maxDistance meters, otherwise it starts a new one.
// The result depends on input order and clusters may span more than maxDistance.
func ClusterPoints(points []Point, maxDistance float64) ([]Cluster, error) {
	return chainClusters(points, maxDistance)
}

// ClusterRoutePoints groups ordered path points before a route buffer is built.
// It uses the same chaining rule as ClusterPoints.
func ClusterRoutePoints(points []Point, maxDistance float64) ([]Cluster, error) {
	return chainClusters(points, maxDistance)
}

func chainClusters(points []Point, maxDistance float64) ([]Cluster, error) {
	if math.IsNaN(maxDistance) || math.IsInf(maxDistance, 0) || maxDistance <= 0 {
		return nil, fmt.Errorf("%w: cluster distance must be positive, got %v", ErrInvalidInput, maxDistance)
	}
	if err := ValidatePoints(points); err != nil {
		return nil, err
	}

	var clusters []Cluster
	for _, p := range points {
		joined := false
		for i := range clusters {
			if clusters[i].within(p, maxDistance) {
				clusters[i] = append(clusters[i], p)
				joined = true
				break
			}
		}
		if !joined {
			clusters = append(clusters, Cluster{p})
		}
	}

	return clusters, nil
}

// within reports whether any member lies within maxDistance meters of p
func (c Cluster) within(p Point, maxDistance float64) bool {
	for _, member := range c {
		if HaversineDistance(member.Lat, member.Lon, p.Lat, p.Lon) <= maxDistance {
			return true
		}
	}
	return false
}
