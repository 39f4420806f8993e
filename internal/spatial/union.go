package spatial

import (
	"fmt"
	"sort"

	polyclip "github.com/ctessum/polyclip-go"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// UnionKind tags the shape of a union result
type UnionKind int

const (
	// SinglePolygon means every input merged into one component
	SinglePolygon UnionKind = iota + 1
	// MultiplePolygons means the inputs formed two or more disjoint components
	MultiplePolygons
)

func (k UnionKind) String() string {
	switch k {
	case SinglePolygon:
		return "Polygon"
	case MultiplePolygons:
		return "MultiPolygon"
	default:
		return "Unknown"
	}
}

// UnionResult is either one polygon or a list of disjoint polygons.
// Every polygon carries its exterior ring only.
type UnionResult struct {
	Kind     UnionKind
	single   orb.Polygon
	multiple []orb.Polygon
}

// Single returns the polygon of a SinglePolygon result
func (r UnionResult) Single() (orb.Polygon, bool) {
	return r.single, r.Kind == SinglePolygon
}

// Multiple returns the components of a MultiplePolygons result
func (r UnionResult) Multiple() ([]orb.Polygon, bool) {
	return r.multiple, r.Kind == MultiplePolygons
}

// Components flattens the result into its list of polygons
func (r UnionResult) Components() []orb.Polygon {
	switch r.Kind {
	case SinglePolygon:
		return []orb.Polygon{r.single}
	case MultiplePolygons:
		return r.multiple
	default:
		return nil
	}
}

// Union merges polygons so that overlapping or touching shapes become one
// component and disjoint shapes stay separate. Only the exterior boundary of
// each component is returned; holes created by the merge are discarded.
// Interior rings of the inputs are ignored.
func Union(shapes []orb.Polygon) (UnionResult, error) {
	if len(shapes) == 0 {
		return UnionResult{}, fmt.Errorf("%w: nothing to union", ErrInvalidInput)
	}

	var acc polyclip.Polygon
	seen := make([]orb.Ring, 0, len(shapes))
	for i, shape := range shapes {
		if len(shape) == 0 || len(shape[0]) < 4 {
			return UnionResult{}, fmt.Errorf("%w: shape %d has no usable exterior ring", ErrInvalidInput, i)
		}
		ring := shape[0]
		if containsRing(seen, ring) {
			continue
		}
		seen = append(seen, ring)

		next := polyclip.Polygon{toContour(ring)}
		if acc == nil {
			acc = next
			continue
		}
		acc = acc.Construct(polyclip.UNION, next)
	}

	exteriors := exteriorRings(acc)
	switch len(exteriors) {
	case 0:
		return UnionResult{}, fmt.Errorf("%w: union produced no area", ErrInvalidInput)
	case 1:
		return UnionResult{Kind: SinglePolygon, single: orb.Polygon{exteriors[0]}}, nil
	}

	polygons := make([]orb.Polygon, len(exteriors))
	for i, r := range exteriors {
		polygons[i] = orb.Polygon{r}
	}
	return UnionResult{Kind: MultiplePolygons, multiple: polygons}, nil
}

// exteriorRings keeps the contours that sit at an even nesting depth.
// Contours nested an odd number of times are holes.
func exteriorRings(p polyclip.Polygon) []orb.Ring {
	rings := make([]orb.Ring, 0, len(p))
	for _, c := range p {
		if len(c) >= 3 {
			rings = append(rings, fromContour(c))
		}
	}

	var exteriors []orb.Ring
	for i, r := range rings {
		depth := 0
		for j, other := range rings {
			if i != j && planar.RingContains(other, r[0]) {
				depth++
			}
		}
		if depth%2 != 0 {
			continue
		}
		if r.Orientation() != orb.CCW {
			r.Reverse()
		}
		exteriors = append(exteriors, r)
	}

	sort.SliceStable(exteriors, func(i, j int) bool {
		a, b := exteriors[i].Bound().Min, exteriors[j].Bound().Min
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		return a[1] < b[1]
	})
	return exteriors
}

func containsRing(rings []orb.Ring, ring orb.Ring) bool {
	for _, r := range rings {
		if r.Equal(ring) {
			return true
		}
	}
	return false
}

func toContour(r orb.Ring) polyclip.Contour {
	n := len(r)
	if n > 1 && r[0] == r[n-1] {
		n--
	}
	c := make(polyclip.Contour, 0, n)
	for _, pt := range r[:n] {
		c = append(c, polyclip.Point{X: pt[0], Y: pt[1]})
	}
	return c
}

func fromContour(c polyclip.Contour) orb.Ring {
	r := make(orb.Ring, 0, len(c)+1)
	for _, pt := range c {
		r = append(r, orb.Point{pt.X, pt.Y})
	}
	return append(r, r[0])
}
