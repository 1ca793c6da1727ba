package geometry

import (
	"context"
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// boundaryEpsilon is how close (in degrees) a point must be to a ring edge
// to count as "on the boundary" for the inclusive containment convention.
// Roughly a tenth of a millimeter at city latitudes.
const boundaryEpsilon = 1e-9

// minRingArea below which a ring is considered collapsed.
const minRingArea = 1e-18

// OrbBackend is the in-process geometry strategy, built on paulmach/orb
// types. It is always available and acts as the fallback when the database
// has no spatial extension.
//
// orb ships no buffer/union/make-valid operations, so the small amount of
// planar math those need lives here. Union is not supported; boundary
// derivation falls back to the convex hull on this backend.
type OrbBackend struct{}

func NewOrbBackend() *OrbBackend { return &OrbBackend{} }

func (b *OrbBackend) Name() string { return "orb" }

func (b *OrbBackend) SupportsUnion() bool { return false }

func (b *OrbBackend) Union(ctx context.Context, polyWKTs []string) (string, error) {
	return "", ErrUnionUnsupported
}

func (b *OrbBackend) MakeValid(ctx context.Context, polyWKT string) (string, error) {
	g, err := Parse(polyWKT)
	if err != nil {
		return "", err
	}

	var repaired []orb.Polygon
	for _, p := range polygonsOf(g) {
		if fixed, ok := repairPolygon(p); ok {
			repaired = append(repaired, fixed)
		}
	}

	switch len(repaired) {
	case 0:
		return EmptyPolygonWKT, ErrRepairFailed
	case 1:
		return MarshalWKT(repaired[0]), nil
	default:
		return MarshalWKT(orb.MultiPolygon(repaired)), nil
	}
}

func (b *OrbBackend) Contains(ctx context.Context, polyWKT string, lng, lat float64) (bool, error) {
	g, err := Parse(polyWKT)
	if err != nil {
		return false, err
	}
	return geomContains(g, orb.Point{lng, lat}), nil
}

func (b *OrbBackend) Distance(ctx context.Context, aWKT, bWKT string) (float64, error) {
	ga, err := Parse(aWKT)
	if err != nil {
		return 0, err
	}
	gb, err := Parse(bWKT)
	if err != nil {
		return 0, err
	}
	return geomDistance(ga, gb), nil
}

func (b *OrbBackend) WithinDistance(ctx context.Context, aWKT, bWKT string, tol float64) (bool, error) {
	d, err := b.Distance(ctx, aWKT, bWKT)
	if err != nil {
		return false, err
	}
	return d <= tol, nil
}

func (b *OrbBackend) SnapToGrid(ctx context.Context, polyWKT string, cell float64) (string, error) {
	if cell <= 0 {
		return polyWKT, nil
	}
	g, err := Parse(polyWKT)
	if err != nil {
		return "", err
	}

	var snapped []orb.Polygon
	for _, p := range polygonsOf(g) {
		var out orb.Polygon
		for i, ring := range p {
			r := make(orb.Ring, len(ring))
			for j, pt := range ring {
				r[j] = orb.Point{
					math.Round(pt[0]/cell) * cell,
					math.Round(pt[1]/cell) * cell,
				}
			}
			r = cleanRing(r)
			if len(r) < 4 || math.Abs(ringArea(r)) < minRingArea {
				if i == 0 {
					out = nil
					break
				}
				continue // collapsed hole, drop it
			}
			out = append(out, r)
		}
		if len(out) > 0 {
			snapped = append(snapped, out)
		}
	}

	switch len(snapped) {
	case 0:
		return EmptyPolygonWKT, ErrRepairFailed
	case 1:
		return MarshalWKT(snapped[0]), nil
	default:
		return MarshalWKT(orb.MultiPolygon(snapped)), nil
	}
}

func (b *OrbBackend) Buffer(ctx context.Context, polyWKT string, dist float64) (string, error) {
	if dist == 0 {
		return polyWKT, nil
	}
	g, err := Parse(polyWKT)
	if err != nil {
		return "", err
	}

	var buffered []orb.Polygon
	for _, p := range polygonsOf(g) {
		if len(p) == 0 || len(p[0]) < 4 {
			continue
		}
		ext := offsetRing(p[0], dist)
		if ringInverted(p[0], ext) {
			// shrunk past the inradius, the polygon is gone
			continue
		}
		out := orb.Polygon{ext}
		for _, hole := range p[1:] {
			// growing the polygon shrinks its holes
			h := offsetRing(hole, -dist)
			if ringInverted(hole, h) || len(h) < 4 {
				continue
			}
			out = append(out, h)
		}
		// sharp concave notches can fold the offset onto itself
		if fixed, ok := repairPolygon(out); ok {
			buffered = append(buffered, fixed)
		}
	}

	switch len(buffered) {
	case 0:
		return EmptyPolygonWKT, ErrRepairFailed
	case 1:
		return MarshalWKT(buffered[0]), nil
	default:
		return MarshalWKT(orb.MultiPolygon(buffered)), nil
	}
}

func (b *OrbBackend) ConvexHull(ctx context.Context, polyWKTs []string) (string, error) {
	var pts []orb.Point
	for _, w := range polyWKTs {
		g, err := Parse(w)
		if err != nil {
			return "", err
		}
		for _, p := range polygonsOf(g) {
			for _, ring := range p {
				pts = append(pts, ring...)
			}
		}
	}

	hull := convexHull(pts)
	if len(hull) < 4 {
		return EmptyPolygonWKT, ErrRepairFailed
	}
	return MarshalWKT(orb.Polygon{hull}), nil
}

// ---- planar helpers ----

func polygonsOf(g orb.Geometry) []orb.Polygon {
	switch v := g.(type) {
	case orb.Polygon:
		return []orb.Polygon{v}
	case orb.MultiPolygon:
		return v
	}
	return nil
}

// repairPolygon drops duplicate vertices, closes rings, replaces a
// self-intersecting exterior with its convex hull, discards broken holes and
// normalizes orientation (exterior CCW, holes CW). Returns false when
// nothing usable remains.
func repairPolygon(p orb.Polygon) (orb.Polygon, bool) {
	var out orb.Polygon
	for i, ring := range p {
		r := cleanRing(ring)
		if len(r) < 4 {
			if i == 0 {
				return nil, false
			}
			continue
		}
		// A bowtie's signed area can cancel to zero, so intersection repair
		// must run before the area check.
		if selfIntersects(r) {
			if i > 0 {
				continue
			}
			r = convexHull(r)
			if len(r) < 4 {
				return nil, false
			}
		}
		if math.Abs(ringArea(r)) < minRingArea {
			if i == 0 {
				return nil, false
			}
			continue
		}
		if i == 0 && ringArea(r) < 0 {
			r.Reverse()
		}
		if i > 0 && ringArea(r) > 0 {
			r.Reverse()
		}
		out = append(out, r)
	}
	return out, len(out) > 0
}

// cleanRing removes consecutive duplicate points and ensures the ring is
// closed.
func cleanRing(ring orb.Ring) orb.Ring {
	if len(ring) == 0 {
		return ring
	}
	out := orb.Ring{ring[0]}
	for _, pt := range ring[1:] {
		if pt != out[len(out)-1] {
			out = append(out, pt)
		}
	}
	if len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	if len(out) < 3 {
		return out
	}
	out = append(out, out[0])
	return out
}

// ringInverted reports whether offsetting turned the ring inside out: the
// signed area changed sign, or collapsed entirely.
func ringInverted(before, after orb.Ring) bool {
	a, b := ringArea(before), ringArea(after)
	return a*b < 0 || math.Abs(b) < minRingArea
}

// ringArea is the signed shoelace area: positive for counter-clockwise.
func ringArea(r orb.Ring) float64 {
	if len(r) < 4 {
		return 0
	}
	var sum float64
	for i := 0; i < len(r)-1; i++ {
		sum += r[i][0]*r[i+1][1] - r[i+1][0]*r[i][1]
	}
	return sum / 2
}

func selfIntersects(r orb.Ring) bool {
	n := len(r) - 1 // closed ring, n segments
	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // first and last segment share a vertex
			}
			if segmentsCross(r[i], r[i+1], r[j], r[j+1]) {
				return true
			}
		}
	}
	return false
}

func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

// segmentsCross reports a proper crossing: the segments intersect at a point
// interior to both. Shared endpoints do not count.
func segmentsCross(p1, p2, q1, q2 orb.Point) bool {
	d1 := cross(q1, q2, p1)
	d2 := cross(q1, q2, p2)
	d3 := cross(p1, p2, q1)
	d4 := cross(p1, p2, q2)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func pointSegDist(p, a, b orb.Point) float64 {
	dx, dy := b[0]-a[0], b[1]-a[1]
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(p[0]-a[0], p[1]-a[1])
	}
	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p[0]-(a[0]+t*dx), p[1]-(a[1]+t*dy))
}

func segSegDist(p1, p2, q1, q2 orb.Point) float64 {
	if segmentsCross(p1, p2, q1, q2) {
		return 0
	}
	d := pointSegDist(p1, q1, q2)
	d = math.Min(d, pointSegDist(p2, q1, q2))
	d = math.Min(d, pointSegDist(q1, p1, p2))
	return math.Min(d, pointSegDist(q2, p1, p2))
}

func onBoundary(g orb.Geometry, pt orb.Point) bool {
	for _, p := range polygonsOf(g) {
		for _, ring := range p {
			for i := 0; i < len(ring)-1; i++ {
				if pointSegDist(pt, ring[i], ring[i+1]) <= boundaryEpsilon {
					return true
				}
			}
		}
	}
	return false
}

// ringContainsRay is a plain even-odd ray cast with unspecified behavior
// for boundary points; geomContains handles those via onBoundary first.
func ringContainsRay(r orb.Ring, pt orb.Point) bool {
	inside := false
	for i := 0; i < len(r)-1; i++ {
		a, b := r[i], r[i+1]
		if (a[1] > pt[1]) != (b[1] > pt[1]) {
			x := a[0] + (pt[1]-a[1])/(b[1]-a[1])*(b[0]-a[0])
			if pt[0] < x {
				inside = !inside
			}
		}
	}
	return inside
}

// geomContains implements the boundary-inclusive convention: points exactly
// on an edge (exterior or hole) count as inside.
func geomContains(g orb.Geometry, pt orb.Point) bool {
	if onBoundary(g, pt) {
		return true
	}
	for _, p := range polygonsOf(g) {
		if len(p) == 0 {
			continue
		}
		if !ringContainsRay(p[0], pt) {
			continue
		}
		inHole := false
		for _, hole := range p[1:] {
			if ringContainsRay(hole, pt) {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}

func geomDistance(a, b orb.Geometry) float64 {
	// enclosure or shared area means distance zero
	if pa := firstPoint(a); pa != nil && geomContains(b, *pa) {
		return 0
	}
	if pb := firstPoint(b); pb != nil && geomContains(a, *pb) {
		return 0
	}

	min := math.MaxFloat64
	for _, pa := range polygonsOf(a) {
		for _, ra := range pa {
			for i := 0; i < len(ra)-1; i++ {
				for _, pb := range polygonsOf(b) {
					for _, rb := range pb {
						for j := 0; j < len(rb)-1; j++ {
							d := segSegDist(ra[i], ra[i+1], rb[j], rb[j+1])
							if d < min {
								min = d
							}
							if min == 0 {
								return 0
							}
						}
					}
				}
			}
		}
	}
	if min == math.MaxFloat64 {
		return 0
	}
	return min
}

func firstPoint(g orb.Geometry) *orb.Point {
	for _, p := range polygonsOf(g) {
		if len(p) > 0 && len(p[0]) > 0 {
			pt := p[0][0]
			return &pt
		}
	}
	return nil
}

// convexHull builds a closed CCW hull ring via the monotone chain.
func convexHull(pts []orb.Point) orb.Ring {
	uniq := make([]orb.Point, 0, len(pts))
	seen := make(map[orb.Point]struct{}, len(pts))
	for _, p := range pts {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			uniq = append(uniq, p)
		}
	}
	if len(uniq) < 3 {
		return nil
	}
	sort.Slice(uniq, func(i, j int) bool {
		if uniq[i][0] != uniq[j][0] {
			return uniq[i][0] < uniq[j][0]
		}
		return uniq[i][1] < uniq[j][1]
	})

	var lower, upper []orb.Point
	for _, p := range uniq {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	for i := len(uniq) - 1; i >= 0; i-- {
		p := uniq[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	hull := append(lower[:len(lower)-1], upper[:len(upper)-1]...)
	if len(hull) < 3 {
		return nil
	}
	return append(orb.Ring(hull), hull[0])
}

// offsetRing moves a ring outward from its enclosed area by d (inward for
// negative d), intersecting neighboring offset edges at each vertex. Miter
// spikes at sharp angles are capped to a plain edge offset.
func offsetRing(ring orb.Ring, d float64) orb.Ring {
	n := len(ring) - 1
	if n < 3 {
		return ring
	}
	sign := 1.0
	if ringArea(ring) < 0 {
		sign = -1.0 // CW ring: flip so the offset still points away from the area
	}

	out := make(orb.Ring, 0, n+1)
	limit := 10 * math.Abs(d)
	for i := 0; i < n; i++ {
		prev := ring[(i-1+n)%n]
		cur := ring[i]
		next := ring[(i+1)%n]

		n1, ok1 := edgeNormal(prev, cur)
		n2, ok2 := edgeNormal(cur, next)
		if !ok1 || !ok2 {
			out = append(out, cur)
			continue
		}

		off := sign * d
		fallback := orb.Point{cur[0] + off*n1[0], cur[1] + off*n1[1]}
		p, ok := lineIntersection(
			orb.Point{prev[0] + off*n1[0], prev[1] + off*n1[1]}, fallback,
			orb.Point{cur[0] + off*n2[0], cur[1] + off*n2[1]},
			orb.Point{next[0] + off*n2[0], next[1] + off*n2[1]},
		)
		if !ok || math.Hypot(p[0]-cur[0], p[1]-cur[1]) > limit {
			p = fallback
		}
		out = append(out, p)
	}
	return append(out, out[0])
}

// edgeNormal is the unit right-hand normal of the edge a->b; for a CCW ring
// it points outward.
func edgeNormal(a, b orb.Point) (orb.Point, bool) {
	dx, dy := b[0]-a[0], b[1]-a[1]
	l := math.Hypot(dx, dy)
	if l == 0 {
		return orb.Point{}, false
	}
	return orb.Point{dy / l, -dx / l}, true
}

// lineIntersection of the infinite lines through a1-a2 and b1-b2.
func lineIntersection(a1, a2, b1, b2 orb.Point) (orb.Point, bool) {
	d1x, d1y := a2[0]-a1[0], a2[1]-a1[1]
	d2x, d2y := b2[0]-b1[0], b2[1]-b1[1]
	denom := d1x*d2y - d1y*d2x
	if math.Abs(denom) < 1e-18 {
		return orb.Point{}, false
	}
	t := ((b1[0]-a1[0])*d2y - (b1[1]-a1[1])*d2x) / denom
	return orb.Point{a1[0] + t*d1x, a1[1] + t*d1y}, true
}

var _ Backend = (*OrbBackend)(nil)
