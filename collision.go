package cuboid

import (
	"math"

	"github.com/akmonengine/cuboid/actor"
	"github.com/akmonengine/cuboid/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DegenerateAxisEpsilon is the squared length under which a candidate
	// axis (the cross product of two near-parallel edges) is not tested.
	DegenerateAxisEpsilon = 0.0001

	// ParallelEdgeEpsilon is the denominator under which two edges are
	// treated as parallel when looking for their closest points.
	ParallelEdgeEpsilon = 0.0001

	noAxis = -1
)

// separatingAxes keeps the shallowest overlap found so far during a SAT test.
type separatingAxes struct {
	one, two    *actor.Box
	toCenter    mgl64.Vec3
	penetration float64
	best        int
}

// tryAxis projects both boxes onto axis. It returns false when the axis
// separates them. Degenerate axes never separate.
func (s *separatingAxes) tryAxis(axis mgl64.Vec3, index int) bool {
	if axis.LenSqr() <= DegenerateAxisEpsilon {
		return true
	}
	axis = axis.Normalize()

	penetration := s.one.HalfProjection(axis) + s.two.HalfProjection(axis) - math.Abs(s.toCenter.Dot(axis))
	if penetration < 0 {
		return false
	}

	// Strict comparison: on ties the earlier axis wins.
	if penetration < s.penetration {
		s.penetration = penetration
		s.best = index
	}

	return true
}

// BoxAndBox tests two oriented boxes against the 15 separating axes: the 3
// face axes of one (0-2), the 3 face axes of two (3-5) and the 9 edge
// crosses (6-14). When they overlap, a single contact is added to data with
// the normal pointing from two's body toward one's body. It returns the
// number of contacts written.
func BoxAndBox(one, two *actor.Box, data *constraint.CollisionData) int {
	s := separatingAxes{
		one:         one,
		two:         two,
		toCenter:    two.Center().Sub(one.Center()),
		penetration: math.MaxFloat64,
		best:        noAxis,
	}

	// ========== Face axes ==========
	for i := range 3 {
		if !s.tryAxis(one.Axis(i), i) {
			return 0
		}
	}
	for i := range 3 {
		if !s.tryAxis(two.Axis(i), i+3) {
			return 0
		}
	}

	// Remembered to pick the contact point of nearly parallel edges.
	bestSingleAxis := s.best

	// ========== Edge axes ==========
	for i := range 3 {
		for j := range 3 {
			if !s.tryAxis(one.Axis(i).Cross(two.Axis(j)), 6+i*3+j) {
				return 0
			}
		}
	}

	switch {
	case s.best == noAxis:
		// Every axis was degenerate.
		return 0
	case s.best < 3:
		fillPointFaceBoxBox(one, two, s.toCenter, data, s.best, s.penetration)
	case s.best < 6:
		fillPointFaceBoxBox(two, one, s.toCenter.Mul(-1), data, s.best-3, s.penetration)
	default:
		fillEdgeEdgeBoxBox(one, two, s.toCenter, data, s.best-6, bestSingleAxis, s.penetration)
	}

	return 1
}

// fillPointFaceBoxBox adds the contact between a face of one and the vertex
// of two that goes deepest through it.
func fillPointFaceBoxBox(one, two *actor.Box, toCenter mgl64.Vec3, data *constraint.CollisionData, best int, penetration float64) {
	normal := one.Axis(best)
	if normal.Dot(toCenter) > 0 {
		normal = normal.Mul(-1)
	}

	data.AddContact(one.Body, two.Body, two.SupportWorld(normal), normal, penetration)
}

// fillEdgeEdgeBoxBox adds the contact between an edge of one and an edge of
// two. edge encodes the pair as oneAxis*3 + twoAxis.
func fillEdgeEdgeBoxBox(one, two *actor.Box, toCenter mgl64.Vec3, data *constraint.CollisionData, edge, bestSingleAxis int, penetration float64) {
	oneAxisIndex := edge / 3
	twoAxisIndex := edge % 3

	oneAxis := one.Axis(oneAxisIndex)
	twoAxis := two.Axis(twoAxisIndex)

	axis := oneAxis.Cross(twoAxis).Normalize()
	if axis.Dot(toCenter) > 0 {
		axis = axis.Mul(-1)
	}

	// Midpoints of the two edges, in body space then in world space.
	ptOnOneEdge := one.HalfSize
	ptOnTwoEdge := two.HalfSize
	for i := range 3 {
		if i == oneAxisIndex {
			ptOnOneEdge[i] = 0
		} else if one.Axis(i).Dot(axis) > 0 {
			ptOnOneEdge[i] = -ptOnOneEdge[i]
		}

		if i == twoAxisIndex {
			ptOnTwoEdge[i] = 0
		} else if two.Axis(i).Dot(axis) < 0 {
			ptOnTwoEdge[i] = -ptOnTwoEdge[i]
		}
	}
	ptOnOneEdge = one.Transform().Transform(ptOnOneEdge)
	ptOnTwoEdge = two.Transform().Transform(ptOnTwoEdge)

	vertex := edgeContactPoint(
		ptOnOneEdge, oneAxis, one.HalfSize[oneAxisIndex],
		ptOnTwoEdge, twoAxis, two.HalfSize[twoAxisIndex],
		bestSingleAxis > 2,
	)

	data.AddContact(one.Body, two.Body, vertex, axis, penetration)
}

// edgeContactPoint returns the point halfway between the closest points of
// two edges, each given by its midpoint, direction and half length. When the
// edges are parallel or the closest points lie outside an edge, the contact
// is an edge-face one and the midpoint of one edge is returned instead:
// pointA when useA is set, pointB otherwise.
func edgeContactPoint(pointA, axisA mgl64.Vec3, sizeA float64, pointB, axisB mgl64.Vec3, sizeB float64, useA bool) mgl64.Vec3 {
	fallback := pointB
	if useA {
		fallback = pointA
	}

	lengthA := axisA.LenSqr()
	lengthB := axisB.LenSqr()
	dotAB := axisB.Dot(axisA)

	toCenter := pointA.Sub(pointB)
	dotCenterA := axisA.Dot(toCenter)
	dotCenterB := axisB.Dot(toCenter)

	denominator := lengthA*lengthB - dotAB*dotAB
	if math.Abs(denominator) < ParallelEdgeEpsilon {
		return fallback
	}

	unitA := (dotAB*dotCenterB - lengthB*dotCenterA) / denominator
	unitB := (lengthA*dotCenterB - dotAB*dotCenterA) / denominator

	if unitA > sizeA || unitA < -sizeA || unitB > sizeB || unitB < -sizeB {
		return fallback
	}

	contactA := pointA.Add(axisA.Mul(unitA))
	contactB := pointB.Add(axisB.Mul(unitB))

	return contactA.Mul(0.5).Add(contactB.Mul(0.5))
}

// Detector runs BoxAndBox over every pair of a box list.
type Detector struct{}

// Detect tests every unordered pair i<j in insertion order and returns the
// number of contacts added to data. Pairs of immovable bodies are skipped, as
// are pairs whose bounding spheres stay apart by more than data.Tolerance.
func (d Detector) Detect(boxes []*actor.Box, data *constraint.CollisionData) int {
	count := 0

	for i := 0; i < len(boxes); i++ {
		for j := i + 1; j < len(boxes); j++ {
			one, two := boxes[i], boxes[j]
			if !one.Body.HasFiniteMass() && !two.Body.HasFiniteMass() {
				continue
			}
			if !boundingSpheresTouch(one, two, data.Tolerance) {
				continue
			}

			count += BoxAndBox(one, two, data)
		}
	}

	return count
}

func boundingSpheresTouch(one, two *actor.Box, tolerance float64) bool {
	reach := one.HalfSize.Len() + two.HalfSize.Len() + tolerance
	distance := two.Center().Sub(one.Center())

	return distance.LenSqr() <= reach*reach
}
