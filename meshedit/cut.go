package meshedit

const zeroLengthEdgeEpsilon = 1e-9

// CutEdge is one edge of the hole left behind by Cut, given back to the
// caller so it can stitch a cap across it (spec §4.K: "emitted cut edges
// are returned so callers can close the hole"). The same geometric edge
// appears once in the positive collection's own vertex indices and once
// in the negative collection's.
type CutEdge struct {
	PositiveA, PositiveB int
	NegativeA, NegativeB int
}

type polyVert struct {
	isCut   bool
	origIdx int
	cutKey  [2]int
	pos     Vec3
}

func edgeKey(a, b int) [2]int {
	if a < b {
		return [2]int{a, b}
	}
	return [2]int{b, a}
}

// Cut partitions the collection's triangles into a positive and a
// negative TriangleCollection by plane (spec §4.K). A vertex exactly on
// the plane counts as positive. Triangles straddling the plane are
// split, interpolating up to two new vertices along their cut edges
// using the plane's distance ratio; the crossing is skipped (no new
// vertex is inserted) when it falls within zeroLengthEdgeEpsilon of an
// existing vertex, since that would otherwise emit a zero-length edge.
func (tc *TriangleCollection) Cut(plane Plane) (positive, negative TriangleCollection, cutEdges []CutEdge) {
	positions := tc.Vertices.Positions
	posRemap := make(map[int]int)
	negRemap := make(map[int]int)
	posCutCache := make(map[[2]int]int)
	negCutCache := make(map[[2]int]int)

	for _, sm := range tc.SubMeshes {
		for _, tri := range sm.Triangles {
			idx := [3]int{tri.A, tri.B, tri.C}
			pos := [3]Vec3{positions[idx[0]], positions[idx[1]], positions[idx[2]]}
			side := [3]bool{
				plane.signedDistance(pos[0]) >= 0,
				plane.signedDistance(pos[1]) >= 0,
				plane.signedDistance(pos[2]) >= 0,
			}

			var posPoly, negPoly []polyVert
			for i := 0; i < 3; i++ {
				j := (i + 1) % 3
				if side[i] {
					posPoly = append(posPoly, polyVert{origIdx: idx[i]})
				} else {
					negPoly = append(negPoly, polyVert{origIdx: idx[i]})
				}
				if side[i] == side[j] {
					continue
				}
				d0 := plane.signedDistance(pos[i])
				d1 := plane.signedDistance(pos[j])
				t := d0 / (d0 - d1)
				if t <= zeroLengthEdgeEpsilon || t >= 1-zeroLengthEdgeEpsilon {
					continue
				}
				cv := polyVert{isCut: true, cutKey: edgeKey(idx[i], idx[j]), pos: pos[i].Lerp(pos[j], t)}
				posPoly = append(posPoly, cv)
				negPoly = append(negPoly, cv)
			}

			var posIdx, negIdx []int
			var posCutIdx, negCutIdx []int
			for _, v := range posPoly {
				if v.isCut {
					i := getOrAddCut(&positive, posCutCache, v.cutKey, v.pos)
					posIdx = append(posIdx, i)
					posCutIdx = append(posCutIdx, i)
				} else {
					posIdx = append(posIdx, getOrAddVertex(&positive, posRemap, v.origIdx, positions))
				}
			}
			for _, v := range negPoly {
				if v.isCut {
					i := getOrAddCut(&negative, negCutCache, v.cutKey, v.pos)
					negIdx = append(negIdx, i)
					negCutIdx = append(negCutIdx, i)
				} else {
					negIdx = append(negIdx, getOrAddVertex(&negative, negRemap, v.origIdx, positions))
				}
			}

			fanTriangulate(&positive, posIdx)
			fanTriangulate(&negative, negIdx)

			if len(posCutIdx) == 2 && len(negCutIdx) == 2 {
				cutEdges = append(cutEdges, CutEdge{
					PositiveA: posCutIdx[0], PositiveB: posCutIdx[1],
					NegativeA: negCutIdx[0], NegativeB: negCutIdx[1],
				})
			}
		}
	}
	return positive, negative, cutEdges
}

func getOrAddVertex(out *TriangleCollection, cache map[int]int, origIdx int, positions []Vec3) int {
	if idx, ok := cache[origIdx]; ok {
		return idx
	}
	idx := out.Vertices.AddVertex(positions[origIdx])
	cache[origIdx] = idx
	return idx
}

func getOrAddCut(out *TriangleCollection, cache map[[2]int]int, key [2]int, pos Vec3) int {
	if idx, ok := cache[key]; ok {
		return idx
	}
	idx := out.Vertices.AddVertex(pos)
	cache[key] = idx
	return idx
}

// fanTriangulate adds a triangle fan from idx[0] across the remaining
// vertices of a convex polygon, the shape every straddling triangle
// split produces (at most a quad).
func fanTriangulate(out *TriangleCollection, idx []int) {
	if len(idx) < 3 {
		return
	}
	for k := 1; k < len(idx)-1; k++ {
		out.addTriangle(Triangle{A: idx[0], B: idx[k], C: idx[k+1]})
	}
}
