package meshedit

// Edge is a pair of vertex indices within a TriangleCollection, as
// returned by Cut (CutEdge) or supplied directly by a caller.
type Edge struct {
	A, B int
}

// EdgeExtrude duplicates each referenced vertex offset by direction and
// connects the original and duplicate with two triangles per edge,
// winding according to reverseWinding (spec §4.K). The extrusion's
// triangles belong to the collection's last sub-mesh.
func (tc *TriangleCollection) EdgeExtrude(edges []Edge, direction Vec3, reverseWinding bool) {
	for _, e := range edges {
		a := tc.Vertices.Positions[e.A]
		b := tc.Vertices.Positions[e.B]
		da := tc.Vertices.AddVertex(a.Add(direction))
		db := tc.Vertices.AddVertex(b.Add(direction))

		if reverseWinding {
			tc.addTriangle(Triangle{A: e.A, B: db, C: e.B})
			tc.addTriangle(Triangle{A: e.A, B: da, C: db})
		} else {
			tc.addTriangle(Triangle{A: e.A, B: e.B, C: db})
			tc.addTriangle(Triangle{A: e.A, B: db, C: da})
		}
	}
}

// CombineAndDispose merges b's vertices and triangles into a, widening
// a's backing storage only when necessary (spec §4.K), and returns the
// merged collection. b is left unusable by the caller afterwards (its
// buffers may have been taken over by a).
func CombineAndDispose(a, b *TriangleCollection) *TriangleCollection {
	offset := len(a.Vertices.Positions)
	a.Vertices.grow(len(b.Vertices.Positions))
	a.Vertices.Positions = append(a.Vertices.Positions, b.Vertices.Positions...)

	for _, sm := range b.SubMeshes {
		dst := a.lastSubMesh()
		dst.grow(len(sm.Triangles))
		for _, t := range sm.Triangles {
			dst.Triangles = append(dst.Triangles, Triangle{A: t.A + offset, B: t.B + offset, C: t.C + offset})
		}
	}

	b.Vertices.Positions = nil
	b.SubMeshes = nil
	return a
}

// AssignToMesh writes collection's current vertex/index buffers and
// per-sub-mesh descriptors back into mesh (spec §4.K).
func AssignToMesh(collection *TriangleCollection, mesh *Mesh) {
	mesh.Vertices = collection.Vertices
	mesh.SubMeshes = append(mesh.SubMeshes[:0], collection.SubMeshes...)
}
