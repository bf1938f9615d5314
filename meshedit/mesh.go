// Package meshedit implements the mesh-editing utility (spec §4.K):
// plane cutting and edge extrusion over vertex streams, producing
// cropped meshes for the extent-modifier content pipeline.
package meshedit

import "github.com/tileflow/streamcore/bvh"

// Vec3 is a double-precision 3-vector; kept separate from bvh.Bounds'
// scalar fields since mesh math needs vector arithmetic the BVH side
// never does.
type Vec3 struct {
	X, Y, Z float64
}

func (a Vec3) Add(b Vec3) Vec3 { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func (a Vec3) Lerp(b Vec3, t float64) Vec3 {
	return Vec3{
		a.X + (b.X-a.X)*t,
		a.Y + (b.Y-a.Y)*t,
		a.Z + (b.Z-a.Z)*t,
	}
}

// Plane is the half-space test surface for Cut: points with
// Normal·p - Distance >= 0 are positive (spec §4.K: on-plane counts as
// positive).
type Plane struct {
	Normal   Vec3
	Distance float64
}

func (p Plane) signedDistance(v Vec3) float64 {
	return p.Normal.X*v.X + p.Normal.Y*v.Y + p.Normal.Z*v.Z - p.Distance
}

// VertexStream holds the vertex positions every triangle indexes into.
// It carries positions only; no other per-attribute stream is kept.
type VertexStream struct {
	Positions []Vec3
}

// grow doubles backing capacity when needed rather than growing by the
// exact amount requested, so repeated single-vertex appends during a
// cut don't degrade into quadratic copying (spec §4.K).
func (vs *VertexStream) grow(extra int) {
	need := len(vs.Positions) + extra
	if cap(vs.Positions) >= need {
		return
	}
	newCap := cap(vs.Positions)
	if newCap == 0 {
		newCap = 8
	}
	for newCap < need {
		newCap *= 2
	}
	grown := make([]Vec3, len(vs.Positions), newCap)
	copy(grown, vs.Positions)
	vs.Positions = grown
}

// AddVertex appends v and returns its index.
func (vs *VertexStream) AddVertex(v Vec3) int {
	vs.grow(1)
	vs.Positions = append(vs.Positions, v)
	return len(vs.Positions) - 1
}

// Triangle is three indices into a VertexStream.
type Triangle struct {
	A, B, C int
}

// SubMesh groups a contiguous run of triangles under one material/texture
// binding; Edge-Extrude always appends to the last sub-mesh (spec §4.K).
type SubMesh struct {
	Triangles []Triangle
}

// TriangleCollection is the working set Cut, Edge-Extrude and
// Combine-and-Dispose operate on: one shared vertex stream plus the
// sub-mesh grouping of its triangles.
type TriangleCollection struct {
	Vertices VertexStream
	SubMeshes []SubMesh
}

// grow doubles total triangle capacity of the last sub-mesh, mirroring
// VertexStream.grow (spec §4.K: "buffers grow by doubling").
func (sm *SubMesh) grow(extra int) {
	need := len(sm.Triangles) + extra
	if cap(sm.Triangles) >= need {
		return
	}
	newCap := cap(sm.Triangles)
	if newCap == 0 {
		newCap = 8
	}
	for newCap < need {
		newCap *= 2
	}
	grown := make([]Triangle, len(sm.Triangles), newCap)
	copy(grown, sm.Triangles)
	sm.Triangles = grown
}

// lastSubMesh returns the last sub-mesh, creating one if none exists.
func (tc *TriangleCollection) lastSubMesh() *SubMesh {
	if len(tc.SubMeshes) == 0 {
		tc.SubMeshes = append(tc.SubMeshes, SubMesh{})
	}
	return &tc.SubMeshes[len(tc.SubMeshes)-1]
}

func (tc *TriangleCollection) addTriangle(t Triangle) {
	sm := tc.lastSubMesh()
	sm.grow(1)
	sm.Triangles = append(sm.Triangles, t)
}

// TriangleCount sums triangles across every sub-mesh.
func (tc *TriangleCollection) TriangleCount() int {
	n := 0
	for _, sm := range tc.SubMeshes {
		n += len(sm.Triangles)
	}
	return n
}

// Mesh is the caller-owned container Assign-to-mesh writes into (spec
// §4.K): the final vertex/index buffers plus per-sub-mesh descriptors.
type Mesh struct {
	Vertices  VertexStream
	SubMeshes []SubMesh
}

// Bounds returns the axis-aligned bounding box of every vertex position,
// reusing bvh.Bounds so downstream BVH code can consume it directly.
func (tc *TriangleCollection) Bounds() bvh.Bounds {
	if len(tc.Vertices.Positions) == 0 {
		return bvh.Bounds{}
	}
	first := tc.Vertices.Positions[0]
	b := bvh.Bounds{MinX: first.X, MinY: first.Y, MinZ: first.Z, MaxX: first.X, MaxY: first.Y, MaxZ: first.Z}
	for _, v := range tc.Vertices.Positions[1:] {
		if v.X < b.MinX {
			b.MinX = v.X
		}
		if v.X > b.MaxX {
			b.MaxX = v.X
		}
		if v.Y < b.MinY {
			b.MinY = v.Y
		}
		if v.Y > b.MaxY {
			b.MaxY = v.Y
		}
		if v.Z < b.MinZ {
			b.MinZ = v.Z
		}
		if v.Z > b.MaxZ {
			b.MaxZ = v.Z
		}
	}
	return b
}
