package format

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/tileflow/streamcore/bvh"
	"github.com/tileflow/streamcore/cmn"
	"github.com/tileflow/streamcore/content"
)

// Refine mirrors the OGC 3D-Tiles `refine` property (spec §6).
type Refine string

const (
	RefineAdd     Refine = "ADD"
	RefineReplace Refine = "REPLACE"
)

// BoundingVolume is the union of the three OGC 3D-Tiles bounding volume
// encodings (spec §6): Box (center + 3 half-axes, 12 numbers), Sphere
// (center + radius, 4 numbers), Region (west/south/east/north/min/max, 6
// numbers, radians and meters).
type BoundingVolume struct {
	Box    *[12]float64 `json:"box,omitempty"`
	Sphere *[4]float64  `json:"sphere,omitempty"`
	Region *[6]float64  `json:"region,omitempty"`
}

// ToBounds converts whichever volume is set into an axis-aligned bvh.Bounds.
// Region bounds are converted directly from radians/meters extents; a
// precise ellipsoidal conversion belongs to the geodetic-math primitives
// named out of scope in spec §1, so Region here yields a conservative
// lon/lat/height-extent box rather than a geocentric AABB.
func (v BoundingVolume) ToBounds() (bvh.Bounds, error) {
	switch {
	case v.Box != nil:
		b := v.Box
		cx, cy, cz := b[0], b[1], b[2]
		ex := absMax3(b[3], b[6], b[9])
		ey := absMax3(b[4], b[7], b[10])
		ez := absMax3(b[5], b[8], b[11])
		return bvh.Bounds{
			MinX: cx - ex, MaxX: cx + ex,
			MinY: cy - ey, MaxY: cy + ey,
			MinZ: cz - ez, MaxZ: cz + ez,
		}, nil
	case v.Sphere != nil:
		s := v.Sphere
		r := s[3]
		return bvh.Bounds{
			MinX: s[0] - r, MaxX: s[0] + r,
			MinY: s[1] - r, MaxY: s[1] + r,
			MinZ: s[2] - r, MaxZ: s[2] + r,
		}, nil
	case v.Region != nil:
		r := v.Region
		return bvh.Bounds{
			MinX: r[0], MaxX: r[2],
			MinY: r[1], MaxY: r[3],
			MinZ: r[4], MaxZ: r[5],
		}, nil
	default:
		return bvh.Bounds{}, cmn.NewFormatError("bounding volume has neither box, sphere, nor region")
	}
}

func absMax3(a, b, c float64) float64 {
	m := absf(a)
	if v := absf(b); v > m {
		m = v
	}
	if v := absf(c); v > m {
		m = v
	}
	return m
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// TilesetNode mirrors one `tile` entry of a tileset JSON document closely
// enough to build a bvh.NodeData + children list from it.
type TilesetNode struct {
	BoundingVolume BoundingVolume `json:"boundingVolume"`
	GeometricError float32        `json:"geometricError"`
	Refine         Refine         `json:"refine,omitempty"`
	Transform      *[16]float64   `json:"transform,omitempty"`
	Content        *struct {
		URI string `json:"uri"`
	} `json:"content,omitempty"`
	Children []*TilesetNode `json:"children,omitempty"`
}

// Tileset is the root `tileset.json` document (spec §6).
type Tileset struct {
	Asset struct {
		Version string `json:"version"`
	} `json:"asset"`
	GeometricError float32      `json:"geometricError"`
	Root           *TilesetNode `json:"root"`
}

// ParseTileset decodes a tileset.json document with the teacher's JSON
// library (jsoniter, as used throughout cmn/config.go).
func ParseTileset(buf []byte) (*Tileset, error) {
	var ts Tileset
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(buf, &ts); err != nil {
		return nil, cmn.WrapFormatError(err, "malformed tileset JSON")
	}
	if ts.Root == nil {
		return nil, cmn.NewFormatError("tileset JSON has no root tile")
	}
	return &ts, nil
}

// ToNodeData converts a parsed tile into a bvh.NodeData, defaulting the
// transform to identity and refine to REPLACE when unset. The parent
// tile's refine is not consulted.
func (n *TilesetNode) ToNodeData() (bvh.NodeData, error) {
	bounds, err := n.BoundingVolume.ToBounds()
	if err != nil {
		return bvh.NodeData{}, err
	}
	refine := bvh.RefineReplace
	if n.Refine == RefineAdd {
		refine = bvh.RefineAdd
	}
	transform := bvh.Identity4()
	if n.Transform != nil {
		transform = bvh.Mat4(*n.Transform)
	}
	return bvh.NodeData{
		Bounds:         bounds,
		GeometricError: n.GeometricError,
		Refinement:     refine,
		Transform:      transform,
		HasContent:     n.Content != nil,
	}, nil
}

// ToContent builds the bvh.NodeContent for a tile that carries a content
// URI, minting a fresh data-source id for it (spec §3 Lifecycle: "tiles
// are added as children of the root when a data source is mounted").
// Returns nil, nil for a content-less structural tile.
func (n *TilesetNode) ToContent(ct cmn.ContentType) (bvh.NodeContent, error) {
	if n.Content == nil {
		return nil, nil
	}
	bounds, err := n.BoundingVolume.ToBounds()
	if err != nil {
		return nil, err
	}
	dataSourceID, err := content.NewDataSourceID("tile")
	if err != nil {
		return nil, cmn.WrapFormatError(err, "minting data-source id for tile content")
	}
	return content.NewURIContent(ct, dataSourceID, bounds, n.GeometricError, false, n.Content.URI), nil
}
