package content

import (
	"github.com/teris-io/shortid"

	"github.com/tileflow/streamcore/bvh"
	"github.com/tileflow/streamcore/cmn"
)

// URIContent is a NodeContent backed by one or more URIs to fetch (spec
// §3: "Subtypes add URI collections or inline payloads").
type URIContent struct {
	bvh.BaseContent

	ct           cmn.ContentType
	dataSourceID string
	bounds       bvh.Bounds
	geomError    float32
	alwaysExpand bool

	URIs []string
}

func NewURIContent(ct cmn.ContentType, dataSourceID string, bounds bvh.Bounds, geomError float32, alwaysExpand bool, uris ...string) *URIContent {
	return &URIContent{
		BaseContent:  bvh.NewBaseContent(),
		ct:           ct,
		dataSourceID: dataSourceID,
		bounds:       bounds,
		geomError:    geomError,
		alwaysExpand: alwaysExpand,
		URIs:         uris,
	}
}

func (c *URIContent) ContentType() cmn.ContentType { return c.ct }
func (c *URIContent) DataSourceID() string         { return c.dataSourceID }
func (c *URIContent) Bounds() bvh.Bounds           { return c.bounds }
func (c *URIContent) GeometricError() float32      { return c.geomError }
func (c *URIContent) AlwaysExpand() bool           { return c.alwaysExpand }

// InlineContent is a NodeContent carrying its payload already in memory
// (e.g. a tileset's embedded glTF, or batch-table bytes decoded up front).
type InlineContent struct {
	bvh.BaseContent

	ct           cmn.ContentType
	dataSourceID string
	bounds       bvh.Bounds
	geomError    float32
	alwaysExpand bool

	Payload []byte
}

func NewInlineContent(ct cmn.ContentType, dataSourceID string, bounds bvh.Bounds, geomError float32, alwaysExpand bool, payload []byte) *InlineContent {
	return &InlineContent{
		BaseContent:  bvh.NewBaseContent(),
		ct:           ct,
		dataSourceID: dataSourceID,
		bounds:       bounds,
		geomError:    geomError,
		alwaysExpand: alwaysExpand,
		Payload:      payload,
	}
}

func (c *InlineContent) ContentType() cmn.ContentType { return c.ct }
func (c *InlineContent) DataSourceID() string         { return c.dataSourceID }
func (c *InlineContent) Bounds() bvh.Bounds           { return c.bounds }
func (c *InlineContent) GeometricError() float32      { return c.geomError }
func (c *InlineContent) AlwaysExpand() bool           { return c.alwaysExpand }

// NewDataSourceID mints a short, human-readable id for a newly mounted
// data source (spec §3 Lifecycle: "tiles are added as children of the
// root when a data source is mounted"). Collisions are avoided by
// shortid's own internal counter/worker scheme; identity for engine
// purposes remains the plain string, never parsed.
func NewDataSourceID(prefix string) (string, error) {
	id, err := shortid.Generate()
	if err != nil {
		return "", err
	}
	if prefix == "" {
		return id, nil
	}
	return prefix + "-" + id, nil
}
