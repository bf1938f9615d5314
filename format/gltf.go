package format

import (
	"encoding/binary"

	"github.com/golang/glog"

	"github.com/tileflow/streamcore/cmn"
)

const (
	glbMagic      = 0x46546C67 // "glTF"
	glbHeaderLen  = 12
	glbChunkJSON  = 0x4E4F534A // "JSON"
	glbChunkBIN   = 0x004E4942 // "BIN\0"
)

// Lighting selects the lighting model applied to a glTF material when the
// asset does not name one explicitly.
type Lighting int

const (
	LightingDefault Lighting = iota
	LightingLit
	LightingUnlit
)

// GLB is a parsed glTF Binary container (y-up, right-handed, spec §6): the
// JSON chunk and the (optional) binary buffer chunk.
type GLB struct {
	JSON   []byte
	Binary []byte
}

// ParseGLB splits a .glb buffer into its JSON and BIN chunks. Full scene
// graph interpretation is out of scope (spec §1); this exists so the
// content-type dispatch table (spec §4.B) has something concrete to
// route B3DM-embedded and standalone glTF payloads to.
func ParseGLB(buf []byte) (*GLB, error) {
	if len(buf) < glbHeaderLen {
		return nil, cmn.NewFormatError("glb buffer too short: %d bytes", len(buf))
	}
	if binary.LittleEndian.Uint32(buf[0:4]) != glbMagic {
		return nil, cmn.NewFormatError("bad glb magic")
	}
	total := binary.LittleEndian.Uint32(buf[8:12])
	if int(total) > len(buf) {
		return nil, cmn.NewFormatError("glb length %d exceeds buffer length %d", total, len(buf))
	}
	g := &GLB{}
	off := glbHeaderLen
	for off+8 <= int(total) {
		chunkLen := int(binary.LittleEndian.Uint32(buf[off : off+4]))
		chunkType := binary.LittleEndian.Uint32(buf[off+4 : off+8])
		start := off + 8
		end := start + chunkLen
		if end > int(total) {
			return nil, cmn.NewFormatError("glb chunk overruns container")
		}
		switch chunkType {
		case glbChunkJSON:
			g.JSON = buf[start:end]
		case glbChunkBIN:
			g.Binary = buf[start:end]
		}
		off = end
	}
	if g.JSON == nil {
		return nil, cmn.NewFormatError("glb has no JSON chunk")
	}
	return g, nil
}

// ResolveLighting implements the policy decided in spec §9 for unknown
// material extensions: warn and default to Lit, rather than erroring.
func ResolveLighting(materialExtension string) Lighting {
	switch materialExtension {
	case "KHR_materials_unlit":
		return LightingUnlit
	case "", "KHR_materials_pbrSpecularGlossiness", "pbrMetallicRoughness":
		return LightingLit
	default:
		glog.Warningf("gltf: unknown material extension %q, defaulting to Lit", materialExtension)
		return LightingLit
	}
}
