// Package format implements the concrete tile-format decoders named at the
// spec §6 boundary: B3DM, OGC 3D-Tiles tileset JSON, TMS terrain headers,
// and a minimal glTF/GLB dispatch stub. Full glTF scene import and terrain
// heightmap decode are out of scope (spec §1); these decoders go only as
// far as the wire layout spec §6 and §8 scenario S2 require.
package format

import (
	"encoding/binary"

	jsoniter "github.com/json-iterator/go"

	"github.com/tileflow/streamcore/bvh"
	"github.com/tileflow/streamcore/cmn"
	"github.com/tileflow/streamcore/revert"
)

const b3dmHeaderLen = 28
const b3dmMagic = "b3dm"

// B3DMHeader is the 28-byte B3DM container header (spec §6).
type B3DMHeader struct {
	Version                    uint32
	ByteLength                 uint32
	FeatureTableJSONByteLength uint32
	FeatureTableBinByteLength  uint32
	BatchTableJSONByteLength   uint32
	BatchTableBinByteLength    uint32
}

// B3DM is a parsed B3DM tile: header, feature/batch table bytes, and the
// embedded glTF/GLB payload.
type B3DM struct {
	Header          B3DMHeader
	FeatureTableJSON []byte
	FeatureTableBin  []byte
	BatchTableJSON   []byte
	BatchTableBin    []byte
	GLTF             []byte

	// BatchTableEncoded is the batch table's properties, re-encoded as a
	// single msgpack map (spec §6 "batch table"), ready to pass as the
	// value argument of LoaderActions.AddMaterialProperty. Nil when the
	// tile carries no batch table.
	BatchTableEncoded []byte

	// RTCCenter is the optional RTC_CENTER translation read out of the
	// feature table JSON, applied to the node's transform (spec §6, S2).
	RTCCenter *[3]float64
}

// ParseB3DM decodes a full B3DM buffer per spec §6. Returns a *cmn.FormatError
// for any header/magic/length inconsistency.
func ParseB3DM(buf []byte) (*B3DM, error) {
	if len(buf) < b3dmHeaderLen {
		return nil, cmn.NewFormatError("b3dm buffer too short: %d bytes", len(buf))
	}
	if string(buf[0:4]) != b3dmMagic {
		return nil, cmn.NewFormatError("bad b3dm magic %q", buf[0:4])
	}
	h := B3DMHeader{
		Version:                    binary.LittleEndian.Uint32(buf[4:8]),
		ByteLength:                 binary.LittleEndian.Uint32(buf[8:12]),
		FeatureTableJSONByteLength: binary.LittleEndian.Uint32(buf[12:16]),
		FeatureTableBinByteLength:  binary.LittleEndian.Uint32(buf[16:20]),
		BatchTableJSONByteLength:   binary.LittleEndian.Uint32(buf[20:24]),
		BatchTableBinByteLength:    binary.LittleEndian.Uint32(buf[24:28]),
	}
	if h.Version != 1 {
		return nil, cmn.NewFormatError("unsupported b3dm version %d", h.Version)
	}
	if int(h.ByteLength) != len(buf) {
		return nil, cmn.NewFormatError("b3dm byteLength %d does not match buffer length %d", h.ByteLength, len(buf))
	}

	off := b3dmHeaderLen
	take := func(n uint32) []byte {
		lo, hi := off, off+int(n)
		off = hi
		return buf[lo:hi]
	}
	if off+int(h.FeatureTableJSONByteLength)+int(h.FeatureTableBinByteLength)+
		int(h.BatchTableJSONByteLength)+int(h.BatchTableBinByteLength) > len(buf) {
		return nil, cmn.NewFormatError("b3dm sub-table lengths exceed buffer")
	}

	t := &B3DM{Header: h}
	t.FeatureTableJSON = take(h.FeatureTableJSONByteLength)
	t.FeatureTableBin = take(h.FeatureTableBinByteLength)
	t.BatchTableJSON = take(h.BatchTableJSONByteLength)
	t.BatchTableBin = take(h.BatchTableBinByteLength)
	t.GLTF = buf[off:]

	if len(t.FeatureTableJSON) > 0 {
		var ft struct {
			RTCCenter *[3]float64 `json:"RTC_CENTER"`
		}
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(t.FeatureTableJSON, &ft); err != nil {
			return nil, cmn.WrapFormatError(err, "malformed b3dm feature table JSON")
		}
		t.RTCCenter = ft.RTCCenter
	}

	if len(t.BatchTableJSON) > 0 {
		var props map[string]interface{}
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(t.BatchTableJSON, &props); err != nil {
			return nil, cmn.WrapFormatError(err, "malformed b3dm batch table JSON")
		}
		encoded, err := revert.EncodeProperty(props)
		if err != nil {
			return nil, cmn.WrapFormatError(err, "msgpack-encoding b3dm batch table")
		}
		t.BatchTableEncoded = encoded
	}
	return t, nil
}

// Transform returns transform with RTC_CENTER folded into its translation
// column, as scenario S2 requires ("transform incorporates RTC_CENTER").
func (t *B3DM) Transform(base bvh.Mat4) bvh.Mat4 {
	if t.RTCCenter == nil {
		return base
	}
	out := base
	out[3] += t.RTCCenter[0]
	out[7] += t.RTCCenter[1]
	out[11] += t.RTCCenter[2]
	return out
}
