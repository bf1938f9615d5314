package format

import (
	"encoding/binary"

	"github.com/tileflow/streamcore/cmn"
)

const terrainHeaderLen = 16

// TerrainHeader is the 16-byte TMS terrain binary tile header (spec §6):
// a 4-byte magic, 4-byte length, 4-byte type, and 2+2-byte major/minor
// version.
type TerrainHeader struct {
	Magic        [4]byte
	Length       uint32
	Type         uint32
	VersionMajor uint16
	VersionMinor uint16
}

// ParseTerrainHeader validates and decodes the fixed header. Full
// heightmap decode is out of scope (spec §1 names TMS terrain wire
// decoders as an external collaborator); this goes only as far as
// validating and dispatching.
func ParseTerrainHeader(buf []byte) (*TerrainHeader, error) {
	if len(buf) < terrainHeaderLen {
		return nil, cmn.NewFormatError("terrain buffer too short: %d bytes", len(buf))
	}
	var h TerrainHeader
	copy(h.Magic[:], buf[0:4])
	h.Length = binary.LittleEndian.Uint32(buf[4:8])
	h.Type = binary.LittleEndian.Uint32(buf[8:12])
	h.VersionMajor = binary.LittleEndian.Uint16(buf[12:14])
	h.VersionMinor = binary.LittleEndian.Uint16(buf[14:16])
	if int(h.Length) > len(buf) {
		return nil, cmn.NewFormatError("terrain length %d exceeds buffer length %d", h.Length, len(buf))
	}
	return &h, nil
}
