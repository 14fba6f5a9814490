package deflate

import "encoding/binary"

// zlibCM7 selects a 32 KiB window (CINFO=7) with the DEFLATE compression
// method (CM=8), matching the window this package's Encode always uses.
const zlibCM7 = 0x78

// zlibFlagDefault is the FLG byte for "default" compression level with no
// preset dictionary, chosen so (CMF<<8|FLG) % 31 == 0 as RFC 1950 requires.
const zlibFlagDefault = 0x9c

// Zlib wraps data in a zlib stream (RFC 1950: 2-byte header, deterministic
// DEFLATE body via Encode, 4-byte big-endian Adler-32 trailer) so the
// result can be used directly as a PDF /FlateDecode stream body (§4.7/§4.8:
// PDF's FlateDecode filter expects zlib framing, not raw DEFLATE).
func Zlib(data []byte, opts Options) []byte {
	body := Encode(data, opts)
	out := make([]byte, 2, 2+len(body)+4)
	out[0], out[1] = zlibCM7, zlibFlagDefault

	workers := opts.Workers
	tileSize := opts.ChunkSize
	sum := Adler32(data, tileSize, workers)

	out = append(out, body...)
	var trailer [4]byte
	binary.BigEndian.PutUint32(trailer[:], sum)
	return append(out, trailer[:]...)
}
