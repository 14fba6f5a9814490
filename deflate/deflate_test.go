package deflate

import (
	"bytes"
	"compress/flate"
	"io"
	"testing"
)

func deterministicPayload(n int) []byte {
	data := make([]byte, n)
	x := uint32(0)
	for i := range data {
		x = uint32((uint64(i) * 2654435761) % (1 << 32))
		data[i] = byte(x)
	}
	return data
}

// S2 — deterministic DEFLATE (spec.md §8 scenario S2): output at 1, 4, and
// 16 workers is byte-identical and round-trips through a standard
// inflater.
func TestEncodeByteIdenticalAcrossThreadCounts(t *testing.T) {
	data := deterministicPayload(1 << 20)

	out1 := Encode(data, Options{Workers: 1})
	out4 := Encode(data, Options{Workers: 4})
	out16 := Encode(data, Options{Workers: 16})

	if !bytes.Equal(out1, out4) {
		t.Fatalf("1-worker and 4-worker outputs differ")
	}
	if !bytes.Equal(out1, out16) {
		t.Fatalf("1-worker and 16-worker outputs differ")
	}
}

func TestEncodeRoundTripsThroughStandardInflate(t *testing.T) {
	data := deterministicPayload(1 << 18)
	compressed := Encode(data, Options{Workers: 4})

	r := flate.NewReader(bytes.NewReader(compressed))
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("inflate failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round-trip mismatch: got %d bytes, want %d", len(got), len(data))
	}
}

func TestAdler32MatchesReferenceAcrossThreadCounts(t *testing.T) {
	data := deterministicPayload(1 << 20)
	a1 := Adler32(data, DefaultChunkSize, 1)
	a4 := Adler32(data, DefaultChunkSize, 4)
	a16 := Adler32(data, DefaultChunkSize, 16)
	if a1 != a4 || a1 != a16 {
		t.Fatalf("adler32 differs across thread counts: %x %x %x", a1, a4, a16)
	}

	want := adler32Of(data)
	if a1 != want {
		t.Fatalf("tiled adler32 = %x, want %x", a1, want)
	}
}

func TestEncodeEmptyInput(t *testing.T) {
	out := Encode(nil, Options{})
	r := flate.NewReader(bytes.NewReader(out))
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("inflate failed on empty input: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty round-trip, got %d bytes", len(got))
	}
}
