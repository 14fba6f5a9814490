// Package deflate implements a deterministic, dependency-free DEFLATE
// encoder (C8): input is chunked into independent bands, each LZ77-matched
// against its own local window with a hash-chain and Huffman-coded with
// the RFC 1951 fixed-Huffman block type. Chunk planning runs in parallel;
// bitstream assembly is serial so output is byte-identical across thread
// counts (§4.8).
package deflate

import (
	"fmt"
	"runtime"
	"sync"
)

// Options configures the encoder.
type Options struct {
	// ChunkSize is the band size in bytes. Larger bands compress better
	// (full within-band window) but parallelize less finely. Must be >0;
	// DefaultChunkSize is used when 0.
	ChunkSize int
	// Workers bounds the number of goroutines used to plan bands in
	// parallel. 0 selects runtime.GOMAXPROCS(0). This only affects wall
	// time, never output bytes (§4.8 "Output must be byte-identical
	// across repeated runs and thread counts").
	Workers int
}

// DefaultChunkSize is the default band size (32 KiB, the DEFLATE window
// size) so intra-band matching loses no compression versus a single
// whole-window pass when the input is small.
const DefaultChunkSize = 32 * 1024

// Encode compresses data into a raw DEFLATE stream (no zlib/gzip wrapper)
// using fixed-Huffman blocks, one non-final block per band, final band
// marked BFINAL.
func Encode(data []byte, opts Options) []byte {
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers < 1 {
		workers = 1
	}

	bands := splitBands(data, chunkSize)
	if len(bands) == 0 {
		bands = [][]byte{{}}
	}

	plans := make([][]token, len(bands))
	planBands(bands, plans, workers)

	bw := newBitWriter()
	for i, plan := range plans {
		final := i == len(plans)-1
		writeFixedHuffmanBlock(bw, plan, final)
	}
	return bw.bytes()
}

// planBands computes the LZ77 token plan for every band. Each band is
// matched independently (no cross-chunk dictionary, §4.8 baseline mode),
// so the result for band i never depends on any other band or on the
// worker count — only on bands[i] itself.
func planBands(bands [][]byte, plans [][]token, workers int) {
	type job struct{ idx int }
	jobs := make(chan job, len(bands))
	for i := range bands {
		jobs <- job{idx: i}
	}
	close(jobs)

	var wg sync.WaitGroup
	n := workers
	if n > len(bands) {
		n = len(bands)
	}
	if n < 1 {
		n = 1
	}
	for w := 0; w < n; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				plans[j.idx] = lz77Match(bands[j.idx])
			}
		}()
	}
	wg.Wait()
}

func splitBands(data []byte, chunkSize int) [][]byte {
	var bands [][]byte
	for off := 0; off < len(data); off += chunkSize {
		end := off + chunkSize
		if end > len(data) {
			end = len(data)
		}
		bands = append(bands, data[off:end])
	}
	return bands
}

// checkToken reports an error for a match token whose length lies outside
// 3..258 or whose distance lies outside 1..32768 (the RFC 1951 limits).
func checkToken(t token) error {
	if t.isMatch && (t.length < 3 || t.length > 258 || t.distance < 1 || t.distance > 32768) {
		return fmt.Errorf("invalid match token: len=%d dist=%d", t.length, t.distance)
	}
	return nil
}
