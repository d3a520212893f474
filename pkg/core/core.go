package core

import (
	"bytes"
	"encoding/hex"
	"io"
	"sync"

	"github.com/pierrec/lz4/v4"
	"lukechampine.com/blake3"
)

var bufferPool = sync.Pool{New: func() interface{} { return new(bytes.Buffer) }}

// --- Compression ---

func Compress(src []byte) []byte {
	buf := bufferPool.Get().(*bytes.Buffer)
	defer bufferPool.Put(buf)
	buf.Reset()

	w := lz4.NewWriter(buf)
	w.Write(src)
	w.Close()

	// Return strictly sized slice
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out
}

func Decompress(src []byte) []byte {
	r := lz4.NewReader(bytes.NewReader(src))
	var out bytes.Buffer
	io.Copy(&out, r)
	return out.Bytes()
}

// --- Hashing ---

func Hash(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}

// HashBytes exposes the raw digest for callers that slice individual
// bytes out of it (deterministic world generation).
func HashBytes(data []byte) [32]byte {
	return blake3.Sum256(data)
}
