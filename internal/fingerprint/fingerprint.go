package fingerprint

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// DefaultBlockSize balances read syscalls against per-worker buffer memory.
const DefaultBlockSize = 128 << 10

// Fingerprint is a 64-bit content digest.
type Fingerprint uint64

// String renders the fingerprint as 16 lowercase hex digits.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// Error reports a file that could not be fingerprinted. The file is left out
// of duplicate detection; the scan continues.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fingerprint %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Hasher reuses one read buffer across files. It is not safe for concurrent
// use; give each worker its own.
type Hasher struct {
	buf    []byte
	digest *xxhash.Digest
}

// NewHasher returns a Hasher that reads in blocks of blockSize bytes.
// A non-positive blockSize selects DefaultBlockSize.
func NewHasher(blockSize int) *Hasher {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Hasher{buf: make([]byte, blockSize), digest: xxhash.New()}
}

// File fingerprints the file at path. I/O failures are returned as *Error.
// onProgress, when set, receives the byte count of every block read.
func (h *Hasher) File(ctx context.Context, path string, onProgress func(n int64)) (Fingerprint, error) {
	f, err := os.Open(path) // #nosec G304 -- paths come from the directory walk
	if err != nil {
		return 0, &Error{Path: path, Err: err}
	}
	defer f.Close()

	fp, err := h.Reader(ctx, f, onProgress)
	if err != nil {
		if ctx.Err() != nil {
			return 0, err
		}
		return 0, &Error{Path: path, Err: err}
	}
	return fp, nil
}

// Reader fingerprints r until EOF. A file that shrinks after it was sized
// simply hashes fewer bytes.
func (h *Hasher) Reader(ctx context.Context, r io.Reader, onProgress func(n int64)) (Fingerprint, error) {
	h.digest.Reset()
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, rerr := r.Read(h.buf)
		if n > 0 {
			_, _ = h.digest.Write(h.buf[:n])
			if onProgress != nil {
				onProgress(int64(n))
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return 0, rerr
		}
	}
	return Fingerprint(h.digest.Sum64()), nil
}

// File fingerprints path with a throwaway Hasher.
func File(ctx context.Context, path string, blockSize int, onProgress func(n int64)) (Fingerprint, error) {
	return NewHasher(blockSize).File(ctx, path, onProgress)
}

// Reader fingerprints the remainder of r with a throwaway Hasher.
func Reader(ctx context.Context, r io.Reader, blockSize int, onProgress func(n int64)) (Fingerprint, error) {
	return NewHasher(blockSize).Reader(ctx, r, onProgress)
}
