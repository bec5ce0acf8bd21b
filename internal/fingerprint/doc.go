// Package fingerprint computes content fingerprints for candidate duplicates.
//
// A fingerprint is the 64-bit xxHash64 digest of a file's full byte stream,
// read in fixed-size blocks (128 KiB by default). xxHash64 is not
// cryptographic; it is chosen for throughput, since hashing is the only stage
// of a scan whose cost grows with file bytes rather than file count.
//
// Equal fingerprints are treated as equal content. No byte-for-byte
// comparison follows, so a collision would report two different files as
// duplicates (and, with deletion enabled, remove one of them). Fingerprints
// are only compared within a group of files that already share an exact byte
// size. For k files of one size the chance that any two distinct files
// collide is about k²/2⁶⁵:
//
//	k = 1 000        ≈ 2.7e-14
//	k = 1 000 000    ≈ 2.7e-8
//
// Callers that cannot accept that risk should verify bytes before deleting.
package fingerprint
