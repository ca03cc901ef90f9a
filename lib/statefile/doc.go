// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package statefile reads and writes small CBOR state files atomically
// and with integrity checking.
//
// A state file is a CBOR envelope holding a format version, the
// compression applied to the payload, the uncompressed size, a BLAKE3
// keyed digest of the uncompressed payload, and the payload itself (the
// CBOR encoding of the caller's value, see lib/codec). [Write] replaces
// the file via temporary file, fsync, and rename, then syncs the parent
// directory, so readers see either the old state or the new state and
// never a torn write. [Read] verifies the digest before decoding; a
// mismatch returns an error wrapping [ErrCorrupt].
//
// Compression is optional. zstd suits larger snapshots, LZ4 trades
// ratio for speed. When compression does not shrink the payload, the
// envelope records [CompressionNone] instead.
package statefile
