// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package statefile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/termpanel/lib/codec"
)

// formatVersion is the envelope layout written by this package.
const formatVersion = 1

// MaxPayloadSize bounds the uncompressed payload of a state file. Read
// checks the envelope's declared size against it before allocating.
const MaxPayloadSize = 64 << 20

// ErrCorrupt reports a state file whose envelope or digest does not
// check out. Callers treat it like a missing file plus a warning.
var ErrCorrupt = errors.New("statefile: corrupt state file")

// digestKey is the BLAKE3 key for state file digests: the ASCII domain
// name zero-padded to 32 bytes.
var digestKey = [32]byte{
	't', 'e', 'r', 'm', 'p', 'a', 'n', 'e', 'l', '.', 's', 't', 'a', 't', 'e', 'f',
	'i', 'l', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

type envelope struct {
	Version          int         `cbor:"version"`
	Compression      Compression `cbor:"compression"`
	UncompressedSize int         `cbor:"uncompressed_size"`
	Digest           []byte      `cbor:"digest"`
	Payload          []byte      `cbor:"payload"`
}

// Options controls how Write encodes a state file.
type Options struct {
	// Compression applied to the payload. Falls back to none when the
	// payload does not shrink.
	Compression Compression
}

// Write atomically replaces path with the CBOR encoding of value. The
// parent directory must exist. The file is created with mode 0600.
func Write(path string, value any, options Options) error {
	payload, err := codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	if len(payload) > MaxPayloadSize {
		return fmt.Errorf("encoded state is %d bytes, limit is %d", len(payload), MaxPayloadSize)
	}

	algorithm := options.Compression
	body, err := compress(algorithm, payload)
	if errors.Is(err, errIncompressible) {
		algorithm, body = CompressionNone, payload
	} else if err != nil {
		return err
	}

	data, err := codec.Marshal(envelope{
		Version:          formatVersion,
		Compression:      algorithm,
		UncompressedSize: len(payload),
		Digest:           digest(payload),
		Payload:          body,
	})
	if err != nil {
		return fmt.Errorf("encoding state envelope: %w", err)
	}

	return writeAtomic(path, data)
}

// Read decodes the state file at path into value. A missing file
// returns an error wrapping os.ErrNotExist; a damaged one wraps
// ErrCorrupt.
func Read(path string, value any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var header envelope
	if err := codec.Unmarshal(data, &header); err != nil {
		return fmt.Errorf("%w: %s: decoding envelope: %v", ErrCorrupt, path, err)
	}
	if header.Version != formatVersion {
		return fmt.Errorf("%w: %s: unsupported format version %d", ErrCorrupt, path, header.Version)
	}

	if header.UncompressedSize < 0 || header.UncompressedSize > MaxPayloadSize {
		return fmt.Errorf("%w: %s: payload size %d out of range", ErrCorrupt, path, header.UncompressedSize)
	}

	payload, err := decompress(header.Compression, header.Payload, header.UncompressedSize)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	if !bytes.Equal(digest(payload), header.Digest) {
		return fmt.Errorf("%w: %s: digest mismatch", ErrCorrupt, path)
	}

	if err := codec.Unmarshal(payload, value); err != nil {
		return fmt.Errorf("%w: %s: decoding payload: %v", ErrCorrupt, path, err)
	}
	return nil
}

func digest(payload []byte) []byte {
	// NewKeyed only fails for a key that is not 32 bytes.
	hasher, err := blake3.NewKeyed(digestKey[:])
	if err != nil {
		panic("statefile: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(payload)
	return hasher.Sum(nil)
}

// writeAtomic writes data to a sibling temporary file, syncs it, and
// renames it over path.
func writeAtomic(path string, data []byte) error {
	temporaryPath := path + ".tmp"

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating temporary state file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary state file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary state file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary state file: %w", err)
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming state file into place: %w", err)
	}

	// Make the rename itself durable.
	parentDirectory, err := os.Open(filepath.Dir(path))
	if err == nil {
		parentDirectory.Sync()
		parentDirectory.Close()
	}
	return nil
}
