// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the shared CBOR encoding configuration for
// termpanel's on-disk state.
//
// Snapshots of the panel (sessions, layout tree, panel height) are
// persisted as CBOR. JSON remains the format for CLI output. Types that
// appear in both places carry only `json` struct tags: fxamacker/cbor
// falls back to `json` tags when `cbor` tags are absent, so one tag
// controls naming for both formats. Types that only ever live on disk
// use `cbor` tags.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer and float encodings that preserve the
// value, no indefinite-length items. The same snapshot always encodes
// to the same bytes, which keeps integrity digests stable.
//
//	data, err := codec.Marshal(snapshot)
//	err = codec.Unmarshal(data, &snapshot)
package codec
