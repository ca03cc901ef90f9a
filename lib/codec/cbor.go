// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// MaxNestedLevels is the deepest nesting of arrays and maps Unmarshal
// accepts.
const MaxNestedLevels = 256

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// Session timestamps must survive a save/load cycle unchanged. The
	// default (integer Unix seconds) drops the sub-second part.
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// any-typed targets decode maps as map[string]any so values stay
		// compatible with encoding/json. Struct decoding is unaffected.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		// Each level of a layout tree costs two CBOR levels (node map
		// and children array). The default of 32 rejects trees that
		// ordinary splitting produces.
		MaxNestedLevels:  MaxNestedLevels,
		MaxArrayElements: 1 << 20,
		MaxMapPairs:      1 << 20,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v. Unknown fields are ignored so
// older binaries can read snapshots written by newer ones.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Diagnose returns the RFC 8949 diagnostic notation for data. Used by
// the CLI to dump raw snapshot files.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
