// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads termpanel configuration from a single YAML file.
//
// The file comes from the --config flag ([LoadFile]) or the
// TERMPANEL_CONFIG environment variable ([Load]). There is no search
// path. Files ending in .json or .jsonc are accepted too: comments and
// trailing commas are stripped with tidwall/jsonc and the result is
// decoded as YAML, which is a superset of JSON.
//
// Environment sections (development, production) override base values
// when [Config].Environment matches. ${HOME}, ${TERMPANEL_ROOT}, and
// ${VAR:-default} are expanded in path fields after loading.
//
// This package depends on no other termpanel packages.
package config
