// Package db provides the embedded default catalog fixture.
package db

import _ "embed"

// SeedCatalog is the default catalog and customer fixture, used when no
// fixture file is configured.
//
//go:embed seed/catalog.json
var SeedCatalog []byte
