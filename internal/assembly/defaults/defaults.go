// Package defaults bundles the stock sound set used when a session supplies
// no sounds of its own.
package defaults

import "embed"

// Sounds holds the bundled default sound files under sounds/.
//
//go:embed sounds/*.mp3
var Sounds embed.FS
