// Package configs provides the embedded configuration template for
// stelae. Embedding keeps `stelae config init` self-contained in every
// distribution of the binary.
package configs

import _ "embed"

// ConfigTemplate is the annotated example configuration written by
// `stelae config init`.
//
//go:embed stelae.example.yaml
var ConfigTemplate string
