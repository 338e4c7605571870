package static

import _ "embed"

// APIMd contains the embedded API reference served at /api.md.
//
//go:embed api.md
var APIMd string
