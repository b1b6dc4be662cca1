package live

import _ "embed"

// minimalTemplate is a one-track live set used when no template file is
// supplied; EnsureTracks duplicates its MIDI track as needed.
//
//go:embed templates/minimal.xml
var minimalTemplate []byte

// simplerTemplate is a standalone OriginalSimpler device, inserted on
// tracks whose instrument needs an automatable sample start.
//
//go:embed templates/simpler.xml
var simplerTemplate []byte
