// Package config loads alkali.cue, the project configuration.
//
// The file is unified with an embedded CUE schema that supplies defaults
// and constraints, so a missing file, an empty file and a partial file all
// produce a complete Config. Schema violations are reported as coded
// ValidationErrors carrying the offending field path and source position.
//
//	marker:    "react"
//	namespace: "react"
//	nameRoots: true
//	naming: strategy: "debug"
//	primitives: entry: "track"
package config
