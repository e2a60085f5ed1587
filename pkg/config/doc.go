// Package config loads the optional mach.yaml configuration file.
//
// The file carries two things: extra directories to scan for command
// manifests and a free-form settings map that is handed to every
// class-based command handler.
//
//	search_path:
//	  - tools
//	settings:
//	  device: flame
//
// When no file exists the fx module provides a nil *Config; the accessor
// methods are nil-safe so callers never need to check.
package config
