// Package b2g provides the B2G commands: build, flash and run-emulator.
//
// Each command runs a script from the working directory (build.sh, flash.sh
// and run-emulator.sh) through a Unix shell, streaming its output to the log
// and passing its exit status through:
//
//	mach build
//	mach flash --serial-number ABC123 gaia
//	mach run-emulator
//
// The providers are contributed to the application through Module.
package b2g
