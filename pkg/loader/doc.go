// Package loader discovers command manifests on a search path and registers
// the commands they declare.
//
// Every directory of the search path may contain a mach/commands directory.
// The top-level *.yaml, *.yml and *.hcl files inside it are loaded in
// lexicographic order; nested directories and files whose name starts with an underscore
// are skipped. Each manifest declares commands that run a script:
//
//	commands:
//	  - name: flash
//	    help: Flash a device with a B2G image.
//	    script: flash.sh
//	    require_unix_environment: true
//	    ignore_errors: true
//	    arguments:
//	      - flags: [--serial-number, -s]
//	        help: Serial number to pass to ADB.
//	      - flags: [project]
//	        choices: [gecko, gaia, time]
//
// The same commands can be declared in HCL (see LoadHCLManifest). A relative
// script is resolved against the working directory of the invocation. The
// script is called with the argument values in declaration order (see
// CommandManifest).
package loader
