package consts

import "os"

const (
	// ModeDir is the standard file mode for creating directories
	ModeDir = os.FileMode(0o755)

	// ModeFile is the standard file mode for creating files
	ModeFile = os.FileMode(0o644)

	// ProgramName is the name used in usage text and error reports
	ProgramName = "mach"

	// ConfigFile is the default configuration file looked up in the working directory
	ConfigFile = "mach.yaml"

	// ConfigEnv overrides the configuration file location
	ConfigEnv = "MACH_CONFIG"

	// SearchPathEnv holds additional command module search directories
	SearchPathEnv = "MACH_PATH"
)

// CommandsDir is the conventional directory, relative to a search path entry,
// that holds command manifests.
var CommandsDir = []string{"mach", "commands"}
