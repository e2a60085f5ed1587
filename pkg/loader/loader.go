package loader

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/pseudomuto/mach/pkg/config"
	"github.com/pseudomuto/mach/pkg/consts"
	"github.com/pseudomuto/mach/pkg/registry"
)

// Loader loads command manifests into a registry, at most once.
type Loader struct {
	registry   *registry.Registry
	searchPath []string

	mu      sync.Mutex
	scanned bool
	files   []string
}

// New returns a Loader scanning searchPath in order.
func New(r *registry.Registry, searchPath ...string) *Loader {
	return &Loader{registry: r, searchPath: searchPath}
}

// SearchPath returns the default search path: the configured entries, then
// $MACH_PATH, then cwd.
func SearchPath(cfg *config.Config, getenv func(string) string, cwd string) []string {
	path := append([]string(nil), cfg.GetSearchPath()...)

	for _, entry := range filepath.SplitList(getenv(consts.SearchPathEnv)) {
		if entry != "" {
			path = append(path, entry)
		}
	}

	return append(path, cwd)
}

// Load scans the search path and registers the commands of every manifest.
// Only the first successful call scans; later calls do nothing. The first
// manifest that fails to load aborts the scan with its error.
func (l *Loader) Load() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.scanned {
		return nil
	}

	var files []string
	for _, dir := range l.searchPath {
		found, err := manifests(filepath.Join(append([]string{dir}, consts.CommandsDir...)...))
		if err != nil {
			return err
		}

		for _, path := range found {
			if err := loadFile(l.registry, path); err != nil {
				return err
			}

			files = append(files, path)
		}
	}

	l.files = files
	l.scanned = true
	return nil
}

// Files returns the manifests loaded by Load.
func (l *Loader) Files() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.files...)
}

// manifests lists the manifest files directly inside dir, sorted by name. A
// missing dir has none.
func manifests(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, errors.Wrapf(err, "failed to read commands directory: %s", dir)
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "_") {
			continue
		}

		switch filepath.Ext(name) {
		case ".yaml", ".yml", ".hcl":
		default:
			continue
		}

		out = append(out, filepath.Join(dir, name))
	}

	sort.Strings(out)
	return out, nil
}

func loadFile(r *registry.Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open file: %s", path)
	}

	var m *Manifest
	if filepath.Ext(path) == ".hcl" {
		m, err = LoadHCLManifest(data, path)
	} else {
		m, err = LoadManifest(bytes.NewReader(data))
	}

	if err != nil {
		return errors.Wrapf(err, "failed to load command manifest: %s", path)
	}

	return errors.Wrapf(m.Install(r), "failed to install command manifest: %s", path)
}
