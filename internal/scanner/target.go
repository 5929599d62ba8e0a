package scanner

import (
	"os"
	"path/filepath"
	"strings"
)

// Target represents a file to be analyzed.
type Target struct {
	Path    string // location on disk
	RelPath string // name reported in results, relative to the source root
}

// TargetDiscovery selects the files of a run.
type TargetDiscovery struct {
	Root      string
	Extension string // e.g. ".go"
}

// FromList builds targets for an explicit file list. Entries without the
// target extension are dropped; the rest keep their configured name.
func (td *TargetDiscovery) FromList(files []string) []*Target {
	var targets []*Target
	for _, f := range files {
		if !td.matches(f) {
			continue
		}
		targets = append(targets, &Target{
			Path:    filepath.Join(td.Root, filepath.FromSlash(f)),
			RelPath: f,
		})
	}
	return targets
}

// Discover walks Root and returns every file with the target extension.
func (td *TargetDiscovery) Discover() ([]*Target, error) {
	var targets []*Target
	err := filepath.Walk(td.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip inaccessible files
		}
		if info.IsDir() {
			base := info.Name()
			if path != td.Root && (base == ".git" || base == "vendor" || base == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() || !td.matches(path) {
			return nil
		}
		relPath, err := filepath.Rel(td.Root, path)
		if err != nil {
			return nil
		}
		targets = append(targets, &Target{
			Path:    path,
			RelPath: filepath.ToSlash(relPath),
		})
		return nil
	})
	return targets, err
}

// Targets returns the explicit list when files is non-nil and walks the
// root otherwise.
func (td *TargetDiscovery) Targets(files []string) ([]*Target, error) {
	if files != nil {
		return td.FromList(files), nil
	}
	return td.Discover()
}

func (td *TargetDiscovery) matches(path string) bool {
	return td.Extension == "" || strings.HasSuffix(path, td.Extension)
}
