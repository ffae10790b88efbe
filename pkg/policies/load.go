package policies

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/policyscale/rspmap/pkg/errors"
)

// recordsFile is the YAML document shape for a file holding one or more
// policy records. A file may hold a single record or a records list.
type recordsFile struct {
	Records []PolicyRecord `yaml:"records"`
}

// LoadFile reads policy records from a YAML file. The file may contain
// either a single record document or a top-level records list.
func LoadFile(path string) ([]PolicyRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	return parseRecords(path, data)
}

// LoadDir reads every .yaml/.yml file in a directory (sorted by name so
// lab ordering is stable) and concatenates the records found.
func LoadDir(dir string) ([]PolicyRecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.WrapIO("read", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var records []PolicyRecord
	for _, name := range names {
		loaded, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		records = append(records, loaded...)
	}
	return records, nil
}

// LoadFS reads records from a YAML file within a filesystem. Used for
// embedded fixture and configuration data.
func LoadFS(fsys fs.FS, path string) ([]PolicyRecord, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	return parseRecords(path, data)
}

// parseRecords decodes either a records list or a single record.
func parseRecords(path string, data []byte) ([]PolicyRecord, error) {
	var file recordsFile
	if err := yaml.Unmarshal(data, &file); err == nil && len(file.Records) > 0 {
		return file.Records, nil
	}

	var record PolicyRecord
	if err := yaml.Unmarshal(data, &record); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	if record.LabID == "" {
		return nil, errors.NewParseError("yaml", path, "document contains no policy records", nil)
	}
	return []PolicyRecord{record}, nil
}
