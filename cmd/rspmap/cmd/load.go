package cmd

import (
	"os"

	"github.com/policyscale/rspmap/pkg/errors"
	"github.com/policyscale/rspmap/pkg/policies"
)

// loadRecords reads policy records from the given paths. Each path may
// be a YAML file or a directory of YAML files.
func loadRecords(paths []string) ([]policies.PolicyRecord, error) {
	if len(paths) == 0 {
		return nil, errors.NewValidationError("paths", nil, "no record files or directories given")
	}

	var records []policies.PolicyRecord
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, errors.WrapIO("stat", path, err)
		}
		var loaded []policies.PolicyRecord
		if info.IsDir() {
			loaded, err = policies.LoadDir(path)
		} else {
			loaded, err = policies.LoadFile(path)
		}
		if err != nil {
			return nil, err
		}
		records = append(records, loaded...)
	}
	return records, nil
}
