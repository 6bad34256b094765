package migration

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
)

// filenamePattern builds the pattern for numbered migration files with the
// codec's extension, e.g. 001.yml or 1042.yml.
func filenamePattern(ext string) *regexp.Regexp {
	return regexp.MustCompile(`^(\d+)` + regexp.QuoteMeta(ext) + `$`)
}

// FileName returns the file name for migration number n.
func FileName(n int, codec Codec) string {
	return fmt.Sprintf("%03d%s", n, codec.Ext())
}

// LoadFromDir scans a directory for migration files and decodes them with
// codec, returning them unsorted. Files that do not match the naming pattern
// are skipped. A missing directory is reported with an error wrapping
// fs.ErrNotExist.
func LoadFromDir(dir string, codec Codec) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory %s: %w", dir, err)
	}

	pattern := filenamePattern(codec.Ext())

	var migrations []Migration

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		matches := pattern.FindStringSubmatch(entry.Name())
		if matches == nil {
			continue
		}

		number, err := strconv.Atoi(matches[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrBrokenChain, entry.Name(), err)
		}

		m, err := readMigration(filepath.Join(dir, entry.Name()), number, codec)
		if err != nil {
			return nil, err
		}

		migrations = append(migrations, m)
	}

	return migrations, nil
}

func readMigration(path string, number int, codec Codec) (Migration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Migration{}, fmt.Errorf("reading migration file %s: %w", path, err)
	}

	operations, err := codec.Decode(bytes.NewReader(data))
	if err != nil {
		return Migration{}, fmt.Errorf("migration file %s: %w", path, err)
	}

	if len(operations) == 0 {
		return Migration{}, fmt.Errorf("%w: %s", ErrEmptyMigration, path)
	}

	return Migration{
		Number:   number,
		Ops:      operations,
		Path:     path,
		Checksum: ComputeChecksum(data),
	}, nil
}
