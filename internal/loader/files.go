// internal/loader/files.go
package loader

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/newthinker/zhanfa/internal/core"
)

// SymbolFiles lists the *.csv files in dir, sorted by name. A missing
// directory is an error; an empty one is not.
func SymbolFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, core.WrapError(core.ErrDataDirMissing, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// CodeFromPath derives the symbol code from a file name such as
// "data/600000.csv" or "data/1.csv".
func CodeFromPath(path string) string {
	base := filepath.Base(path)
	return NormalizeCode(strings.TrimSuffix(base, filepath.Ext(base)))
}
