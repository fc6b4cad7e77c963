// internal/loader/names.go
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/newthinker/zhanfa/internal/core"
)

// NameTable maps a 6-digit symbol code to its display name. It is read-only
// after loading and safe to share between workers.
type NameTable map[string]string

// Lookup returns the display name of code
func (t NameTable) Lookup(code string) (string, bool) {
	name, ok := t[NormalizeCode(code)]
	return name, ok
}

var (
	codeHeaders = map[string]bool{"code": true, "代码": true, "symbol": true, "ts_code": true}
	nameHeaders = map[string]bool{"name": true, "名称": true}
)

// LoadNames reads the code/name CSV. Any failure is run-level fatal.
func LoadNames(path string) (NameTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.WrapError(core.ErrNamesMissing, err)
	}
	defer f.Close()

	names, err := ReadNames(f)
	if err != nil {
		return nil, core.WrapError(core.ErrNamesMissing, fmt.Errorf("%s: %w", path, err))
	}
	return names, nil
}

// ReadNames parses name table content from r
func ReadNames(r io.Reader) (NameTable, error) {
	cr := csv.NewReader(skipBOM(r))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	codeIdx, nameIdx := -1, -1
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		switch {
		case codeHeaders[h] && codeIdx < 0:
			codeIdx = i
		case nameHeaders[h] && nameIdx < 0:
			nameIdx = i
		}
	}
	if codeIdx < 0 || nameIdx < 0 {
		return nil, fmt.Errorf("need code and name columns, got %v", header)
	}

	names := make(NameTable)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		code := NormalizeCode(field(rec, codeIdx))
		if code == "" {
			continue
		}
		names[code] = field(rec, nameIdx)
	}
	return names, nil
}

// NormalizeCode strips exchange suffixes such as ".SZ" and zero-pads
// numeric codes to 6 digits.
func NormalizeCode(code string) string {
	code = strings.TrimSpace(code)
	if i := strings.IndexByte(code, '.'); i > 0 {
		code = code[:i]
	}
	if code == "" || len(code) >= 6 || !numeric(code) {
		return code
	}
	return strings.Repeat("0", 6-len(code)) + code
}

func numeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
