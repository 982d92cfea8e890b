package loadfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joacominatel/tdskit/driver"
	"github.com/joacominatel/tdskit/tdsclient"
)

// ReadBindingsFile reads a bindings file from path.
func ReadBindingsFile(path string) ([]tdsclient.Binding, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadBindings(f)
}

// ReadBindings parses one "name:TYPE" binding per line, left to right in
// column order. TYPE is a type name (CHAR, INT4, NVARCHAR) or a numeric type
// code. A line without a type binds as VARCHAR. Blank lines and lines
// starting with '#' are ignored.
func ReadBindings(r io.Reader) ([]tdsclient.Binding, error) {
	var out []tdsclient.Binding
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name, typ, found := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("line %d: missing column name", n)
		}

		code := driver.TypeVarChar
		if found {
			var err error
			code, err = driver.ParseTypeCode(typ)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", n, err)
			}
		}
		out = append(out, tdsclient.Binding{Name: name, Type: code})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
