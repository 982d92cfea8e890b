// Package loadfile turns delimited text files into tables ready for a bulk
// load, and reads the column bindings that describe them.
//
// Input is decoded from its declared charset into UTF-8 and a leading byte
// order mark is dropped. Rows may be shorter than the header; the bulk loader
// binds only the fields a row has.
package loadfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/joacominatel/tdskit/driver"
	"github.com/joacominatel/tdskit/tdsclient"
)

// DefaultCharset is assumed when Options.Charset is empty.
const DefaultCharset = "utf-8"

// Options controls how a file is read.
type Options struct {
	// Charset is a WHATWG encoding label such as "utf-8", "windows-1252" or
	// "iso-8859-1".
	Charset string

	// Comma is the field delimiter. Zero means ','.
	Comma rune

	// Header makes the first record a header. Its names are returned
	// separately and never loaded.
	Header bool
}

// File is a decoded input file.
type File struct {
	Header []string
	Rows   tdsclient.Table
}

// Bindings returns one binding per header column. Columns with a type in
// types keep it, the rest bind as VARCHAR.
func (f File) Bindings(types map[string]driver.TypeCode) []tdsclient.Binding {
	out := make([]tdsclient.Binding, len(f.Header))
	for i, name := range f.Header {
		typ, ok := types[name]
		if !ok {
			typ = driver.TypeVarChar
		}
		out[i] = tdsclient.Binding{Name: name, Type: typ}
	}
	return out
}

// ReadFile reads and decodes the file at path.
func ReadFile(path string, opts Options) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	out, err := Read(f, opts)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
}

// Read decodes delimited records from r.
func Read(r io.Reader, opts Options) (File, error) {
	dec, err := decoder(opts.Charset)
	if err != nil {
		return File{}, err
	}

	cr := csv.NewReader(transform.NewReader(r, dec))
	cr.FieldsPerRecord = -1
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}

	var out File
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return File{}, err
		}
		if opts.Header && out.Header == nil {
			out.Header = record
			continue
		}
		out.Rows = append(out.Rows, record)
	}
	return out, nil
}

func decoder(charset string) (transform.Transformer, error) {
	if charset == "" {
		charset = DefaultCharset
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("charset %q: %w", charset, err)
	}
	return unicode.BOMOverride(enc.NewDecoder()), nil
}
