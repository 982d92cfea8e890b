package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/joacominatel/tdskit/tdsclient"
)

func TestNew(t *testing.T) {
	tests := []struct {
		format  string
		want    any
		wantErr bool
	}{
		{format: "", want: &CSVEncoder{}},
		{format: "CSV", want: &CSVEncoder{}},
		{format: "json", want: &JSONEncoder{}},
		{format: "jsonl", want: &JSONEncoder{}},
		{format: "xlsx", want: &ExcelEncoder{}},
		{format: "pdf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()
			enc, err := New(tt.format, &bytes.Buffer{})
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownFormat) {
					t.Fatalf("expected ErrUnknownFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if reflect.TypeOf(enc) != reflect.TypeOf(tt.want) {
				t.Errorf("expected %T, got %T", tt.want, enc)
			}
		})
	}
}

func TestCSVEncoder(t *testing.T) {
	var buf bytes.Buffer
	enc := NewCSVEncoder(&buf)

	sink, sinkErr := Sink(enc)
	sink([]string{"id", "name"}, tdsclient.Table{{"1", "a,b"}, {"2", "NULL"}})
	sink([]string{"total"}, tdsclient.Table{{"2"}})
	if err := sinkErr(); err != nil {
		t.Fatalf("sink: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	want := "id,name\n1,\"a,b\"\n2,NULL\n\ntotal\n2\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestJSONEncoder(t *testing.T) {
	var buf bytes.Buffer
	enc := NewJSONEncoder(&buf)

	err := WriteResultSet(enc, []string{"id", "note"}, tdsclient.Table{{"1", "NULL"}, {"2", "x", "extra"}})
	if err != nil {
		t.Fatalf("WriteResultSet: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}

	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatal(err)
	}
	if first["id"] != "1" || first["note"] != nil {
		t.Errorf("expected NULL as null, got %v", first)
	}
	if _, ok := first["note"]; !ok {
		t.Error("expected the null key to be present")
	}

	var second map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatal(err)
	}
	if second["column_3"] != "extra" {
		t.Errorf("expected a positional key for the extra value, got %v", second)
	}
}

func TestExcelEncoder(t *testing.T) {
	var buf bytes.Buffer
	enc := NewExcelEncoder(&buf)

	if err := WriteResultSet(enc, []string{"id", "formula"}, tdsclient.Table{{"1", "=SUM(A1:A2)"}}); err != nil {
		t.Fatalf("first set: %v", err)
	}
	if err := WriteResultSet(enc, []string{"n"}, tdsclient.Table{{"7"}}); err != nil {
		t.Fatalf("second set: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"id", "formula"}, {"1", "'=SUM(A1:A2)"}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("expected %q, got %q", want, rows)
	}

	rows, err = f.GetRows("Sheet2")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(rows, [][]string{{"n"}, {"7"}}) {
		t.Errorf("unexpected second sheet %q", rows)
	}
}

func TestExcelEncoder_RowBeforeHeader(t *testing.T) {
	enc := NewExcelEncoder(&bytes.Buffer{})
	if err := enc.WriteRow([]string{"x"}); err == nil {
		t.Fatal("expected an error")
	}
	if enc.Error() == nil {
		t.Error("expected the error to stick")
	}
}

func TestSink_KeepsFirstError(t *testing.T) {
	enc := NewExcelEncoder(&bytes.Buffer{})
	enc.err = errors.New("disk full")

	sink, sinkErr := Sink(enc)
	sink([]string{"a"}, tdsclient.Table{{"1"}})
	if err := sinkErr(); err == nil || err.Error() != "disk full" {
		t.Errorf("expected disk full, got %v", err)
	}
}

func TestSink_SkipsDeliveryWithoutColumns(t *testing.T) {
	var buf bytes.Buffer
	enc := NewCSVEncoder(&buf)

	sink, sinkErr := Sink(enc)
	sink([]string{}, tdsclient.Table{})
	if err := errors.Join(sinkErr(), enc.Close()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}
