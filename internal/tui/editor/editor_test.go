package editor

import (
	"reflect"
	"testing"
)

func TestFormatKeywords(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "keywords", in: "select top 10 * from orders", want: "SELECT TOP 10 * FROM orders"},
		{name: "string literal", in: "select 'from' as x", want: "SELECT 'from' AS x"},
		{name: "brackets", in: "select [order] from [select]", want: "SELECT [order] FROM [select]"},
		{name: "comment", in: "-- select this\nselect 1", want: "-- select this\nSELECT 1"},
		{name: "identifier with digits", in: "select col1 from t2", want: "SELECT col1 FROM t2"},
		{name: "batch separator", in: "use sales\ngo\nexec sp_who", want: "USE sales\nGO\nEXEC sp_who"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FormatKeywords(tt.in); got != tt.want {
				t.Errorf("FormatKeywords(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractLastWord(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SELECT * FROM dbo.ord", "dbo.ord"},
		{"SELECT * FROM #tmp  ", "#tmp"},
		{"SELECT (", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := extractLastWord(tt.in); got != tt.want {
			t.Errorf("extractLastWord(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMatchTables(t *testing.T) {
	names := []string{"orders", "dbo.orders", "Order_Items", "customers"}
	got := matchTables(names, "ord")
	want := []string{"orders", "Order_Items"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestCompletion_Cycles(t *testing.T) {
	m := New()
	m.SetTableNames([]string{"orders", "order_items"})
	m.SetQuery("SELECT * FROM ord")

	if !m.tryCompletion() || m.Value() != "SELECT * FROM orders" {
		t.Fatalf("expected first candidate, got %q", m.Value())
	}
	if !m.CompletionActive() {
		t.Fatal("expected completion to be active")
	}
	m.tryCompletion()
	if m.Value() != "SELECT * FROM order_items" {
		t.Errorf("expected second candidate, got %q", m.Value())
	}
	m.cancelCompletion()
	if m.CompletionActive() {
		t.Error("expected completion to stop")
	}
}

func TestCompletion_NeedsTableContext(t *testing.T) {
	m := New()
	m.SetTableNames([]string{"orders"})
	m.SetQuery("SELECT ord")
	if m.tryCompletion() {
		t.Errorf("expected no completion outside a table context, got %q", m.Value())
	}
}
