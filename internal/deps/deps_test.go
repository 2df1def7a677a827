package deps

import (
	"reflect"
	"testing"
)

// TestScanCollectsIdentifiers verifies the scan reports referenced names in
// first-seen order, including names the snippet itself binds.
func TestScanCollectsIdentifiers(t *testing.T) {
	tests := []struct {
		source string
		want   []string
	}{
		{"f(x) + 1", []string{"f", "x"}},
		{"x + x * x", []string{"x"}},
		{"a(b, c[d])", []string{"a", "b", "c", "d"}},
		{"t.field + u.v", []string{"t", "u"}},
		{"m[k] = w", []string{"m", "k", "w"}},
		{"local y = 2\nreturn y + z", []string{"y", "z"}},
		{"function g(q)\n  return q + n\nend", []string{"g", "q", "n"}},
		{"for i = lo, hi do acc = acc + i end", []string{"i", "lo", "hi", "acc"}},
		{"{ one, [key] = two, lit = three }", []string{"one", "key", "two", "three"}},
		{"obj:method(arg)", []string{"obj", "arg"}},
		{"42", nil},
	}

	for _, tt := range tests {
		got, err := Scan(tt.source, nil)
		if err != nil {
			t.Errorf("Scan(%q) returned error: %v", tt.source, err)
			continue
		}
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Scan(%q) = %v, want %v", tt.source, got, tt.want)
		}
	}
}

// TestScanFiltersBuiltins verifies names the scope chain provides are
// dropped while unknown names survive.
func TestScanFiltersBuiltins(t *testing.T) {
	builtins := map[string]bool{"sqrt": true, "print": true}
	got, err := Scan("print(sqrt(x) + y)", func(name string) bool {
		return builtins[name]
	})
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	want := []string{"x", "y"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scan = %v, want %v", got, want)
	}
}

// TestScanSyntaxError verifies malformed code surfaces a parse error rather
// than a partial result.
func TestScanSyntaxError(t *testing.T) {
	got, err := Scan("f(", nil)
	if err == nil {
		t.Fatalf("Scan accepted malformed code, got %v", got)
	}
}
