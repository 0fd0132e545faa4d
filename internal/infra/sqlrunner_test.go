package infra

import "testing"

func TestExtractMarker(t *testing.T) {
	marker, body, err := extractMarker("\n--sql 8a8e0d52-7f5d-4f21-8b7d-f7d4b821eed7\nselect 1;\n")
	if err != nil {
		t.Fatalf("extractMarker error: %v", err)
	}
	if marker != "8a8e0d52-7f5d-4f21-8b7d-f7d4b821eed7" {
		t.Fatalf("marker = %q", marker)
	}
	if body != "select 1;" {
		t.Fatalf("body = %q", body)
	}
}

func TestExtractMarkerRejectsUntaggedQueries(t *testing.T) {
	for _, q := range []string{"select 1;", "--sql not-a-uuid\nselect 1;", ""} {
		if _, _, err := extractMarker(q); err == nil {
			t.Fatalf("expected error for %q", q)
		}
	}
}

func TestSQLRunnerQueryRowPropagatesMarkerError(t *testing.T) {
	runner := NewSQLRunner(nil, NewLogger("test"))
	var v int
	if err := runner.QueryRow(t.Context(), "select 1;").Scan(&v); err == nil {
		t.Fatal("expected marker error")
	}
}
