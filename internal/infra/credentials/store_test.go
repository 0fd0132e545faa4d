package credentials

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type stubExecutor struct {
	token string
	err   error
	exec  struct {
		query string
		args  []any
	}
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.exec.query = query
	s.exec.args = args
	return pgconn.CommandTag{}, s.err
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	return stubRow{token: s.token, err: s.err}
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

type stubRow struct {
	token string
	err   error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) == 0 {
		return errors.New("no dest")
	}
	ptr, ok := dest[0].(*string)
	if !ok {
		return errors.New("invalid dest")
	}
	*ptr = r.token
	return nil
}

func TestGeminiAPIKey(t *testing.T) {
	store := NewStore(&stubExecutor{token: " abc123 "})
	key, err := store.GeminiAPIKey(context.Background())
	if err != nil {
		t.Fatalf("GeminiAPIKey error: %v", err)
	}
	if key != "abc123" {
		t.Fatalf("expected abc123, got %q", key)
	}
}

func TestGeminiAPIKey_NoRows(t *testing.T) {
	store := NewStore(&stubExecutor{err: pgx.ErrNoRows})
	key, err := store.GeminiAPIKey(context.Background())
	if err != nil {
		t.Fatalf("GeminiAPIKey error: %v", err)
	}
	if key != "" {
		t.Fatalf("expected empty key, got %q", key)
	}
}

func TestSetGeminiAPIKey(t *testing.T) {
	exec := &stubExecutor{}
	store := NewStore(exec)
	if err := store.SetGeminiAPIKey(context.Background(), "secret"); err != nil {
		t.Fatalf("SetGeminiAPIKey error: %v", err)
	}
	if len(exec.exec.args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(exec.exec.args))
	}
	if v, ok := exec.exec.args[1].(string); !ok || v != "secret" {
		t.Fatalf("expected secret argument, got %T %v", exec.exec.args[1], exec.exec.args[1])
	}
	if !strings.Contains(exec.exec.query, "insert into provider_keys") {
		t.Fatalf("unexpected statement %q", exec.exec.query)
	}
	if !strings.HasPrefix(exec.exec.query, "--sql ") {
		t.Fatalf("statement without marker: %q", exec.exec.query)
	}
}

func TestSetGeminiAPIKeyEmpty(t *testing.T) {
	store := NewStore(&stubExecutor{})
	if err := store.SetGeminiAPIKey(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestSetGeminiAPIKeyWithoutDatabase(t *testing.T) {
	if err := NewStore(nil).SetGeminiAPIKey(context.Background(), "secret"); err == nil {
		t.Fatal("expected error without executor")
	}
}

func TestResolverPrecedence(t *testing.T) {
	store := NewStore(&stubExecutor{token: "stored"})
	tests := []struct {
		name     string
		resolver Resolver
		request  string
		want     string
	}{
		{name: "request key wins", resolver: Resolver{Configured: "env", Store: store}, request: " mine ", want: "mine"},
		{name: "configured key", resolver: Resolver{Configured: "env", Store: store}, want: "env"},
		{name: "stored key", resolver: Resolver{Store: store}, want: "stored"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.resolver.Resolve(context.Background(), tc.request)
			if err != nil {
				t.Fatalf("Resolve error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Resolve() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResolverNoKey(t *testing.T) {
	r := Resolver{Store: NewStore(&stubExecutor{err: pgx.ErrNoRows})}
	if _, err := r.Resolve(context.Background(), ""); !errors.Is(err, ErrNoKey) {
		t.Fatalf("expected ErrNoKey, got %v", err)
	}
	if _, err := (Resolver{}).Resolve(context.Background(), " "); !errors.Is(err, ErrNoKey) {
		t.Fatalf("expected ErrNoKey without store, got %v", err)
	}
}
