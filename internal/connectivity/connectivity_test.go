package connectivity

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	svcerrors "github.com/watxaut/FontsReviewerApp/internal/errors"
)

func TestNewDefaultsPort(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://proj.supabase.co", "proj.supabase.co:443"},
		{"http://localhost", "localhost:80"},
		{"http://127.0.0.1:54321", "127.0.0.1:54321"},
	}
	for _, tt := range tests {
		c, err := New(tt.url, 0)
		if err != nil {
			t.Fatalf("New(%q): %v", tt.url, err)
		}
		if c.Addr() != tt.want {
			t.Errorf("Addr() = %q, want %q", c.Addr(), tt.want)
		}
	}

	for _, bad := range []string{"", "proj.supabase.co", "ftp://host"} {
		if _, err := New(bad, 0); err == nil {
			t.Errorf("New(%q) error = nil, want error", bad)
		}
	}
}

func TestCheckReachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c, err := New(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Check(context.Background()); err != nil {
		t.Errorf("Check() = %v, want nil", err)
	}
}

func TestCheckUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	c, err := New("http://"+addr, time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = c.Check(context.Background())
	if !svcerrors.IsCode(err, svcerrors.ErrCodeNoInternet) {
		t.Errorf("Check() = %v, want NO_INTERNET", err)
	}
}
