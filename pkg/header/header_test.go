package header

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cacheproxy/webproxy/pkg/rio"
)

func newReader(raw string) *rio.Reader {
	buf := bytes.NewBufferString(raw)
	return rio.New(buf)
}

func TestBuildForwardsHostVerbatim(t *testing.T) {
	r := newReader("Host: example.test\r\nAccept: */*\r\n\r\n")
	out, err := Build(r, "/a", "example.test")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !strings.HasPrefix(out, "GET /a HTTP/1.0\r\n") {
		t.Fatalf("unexpected request line: %q", out)
	}
	if !strings.Contains(out, "Host: example.test\r\n") {
		t.Fatalf("expected verbatim Host header, got %q", out)
	}
	if !strings.Contains(out, "Accept: */*\r\n") {
		t.Fatalf("expected other header forwarded, got %q", out)
	}
	if !strings.Contains(out, "Connection: close\r\n") ||
		!strings.Contains(out, "Proxy-Connection: close\r\n") ||
		!strings.Contains(out, "User-Agent: Mozilla/5.0") {
		t.Fatalf("missing mandatory overrides: %q", out)
	}
	if !strings.HasSuffix(out, "\r\n\r\n") {
		t.Fatalf("expected terminating blank line, got %q", out)
	}
}

func TestBuildSynthesizesHostWhenMissing(t *testing.T) {
	r := newReader("Accept: */*\r\n\r\n")
	out, err := Build(r, "/", "example.test")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !strings.Contains(out, "Host: example.test\r\n") {
		t.Fatalf("expected synthesized Host header, got %q", out)
	}
}

func TestBuildDropsClientOverrideAttempts(t *testing.T) {
	r := newReader("Host: example.test\r\nUser-Agent: curl/8\r\nConnection: keep-alive\r\nProxy-Connection: keep-alive\r\n\r\n")
	out, err := Build(r, "/", "example.test")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if strings.Contains(out, "curl/8") {
		t.Fatalf("expected client User-Agent to be dropped, got %q", out)
	}
	if strings.Contains(out, "keep-alive") {
		t.Fatalf("expected client Connection headers to be dropped, got %q", out)
	}
	if strings.Count(out, "\r\nConnection: close\r\n") != 1 {
		t.Fatalf("expected exactly one Connection: close, got %q", out)
	}
}

func TestBuildNoHeaders(t *testing.T) {
	r := newReader("\r\n")
	out, err := Build(r, "/", "example.test")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !strings.Contains(out, "Host: example.test\r\n") {
		t.Fatalf("expected synthesized Host header with no client headers, got %q", out)
	}
}
