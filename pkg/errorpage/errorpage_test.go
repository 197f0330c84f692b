package errorpage

import (
	"strconv"
	"strings"
	"testing"
)

func TestRenderStatusLines(t *testing.T) {
	cases := map[Kind]string{
		BadRequest:     "HTTP/1.0 400 Bad Request\r\n",
		NotImplemented: "HTTP/1.0 501 Not Implemented\r\n",
		BadGateway:     "HTTP/1.0 502 Bad Gateway\r\n",
		NotFound:       "HTTP/1.0 404 Not Found\r\n",
	}
	for kind, want := range cases {
		out := string(Render(kind, "detail"))
		if !strings.HasPrefix(out, want) {
			t.Errorf("kind %d: expected status line %q, got %q", kind, want, out)
		}
	}
}

func TestRenderIncludesCause(t *testing.T) {
	out := string(Render(NotImplemented, "POST"))
	if !strings.Contains(out, "POST") {
		t.Fatalf("expected cause to appear in body, got %q", out)
	}
}

func TestRenderContentLengthMatchesBody(t *testing.T) {
	out := string(Render(BadGateway, "http://example.test/x"))
	headEnd := strings.Index(out, "\r\n\r\n")
	if headEnd < 0 {
		t.Fatalf("missing header/body separator in %q", out)
	}
	head, body := out[:headEnd], out[headEnd+4:]

	var declared int
	for _, line := range strings.Split(head, "\r\n") {
		if strings.HasPrefix(line, "Content-length: ") {
			n, err := strconv.Atoi(strings.TrimPrefix(line, "Content-length: "))
			if err != nil {
				t.Fatalf("bad Content-length value: %v", err)
			}
			declared = n
		}
	}
	if declared != len(body) {
		t.Fatalf("Content-length %d does not match body length %d", declared, len(body))
	}
}

func TestRenderAlwaysClosesConnection(t *testing.T) {
	for _, kind := range []Kind{BadRequest, NotImplemented, BadGateway, NotFound} {
		out := string(Render(kind, "detail"))
		if !strings.Contains(out, "Connection: close\r\n") {
			t.Errorf("kind %d: expected Connection: close, got %q", kind, out)
		}
	}
}
