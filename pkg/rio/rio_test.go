package rio

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"
)

// pipeConn lets us exercise Reader against something that behaves like a
// net.Conn without needing a real socket.
func pipeConn(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	return a, b
}

func TestReadLineStripsCRLF(t *testing.T) {
	a, b := pipeConn(t)
	go func() {
		b.Write([]byte("GET http://example.test/a HTTP/1.1\r\n"))
	}()

	r := New(a)
	line, err := r.ReadLine(8192)
	if err != nil {
		t.Fatalf("ReadLine failed: %v", err)
	}
	if line != "GET http://example.test/a HTTP/1.1" {
		t.Fatalf("unexpected line: %q", line)
	}
}

func TestReadLineEOFBeforeAnyData(t *testing.T) {
	a, b := pipeConn(t)
	b.Close()

	r := New(a)
	_, err := r.ReadLine(8192)
	if err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestReadNRelaysArbitraryBytes(t *testing.T) {
	a, b := pipeConn(t)
	payload := []byte{0x00, 0x01, 0xFF, 0xFE, 'a', 'b', 'c'}
	go func() {
		b.Write(payload)
	}()

	r := New(a)
	buf := make([]byte, 16)
	n, err := r.ReadN(buf)
	if err != nil && err != io.EOF {
		t.Fatalf("ReadN failed: %v", err)
	}
	if !bytes.Equal(buf[:n], payload) {
		t.Fatalf("expected %v, got %v", payload, buf[:n])
	}
}

func TestWriteFullRetriesShortWrites(t *testing.T) {
	a, b := pipeConn(t)
	r := New(a)

	payload := bytes.Repeat([]byte("x"), 70000) // larger than a single pipe write
	done := make(chan error, 1)
	go func() {
		done <- r.WriteFull(payload)
	}()

	got := make([]byte, 0, len(payload))
	buf := make([]byte, 4096)
	b.SetReadDeadline(time.Now().Add(5 * time.Second))
	for len(got) < len(payload) {
		n, err := b.Read(buf)
		got = append(got, buf[:n]...)
		if err != nil {
			break
		}
	}

	if err := <-done; err != nil {
		t.Fatalf("WriteFull failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch: got %d bytes, want %d", len(got), len(payload))
	}
}
