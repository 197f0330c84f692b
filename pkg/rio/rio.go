// Package rio adapts a raw bidirectional byte stream into the line- and
// length-bounded reads the transaction engine needs, plus an unbuffered
// whole-slice write. The name and the read_line/read_n split are carried
// over from the reference proxy's rio_t abstraction; the implementation
// itself is a thin, bounded wrapper over bufio.Reader, in the style of the
// bufio-based header/body readers of the library this project grew out of.
package rio

import (
	"bufio"
	"io"

	"github.com/cacheproxy/webproxy/pkg/proxyerrors"
)

// Reader wraps a net.Conn (or any io.ReadWriter) with bounded line and
// binary reads and an unbuffered full-slice writer.
type Reader struct {
	br *bufio.Reader
	w  io.Writer
}

// New wraps rw for bounded reads and writes.
func New(rw io.ReadWriter) *Reader {
	return &Reader{br: bufio.NewReader(rw), w: rw}
}

// ReadLine reads a single line, stripping the trailing "\r\n" or "\n".
// It returns io.EOF unmodified when the stream ends before any line is
// read, and a proxyerrors.Error for any other read failure. limit bounds
// the number of bytes read before giving up, to protect against a client
// that never sends a newline.
func (r *Reader) ReadLine(limit int) (string, error) {
	var line []byte
	for {
		chunk, err := r.br.ReadSlice('\n')
		line = append(line, chunk...)
		if err == nil {
			break
		}
		if err == bufio.ErrBufferFull {
			if len(line) >= limit {
				return "", proxyerrors.NewClientIOError("read_line", io.ErrShortBuffer)
			}
			continue
		}
		if err == io.EOF && len(line) == 0 {
			return "", io.EOF
		}
		if err == io.EOF {
			break
		}
		return "", proxyerrors.NewClientIOError("read_line", err)
	}

	if len(line) > limit {
		return "", proxyerrors.NewClientIOError("read_line", io.ErrShortBuffer)
	}

	n := len(line)
	for n > 0 && (line[n-1] == '\n' || line[n-1] == '\r') {
		n--
	}
	return string(line[:n]), nil
}

// ReadN reads at most len(buf) bytes into buf, returning the number of
// bytes read. It returns io.EOF once the underlying stream is exhausted
// with zero bytes read, matching the semantics of a single read(2) call
// used to relay a response body without parsing it.
func (r *Reader) ReadN(buf []byte) (int, error) {
	n, err := r.br.Read(buf)
	if err != nil && err != io.EOF {
		return n, proxyerrors.NewClientIOError("read_n", err)
	}
	return n, err
}

// WriteFull writes all of p in a single logical write, retrying short
// writes until the whole slice is sent or an error occurs.
func (r *Reader) WriteFull(p []byte) error {
	written := 0
	for written < len(p) {
		n, err := r.w.Write(p[written:])
		if err != nil {
			return proxyerrors.NewClientIOError("write_n", err)
		}
		written += n
	}
	return nil
}

// Buffered returns the number of bytes currently buffered and not yet
// consumed by ReadLine/ReadN.
func (r *Reader) Buffered() int {
	return r.br.Buffered()
}
