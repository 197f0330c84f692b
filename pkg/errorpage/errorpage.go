// Package errorpage renders the small HTTP/1.0 error documents the proxy
// returns to a client directly, without contacting any origin: malformed
// requests, unsupported methods, and origin-connect failures. The format
// mirrors the reference proxy's clienterror() — a minimal HTML body plus
// the status line and the headers required to let the client know the
// body's length and that the connection won't be reused.
package errorpage

import (
	"fmt"
	"strconv"
)

// Kind identifies which of the proxy's four canned error documents to render.
type Kind int

const (
	// BadRequest is returned for a malformed or unparsable request line.
	BadRequest Kind = iota
	// NotImplemented is returned for any request method other than GET.
	NotImplemented
	// BadGateway is returned when a request could not be forwarded to an
	// origin the proxy had already connected to.
	BadGateway
	// NotFound is returned when the initial connection to the origin
	// server could not be established at all (spec.md §4.6 step 6 accepts
	// either 502 or 404 here).
	NotFound
)

type doc struct {
	status string
	title  string
	body   string
}

var docs = map[Kind]doc{
	BadRequest: {
		status: "400 Bad Request",
		title:  "Bad Request",
		body:   "The proxy could not understand the request.",
	},
	NotImplemented: {
		status: "501 Not Implemented",
		title:  "Not Implemented",
		body:   "The proxy does not implement this method.",
	},
	BadGateway: {
		status: "502 Bad Gateway",
		title:  "Bad Gateway",
		body:   "The proxy could not forward the request to the origin server.",
	},
	NotFound: {
		status: "404 Not Found",
		title:  "Not Found",
		body:   "The proxy could not connect to the origin server.",
	},
}

// Render returns the complete HTTP/1.0 response bytes for kind, ready to
// write directly to the client connection. cause names the specific thing
// that triggered the error (the rejected method, the offending URI, the
// unreachable origin) and is interpolated into the body as "<long>: <cause>"
// per spec.md §4.7.
func Render(kind Kind, cause string) []byte {
	d := docs[kind]
	html := fmt.Sprintf(
		"<html><head><title>%s</title></head>"+
			"<body bgcolor=\"ffffff\">\r\n%s: %s: %s\r\n"+
			"<hr><em>webproxy</em>\r\n</body></html>\r\n",
		d.title, d.status, d.body, cause,
	)

	head := "HTTP/1.0 " + d.status + "\r\n" +
		"Content-type: text/html\r\n" +
		"Content-length: " + strconv.Itoa(len(html)) + "\r\n" +
		"Connection: close\r\n" +
		"\r\n"

	return []byte(head + html)
}
