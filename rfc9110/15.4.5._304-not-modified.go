package rfc9110

import "net/http"

// §  15.4.5.  304 Not Modified
// §
// §     The 304 (Not Modified) status code indicates that a conditional GET or
// §     HEAD request has been received and would have resulted in a 200 (OK)
// §     response if it were not for the fact that the condition evaluated to
// §     false.  In other words, there is no need for the server to transfer a
// §     representation of the target resource because the request indicates
// §     that the client, which made the request conditional, already has a
// §     valid representation; the server is therefore redirecting the client
// §     to make use of that stored representation as if it were the content
// §     of a 200 (OK) response.
// §
// §     The server generating a 304 response MUST generate any of the
// §     following header fields that would have been sent in a 200 (OK)
// §     response to the same request:
// §
// §     *  Content-Location, Date, ETag, and Vary
// §
// §     *  Cache-Control and Expires (see [CACHING])
// §
// §     Since the goal of a 304 response is to minimize information transfer
// §     when the recipient already has one or more cached representations, a
// §     sender SHOULD NOT generate representation metadata other than the
// §     above listed fields unless said metadata exists for the purpose of
// §     guiding cache updates (e.g., Last-Modified might be useful if the
// §     response does not have an ETag field).

// contentFields describe the content that a bodiless response no longer has.
var contentFields = []string{
	"Content-Type",
	"Content-Length",
	"Content-Encoding",
	"Content-Range",
	"Transfer-Encoding",
}

// StripContentFields removes the fields that describe content from a
// response that will be sent without it. The fields listed in 15.4.5 are
// kept. Last-Modified is dropped only when an ETag is present.
func StripContentFields(header http.Header) {
	for _, field := range contentFields {
		header.Del(field)
	}
	if header.Get("ETag") != "" {
		header.Del("Last-Modified")
	}
}

// §     A 304 response is terminated by the end of the header section; it
// §     cannot contain content or trailers.
