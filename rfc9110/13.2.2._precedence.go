package rfc9110

import "net/http"

// §  13.2.2.  Precedence of Preconditions
// §
// §     When more than one conditional request header field is present in a
// §     request, the order in which the fields are evaluated becomes
// §     important.  In practice, the fields defined in this document are
// §     consistently implemented in a single, logical order, since "lost
// §     update" preconditions have more strict requirements than cache
// §     validation, a validated cache is more efficient than a partial
// §     response, and entity tags are presumed to be more accurate than date
// §     validators.

// Outcome is the result of evaluating the preconditions of a request.
type Outcome int

const (
	// Proceed means all conditions are met; respond normally.
	Proceed Outcome = iota
	// NotModified means If-None-Match was false for GET or HEAD.
	NotModified
	// PreconditionFailed means If-Match was false, or If-None-Match was
	// false for a method other than GET or HEAD.
	PreconditionFailed
)

func (o Outcome) String() string {
	switch o {
	case NotModified:
		return "not-modified"
	case PreconditionFailed:
		return "precondition-failed"
	default:
		return "proceed"
	}
}

// StatusCode returns the status code to respond with, or 0 for Proceed.
func (o Outcome) StatusCode() int {
	switch o {
	case NotModified:
		return http.StatusNotModified
	case PreconditionFailed:
		return http.StatusPreconditionFailed
	default:
		return 0
	}
}

// Preconditions holds the parsed conditional fields of a request.
// Either field may be nil.
type Preconditions struct {
	IfMatch     Condition
	IfNoneMatch Condition
}

// ParsePreconditions reads If-Match and If-None-Match from a request header.
func ParsePreconditions(header http.Header) Preconditions {
	return Preconditions{
		IfMatch:     IfMatch(header),
		IfNoneMatch: IfNoneMatch(header),
	}
}

// Present reports whether the request carried any usable condition.
func (p Preconditions) Present() bool {
	return p.IfMatch != nil || p.IfNoneMatch != nil
}

// Evaluate applies the preconditions to the selected representation, whose
// entity tag is current. If-Match is only evaluated when ifMatch is set,
// so callers can keep lost-update checks out of plain GET validation.
//
// §     A recipient cache or origin server MUST evaluate the request
// §     preconditions defined by this specification in the following order:
func (p Preconditions) Evaluate(method string, current EntityTag, ifMatch bool) Outcome {
	// §     1.  When recipient is the origin server and If-Match is present,
	// §         evaluate the If-Match precondition:
	// §
	// §         *  if true, continue to step 3
	// §
	// §         *  if false, respond 412 (Precondition Failed) unless it can be
	// §            determined that the state-changing request has already
	// §            succeeded (see Section 13.1.1)
	if ifMatch && !IfMatchTrue(p.IfMatch, current) {
		return PreconditionFailed
	}
	// §     2.  When recipient is the origin server, If-Match is not present, and
	// §         If-Unmodified-Since is present, evaluate the If-Unmodified-Since
	// §         precondition [...]
	//
	// (date validators are not implemented)
	//
	// §     3.  When If-None-Match is present, evaluate the If-None-Match
	// §         precondition:
	// §
	// §         *  if true, continue to step 5
	// §
	// §         *  if false for GET/HEAD, respond 304 (Not Modified)
	// §
	// §         *  if false for other methods, respond 412 (Precondition Failed)
	if !IfNoneMatchTrue(p.IfNoneMatch, current) {
		if method == http.MethodGet || method == http.MethodHead {
			return NotModified
		}
		return PreconditionFailed
	}
	// §     6.  Otherwise,
	// §
	// §         *  all conditions are met, so perform the requested action and
	// §            respond according to its success or failure.
	return Proceed
}
