package rfc9110

import "net/http"

// §  13.1.2.  If-None-Match
// §
// §     The "If-None-Match" header field makes the request method conditional
// §     on a recipient cache or origin server either not having any current
// §     representation of the target resource, when the field value is "*",
// §     or having a selected representation with an entity tag that does not
// §     match any of those listed in the field value.
// §
// §     A recipient MUST use the weak comparison function when comparing
// §     entity tags for If-None-Match (Section 8.8.3.2), since weak entity
// §     tags can be used for cache validation even if there have been changes
// §     to the representation data.
// §
// §       If-None-Match = "*" / #entity-tag
// §
// §     Examples:
// §
// §       If-None-Match: "xyzzy"
// §       If-None-Match: W/"xyzzy"
// §       If-None-Match: "xyzzy", "r2d2xxxx", "c3piozzzz"
// §       If-None-Match: W/"xyzzy", W/"r2d2xxxx", W/"c3piozzzz"
// §       If-None-Match: *
// §
// §     If-None-Match is primarily used in conditional GET requests to enable
// §     efficient updates of cached information with a minimum amount of
// §     transaction overhead.

// IfNoneMatch returns the parsed If-None-Match field, or nil if absent.
func IfNoneMatch(header http.Header) Condition {
	return ParseCondition(header, "If-None-Match")
}

// §     To evaluate a received If-None-Match header field:
// §
// §     1.  If the field value is "*", the condition is false if the origin
// §         server has a current representation for the target resource.
// §
// §     2.  If the field value is a list of entity tags, the condition is
// §         false if one of the listed tags matches the entity tag of the
// §         selected representation.
// §
// §     3.  Otherwise, the condition is true.

// IfNoneMatchTrue evaluates an If-None-Match condition against the entity
// tag of the selected representation. A nil condition is true.
func IfNoneMatchTrue(cond Condition, current EntityTag) bool {
	if cond == nil {
		return true
	}
	return !cond.Matches(current, WeakCompare)
}

// §     An origin server MUST NOT perform the requested method if the
// §     condition evaluates to false; instead, the origin server MUST respond
// §     with either a) the 304 (Not Modified) status code if the request
// §     method is GET or HEAD or b) the 412 (Precondition Failed) status code
// §     for all other request methods.
