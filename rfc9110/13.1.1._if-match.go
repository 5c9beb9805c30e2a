package rfc9110

import "net/http"

// §  13.1.1.  If-Match
// §
// §     The "If-Match" header field makes the request method conditional on
// §     the recipient origin server either having at least one current
// §     representation of the target resource, when the field value is "*",
// §     or having a current representation of the target resource that has an
// §     entity tag matching a member of the list of entity tags provided in
// §     the field value.
// §
// §     An origin server MUST use the strong comparison function when
// §     comparing entity tags for If-Match (Section 8.8.3.2), since the
// §     client intends this precondition to prevent the method from being
// §     applied if there have been any changes to the representation data.
// §
// §       If-Match = "*" / #entity-tag
// §
// §     Examples:
// §
// §       If-Match: "xyzzy"
// §       If-Match: "xyzzy", "r2d2xxxx", "c3piozzzz"
// §       If-Match: *

// IfMatch returns the parsed If-Match field, or nil if absent.
func IfMatch(header http.Header) Condition {
	return ParseCondition(header, "If-Match")
}

// §     An origin server that receives an If-Match header field MUST evaluate
// §     the condition as per Section 13.2 prior to performing the method.
// §
// §     To evaluate a received If-Match header field:
// §
// §     1.  If the field value is "*", the condition is true if the origin
// §         server has a current representation for the target resource.
// §
// §     2.  If the field value is a list of entity tags, the condition is true
// §         if any of the listed tags match the entity tag of the selected
// §         representation.
// §
// §     3.  Otherwise, the condition is false.

// IfMatchTrue evaluates an If-Match condition against the entity tag of the
// selected representation. A nil condition is true.
func IfMatchTrue(cond Condition, current EntityTag) bool {
	if cond == nil {
		return true
	}
	return cond.Matches(current, StrongCompare)
}
