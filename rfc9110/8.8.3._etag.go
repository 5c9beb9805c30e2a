package rfc9110

import "strings"

// §  8.8.3.  ETag
// §
// §     The "ETag" field in a response provides the current entity tag for
// §     the selected representation, as determined at the conclusion of
// §     handling the request.  An entity tag is an opaque validator for
// §     differentiating between multiple representations of the same
// §     resource, regardless of whether those multiple representations are
// §     due to resource state changes over time, content negotiation
// §     resulting in multiple representations being valid at the same time,
// §     or both.  An entity tag consists of an opaque quoted string, possibly
// §     prefixed by a weakness indicator.
// §
// §       ETag       = entity-tag
// §
// §       entity-tag = [ weak ] opaque-tag
// §       weak       = %s"W/"
// §       opaque-tag = DQUOTE *etagc DQUOTE
// §       etagc      = %x21 / %x23-7E / obs-text
// §                  ; VCHAR except double quotes, plus obs-text
// §
// §        |  *Note:* Previously, opaque-tag was defined to be a quoted-string
// §        |  ([RFC2616], Section 3.11); thus, some recipients might perform
// §        |  backslash unescaping.  Servers therefore ought to avoid backslash
// §        |  characters in entity tags.
// §
// §     Examples:
// §
// §       ETag: "xyzzy"
// §       ETag: W/"xyzzy"
// §       ETag: ""

const (
	weakPrefix = "W/"
	dquote     = '"'
)

// EntityTag is a parsed entity-tag. Opaque holds the opaque-tag without its
// surrounding double quotes.
type EntityTag struct {
	Opaque string
	Weak   bool
}

// String renders the tag in its field-value form.
func (t EntityTag) String() string {
	s := `"` + t.Opaque + `"`
	if t.Weak {
		return weakPrefix + s
	}
	return s
}

// ParseEntityTag parses a single list element as an entity tag.
// It returns false for elements that are not entity tags, such as an opaque
// tag with an unterminated quote or with a quote in its middle.
//
// A bare token without quotes is accepted and treated as the opaque value:
// clients that strip quotes from stored tags still get their 304.
func ParseEntityTag(element string) (EntityTag, bool) {
	s := strings.Trim(element, " \t")
	var tag EntityTag
	// §  weak       = %s"W/"
	// (case-sensitive, so "w/" is not a weakness indicator)
	if strings.HasPrefix(s, weakPrefix) {
		tag.Weak = true
		s = s[len(weakPrefix):]
	}
	if s == "" {
		return EntityTag{}, false
	}
	// §  opaque-tag = DQUOTE *etagc DQUOTE
	if s[0] == dquote {
		if len(s) < 2 || s[len(s)-1] != dquote {
			return EntityTag{}, false
		}
		s = s[1 : len(s)-1]
	} else if s[len(s)-1] == dquote {
		return EntityTag{}, false
	}
	for i := 0; i < len(s); i++ {
		if !isEtagc(s[i]) {
			return EntityTag{}, false
		}
	}
	tag.Opaque = s
	return tag, true
}

// §  etagc      = %x21 / %x23-7E / obs-text
// §  obs-text   = %x80-FF
func isEtagc(c byte) bool {
	return c == 0x21 || (c >= 0x23 && c <= 0x7e) || c >= 0x80
}

// §  8.8.3.1.  Generation
// §
// §     The principle behind entity tags is that only the service author
// §     knows the implementation of a resource well enough to select the
// §     most accurate and efficient validation mechanism for that resource,
// §     and that any such mechanism can be mapped to a simple sequence of
// §     octets for easy comparison.  Since the value is opaque, there is no
// §     need for the client to be aware of how each entity tag is
// §     constructed.
// §
// §     [...] Other
// §     implementations might use a collision-resistant hash of
// §     representation content, a combination of various file attributes, or
// §     a modification timestamp that has sub-second resolution.

// §  8.8.3.2.  Comparison
// §
// §     There are two entity tag comparison functions, depending on whether
// §     or not the comparison context allows the use of weak validators:
// §
// §     "Strong comparison":  two entity tags are equivalent if both are not
// §        weak and their opaque-tags match character-by-character.
// §
// §     "Weak comparison":  two entity tags are equivalent if their opaque-
// §        tags match character-by-character, regardless of either or both
// §        being tagged as "weak".

// StrongCompare is the strong comparison function.
func StrongCompare(a, b EntityTag) bool {
	return !a.Weak && !b.Weak && a.Opaque == b.Opaque
}

// WeakCompare is the weak comparison function.
func WeakCompare(a, b EntityTag) bool {
	return a.Opaque == b.Opaque
}
