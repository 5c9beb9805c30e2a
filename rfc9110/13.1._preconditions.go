package rfc9110

import "net/http"

// §  13.1.  Preconditions
// §
// §     Preconditions are usually defined with respect to a state of the
// §     target resource as a whole (its current value set) or the state as
// §     observed in a previously obtained representation (one value in that
// §     set).  If a resource has multiple current representations, each with
// §     its own observable state, a precondition will assume that the mapping
// §     of each request to a selected representation (Section 3.2) is
// §     consistent over time.

// Condition is the parsed value of an If-Match or If-None-Match field.
// It is either Wildcard or a TagSet. A nil Condition means the field was
// absent, empty, or held nothing that parsed.
type Condition interface {
	// Matches reports whether the condition's tags match the current tag
	// under the given comparison function.
	Matches(current EntityTag, compare func(a, b EntityTag) bool) bool
	condition()
}

// Wildcard is the "*" field value.
type Wildcard struct{}

// Matches always returns true: the selected representation exists.
func (Wildcard) Matches(EntityTag, func(a, b EntityTag) bool) bool { return true }

func (Wildcard) condition() {}

// TagSet is a list of entity tags, unique by opaque value.
type TagSet []EntityTag

// Matches reports whether any member of the set matches the current tag.
func (s TagSet) Matches(current EntityTag, compare func(a, b EntityTag) bool) bool {
	for _, tag := range s {
		if compare(tag, current) {
			return true
		}
	}
	return false
}

func (TagSet) condition() {}

// ParseCondition parses the If-Match or If-None-Match field named by field.
//
//	If-Match      = "*" / #entity-tag
//	If-None-Match = "*" / #entity-tag
//
// Elements that do not parse are skipped, so one bad element never hides a
// good one later in the list. A "*" anywhere in the list yields Wildcard.
func ParseCondition(header http.Header, field string) Condition {
	elements := GetListHeader(header, field)
	if len(elements) == 0 {
		return nil
	}
	set := make(TagSet, 0, len(elements))
	seen := make(map[string]int, len(elements))
	for _, element := range elements {
		if element == "*" {
			return Wildcard{}
		}
		tag, ok := ParseEntityTag(element)
		if !ok {
			continue
		}
		if i, dup := seen[tag.Opaque]; dup {
			// keep the strong variant so If-Match can still succeed
			if set[i].Weak && !tag.Weak {
				set[i] = tag
			}
			continue
		}
		seen[tag.Opaque] = len(set)
		set = append(set, tag)
	}
	if len(set) == 0 {
		return nil
	}
	return set
}
