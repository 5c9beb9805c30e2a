package rfc9110

import (
	"net/http"
	"strings"
)

// §  5.6.1.  Lists (#rule ABNF Extension)
// §
// §     A #rule extension to the ABNF rules of [RFC5234] is used to improve
// §     readability in the definitions of some list-based field values.
// §
// §     A construct "#" is defined, similar to "*", for defining comma-
// §     delimited lists of elements.  The full form is "<n>#<m>element"
// §     indicating at least <n> and at most <m> elements, each separated by a
// §     single comma (",") and optional whitespace (OWS, defined in
// §     Section 5.6.3).

// §  5.6.1.2.  Recipient Requirements
// §
// §     Empty elements do not contribute to the count of elements present.
// §     A recipient MUST parse and ignore a reasonable number of empty list
// §     elements: enough to handle common mistakes by senders that merge
// §     values, but not so much that they could be used as a denial-of-
// §     service mechanism.  In other words, a recipient MUST accept lists
// §     that satisfy the following syntax:
// §
// §       #element => [ element ] *( OWS "," OWS [ element ] )

// GetListHeader returns the non-empty elements of a list-based field,
// across all field lines with the given name.
//
// Elements are split on every comma. Entity tags generated by this module
// never contain commas, so a quoted comma only ever shows up in a malformed
// or foreign element, which is then dropped by the element parser instead
// of swallowing the rest of the list. Every element is returned; the length
// of a list is bounded only by the server's header size limit.
func GetListHeader(header http.Header, field string) []string {
	list := make([]string, 0)
	for _, hdr := range header.Values(field) {
		for _, item := range strings.Split(hdr, ",") {
			// §  [...] optional whitespace (OWS [...]) [...]
			item = strings.Trim(item, " \t")
			// §  Empty elements do not contribute to the count of elements present.
			if item == "" {
				continue
			}
			list = append(list, item)
		}
	}
	return list
}

// FieldAbsent reports whether the field is missing, or present with only
// whitespace, in which case it is treated as absent.
func FieldAbsent(header http.Header, field string) bool {
	for _, value := range header.Values(field) {
		if strings.Trim(value, " \t") != "" {
			return false
		}
	}
	return true
}
