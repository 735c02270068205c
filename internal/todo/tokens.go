package todo

import "strings"

// TokenPrefix starts an inline priority marker such as "/high".
const TokenPrefix = "/"

// ExtractPriority looks for inline priority markers in text. The most
// important marker present wins and every marker is removed; the remaining
// words are joined with single spaces. Markers must stand alone as
// whitespace-separated words and match case-insensitively.
//
// Without a marker the trimmed text is returned unchanged with ok false.
func ExtractPriority(text string) (clean string, p Priority, ok bool) {
	words := strings.Fields(text)
	kept := words[:0:0]
	for _, w := range words {
		m, isMarker := markerPriority(w)
		if !isMarker {
			kept = append(kept, w)
			continue
		}
		if !ok || m.Rank() < p.Rank() {
			p = m
		}
		ok = true
	}
	if !ok {
		return strings.TrimSpace(text), "", false
	}
	return strings.Join(kept, " "), p, true
}

func markerPriority(word string) (Priority, bool) {
	for _, candidate := range ValidPriorities() {
		if strings.EqualFold(word, TokenPrefix+string(candidate)) {
			return candidate, true
		}
	}
	return "", false
}
