package service

import "strings"

// Make-to-order orders carry no SKU worth matching on; they reconcile against
// projections by production collection name instead. The name is pulled out
// of the free-text program description in two stages: an exact dictionary
// match against the known collection list, then a bounded token scan after
// the "mto" marker. The stop-token list below bounds the scan; anything
// fancier than this is deliberately avoided so the policy stays enumerable.

const mtoToken = "mto"

// monthTokens stop the fallback scan: collection names run up to the first
// month or four-digit year in the description.
var monthTokens = map[string]bool{
	"jan": true, "january": true,
	"feb": true, "february": true,
	"mar": true, "march": true,
	"apr": true, "april": true,
	"may": true,
	"jun": true, "june": true,
	"jul": true, "july": true,
	"aug": true, "august": true,
	"sep": true, "sept": true, "september": true,
	"oct": true, "october": true,
	"nov": true, "november": true,
	"dec": true, "december": true,
}

// IsMTOProgram reports whether the program description marks a make-to-order
// program: it must contain "mto" as a standalone token.
func IsMTOProgram(description string) bool {
	for _, token := range tokenize(description) {
		if token == mtoToken {
			return true
		}
	}
	return false
}

// ExtractCollection pulls the collection name out of an MTO program
// description. Known collections take priority over the fallback token
// extraction; an empty result means the order cannot be MTO-matched.
func ExtractCollection(description string, knownCollections []string) string {
	lower := strings.ToLower(description)

	for _, known := range knownCollections {
		if known != "" && strings.Contains(lower, known) {
			return known
		}
	}

	return extractAfterToken(lower)
}

// extractAfterToken collects the tokens immediately following "mto",
// truncated at the first month name or four-digit year.
func extractAfterToken(lower string) string {
	tokens := tokenize(lower)

	start := -1
	for i, token := range tokens {
		if token == mtoToken {
			start = i + 1
			break
		}
	}
	if start < 0 || start >= len(tokens) {
		return ""
	}

	var parts []string
	for _, token := range tokens[start:] {
		if isStopToken(token) {
			break
		}
		parts = append(parts, token)
	}
	return strings.Join(parts, " ")
}

func isStopToken(token string) bool {
	if monthTokens[token] {
		return true
	}
	return isFourDigitYear(token)
}

func isFourDigitYear(token string) bool {
	if len(token) != 4 {
		return false
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// tokenize lower-cases, splits on whitespace and strips leading/trailing
// punctuation from each token.
func tokenize(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:()[]-_/\"'")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
