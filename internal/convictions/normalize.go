package convictions

import "strings"

// stopWords are legal-entity suffixes and jurisdiction words stripped from
// company names before matching. All lower case; the normalizer lower-cases
// input before the lookup.
var stopWords = map[string]struct{}{
	// legal-entity suffixes
	"limited": {}, "ltd": {}, "plc": {}, "inc": {}, "incorporated": {},
	"llp": {}, "lp": {}, "company": {}, "co": {}, "holdings": {},
	"investments": {}, "services": {}, "technologies": {}, "solutions": {},
	"group": {}, "cyf": {}, "cyfyngedig": {}, "ccc": {}, "cic": {},
	"cio": {}, "ag": {}, "corp": {}, "eurl": {}, "gmbh": {}, "sa": {},
	"sarl": {}, "sp": {}, "prc": {}, "partners": {}, "lc": {},
	// jurisdiction and location words
	"uk": {}, "gb": {}, "europe": {}, "intl": {}, "international": {},
	"england": {}, "wales": {}, "scotland": {}, "cymru": {},
}

// NormalizeCompanyName lower-cases a company name and drops stop-word
// tokens so "ACME Holdings Limited" and "acme" compare equal. The function
// is idempotent: normalizing an already-normalized name is a no-op.
//
// Person names are never stop-word filtered; they only get TrimSpace at the
// matcher boundary.
func NormalizeCompanyName(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	var kept []string
	for _, token := range strings.Split(strings.ToLower(raw), " ") {
		if token == "" {
			continue
		}
		if _, drop := stopWords[token]; drop {
			continue
		}
		kept = append(kept, token)
	}
	return strings.Join(kept, " ")
}
