// Package htmlx extracts metadata out of raw HTML fetched from social
// platforms: Open Graph meta tags and string values buried in embedded JSON
// blobs. It works on the raw markup on purpose: the pages involved are
// rarely well-formed enough for a DOM parser to be worth the trouble.
package htmlx

import (
	"encoding/json"
	"html"
	"regexp"
	"strings"
	"sync"
)

var (
	metaCacheMu sync.Mutex
	metaCache   = map[string][2]*regexp.Regexp{}
)

// metaPatterns returns compiled patterns matching a <meta> tag carrying the
// given property in either attribute order (property-first or content-first).
func metaPatterns(property string) [2]*regexp.Regexp {
	metaCacheMu.Lock()
	defer metaCacheMu.Unlock()

	if ps, ok := metaCache[property]; ok {
		return ps
	}
	p := regexp.QuoteMeta(property)
	ps := [2]*regexp.Regexp{
		regexp.MustCompile(`(?is)<meta[^>]*(?:property|name)\s*=\s*["']` + p + `["'][^>]*content\s*=\s*["']([^"']*)["']`),
		regexp.MustCompile(`(?is)<meta[^>]*content\s*=\s*["']([^"']*)["'][^>]*(?:property|name)\s*=\s*["']` + p + `["']`),
	}
	metaCache[property] = ps
	return ps
}

// MetaContent returns the content attribute of the first <meta> tag whose
// property (or name) attribute equals property. HTML entities in the value
// are unescaped.
func MetaContent(page, property string) (string, bool) {
	for _, re := range metaPatterns(property) {
		if m := re.FindStringSubmatch(page); m != nil {
			v := strings.TrimSpace(html.UnescapeString(m[1]))
			if v != "" {
				return v, true
			}
		}
	}
	return "", false
}

var jsonKeyCache = map[string]*regexp.Regexp{}

// JSONStringValue scans page for the first `"key":"value"` occurrence among
// the given keys, in order, and returns the decoded value. The raw match is
// run through the JSON decoder so escapes like \/ and & come back as
// literal characters.
func JSONStringValue(page string, keys ...string) (string, bool) {
	for _, key := range keys {
		metaCacheMu.Lock()
		re, ok := jsonKeyCache[key]
		if !ok {
			re = regexp.MustCompile(`"` + regexp.QuoteMeta(key) + `"\s*:\s*"((?:[^"\\]|\\.)*)"`)
			jsonKeyCache[key] = re
		}
		metaCacheMu.Unlock()

		m := re.FindStringSubmatch(page)
		if m == nil {
			continue
		}
		var decoded string
		if err := json.Unmarshal([]byte(`"`+m[1]+`"`), &decoded); err != nil {
			continue
		}
		decoded = strings.TrimSpace(decoded)
		if decoded != "" {
			return decoded, true
		}
	}
	return "", false
}

// UnescapeURL converts a URL lifted out of HTML or an embedded JSON blob back
// to its literal form (backslash and unicode slash escapes, ampersand
// entities) and coerces protocol-relative URLs to https.
func UnescapeURL(s string) string {
	s = strings.ReplaceAll(s, `\/`, "/")
	s = strings.ReplaceAll(s, `\u002F`, "/")
	s = strings.ReplaceAll(s, `\u002f`, "/")
	s = strings.ReplaceAll(s, `\u0026`, "&")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = html.UnescapeString(s)
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "//") {
		s = "https:" + s
	}
	return s
}
