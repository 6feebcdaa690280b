package mediacache

import (
	"errors"
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
)

// ErrBadLocator is returned when neither a usable url nor a name parameter was
// supplied.
var ErrBadLocator = errors.New("missing url or name parameter")

// ContentID is the canonical cache/dedup key derived from a locator. Direct
// links and IDs canonicalize to the embedded 11-character video id; search
// locators hash into a search_ bucket that is never cached.
type ContentID string

// UnknownContentID is the fallback bucket for locators that look like URLs
// but match no known shape. Never cached.
const UnknownContentID ContentID = "unknown"

const searchPrefix = "ytsearch:"

// The same URL shapes the upstream platform serves: watch?v=ID, any trailing
// /ID path segment, /embed/ID and youtu.be/ID short links. Tried in order;
// first match wins.
var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})(?:[^0-9A-Za-z_-]|$)`),
	regexp.MustCompile(`(?:embed/)([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`(?:youtu\.be/)([0-9A-Za-z_-]{11})`),
}

var videoIDRe = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)

// ResolveLocator converts the url= / name= request parameters into a single
// locator: a full watch URL for links and bare IDs, or a "ytsearch:" locator
// for free-text names.
func ResolveLocator(urlParam, nameParam string) (string, error) {
	urlParam = strings.TrimSpace(urlParam)
	nameParam = strings.TrimSpace(nameParam)

	if urlParam != "" {
		if strings.Contains(urlParam, "youtube.com") || strings.Contains(urlParam, "youtu.be") {
			return urlParam, nil
		}
		if videoIDRe.MatchString(urlParam) {
			return "https://youtube.com/watch?v=" + urlParam, nil
		}
		return "", ErrBadLocator
	}
	if nameParam != "" {
		return searchPrefix + nameParam, nil
	}
	return "", ErrBadLocator
}

// Canonicalize derives the content identity from a locator. Keying by the
// parsed platform id collapses every URL shape referring to the same content
// into one cache line.
func Canonicalize(locator string) ContentID {
	if strings.HasPrefix(locator, searchPrefix) {
		h := fnv.New64a()
		h.Write([]byte(locator))
		return ContentID(fmt.Sprintf("search_%x", h.Sum64()))
	}
	for _, re := range idPatterns {
		if m := re.FindStringSubmatch(locator); m != nil {
			return ContentID(m[1])
		}
	}
	return UnknownContentID
}

// Cacheable reports whether responses for this identity may be stored and
// served from cache. Search results and unparseable locators are excluded.
func (c ContentID) Cacheable() bool {
	return c != UnknownContentID && !strings.HasPrefix(string(c), "search_")
}

// IsSearch reports whether a locator is a free-text search.
func IsSearch(locator string) bool {
	return strings.HasPrefix(locator, searchPrefix)
}
