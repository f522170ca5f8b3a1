// Package checksum derives content digests and HTTP entity tags for export
// payloads.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag returns the strong entity tag for data.
func ETag(data []byte) string {
	return `"` + Sum(data) + `"`
}

// MatchesNoneMatch reports whether an If-None-Match header value matches
// etag. The header may list several tags, use the weak prefix, or be "*".
func MatchesNoneMatch(header, etag string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}
	want := strings.TrimPrefix(etag, "W/")
	for tag := range strings.SplitSeq(header, ",") {
		if strings.TrimPrefix(strings.TrimSpace(tag), "W/") == want {
			return true
		}
	}
	return false
}
