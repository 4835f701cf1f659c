package search

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"

	"github.com/jonwraymond/supportbot/knowledge"
)

// computeFingerprint generates a stable hash of the entry slice.
// The fingerprint changes when any indexed content changes, so two
// searchers built from the same document report the same value.
func computeFingerprint(entries []knowledge.Entry) string {
	h := sha256.New()

	for _, e := range entries {
		h.Write([]byte(e.ID))
		h.Write([]byte{0}) // separator
		h.Write([]byte(e.Title))
		h.Write([]byte{0})
		h.Write([]byte(e.Body))
		h.Write([]byte{0})
		h.Write([]byte(e.Category))
		h.Write([]byte{0})

		// Tags sorted for order-independence
		sortedTags := slices.Clone(e.Tags)
		slices.Sort(sortedTags)
		h.Write([]byte(strings.Join(sortedTags, "\x01")))
		h.Write([]byte{0})
	}

	return hex.EncodeToString(h.Sum(nil))
}
