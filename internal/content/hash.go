package content

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// SetHash computes a deterministic hash for a content set.
//
// The hash covers slugs, relative paths and per-file content hashes, so it
// changes when any page is added, removed, renamed or edited. It is used for
// change detection and as the livereload broadcast token.
func SetHash(set *Set) string {
	if set == nil || (len(set.Pages) == 0 && len(set.Assets) == 0) {
		h := sha256.Sum256([]byte("empty-content-set"))
		return hex.EncodeToString(h[:])
	}

	type entry struct{ key, hash string }
	entries := make([]entry, 0, len(set.Pages)+len(set.Assets))
	for _, p := range set.Pages {
		entries = append(entries, entry{key: p.Slug + "|" + p.RelativePath, hash: p.ContentHash})
	}
	for _, a := range set.Assets {
		entries = append(entries, entry{key: "asset|" + a.RelativePath})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	h := sha256.New()
	for _, e := range entries {
		fmt.Fprintf(h, "%s|%s\n", e.key, e.hash)
	}
	return hex.EncodeToString(h.Sum(nil))
}
