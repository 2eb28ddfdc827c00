package commerce

import "strings"

const gidPrefix = "gid://shopify/"

// GlobalID coerces a raw identifier into the gid://shopify/{kind}/{id} form
// the storefront API expects. Identifiers already in global form pass through.
func GlobalID(kind, id string) string {
	id = strings.TrimSpace(id)
	if id == "" || strings.HasPrefix(id, "gid://") {
		return id
	}
	return gidPrefix + kind + "/" + id
}

// NumericID returns the trailing segment of a global id without its query,
// which is what a storefront page cart expects for variant ids.
func NumericID(id string) string {
	id = strings.TrimSpace(id)
	if !strings.HasPrefix(id, "gid://") {
		return id
	}
	if i := strings.IndexByte(id, '?'); i >= 0 {
		id = id[:i]
	}
	if i := strings.LastIndexByte(id, '/'); i >= 0 {
		return id[i+1:]
	}
	return id
}

func globalIDs(kind string, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if g := GlobalID(kind, id); g != "" {
			out = append(out, g)
		}
	}
	return out
}
