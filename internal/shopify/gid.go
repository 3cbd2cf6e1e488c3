package shopify

import (
	"fmt"
	"strings"
)

// gidPrefix is the scheme every platform global ID starts with.
const gidPrefix = "gid://shopify/"

// OrderGID returns the global ID for an order. A value that is already a
// global ID passes through unchanged, so handlers can accept either form.
func OrderGID(id string) string {
	if strings.HasPrefix(id, gidPrefix) {
		return id
	}
	return fmt.Sprintf("gid://shopify/Order/%s", id)
}

// LegacyID extracts the trailing numeric ID from a global ID
// (gid://shopify/Order/123 -> "123"). Returns the input unchanged when it is
// not a global ID.
func LegacyID(gid string) string {
	if !strings.HasPrefix(gid, gidPrefix) {
		return gid
	}
	if i := strings.LastIndex(gid, "/"); i >= 0 {
		return gid[i+1:]
	}
	return gid
}

// IsGID reports whether the value is a platform global ID.
func IsGID(id string) bool {
	return strings.HasPrefix(id, gidPrefix)
}
