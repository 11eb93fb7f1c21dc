// Package treepath implements the materialized-path codec used by the block
// tree. A path is a slash-delimited sequence of ancestor internal ids that
// always begins and ends with "/". A block's own id is never part of its own
// path; it becomes part of its children's paths. Root blocks have path "/".
package treepath

import (
	"strconv"
	"strings"
)

// Root is the path of every top-level block.
const Root = "/"

// Separator delimits id segments inside a path.
const Separator = "/"

// ChildPath returns the path of a child created under a parent with the
// given path and internal id.
func ChildPath(parentPath string, parentID int64) string {
	return parentPath + strconv.FormatInt(parentID, 10) + Separator
}

// SubtreePrefix returns the path prefix shared by every descendant of the
// block with the given path and id. Subtree membership is exactly "path
// starts with SubtreePrefix(block)".
func SubtreePrefix(path string, id int64) string {
	return ChildPath(path, id)
}

// IsDescendantPath reports whether candidate lies inside the subtree rooted
// at a block whose descendant prefix is ancestorPrefix (see SubtreePrefix).
// Used to reject moves that would make a block its own descendant.
func IsDescendantPath(candidate, ancestorPrefix string) bool {
	return strings.HasPrefix(candidate, ancestorPrefix)
}

// RewritePrefix replaces oldPrefix at the start of path with newPrefix,
// preserving the remainder. The caller guarantees path starts with
// oldPrefix; if it does not, path is returned unchanged.
func RewritePrefix(path, oldPrefix, newPrefix string) string {
	if !strings.HasPrefix(path, oldPrefix) {
		return path
	}
	return newPrefix + path[len(oldPrefix):]
}

// AncestorIDs parses a path into the ordered list of ancestor internal ids,
// root first. Malformed segments are skipped rather than fatal. A root
// block's path yields an empty list.
func AncestorIDs(path string) []int64 {
	segments := strings.Split(path, Separator)
	ids := make([]int64, 0, len(segments))
	for _, s := range segments {
		if s == "" {
			continue
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Depth returns the number of ancestors encoded in the path. Root blocks
// have depth 0.
func Depth(path string) int {
	return len(AncestorIDs(path))
}
