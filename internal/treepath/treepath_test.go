package treepath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChildPath(t *testing.T) {
	tests := []struct {
		name       string
		parentPath string
		parentID   int64
		want       string
	}{
		{"child of root", Root, 1, "/1/"},
		{"grandchild", "/1/", 7, "/1/7/"},
		{"deep", "/1/7/42/", 100, "/1/7/42/100/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChildPath(tt.parentPath, tt.parentID))
		})
	}
}

func TestIsDescendantPath(t *testing.T) {
	// Subtree of block id=7 at path "/1/": prefix "/1/7/".
	prefix := SubtreePrefix("/1/", 7)
	assert.Equal(t, "/1/7/", prefix)

	assert.True(t, IsDescendantPath("/1/7/", prefix), "direct child path")
	assert.True(t, IsDescendantPath("/1/7/42/", prefix), "grandchild path")
	assert.False(t, IsDescendantPath("/1/", prefix), "parent is not a descendant")
	assert.False(t, IsDescendantPath("/1/70/", prefix), "sibling with shared digit prefix")
	assert.False(t, IsDescendantPath("/2/7/", prefix), "same id under other root")
}

func TestRewritePrefix(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		oldPrefix string
		newPrefix string
		want      string
	}{
		{"move deeper", "/1/7/42/", "/1/7/", "/9/3/7/", "/9/3/7/42/"},
		{"move to root", "/1/7/42/", "/1/7/", "/7/", "/7/42/"},
		{"exact prefix", "/1/7/", "/1/7/", "/7/", "/7/"},
		{"no match untouched", "/2/5/", "/1/7/", "/9/", "/2/5/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RewritePrefix(tt.path, tt.oldPrefix, tt.newPrefix))
		})
	}
}

func TestAncestorIDs(t *testing.T) {
	tests := []struct {
		name string
		path string
		want []int64
	}{
		{"root", "/", []int64{}},
		{"depth one", "/5/", []int64{5}},
		{"depth three ordered", "/1/7/42/", []int64{1, 7, 42}},
		{"malformed segment skipped", "/1/x/42/", []int64{1, 42}},
		{"empty segments skipped", "//3//", []int64{3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AncestorIDs(tt.path))
		})
	}
}

func TestDepth(t *testing.T) {
	assert.Equal(t, 0, Depth(Root))
	assert.Equal(t, 1, Depth("/1/"))
	assert.Equal(t, 3, Depth("/1/7/42/"))
}
