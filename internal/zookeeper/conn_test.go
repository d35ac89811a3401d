package zookeeper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"goodskill", "activities", "1", "state"}, splitPath("/goodskill/activities/1/state"))
	assert.Equal(t, []string{"a"}, splitPath("/a"))
	assert.Equal(t, []string{"a", "b"}, splitPath("a/b/"))
	assert.Nil(t, splitPath("/"))
}
