package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableSet(t *testing.T) {
	s := NewTableSet([]string{"users", "posts", "comments", "users"})
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"users", "posts", "comments"}, s.Remaining())

	assert.True(t, s.Remove("posts"))
	assert.False(t, s.Remove("posts"))
	assert.False(t, s.Contains("posts"))

	s.Rename("users", "members")
	assert.False(t, s.Contains("users"))
	assert.True(t, s.Contains("members"))
	assert.Equal(t, []string{"comments", "members"}, s.Remaining())

	s.Rename("missing", "other")
	assert.False(t, s.Contains("other"))
}

func TestTableSetRemainingIsACopy(t *testing.T) {
	s := NewTableSet([]string{"a", "b"})
	remaining := s.Remaining()
	remaining[0] = "z"
	assert.Equal(t, []string{"a", "b"}, s.Remaining())
}
