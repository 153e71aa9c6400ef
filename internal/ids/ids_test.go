package ids

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsSortable(t *testing.T) {
	generated := make([]string, 0, 500)
	for i := 0; i < 500; i++ {
		generated = append(generated, New())
	}

	assert.True(t, sort.StringsAreSorted(generated))
	for _, id := range generated {
		assert.Len(t, id, 26)
		assert.True(t, IsValid(id))
	}
}

func TestParseAcceptsLowerCase(t *testing.T) {
	id := New()

	parsed, err := Parse(strings.ToLower(id))
	require.NoError(t, err)
	assert.Equal(t, id, parsed.String())
	assert.False(t, IsValid("not-a-ulid"))
}
