package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		canonical string
		segments  int
		wantErr   bool
	}{
		{"simple", "Name", "Name", 1, false},
		{"nested", "Address.Line1", "Address.Line1", 2, false},
		{"slice", "Items[]", "Items[i]", 1, false},
		{"indexed", "Items[i]", "Items[i]", 1, false},
		{"slice member", "Items[].ProductID", "Items[i].ProductID", 2, false},
		{"empty", "", "", 0, true},
		{"empty segment", "A..B", "", 0, true},
		{"bare element", "[]", "", 0, true},
		{"bad ident", "1abc", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePath(tt.path)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidPath)
				return
			}

			require.NoError(t, err)
			assert.Len(t, p.Segments, tt.segments)
			assert.Equal(t, tt.canonical, p.String())
		})
	}
}

func TestIsBelow(t *testing.T) {
	assert.True(t, IsBelow("Address.Line1", "Address"))
	assert.True(t, IsBelow("Items[i].Name", "Items"))
	assert.True(t, IsBelow("Name", ""))
	assert.False(t, IsBelow("Address", "Address"))
	assert.False(t, IsBelow("AddressLine", "Address"))
}
