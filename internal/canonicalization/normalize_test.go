package canonicalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSlug(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	cases := []struct {
		in, out string
	}{
		{"bois-2a", "bois-2a"},
		{"Bois 2A", "bois-2a"},
		{"  bois-2a  ", "bois-2a"},
		{"Bois   2A", "bois-2a"},
		{"TOUROS", "touros"},
		{"", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.out, NormalizeSlug(tc.in), "input %q", tc.in)
	}
}
