package conanpath

import (
	"testing"

	"github.com/cs3conan/conan-server/pkg/errtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinate(t *testing.T) {
	scenarios := []struct {
		name string
		in   string
		want Coordinate
	}{
		{
			name: "two segments default user/channel",
			in:   "zlib/1.2.11",
			want: Coordinate{Name: "zlib", Version: "1.2.11", User: "_", Channel: "_"},
		},
		{
			name: "four segments explicit user/channel",
			in:   "zlib/1.2.11/_/_",
			want: Coordinate{Name: "zlib", Version: "1.2.11", User: "_", Channel: "_"},
		},
		{
			name: "four segments custom user/channel",
			in:   "zmqpp/4.2.0/acme/stable",
			want: Coordinate{Name: "zmqpp", Version: "4.2.0", User: "acme", Channel: "stable"},
		},
	}
	for _, s := range scenarios {
		t.Run(s.name, func(t *testing.T) {
			got, err := ParseCoordinate(s.in)
			require.NoError(t, err)
			assert.Equal(t, s.want, got)
		})
	}
}

func TestParseCoordinateRejectsBadSegments(t *testing.T) {
	for _, in := range []string{
		"zlib/../1.2.11",
		"zlib\\1.2.11",
		"zlib//1.2.11",
		"zlib/1.2.11/extra/segments/here",
		"onlyname",
	} {
		_, err := ParseCoordinate(in)
		require.Error(t, err)
		assert.True(t, errtypes.Is(err, errtypes.KindBadRequest))
	}
}

func TestParseHash(t *testing.T) {
	h, err := ParseHash("6af9cc7cb931c5ad942174fd7838eb655717c709")
	require.NoError(t, err)
	assert.Equal(t, "6af9cc7cb931c5ad942174fd7838eb655717c709", h)

	_, err = ParseHash("NOTAHASH")
	require.Error(t, err)

	_, err = ParseHash("")
	require.Error(t, err)
}

func TestRecipeAndBinaryKeys(t *testing.T) {
	c := Coordinate{Name: "zlib", Version: "1.2.11", User: "_", Channel: "_"}

	k, err := RecipeKey(c, 0, "conanfile.py")
	require.NoError(t, err)
	assert.Equal(t, "zlib/1.2.11/_/_/0/export/conanfile.py", k)

	bk, err := BinaryKey(c, 0, "6af9cc7cb931c5ad942174fd7838eb655717c709", 0, "conaninfo.txt")
	require.NoError(t, err)
	assert.Equal(t, "zlib/1.2.11/_/_/0/package/6af9cc7cb931c5ad942174fd7838eb655717c709/0/conaninfo.txt", bk)

	_, err = RecipeKey(c, 0, "../escape")
	require.Error(t, err)
}

func TestParseRevisionDirName(t *testing.T) {
	scenarios := []struct {
		in   string
		want int
		ok   bool
	}{
		{"0", 0, true},
		{"12", 12, true},
		{"export", 0, false},
		{"-1", 0, false},
		{"+1", 0, false},
		{"01", 0, false},
	}
	for _, s := range scenarios {
		got, ok := ParseRevisionDirName(s.in)
		assert.Equal(t, s.ok, ok, s.in)
		if ok {
			assert.Equal(t, s.want, got, s.in)
		}
	}
}
