package version

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	vp, err := Parse("/projects/show/mdl_chair_v003_wip.ma")
	require.NoError(t, err)

	assert.Equal(t, "/projects/show/mdl_chair_v003_wip", vp.Stem)
	assert.Equal(t, ".ma", vp.Extension)
	assert.Equal(t, []string{"/projects/show/mdl", "chair", "v003", "wip"}, vp.Segments)
	assert.Equal(t, "v003", vp.Token)
	assert.Equal(t, 3, vp.Number)
}

func TestIncrementBoundaries(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "single digit carry", in: "/assets/asset_v009_final.ma", want: "/assets/asset_v010_final.ma"},
		{name: "double digit carry", in: "/assets/asset_v099_final.ma", want: "/assets/asset_v100_final.ma"},
		{name: "zero", in: "/assets/asset_v000.mb", want: "/assets/asset_v001.mb"},
		{name: "token at end of stem", in: "/assets/rig_hero_v041.mb", want: "/assets/rig_hero_v042.mb"},
		{name: "no extension", in: "/assets/ani_walk_v007", want: "/assets/ani_walk_v008"},
		{name: "first match wins", in: "/assets/mdl_v001_v005.ma", want: "/assets/mdl_v002_v005.ma"},
		{name: "trailing text kept", in: "/assets/mdl_v012b_x.ma", want: "/assets/mdl_v013b_x.ma"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Increment(tt.in, ScopeLiteral)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIncrementEveryNumberBelowCeiling(t *testing.T) {
	for n := 0; n < 999; n++ {
		in := fmt.Sprintf("/lib/prop_crate_v%03d_final.ma", n)
		want := fmt.Sprintf("/lib/prop_crate_v%03d_final.ma", n+1)

		got, err := Increment(in, ScopeLiteral)
		require.NoError(t, err)
		require.Equal(t, want, got)

		again, err := Parse(got)
		require.NoError(t, err)
		require.Equal(t, n+1, again.Number)
	}
}

func TestIncrementOverflowsFixedWidth(t *testing.T) {
	got, err := Increment("/lib/asset_v999_final.ma", ScopeLiteral)
	require.NoError(t, err)
	assert.Equal(t, "/lib/asset_v1000_final.ma", got)

	// A four digit segment still starts with v + three digits, so the next
	// increment reads "v100" and the trailing zero is carried along.
	next, err := Increment(got, ScopeLiteral)
	require.NoError(t, err)
	assert.Equal(t, "/lib/asset_v1010_final.ma", next)
}

func TestIncrementMissingToken(t *testing.T) {
	tests := []string{
		"/assets/asset_final.ma",
		"/assets/asset_v12_final.ma",
		"/assets/asset_V003_final.ma",
		"/assets/asset_vabc_final.ma",
		"",
	}
	for _, in := range tests {
		_, err := Increment(in, ScopeLiteral)
		require.Error(t, err, in)
		assert.True(t, IsNoVersionToken(err), in)
	}

	_, err := Increment("/assets/asset_final.ma", ScopeLiteral)
	assert.EqualError(t, err, "no version found vXXX: /assets/asset_final")
}

func TestLiteralScopeReplacesEarliestOccurrence(t *testing.T) {
	// The token is found in the file name but its first textual occurrence
	// is inside the directory, which is the one rewritten.
	in := "/shows/setv003/mdl_chair_v003.ma"

	got, err := Increment(in, ScopeLiteral)
	require.NoError(t, err)
	assert.Equal(t, "/shows/setv004/mdl_chair_v003.ma", got)
}

func TestFilenameScope(t *testing.T) {
	t.Run("directory occurrence untouched", func(t *testing.T) {
		got, err := Increment("/shows/setv003/mdl_chair_v003.ma", ScopeFilename)
		require.NoError(t, err)
		assert.Equal(t, "/shows/setv003/mdl_chair_v004.ma", got)
	})

	t.Run("directory token ignored", func(t *testing.T) {
		_, err := Increment("/shows/ep_v002/mdl_chair.ma", ScopeFilename)
		assert.True(t, IsNoVersionToken(err))

		got, err := Increment("/shows/ep_v002/mdl_chair.ma", ScopeLiteral)
		require.NoError(t, err)
		assert.Equal(t, "/shows/ep_v003/mdl_chair.ma", got)
	})

	t.Run("relative path", func(t *testing.T) {
		got, err := Increment("mdl_chair_v010.ma", ScopeFilename)
		require.NoError(t, err)
		assert.Equal(t, "mdl_chair_v011.ma", got)
	})
}

func TestParseScope(t *testing.T) {
	s, err := ParseScope("")
	require.NoError(t, err)
	assert.Equal(t, ScopeLiteral, s)

	s, err = ParseScope(" Filename ")
	require.NoError(t, err)
	assert.Equal(t, ScopeFilename, s)

	_, err = ParseScope("segment")
	assert.Error(t, err)
}

func TestSplitExt(t *testing.T) {
	tests := []struct {
		in, stem, ext string
	}{
		{"/a/b/scene_v001.ma", "/a/b/scene_v001", ".ma"},
		{"/a/b.dir/scene", "/a/b.dir/scene", ""},
		{"/a/.hidden", "/a/.hidden", ""},
		{"/a/.hidden.mb", "/a/.hidden", ".mb"},
		{"scene.tar.gz", "scene.tar", ".gz"},
		{"/a/b/", "/a/b/", ""},
	}
	for _, tt := range tests {
		stem, ext := SplitExt(tt.in)
		assert.Equal(t, tt.stem, stem, tt.in)
		assert.Equal(t, tt.ext, ext, tt.in)
	}
}

func TestFormatToken(t *testing.T) {
	assert.Equal(t, "v004", FormatToken(4))
	assert.Equal(t, "v100", FormatToken(100))
	assert.Equal(t, "v1000", FormatToken(1000))
}

func TestAssetOf(t *testing.T) {
	cases := []struct {
		path   string
		prefix string
		key    string
	}{
		{"/shows/v001/mdl_chair_v003_final.ma", "/shows/v001/mdl_chair_", "/shows/v001/mdl_chair__final"},
		{"/shows/mdl_av001_v001.ma", "/shows/mdl_av001_", "/shows/mdl_av001_"},
		{"/shows/v012b_chair.ma", "/shows/", "/shows/b_chair"},
		{"chair_v004.mb", "chair_", "chair_"},
	}
	for _, tc := range cases {
		asset, err := AssetOf(tc.path)
		require.NoError(t, err, tc.path)
		assert.Equal(t, tc.prefix, asset.Prefix, tc.path)
		assert.Equal(t, tc.key, asset.Key, tc.path)
	}

	a, err := AssetOf("/shows/chair_v004.ma")
	require.NoError(t, err)
	b, err := AssetOf("/shows/chair_broken_v009.ma")
	require.NoError(t, err)
	assert.NotEqual(t, a.Key, b.Key)

	_, err = AssetOf("/shows/chair_final.ma")
	assert.True(t, IsNoVersionToken(err))
}
