package classifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAdult(t *testing.T) {
	c := New()

	tests := []struct {
		name  string
		title string
		tags  []string
		desc  string
		want  bool
	}{
		{name: "keyword in title", title: "Swimsuit NSFW ver.", want: true},
		{name: "case insensitive", title: "Outfit [r18]", want: true},
		{name: "hyphenated", title: "R-18 texture set", want: true},
		{name: "fullwidth latin", title: "衣装 Ｒ１８", want: true},
		{name: "cjk substring", title: "成人向けテクスチャ", want: true},
		{name: "tag only", title: "Dress", tags: []string{"アダルト"}, want: true},
		{name: "description only", title: "Dress", desc: "Includes a nude body texture.", want: true},
		{name: "word boundary", title: "Nudelman hat", want: false},
		{name: "r18 inside a word", title: "Maker18 pack", want: false},
		{name: "yellow is not adult", title: "イエローワンピース", want: false},
		{name: "clean item", title: "Casual hoodie", tags: []string{"VRChat", "衣装"}, desc: "For Aria.", want: false},
		{name: "keyword split across fields", title: "ad", tags: []string{"ult only"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsAdult(tt.title, tt.tags, tt.desc))
		})
	}
}

func TestIsAdult_TitleKeywordWinsRegardlessOfOtherFields(t *testing.T) {
	c := New()
	for _, desc := range []string{"", "Completely safe description", "健全"} {
		assert.True(t, c.IsAdult("Lewd pose pack", []string{"pose"}, desc))
	}
}

func TestIsAdult_Deterministic(t *testing.T) {
	c := New("custom-word")
	first := c.IsAdult("A custom-word item", nil, "")
	for range 50 {
		assert.Equal(t, first, c.IsAdult("A custom-word item", nil, ""))
	}
	assert.True(t, first)
}

func TestNew_ExtraKeywords(t *testing.T) {
	c := New("Spicy", "過激", "  ", "spicy")

	assert.True(t, c.IsAdult("SPICY edition", nil, ""))
	assert.True(t, c.IsAdult("過激な衣装", nil, ""))
	assert.False(t, New().IsAdult("SPICY edition", nil, ""))

	kws := c.Keywords()
	assert.Contains(t, kws, "spicy")
	assert.Contains(t, kws, "過激")
	assert.Equal(t, len(DefaultKeywords)+2, len(kws))
}

func TestLoadKeywords(t *testing.T) {
	kws, err := LoadKeywords("")
	require.NoError(t, err)
	assert.Nil(t, kws)

	path := filepath.Join(t.TempDir(), "keywords.json")
	require.NoError(t, os.WriteFile(path, []byte(`["spicy", "過激"]`), 0o644))

	kws, err = LoadKeywords(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"spicy", "過激"}, kws)

	require.NoError(t, os.WriteFile(path, []byte(`{"not": "a list"}`), 0o644))
	_, err = LoadKeywords(path)
	assert.Error(t, err)
}
