package relations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boothvault/asset-library/internal/domain"
)

func avatar(id, original, translated string, tags ...string) *domain.Item {
	return &domain.Item{ID: id, NameOriginal: original, NameTranslated: translated, Tags: tags, IsAvatar: true}
}

func asset(id, original, translated string, tags ...string) *domain.Item {
	return &domain.Item{ID: id, NameOriginal: original, NameTranslated: translated, Tags: tags}
}

func TestResolve_AvatarAndOutfit(t *testing.T) {
	items := []*domain.Item{
		avatar("10", "オリジナル3Dモデル「アリア」", `Original 3D model "Aria"`),
		asset("20", "ワンピース", "One piece dress", "aria outfit"),
	}

	rel := New(DefaultOptions()).Apply(items)

	assert.Equal(t, []string{"20"}, rel["10"])
	assert.Equal(t, []string{"10"}, rel["20"])
	assert.Equal(t, []string{"20"}, items[0].RelatedIDs)
	assert.Equal(t, []string{"10"}, items[1].RelatedIDs)
}

func TestProfile(t *testing.T) {
	r := New(DefaultOptions())

	tests := []struct {
		name      string
		item      *domain.Item
		fragments []string
		models    []string
	}{
		{
			name:      "bracketed translated name",
			item:      avatar("1", "オリジナル3Dモデル「アリア」", `Original 3D model "Aria"`),
			fragments: []string{"アリア", "aria"},
		},
		{
			name:      "latin tokens of original title minus stopwords",
			item:      avatar("2", "Lime VRChat avatar", ""),
			fragments: []string{"lime"},
		},
		{
			name:      "translated title without brackets",
			item:      avatar("3", "オリジナルアバター", "Original avatar Kuuko"),
			fragments: []string{"kuko"},
		},
		{
			name:      "short tokens dropped",
			item:      avatar("4", "Yu 3D", ""),
			fragments: nil,
		},
		{
			name:      "body model from tags",
			item:      avatar("5", "「ルーシュカ」", "Rushka", "Rusk素体", "rusk"),
			fragments: []string{"ルシュカ", "rushka"},
			models:    []string{"rusk"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := r.Profile(tt.item)
			assert.Equal(t, tt.fragments, p.Fragments)
			assert.Equal(t, tt.models, p.BodyModels)
		})
	}
}

func TestResolve_BodyModelSharedAcrossAvatars(t *testing.T) {
	items := []*domain.Item{
		avatar("1", "Chocolat", "", "rusk"),
		avatar("2", "Latte", "", "Rusk"),
		asset("3", "Sweater", "", "Rusk対応"),
		asset("4", "Sweater for Chocolat", ""),
		asset("5", "Unrelated hat", ""),
	}

	rel := New(DefaultOptions()).Resolve(items)

	assert.Equal(t, []string{"3", "4"}, rel["1"])
	assert.Equal(t, []string{"3"}, rel["2"])
	assert.Equal(t, []string{"1", "2"}, rel["3"])
	assert.Equal(t, []string{"1"}, rel["4"])
	assert.NotContains(t, rel, "5")
}

func TestResolve_WordBoundaries(t *testing.T) {
	items := []*domain.Item{
		avatar("1", "Sio", "", "sio"),
		asset("2", "Hoodie version 2", ""),
		asset("3", "Sio hoodie", ""),
	}

	rel := New(DefaultOptions()).Resolve(items)
	assert.Equal(t, []string{"3"}, rel["1"])
}

func TestResolve_Symmetric(t *testing.T) {
	items := []*domain.Item{
		avatar("1", "「Aria」", ""),
		avatar("2", "「Mira」", "", "manuka"),
		avatar("3", "Karin", "", "karin", "カリン"),
		asset("10", "Aria & Mira dress", ""),
		asset("11", "Manuka shoes", ""),
		asset("12", "カリン用 ヘア", ""),
		asset("13", "Plain skirt", ""),
	}

	rel := New(DefaultOptions()).Resolve(items)

	for a, related := range rel {
		for _, b := range related {
			assert.Contains(t, rel[b], a, "%s lists %s but not the reverse", a, b)
		}
	}
	assert.Equal(t, []string{"10", "11"}, rel["2"])
	assert.Equal(t, []string{"12"}, rel["3"])
}

func TestResolve_AvatarsNeverRelateToAvatars(t *testing.T) {
	items := []*domain.Item{
		avatar("1", "Aria", ""),
		avatar("2", "Aria Alter", ""),
	}
	rel := New(DefaultOptions()).Apply(items)
	assert.Empty(t, rel)
	assert.NotNil(t, items[0].RelatedIDs)
	assert.Empty(t, items[0].RelatedIDs)
}

func TestResolve_NumericIDOrder(t *testing.T) {
	items := []*domain.Item{
		avatar("1", "Aria", ""),
		asset("100", "Aria hat", ""),
		asset("9", "Aria shoes", ""),
		asset("20", "Aria gloves", ""),
	}
	rel := New(DefaultOptions()).Resolve(items)
	assert.Equal(t, []string{"9", "20", "100"}, rel["1"])
}

func TestOptions_Tunable(t *testing.T) {
	items := []*domain.Item{
		avatar("1", "Yu", ""),
		asset("2", "Yu dress", ""),
	}
	assert.Empty(t, New(DefaultOptions()).Resolve(items))

	opts := DefaultOptions()
	opts.MinFragmentLen = 2
	assert.Equal(t, []string{"2"}, New(opts).Resolve(items)["1"])
}

func TestLoadBodyModels(t *testing.T) {
	models, err := LoadBodyModels("")
	require.NoError(t, err)
	assert.Nil(t, models)

	path := filepath.Join(t.TempDir(), "bodies.json")
	require.NoError(t, os.WriteFile(path, []byte(`["Velle", "ヴェール"]`), 0o644))
	models, err = LoadBodyModels(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Velle", "ヴェール"}, models)

	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o644))
	_, err = LoadBodyModels(path)
	assert.Error(t, err)
}
