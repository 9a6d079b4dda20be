package listing

import (
	"encoding/json"
	"strings"
)

// PartialItem is the normalized view of any metadata shape. It holds only what
// the metadata file says; local files, derived flags and enrichment are added later.
type PartialItem struct {
	Name         string   `json:"name"`
	Author       string   `json:"author,omitempty"`
	AuthorURL    string   `json:"authorUrl,omitempty"`
	URL          string   `json:"url,omitempty"`
	Description  string   `json:"description,omitempty"`
	Category     string   `json:"category,omitempty"`
	CategoryID   int      `json:"categoryId,omitempty"`
	Price        string   `json:"price,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Variations   []string `json:"variations,omitempty"`
	ImageURLs    []string `json:"images,omitempty"`
	IsAdult      bool     `json:"isAdult,omitempty"`
	IsAvatarHint bool     `json:"isAvatar,omitempty"`
}

// avatarCategoryID is the marketplace category for full 3D characters.
const avatarCategoryID = 208

// IsAvatar reports whether the category marks a full avatar base.
func (p *PartialItem) IsAvatar() bool {
	if p.IsAvatarHint || p.CategoryID == avatarCategoryID {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(p.Category)) {
	case "3dキャラクター", "3dアバター", "3d characters", "3d character", "3d avatar", "3d avatars":
		return true
	}
	return false
}

func parseManual(data []byte) (*PartialItem, error) {
	var p PartialItem
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	p.Name = strings.TrimSpace(p.Name)
	return &p, nil
}
