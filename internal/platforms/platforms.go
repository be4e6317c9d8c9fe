// Package platforms maps short platform codes to each source's vocabulary.
package platforms

import (
	"strings"

	"github.com/samber/lo"
)

type Generation string

const (
	GenCurrent  Generation = "current"
	GenPrevious Generation = "previous"
	GenRetro    Generation = "retro"
	GenHandheld Generation = "handheld"
	GenPC       Generation = "pc"
	GenOther    Generation = "other"
)

// Platform describes one code. CatalogSlug and MarketplaceName are empty for
// codes that only exist for display.
type Platform struct {
	Code            string     `json:"code"`
	Name            string     `json:"name"`
	Generation      Generation `json:"generation"`
	CatalogSlug     string     `json:"pricecharting,omitempty"`
	MarketplaceName string     `json:"ebay,omitempty"`
}

var table = map[string]Platform{
	"PS5":   {Code: "PS5", Name: "PlayStation 5", Generation: GenCurrent, CatalogSlug: "playstation-5", MarketplaceName: "PlayStation 5"},
	"PS4":   {Code: "PS4", Name: "PlayStation 4", Generation: GenCurrent, CatalogSlug: "playstation-4", MarketplaceName: "PlayStation 4"},
	"PS3":   {Code: "PS3", Name: "PlayStation 3", Generation: GenPrevious, CatalogSlug: "playstation-3", MarketplaceName: "PlayStation 3"},
	"PS2":   {Code: "PS2", Name: "PlayStation 2", Generation: GenRetro, CatalogSlug: "playstation-2", MarketplaceName: "PlayStation 2"},
	"PS1":   {Code: "PS1", Name: "PlayStation 1", Generation: GenRetro, CatalogSlug: "playstation", MarketplaceName: "PlayStation"},
	"PSP":   {Code: "PSP", Name: "PlayStation Portable", Generation: GenHandheld, CatalogSlug: "psp", MarketplaceName: "PSP"},
	"VITA":  {Code: "VITA", Name: "PlayStation Vita", Generation: GenHandheld, CatalogSlug: "playstation-vita", MarketplaceName: "PS Vita"},
	"XSX":   {Code: "XSX", Name: "Xbox Series X/S", Generation: GenCurrent, CatalogSlug: "xbox-series-x", MarketplaceName: "Xbox Series X"},
	"XB1":   {Code: "XB1", Name: "Xbox One", Generation: GenCurrent, CatalogSlug: "xbox-one", MarketplaceName: "Xbox One"},
	"X360":  {Code: "X360", Name: "Xbox 360", Generation: GenPrevious, CatalogSlug: "xbox-360", MarketplaceName: "Xbox 360"},
	"XBOX":  {Code: "XBOX", Name: "Original Xbox", Generation: GenRetro, CatalogSlug: "xbox", MarketplaceName: "Xbox"},
	"NSW":   {Code: "NSW", Name: "Nintendo Switch", Generation: GenCurrent, CatalogSlug: "nintendo-switch", MarketplaceName: "Nintendo Switch"},
	"WIIU":  {Code: "WIIU", Name: "Wii U", Generation: GenPrevious, CatalogSlug: "wii-u", MarketplaceName: "Wii U"},
	"WII":   {Code: "WII", Name: "Wii", Generation: GenPrevious, CatalogSlug: "wii", MarketplaceName: "Wii"},
	"GCN":   {Code: "GCN", Name: "GameCube", Generation: GenRetro, CatalogSlug: "gamecube", MarketplaceName: "GameCube"},
	"N64":   {Code: "N64", Name: "Nintendo 64", Generation: GenRetro, CatalogSlug: "nintendo-64", MarketplaceName: "Nintendo 64"},
	"SNES":  {Code: "SNES", Name: "Super Nintendo", Generation: GenRetro, CatalogSlug: "super-nintendo", MarketplaceName: "Super Nintendo"},
	"NES":   {Code: "NES", Name: "Nintendo Entertainment System", Generation: GenRetro, CatalogSlug: "nes", MarketplaceName: "NES"},
	"3DS":   {Code: "3DS", Name: "Nintendo 3DS", Generation: GenHandheld, CatalogSlug: "nintendo-3ds", MarketplaceName: "Nintendo 3DS"},
	"DS":    {Code: "DS", Name: "Nintendo DS", Generation: GenHandheld, CatalogSlug: "nintendo-ds", MarketplaceName: "Nintendo DS"},
	"GBA":   {Code: "GBA", Name: "Game Boy Advance", Generation: GenHandheld, CatalogSlug: "gameboy-advance", MarketplaceName: "Game Boy Advance"},
	"GBC":   {Code: "GBC", Name: "Game Boy Color", Generation: GenHandheld, CatalogSlug: "gameboy-color", MarketplaceName: "Game Boy Color"},
	"GB":    {Code: "GB", Name: "Game Boy", Generation: GenHandheld, CatalogSlug: "gameboy", MarketplaceName: "Game Boy"},
	"GEN":   {Code: "GEN", Name: "Sega Genesis", Generation: GenRetro, CatalogSlug: "sega-genesis", MarketplaceName: "Sega Genesis"},
	"DC":    {Code: "DC", Name: "Dreamcast", Generation: GenRetro, CatalogSlug: "sega-dreamcast", MarketplaceName: "Dreamcast"},
	"SAT":   {Code: "SAT", Name: "Saturn", Generation: GenRetro, CatalogSlug: "sega-saturn", MarketplaceName: "Sega Saturn"},
	"PC":    {Code: "PC", Name: "PC Games", Generation: GenPC},
	"ACC":   {Code: "ACC", Name: "Accessories", Generation: GenOther},
	"BOOK":  {Code: "BOOK", Name: "Books/Guides", Generation: GenOther},
	"MERCH": {Code: "MERCH", Name: "Merchandise", Generation: GenOther},
}

// order matches the dropdown order used by the web client.
var order = []string{
	"PS5", "PS4", "PS3", "PS2", "PS1", "PSP", "VITA",
	"XSX", "XB1", "X360", "XBOX",
	"NSW", "WIIU", "WII", "GCN", "N64", "SNES", "NES",
	"3DS", "DS", "GBA", "GBC", "GB",
	"PC", "GEN", "DC", "SAT",
	"ACC", "BOOK", "MERCH",
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Lookup returns the platform for code, case-insensitively.
func Lookup(code string) (Platform, bool) {
	p, ok := table[normalize(code)]
	return p, ok
}

// CatalogSlug returns the PriceCharting console slug, or "" for unknown codes.
func CatalogSlug(code string) string {
	p, _ := Lookup(code)
	return p.CatalogSlug
}

// MarketplaceName returns the eBay search name, or "" for unknown codes.
func MarketplaceName(code string) string {
	p, _ := Lookup(code)
	return p.MarketplaceName
}

// List returns every platform in display order.
func List() []Platform {
	out := make([]Platform, 0, len(order))
	for _, code := range order {
		out = append(out, table[code])
	}
	return out
}

// Searchable returns only the platforms both sources understand, in display order.
func Searchable() []Platform {
	return lo.Filter(List(), func(p Platform, _ int) bool {
		return p.CatalogSlug != "" && p.MarketplaceName != ""
	})
}
