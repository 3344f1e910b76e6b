// Package card implements the per-card interaction controller for the
// moonview catalog UI: variant capability resolution, the favorite status
// machine with optimistic toggles and broadcast convergence, tap/long-press
// gesture disambiguation, and contextual action menu construction.
package card

// Variant is the closed set of card origins. It is fixed for the lifetime
// of a card instance and determines which capabilities the card exposes.
type Variant int

const (
	// VariantPlayRecord is a card backed by the user's watch history.
	VariantPlayRecord Variant = iota
	// VariantFavorite is a card backed by the user's favorites.
	VariantFavorite
	// VariantSearchResult is a card produced by a catalog search.
	VariantSearchResult
	// VariantDoubanCatalog is a card sourced from the external Douban
	// catalog. Favoriting is disabled for it.
	VariantDoubanCatalog
)

// String returns the wire/display name of the variant.
func (v Variant) String() string {
	switch v {
	case VariantPlayRecord:
		return "playrecord"
	case VariantFavorite:
		return "favorite"
	case VariantSearchResult:
		return "search"
	case VariantDoubanCatalog:
		return "douban"
	default:
		return "unknown"
	}
}

// ParseVariant maps a tag from the system boundary to a Variant. Unknown
// tags map to VariantSearchResult, the documented boundary default.
func ParseVariant(tag string) Variant {
	switch tag {
	case "playrecord":
		return VariantPlayRecord
	case "favorite":
		return VariantFavorite
	case "search":
		return VariantSearchResult
	case "douban":
		return VariantDoubanCatalog
	default:
		return VariantSearchResult
	}
}

// DisplayConfig is the capability/display flag set derived from a variant.
type DisplayConfig struct {
	ShowSourceName bool
	ShowProgress   bool
	ShowPlayButton bool
	ShowHeart      bool
	ShowDelete     bool
	ShowDoubanLink bool
	ShowRating     bool
	ShowYear       bool
}

// ResolveDisplay maps a variant to its display configuration. Pure and
// total: unknown variant values resolve to the search-result configuration.
func ResolveDisplay(v Variant, hasRating bool) DisplayConfig {
	switch v {
	case VariantPlayRecord:
		return DisplayConfig{
			ShowSourceName: true,
			ShowProgress:   true,
			ShowPlayButton: true,
			ShowHeart:      true,
			ShowDelete:     true,
		}
	case VariantFavorite:
		return DisplayConfig{
			ShowSourceName: true,
			ShowPlayButton: true,
			ShowHeart:      true,
		}
	case VariantDoubanCatalog:
		return DisplayConfig{
			ShowPlayButton: true,
			ShowDoubanLink: true,
			ShowRating:     hasRating,
		}
	case VariantSearchResult:
		fallthrough
	default:
		return DisplayConfig{
			ShowSourceName: true,
			ShowPlayButton: true,
			ShowHeart:      true,
			ShowDoubanLink: true,
			ShowYear:       true,
		}
	}
}
