package card_test

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/moonview/pkg/card"
)

func TestResolveDisplay_Table(t *testing.T) {
	tests := []struct {
		name      string
		variant   card.Variant
		hasRating bool
		want      card.DisplayConfig
	}{
		{
			name:    "play record",
			variant: card.VariantPlayRecord,
			want: card.DisplayConfig{
				ShowSourceName: true,
				ShowProgress:   true,
				ShowPlayButton: true,
				ShowHeart:      true,
				ShowDelete:     true,
			},
		},
		{
			name:    "favorite",
			variant: card.VariantFavorite,
			want: card.DisplayConfig{
				ShowSourceName: true,
				ShowPlayButton: true,
				ShowHeart:      true,
			},
		},
		{
			name:    "search result",
			variant: card.VariantSearchResult,
			want: card.DisplayConfig{
				ShowSourceName: true,
				ShowPlayButton: true,
				ShowHeart:      true,
				ShowDoubanLink: true,
				ShowYear:       true,
			},
		},
		{
			name:      "douban with rating",
			variant:   card.VariantDoubanCatalog,
			hasRating: true,
			want: card.DisplayConfig{
				ShowPlayButton: true,
				ShowDoubanLink: true,
				ShowRating:     true,
			},
		},
		{
			name:    "douban without rating",
			variant: card.VariantDoubanCatalog,
			want: card.DisplayConfig{
				ShowPlayButton: true,
				ShowDoubanLink: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := card.ResolveDisplay(tt.variant, tt.hasRating)
			if got != tt.want {
				t.Errorf("ResolveDisplay(%v, %v) = %+v, want %+v",
					tt.variant, tt.hasRating, got, tt.want)
			}
		})
	}
}

func TestResolveDisplay_UnknownFallsBackToSearch(t *testing.T) {
	want := card.ResolveDisplay(card.VariantSearchResult, false)
	for _, v := range []card.Variant{card.Variant(-1), card.Variant(42)} {
		if got := card.ResolveDisplay(v, false); got != want {
			t.Errorf("ResolveDisplay(%v) = %+v, want search-result config %+v", v, got, want)
		}
	}
}

func TestResolveDisplay_Properties(t *testing.T) {
	known := map[card.Variant]bool{
		card.VariantPlayRecord:    true,
		card.VariantFavorite:      true,
		card.VariantSearchResult:  true,
		card.VariantDoubanCatalog: true,
	}
	search := card.ResolveDisplay(card.VariantSearchResult, false)

	rapid.Check(t, func(t *rapid.T) {
		v := card.Variant(rapid.IntRange(-5, 10).Draw(t, "variant"))
		hasRating := rapid.Bool().Draw(t, "hasRating")

		got := card.ResolveDisplay(v, hasRating)

		// Total: unknown tags always yield the search-result row.
		if !known[v] && got != search {
			t.Fatalf("unknown variant %v resolved to %+v, want %+v", v, got, search)
		}
		// A Douban card never shows a heart; every other variant does.
		if v == card.VariantDoubanCatalog && got.ShowHeart {
			t.Fatalf("douban variant must not show heart: %+v", got)
		}
		// Rating only ever shows when the input says one exists.
		if got.ShowRating && !hasRating {
			t.Fatalf("rating shown without hasRating: %+v", got)
		}
		// Pure: same inputs, same output.
		if again := card.ResolveDisplay(v, hasRating); again != got {
			t.Fatalf("resolver not deterministic for %v/%v", v, hasRating)
		}
	})
}

func TestParseVariant_RoundTripAndDefault(t *testing.T) {
	for _, v := range []card.Variant{
		card.VariantPlayRecord, card.VariantFavorite,
		card.VariantSearchResult, card.VariantDoubanCatalog,
	} {
		if got := card.ParseVariant(v.String()); got != v {
			t.Errorf("ParseVariant(%q) = %v, want %v", v.String(), got, v)
		}
	}
	if got := card.ParseVariant("banana"); got != card.VariantSearchResult {
		t.Errorf("unknown tag parsed to %v, want search result", got)
	}
}
