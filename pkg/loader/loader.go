// Package loader assembles the card list shown at startup: play records and
// favorites are read from the store concurrently and turned into card
// properties in a stable order.
package loader

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/moonview/internal/store"
	"github.com/vanderheijden86/moonview/pkg/card"
	"github.com/vanderheijden86/moonview/pkg/model"
)

// Snapshot is one consistent read of the store.
type Snapshot struct {
	Favorites   map[string]model.FavoriteRecord
	PlayRecords map[string]model.PlayRecord
}

// Load reads favorites and play records concurrently.
func Load(ctx context.Context, st *store.Store) (Snapshot, error) {
	var snap Snapshot
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		favs, err := st.Favorites(ctx)
		if err != nil {
			return fmt.Errorf("loading favorites: %w", err)
		}
		snap.Favorites = favs
		return nil
	})
	g.Go(func() error {
		recs, err := st.PlayRecords(ctx)
		if err != nil {
			return fmt.Errorf("loading play records: %w", err)
		}
		snap.PlayRecords = recs
		return nil
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Card pairs a card's identity and variant with its creation props.
type Card struct {
	Key     model.CardKey
	Variant card.Variant
	Props   card.Props
}

// Cards turns a snapshot into the startup card list: play records, then
// favorites not already covered by a play record, newest first.
func Cards(snap Snapshot) []Card {
	out := make([]Card, 0, len(snap.PlayRecords)+len(snap.Favorites))

	for keyStr, rec := range snap.PlayRecords {
		key, err := model.ParseCardKey(keyStr)
		if err != nil {
			continue
		}
		out = append(out, Card{
			Key:     key,
			Variant: card.VariantPlayRecord,
			Props: card.Props{
				Title:         rec.Title,
				Poster:        rec.Cover,
				Year:          rec.Year,
				SourceName:    rec.SourceName,
				SearchTitle:   rec.SearchTitle,
				EpisodeIndex:  rec.EpisodeIndex,
				TotalEpisodes: rec.TotalEpisodes,
				SourceNames:   rec.SourceNames,
			},
		})
	}

	for keyStr, rec := range snap.Favorites {
		if _, covered := snap.PlayRecords[keyStr]; covered {
			continue
		}
		key, err := model.ParseCardKey(keyStr)
		if err != nil {
			continue
		}
		out = append(out, Card{
			Key:     key,
			Variant: card.VariantFavorite,
			Props: card.Props{
				Title:         rec.Title,
				Poster:        rec.Cover,
				Year:          rec.Year,
				SourceName:    rec.SourceName,
				TotalEpisodes: rec.TotalEpisodes,
			},
		})
	}

	// Newest first; equal save times fall back to the key so the order does
	// not depend on map iteration.
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := saveTime(snap, out[i]), saveTime(snap, out[j])
		if ti != tj {
			return ti > tj
		}
		return out[i].Key.String() < out[j].Key.String()
	})
	return out
}

func saveTime(snap Snapshot, c Card) int64 {
	keyStr := c.Key.String()
	if rec, ok := snap.PlayRecords[keyStr]; ok {
		return rec.SaveTime
	}
	if rec, ok := snap.Favorites[keyStr]; ok {
		return rec.SaveTime
	}
	return 0
}
