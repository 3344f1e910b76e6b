package card

// The field bridge is the one externally-triggerable mutation path for a
// card's mutable fields. A parent aggregating data across sources (episode
// counts trickling in, new sources discovered) pushes updates here instead
// of re-rendering the card from scratch. Values set through the bridge
// persist until the card remounts or the next bridge call overwrites them.

// SetEpisodes overwrites the card's total episode count.
func (c *Controller) SetEpisodes(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 0 || n == c.episodes {
		return
	}
	c.episodes = n
	c.notifyLocked()
}

// SetSourceNames overwrites the aggregated source list. Order is preserved,
// duplicates are dropped.
func (c *Controller) SetSourceNames(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sourceNames = dedupeNames(names)
	c.notifyLocked()
}

// SetDoubanID overwrites the external catalog id. Zero means absent.
func (c *Controller) SetDoubanID(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id < 0 || id == c.doubanID {
		return
	}
	c.doubanID = id
	c.notifyLocked()
}

func dedupeNames(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
