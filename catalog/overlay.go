package catalog

import "github.com/unrealsaint/lucera2missionparser/reward"

// OverlayResult lists which fragment ids were applied and which were
// discarded because the catalog did not already hold them.
type OverlayResult struct {
	Applied []int `json:"applied"`
	Skipped []int `json:"skipped"`
}

// ApplyFlatOverlay updates existing rewards from flat-text fragments.
// Flat text never creates entries: fragments with unknown ids are skipped.
// For known ids only name, description and category are copied; every
// other field keeps its markup-derived value.
func (c *Catalog) ApplyFlatOverlay(fragments []*reward.Reward) OverlayResult {
	var res OverlayResult
	for _, frag := range fragments {
		rw, ok := c.rewards[frag.ID]
		if !ok {
			res.Skipped = append(res.Skipped, frag.ID)
			continue
		}
		rw.Name = frag.Name
		rw.Description = frag.Description
		rw.Category = frag.Category
		res.Applied = append(res.Applied, frag.ID)
	}
	return res
}
