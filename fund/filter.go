package fund

import (
	"sort"
	"strings"
)

// SortKey selects the listing order.
type SortKey string

const (
	SortNewest     SortKey = "newest"      // creation time descending
	SortTrending   SortKey = "trending"    // funding ratio descending
	SortEndingSoon SortKey = "ending-soon" // deadline ascending
	SortMostFunded SortKey = "most-funded" // raised amount descending
)

// Filter describes the in-memory listing query. Zero values and "all"
// mean no restriction.
type Filter struct {
	Search   string
	Category string
	Status   string
	Sort     SortKey
}

func fundingRatio(c Campaign) float64 {
	if c.TargetAmount == 0 {
		return 0
	}
	return c.CurrentAmount / c.TargetAmount
}

// Apply filters and sorts a campaign set without mutating the input.
// Search matches title and description case-insensitively; category and
// status are exact matches unless "all". Sorting is stable, so equal
// keys keep their input order.
func (f Filter) Apply(campaigns []Campaign) []Campaign {
	out := make([]Campaign, 0, len(campaigns))

	term := strings.ToLower(strings.TrimSpace(f.Search))
	for _, c := range campaigns {
		if term != "" &&
			!strings.Contains(strings.ToLower(c.Title), term) &&
			!strings.Contains(strings.ToLower(c.Description), term) {
			continue
		}
		if f.Category != "" && f.Category != "all" && c.Category != f.Category {
			continue
		}
		if f.Status != "" && f.Status != "all" && string(c.Status) != f.Status {
			continue
		}
		out = append(out, c)
	}

	switch f.Sort {
	case SortNewest:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	case SortEndingSoon:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Deadline.Before(out[j].Deadline)
		})
	case SortMostFunded:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CurrentAmount > out[j].CurrentAmount
		})
	case SortTrending:
		fallthrough
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return fundingRatio(out[i]) > fundingRatio(out[j])
		})
	}

	return out
}
