package students

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/abhisek/mentor/internal/store"
)

// Search returns students whose name fuzzily contains query, closest
// first. Ties keep id order.
func (s *Service) Search(ctx context.Context, query string) ([]*store.Student, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", store.ErrInvalid)
	}

	all, err := s.repos.Students().All(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(all))
	for i, st := range all {
		names[i] = st.Name
	}

	ranks := fuzzy.RankFindFold(query, names)
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})

	out := make([]*store.Student, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, all[r.OriginalIndex])
	}
	return out, nil
}
