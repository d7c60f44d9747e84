package vector

import "context"

// Nop is an Index that stores nothing. It is used when no vector backend
// is configured.
type Nop struct{}

func (Nop) Upsert(context.Context, string, []Document) error { return nil }

func (Nop) Query(context.Context, string, string, int, Filter) ([]Match, error) {
	return nil, nil
}

func (Nop) DeleteByFilter(context.Context, string, Filter) error { return nil }

func (Nop) Enabled() bool { return false }
