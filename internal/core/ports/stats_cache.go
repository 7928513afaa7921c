package ports

import "context"

// StatsCache caches dashboard counters. A miss is (nil, nil); cache errors
// are reported so the service can log them, but counts are always
// recomputable from the store.
type StatsCache interface {
	GetRoleCounts(ctx context.Context) (*RoleCounts, error)
	SetRoleCounts(ctx context.Context, counts *RoleCounts) error
	GetPartnerCounts(ctx context.Context) (*PartnerCounts, error)
	SetPartnerCounts(ctx context.Context, counts *PartnerCounts) error
}
