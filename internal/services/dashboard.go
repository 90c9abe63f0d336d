package services

import (
	"context"

	"freshbasket/internal/api"
)

type DashboardStats struct {
	Products int
	Users    int
}

type DashboardService struct {
	API *api.Client
}

// Stats fetches the dashboard counters one after the other, so a rejected
// credential stops at the first call.
func (s *DashboardService) Stats(ctx context.Context, cred string) (DashboardStats, error) {
	var (
		stats DashboardStats
		err   error
	)
	if stats.Products, err = s.API.ProductCount(ctx, cred); err != nil {
		return stats, err
	}
	stats.Users, err = s.API.UserCount(ctx, cred)
	return stats, err
}
