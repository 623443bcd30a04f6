package app

import (
	"context"

	"eduquiz-service/internal/ranking"
	"eduquiz-service/internal/store"
)

// RankingService serves leaderboards and statistics from stored results.
type RankingService struct {
	store *store.Store
}

func NewRankingService(st *store.Store) *RankingService {
	return &RankingService{store: st}
}

// Leaderboard ranks the results in scope and numbers them.
func (r *RankingService) Leaderboard(ctx context.Context, scope ranking.Scope) ([]ranking.Standing, error) {
	data, err := r.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return ranking.Positions(ranking.Rank(data.Results, scope)), nil
}

// Dashboard is the admin overview.
func (r *RankingService) Dashboard(ctx context.Context) (ranking.Stats, error) {
	data, err := r.store.Snapshot(ctx)
	if err != nil {
		return ranking.Stats{}, err
	}
	return ranking.Dashboard(data), nil
}

// ForUser summarises one student's attempts.
func (r *RankingService) ForUser(ctx context.Context, name string) (ranking.UserStats, error) {
	data, err := r.store.Snapshot(ctx)
	if err != nil {
		return ranking.UserStats{}, err
	}
	return ranking.ForUser(data.Results, name), nil
}

// UserAverages is the per-student table of the admin dashboard.
func (r *RankingService) UserAverages(ctx context.Context) ([]ranking.UserAverage, error) {
	data, err := r.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return ranking.UserAverages(data.Results), nil
}
