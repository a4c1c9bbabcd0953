// board/service/leaderboard_service.go
package service

import (
	"context"
	"fmt"
	"log"

	"github.com/Ftotnem/LIVEBOARD/board/hub"
	"github.com/Ftotnem/LIVEBOARD/board/leaderboard"
	"github.com/Ftotnem/LIVEBOARD/board/store"
	"github.com/Ftotnem/LIVEBOARD/shared/clock"
)

// LeaderboardService recomputes the board, refreshes the cached team stats
// and announces the result.
type LeaderboardService struct {
	engine *leaderboard.Engine
	teams  store.TeamStore
	hub    Broadcaster
	clock  clock.Clock
}

func NewLeaderboardService(engine *leaderboard.Engine, teams store.TeamStore, b Broadcaster, clk clock.Clock) *LeaderboardService {
	return &LeaderboardService{engine: engine, teams: teams, hub: b, clock: clk}
}

// Board returns the current board without side effects.
func (s *LeaderboardService) Board(ctx context.Context) (*leaderboard.Board, error) {
	return s.engine.Board(ctx)
}

// Publish recomputes the board, overwrites every team's cached stats and
// broadcasts leaderboard:update. A failed stats write is logged and skipped;
// the broadcast still carries the computed values.
func (s *LeaderboardService) Publish(ctx context.Context) (*leaderboard.Board, error) {
	board, err := s.engine.Board(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute leaderboard: %w", err)
	}

	now := s.clock.Now()
	for _, team := range board.Teams {
		if err := s.teams.UpdateTeamStats(ctx, team.ID, team.Stats(), now); err != nil {
			log.Printf("WARN: Failed to persist stats for team %s: %v", team.ID, err)
		}
	}

	delivered := s.hub.BroadcastAll(hub.Event{Type: hub.EventLeaderboardUpdate, Data: board})
	log.Printf("INFO: Published leaderboard (%d teams) to %d viewers", len(board.Teams), delivered)
	return board, nil
}
