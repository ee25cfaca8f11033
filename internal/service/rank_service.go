package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/school-records-api/internal/models"
)

type peerGroupRepo interface {
	ListPeerGroup(ctx context.Context, key models.PeerGroupKey) ([]models.RankedAggregate, error)
	UpdatePosition(ctx context.Context, update models.PositionUpdate) error
}

// RankService recomputes class-relative positions for a peer group. It runs
// outside the batch transaction: grade writes stay committed even when
// ranking fails, and concurrent recomputes of one peer group resolve as
// last-writer-wins per row.
type RankService struct {
	aggregates peerGroupRepo
	chunkSize  int
	logger     *zap.Logger
}

// NewRankService constructs RankService.
func NewRankService(aggregates peerGroupRepo, chunkSize int, logger *zap.Logger) *RankService {
	if chunkSize <= 0 {
		chunkSize = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RankService{aggregates: aggregates, chunkSize: chunkSize, logger: logger}
}

// Recompute re-ranks every aggregate in the peer group, not only the students
// of the triggering batch. Ties on total break on student id ascending, so
// positions always form a dense 1..N.
func (s *RankService) Recompute(ctx context.Context, key models.PeerGroupKey) error {
	rows, err := s.aggregates.ListPeerGroup(ctx, key)
	if err != nil {
		return fmt.Errorf("rank recompute: %w", err)
	}

	updates := make([]models.PositionUpdate, len(rows))
	for i, row := range rows {
		updates[i] = models.PositionUpdate{AggregateID: row.ID, Position: Ordinal(i + 1)}
	}

	// Chunks bound the number of concurrent position writes so large peer
	// groups cannot exhaust the connection pool.
	for start := 0; start < len(updates); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(updates) {
			end = len(updates)
		}
		if err := s.writeChunk(ctx, updates[start:end]); err != nil {
			return fmt.Errorf("rank recompute: %w", err)
		}
	}

	s.logger.Debug("positions recomputed",
		zap.String("subject_id", key.SubjectID),
		zap.String("class_id", key.ClassID),
		zap.String("grading_cycle_id", key.GradingCycleID),
		zap.Int("aggregates", len(updates)))
	return nil
}

func (s *RankService) writeChunk(ctx context.Context, chunk []models.PositionUpdate) error {
	var wg sync.WaitGroup
	errCh := make(chan error, len(chunk))
	for _, update := range chunk {
		wg.Add(1)
		go func(u models.PositionUpdate) {
			defer wg.Done()
			if err := s.aggregates.UpdatePosition(ctx, u); err != nil {
				errCh <- err
			}
		}(update)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		return err
	}
	return nil
}

// Ordinal renders a 1-based rank as its English ordinal ("1st", "2nd", ...).
func Ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
