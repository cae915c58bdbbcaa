package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prohmpiriya/entrygate/internal/domain"
	"github.com/prohmpiriya/entrygate/internal/repository"
)

type sweepRepo struct {
	repository.InventoryRepository
	mu    sync.Mutex
	calls int
	count int64
	err   error
}

func (r *sweepRepo) SweepExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.count, r.err
}

func (r *sweepRepo) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type sweepPublisher struct {
	mu     sync.Mutex
	counts []int64
}

func (p *sweepPublisher) PublishTicketsIssued(ctx context.Context, eventID string, payload *domain.TicketsIssuedPayload) error {
	return nil
}

func (p *sweepPublisher) PublishEntryAdmitted(ctx context.Context, eventID string, payload *domain.EntryAdmittedPayload) error {
	return nil
}

func (p *sweepPublisher) PublishReservationsSwept(ctx context.Context, count int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts = append(p.counts, count)
	return nil
}

func (p *sweepPublisher) PublishTicketTransition(ctx context.Context, eventType domain.TicketEventType, eventID string, payload *domain.TicketTransitionPayload) error {
	return nil
}

func (p *sweepPublisher) Close() error { return nil }

func (p *sweepPublisher) Counts() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int64(nil), p.counts...)
}

func TestSweepPublishesCount(t *testing.T) {
	repo := &sweepRepo{count: 7}
	pub := &sweepPublisher{}
	sweeper := NewSweeper(repo, pub, nil)

	sweeper.Sweep(context.Background())

	stats := sweeper.GetStats()
	if stats.TotalSwept != 7 || stats.LastSweptCount != 7 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if counts := pub.Counts(); len(counts) != 1 || counts[0] != 7 {
		t.Errorf("expected one swept event with count 7, got %v", counts)
	}
}

func TestSweepZeroDoesNotPublish(t *testing.T) {
	repo := &sweepRepo{count: 0}
	pub := &sweepPublisher{}
	sweeper := NewSweeper(repo, pub, nil)

	sweeper.Sweep(context.Background())

	if counts := pub.Counts(); len(counts) != 0 {
		t.Errorf("empty sweep must not publish, got %v", counts)
	}
}

func TestSweepErrorKeepsStats(t *testing.T) {
	repo := &sweepRepo{err: errors.New("connection refused")}
	pub := &sweepPublisher{}
	sweeper := NewSweeper(repo, pub, nil)

	sweeper.Sweep(context.Background())

	if stats := sweeper.GetStats(); stats.TotalSwept != 0 {
		t.Errorf("failed sweep must not count, got %+v", stats)
	}
	if counts := pub.Counts(); len(counts) != 0 {
		t.Errorf("failed sweep must not publish, got %v", counts)
	}
}

func TestSweeperStartStop(t *testing.T) {
	repo := &sweepRepo{count: 1}
	sweeper := NewSweeper(repo, &sweepPublisher{}, &SweeperConfig{
		SweepInterval: 10 * time.Millisecond,
	})

	if err := sweeper.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := sweeper.Start(context.Background()); err == nil {
		t.Error("second Start must fail while running")
	}

	time.Sleep(35 * time.Millisecond)
	sweeper.Stop()

	if repo.Calls() < 2 {
		t.Errorf("expected repeated sweeps, got %d", repo.Calls())
	}
	if stats := sweeper.GetStats(); stats.IsRunning {
		t.Error("stats must report stopped")
	}

	// Stop again is a no-op
	sweeper.Stop()
}
