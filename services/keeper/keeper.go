// Package keeper settles finished auctions on a schedule so that a round
// never waits for a participant to call endAuction.
package keeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"ricks/crypto"
	"ricks/native/auction"
)

// Address is the caller recorded for keeper-driven settlements.
var Address = crypto.ModuleAddress("keeper").Raw()

// Settler is the part of the vault the keeper drives.
type Settler interface {
	IsSettleable() (bool, error)
	EndAuction(ctx context.Context, caller [20]byte) (*auction.Settlement, error)
}

// Keeper polls the vault and settles the running auction once it is over.
type Keeper struct {
	settler  Settler
	schedule string
	logger   *slog.Logger
	cron     *cron.Cron

	mu      sync.Mutex
	ctx     context.Context
	settled uint64
}

// New builds a keeper running on a standard five field cron schedule or a
// descriptor such as "@every 1m".
func New(settler Settler, schedule string, logger *slog.Logger) (*Keeper, error) {
	if settler == nil {
		return nil, errors.New("keeper: settler required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("keeper: invalid schedule %q: %w", schedule, err)
	}
	return &Keeper{
		settler:  settler,
		schedule: schedule,
		logger:   logger.With("component", "keeper"),
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		ctx:      context.Background(),
	}, nil
}

// Start registers the settlement job and starts the scheduler. The job stops
// running once ctx is cancelled.
func (k *Keeper) Start(ctx context.Context) error {
	k.mu.Lock()
	k.ctx = ctx
	k.mu.Unlock()
	if _, err := k.cron.AddFunc(k.schedule, func() {
		if _, err := k.Tick(k.context()); err != nil {
			k.logger.Warn("settlement attempt failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("keeper: register job: %w", err)
	}
	k.cron.Start()
	k.logger.Info("keeper started", "schedule", k.schedule)
	go func() {
		<-ctx.Done()
		k.Stop()
	}()
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (k *Keeper) Stop() {
	<-k.cron.Stop().Done()
}

func (k *Keeper) context() context.Context {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.ctx
}

// Tick settles the auction if it is over. It reports whether a settlement
// happened.
func (k *Keeper) Tick(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ready, err := k.settler.IsSettleable()
	if err != nil || !ready {
		return false, err
	}
	settlement, err := k.settler.EndAuction(ctx, Address)
	if err != nil {
		// Someone else settled between the check and the call.
		if errors.Is(err, auction.ErrNotActive) {
			return false, nil
		}
		return false, err
	}
	k.mu.Lock()
	k.settled++
	k.mu.Unlock()
	k.logger.Info("auction settled",
		"round", settlement.Round,
		"winner", crypto.FromRaw(settlement.Winner).String(),
		"pricePerShare", settlement.PricePerShare.String())
	return true, nil
}

// Settled reports how many auctions this keeper closed.
func (k *Keeper) Settled() uint64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.settled
}
