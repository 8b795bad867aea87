package vault

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"ricks/core/events"
	vaultstate "ricks/core/state"
	"ricks/crypto"
	"ricks/native/auction"
	"ricks/native/bank"
	"ricks/native/buyout"
	nativecommon "ricks/native/common"
	"ricks/native/custody"
	"ricks/native/pricing"
	"ricks/native/shares"
	"ricks/native/staking"
	"ricks/native/weth"
	"ricks/observability/metrics"
)

// Module names accepted by SetPaused.
const (
	ModuleAuction = "auction"
	ModuleStaking = "staking"
	ModuleBuyout  = "buyout"
)

// Accounts owned by the vault itself.
var (
	ReserveAddress  = crypto.ModuleAddress("vault/reserve").Raw()
	EscrowAddress   = crypto.ModuleAddress("vault/escrow").Raw()
	TreasuryAddress = crypto.ModuleAddress("vault/treasury").Raw()
	StakingAddress  = crypto.ModuleAddress("vault/staking").Raw()
)

var (
	ErrCuratorOnly       = nativecommon.Precondition("vault: only the curator may activate")
	ErrNothingToWithdraw = nativecommon.Precondition("vault: nothing to withdraw")
	ErrUnknownModule     = nativecommon.Precondition("vault: unknown module")
	ErrInvalidAmount     = nativecommon.Insufficient("vault: amount must be positive")
	ErrInvalidConfig     = errors.New("vault: invalid configuration")
	errReservedRecipient = nativecommon.Precondition("vault: recipient is a vault account")
)

// Options configure a vault deployment. Curator restricts activation when
// HasCurator is set.
type Options struct {
	AssetID       string
	Curator       [20]byte
	HasCurator    bool
	InitialSupply *big.Int
	Auction       auction.Params
	Buyout        buyout.Params
	PriceWindow   uint64
	Now           func() int64
	Emitter       events.Emitter
	Logger        *slog.Logger
}

// DefaultOptions returns the reference deployment with 100 shares.
func DefaultOptions() Options {
	return Options{
		AssetID:       "asset-1",
		InitialSupply: big.NewInt(100),
		Auction:       auction.DefaultParams(),
		Buyout:        buyout.DefaultParams(),
		PriceWindow:   pricing.DefaultWindow,
	}
}

// Vault is the call surface of the fractional vault. It serialises every
// state-changing call, commits each call's writes and its inbound payment in
// one batch, and pays outbound value only after the lock is released.
type Vault struct {
	mu      sync.Locker
	state   *vaultstate.Manager
	ledger  *bank.Ledger
	rail    *bank.Rail
	shares  *shares.Ledger
	weth    *weth.Token
	custody *custody.Vault
	prices  *pricing.Tracker
	staking *staking.Engine
	auction *auction.Engine
	buyout  *buyout.Controller

	buffer  *events.Buffer
	emitter events.Emitter
	logger  *slog.Logger
	metrics *metrics.VaultMetrics
	nowFn   func() int64

	assetID       string
	curator       [20]byte
	hasCurator    bool
	initialSupply *big.Int
}

// New wires every module against state. The returned vault shares the
// manager with its bank ledger; nothing else may write to state concurrently.
func New(state *vaultstate.Manager, opts Options) (*Vault, error) {
	if state == nil {
		return nil, fmt.Errorf("%w: state manager required", ErrInvalidConfig)
	}
	if strings.TrimSpace(opts.AssetID) == "" {
		return nil, fmt.Errorf("%w: asset id required", ErrInvalidConfig)
	}
	if opts.InitialSupply == nil || opts.InitialSupply.Sign() <= 0 {
		return nil, fmt.Errorf("%w: initial supply must be positive", ErrInvalidConfig)
	}
	if err := opts.Auction.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := opts.Buyout.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if opts.PriceWindow == 0 {
		opts.PriceWindow = pricing.DefaultWindow
	}
	now := opts.Now
	if now == nil {
		now = func() int64 { return time.Now().Unix() }
	}
	emitter := opts.Emitter
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ledger := bank.NewLedger(state)
	v := &Vault{
		mu:            ledger.Locker(),
		state:         state,
		ledger:        ledger,
		rail:          bank.NewRail(ledger, ReserveAddress),
		shares:        shares.NewLedger(),
		weth:          weth.NewToken(),
		custody:       custody.NewVault(),
		prices:        pricing.NewTracker(opts.PriceWindow),
		staking:       staking.NewEngine(StakingAddress),
		auction:       auction.NewEngine(EscrowAddress, TreasuryAddress, opts.Auction),
		buyout:        buyout.NewController(opts.AssetID, TreasuryAddress, opts.Buyout),
		buffer:        &events.Buffer{},
		emitter:       emitter,
		logger:        logger.With("component", "vault"),
		metrics:       metrics.Vault(),
		nowFn:         now,
		assetID:       opts.AssetID,
		curator:       opts.Curator,
		hasCurator:    opts.HasCurator,
		initialSupply: new(big.Int).Set(opts.InitialSupply),
	}

	v.shares.SetState(state)
	v.shares.SetEmitter(v.buffer)
	v.weth.SetState(state)
	v.weth.SetEmitter(v.buffer)
	v.custody.SetState(state)
	v.custody.SetNowFunc(now)
	v.prices.SetState(state)
	v.prices.SetEmitter(v.buffer)

	v.staking.SetState(state)
	v.staking.SetTokens(v.shares, v.weth)
	v.staking.SetEmitter(v.buffer)
	v.staking.SetPauses(state)

	v.auction.SetState(state)
	v.auction.SetCollaborators(v.shares, v.weth, v.staking, v.prices)
	v.auction.SetBuyoutView(v.buyout)
	v.auction.SetEmitter(v.buffer)
	v.auction.SetPauses(state)
	v.auction.SetNowFunc(now)

	v.buyout.SetState(state)
	v.buyout.SetCollaborators(v.shares, v.weth, v.prices, v.auction, v.custody)
	v.buyout.SetEmitter(v.buffer)
	v.buyout.SetPauses(state)
	v.buyout.SetNowFunc(now)
	return v, nil
}

// SetEmitter replaces the downstream emitter. Nil restores the no-op emitter.
func (v *Vault) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	v.mu.Lock()
	v.emitter = emitter
	v.mu.Unlock()
}

// Bank exposes the native payment ledger backing bids and withdrawals.
func (v *Vault) Bank() *bank.Ledger { return v.ledger }

// AssetID returns the identifier of the custodied asset.
func (v *Vault) AssetID() string { return v.assetID }

func (v *Vault) now() uint64 {
	ts := v.nowFn()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

func isVaultAccount(addr [20]byte) bool {
	switch addr {
	case ReserveAddress, EscrowAddress, TreasuryAddress, StakingAddress:
		return true
	default:
		return false
	}
}

func validAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
