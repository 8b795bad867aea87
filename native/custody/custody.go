package custody

import (
	"errors"
	"strings"

	nativecommon "ricks/native/common"
)

var (
	errNilState        = errors.New("custody: state not configured")
	ErrAssetRequired   = nativecommon.Precondition("custody: asset id required")
	ErrAlreadyLocked   = nativecommon.Precondition("custody: asset already locked")
	ErrNotLocked       = nativecommon.Precondition("custody: asset not locked")
	ErrAssetMismatch   = nativecommon.Precondition("custody: asset id mismatch")
	ErrInvalidOwner    = nativecommon.Precondition("custody: owner required")
	ErrAlreadyReleased = nativecommon.Precondition("custody: asset already released")
)

// Status enumerates the custody lifecycle of the underlying asset.
type Status uint8

const (
	StatusEmpty Status = iota
	StatusLocked
	StatusReleased
)

func (s Status) String() string {
	switch s {
	case StatusLocked:
		return "locked"
	case StatusReleased:
		return "released"
	default:
		return "empty"
	}
}

// Record describes who deposited the asset and who may hold it now.
type Record struct {
	AssetID    string
	Depositor  [20]byte
	Holder     [20]byte
	Status     Status
	LockedAt   uint64
	ReleasedAt uint64
}

type engineState interface {
	CustodyRecord() (*Record, error)
	PutCustodyRecord(*Record) error
}

// Vault holds the single non-fungible asset backing the shares.
type Vault struct {
	state engineState
	nowFn func() int64
}

func NewVault() *Vault {
	return &Vault{}
}

// SetState wires the custody vault to the external persistence layer.
func (v *Vault) SetState(state engineState) { v.state = state }

// SetNowFunc overrides the clock used for custody timestamps.
func (v *Vault) SetNowFunc(now func() int64) { v.nowFn = now }

func (v *Vault) now() uint64 {
	if v.nowFn == nil {
		return 0
	}
	ts := v.nowFn()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

// Record returns the current custody record. A never-locked asset yields an
// empty record.
func (v *Vault) Record() (*Record, error) {
	if v.state == nil {
		return nil, errNilState
	}
	record, err := v.state.CustodyRecord()
	if err != nil {
		return nil, err
	}
	if record == nil {
		record = &Record{}
	}
	return record, nil
}

// Lock takes custody of assetID on behalf of owner.
func (v *Vault) Lock(owner [20]byte, assetID string) error {
	assetID = strings.TrimSpace(assetID)
	if assetID == "" {
		return ErrAssetRequired
	}
	if owner == ([20]byte{}) {
		return ErrInvalidOwner
	}
	record, err := v.Record()
	if err != nil {
		return err
	}
	switch record.Status {
	case StatusLocked:
		return ErrAlreadyLocked
	case StatusReleased:
		return ErrAlreadyReleased
	}
	return v.state.PutCustodyRecord(&Record{
		AssetID:   assetID,
		Depositor: owner,
		Holder:    owner,
		Status:    StatusLocked,
		LockedAt:  v.now(),
	})
}

// Release hands assetID to newOwner. Release is terminal.
func (v *Vault) Release(assetID string, newOwner [20]byte) error {
	if newOwner == ([20]byte{}) {
		return ErrInvalidOwner
	}
	record, err := v.Record()
	if err != nil {
		return err
	}
	switch record.Status {
	case StatusEmpty:
		return ErrNotLocked
	case StatusReleased:
		return ErrAlreadyReleased
	}
	if record.AssetID != strings.TrimSpace(assetID) {
		return ErrAssetMismatch
	}
	record.Holder = newOwner
	record.Status = StatusReleased
	record.ReleasedAt = v.now()
	return v.state.PutCustodyRecord(record)
}

// Holder returns the current holder of assetID. While locked the holder is
// the depositor.
func (v *Vault) Holder(assetID string) ([20]byte, error) {
	record, err := v.Record()
	if err != nil {
		return [20]byte{}, err
	}
	if record.Status == StatusEmpty {
		return [20]byte{}, ErrNotLocked
	}
	if record.AssetID != strings.TrimSpace(assetID) {
		return [20]byte{}, ErrAssetMismatch
	}
	return record.Holder, nil
}
