package staking

import (
	"math/big"

	"github.com/holiman/uint256"
)

var scale256 = uint256.MustFromBig(Scale)

func toU256(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	if v.Sign() < 0 {
		return nil, ErrOverflow
	}
	out, overflow := uint256.FromBig(v)
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

// owed returns staked × (acc − debt) / Scale, truncated toward zero.
func owed(staked, acc, debt *big.Int) (*big.Int, error) {
	if staked.Sign() == 0 || acc.Cmp(debt) <= 0 {
		return big.NewInt(0), nil
	}
	s, err := toU256(staked)
	if err != nil {
		return nil, err
	}
	delta, err := toU256(new(big.Int).Sub(acc, debt))
	if err != nil {
		return nil, err
	}
	out, overflow := new(uint256.Int).MulDivOverflow(s, delta, scale256)
	if overflow {
		return nil, ErrOverflow
	}
	return out.ToBig(), nil
}

// distribute folds amount × Scale plus carry into the accumulator across
// totalStaked. It returns the accumulator increment and the new carry.
func distribute(amount, carry, totalStaked *big.Int) (*big.Int, *big.Int, error) {
	a, err := toU256(amount)
	if err != nil {
		return nil, nil, err
	}
	c, err := toU256(carry)
	if err != nil {
		return nil, nil, err
	}
	scaled, overflow := new(uint256.Int).MulOverflow(a, scale256)
	if overflow {
		return nil, nil, ErrOverflow
	}
	scaled, overflow = new(uint256.Int).AddOverflow(scaled, c)
	if overflow {
		return nil, nil, ErrOverflow
	}
	if totalStaked.Sign() == 0 {
		return big.NewInt(0), scaled.ToBig(), nil
	}
	total, err := toU256(totalStaked)
	if err != nil {
		return nil, nil, err
	}
	increment := new(uint256.Int).Div(scaled, total)
	remainder := new(uint256.Int).Mod(scaled, total)
	return increment.ToBig(), remainder.ToBig(), nil
}
