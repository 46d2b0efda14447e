package ledger

import (
	"fmt"
	"math/big"
)

// MaxAmount is the upper bound of any balance, allowance or total supply.
// It is the largest integer a notification item can carry.
var MaxAmount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))

func checkAmount(v *big.Int) error {
	if v == nil || v.Sign() < 0 || v.Cmp(MaxAmount) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, v)
	}
	return nil
}

func checkAmounts(vs ...*big.Int) error {
	for _, v := range vs {
		if err := checkAmount(v); err != nil {
			return err
		}
	}
	return nil
}

func add(a, b *big.Int) (*big.Int, error) {
	res := new(big.Int).Add(a, b)
	if res.Cmp(MaxAmount) > 0 {
		return nil, fmt.Errorf("%w: %s + %s", ErrArithmeticOverflow, a, b)
	}
	return res, nil
}

func sub(a, b *big.Int) (*big.Int, error) {
	if a.Cmp(b) < 0 {
		return nil, fmt.Errorf("%w: %s - %s", ErrArithmeticUnderflow, a, b)
	}
	return new(big.Int).Sub(a, b), nil
}
