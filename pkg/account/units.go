package account

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/params"
)

// etherDecimals is the number of decimals of one ether in wei.
const etherDecimals = 18

var ErrInvalidAmount = errors.New("account: invalid amount")

// EtherToWei converts a decimal amount of ether, such as "0.001", to wei exactly.
// Amounts with more than 18 decimals are rejected rather than rounded.
func EtherToWei(amount string) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	whole, frac, hasFrac := strings.Cut(amount, ".")
	if whole == "" && (!hasFrac || frac == "") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if len(frac) > etherDecimals {
		return nil, fmt.Errorf("%w: %q has more than %d decimals", ErrInvalidAmount, amount, etherDecimals)
	}
	for _, part := range []string{whole, frac} {
		for _, c := range part {
			if c < '0' || c > '9' {
				return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
			}
		}
	}

	wei := new(big.Int)
	if whole != "" {
		wei.SetString(whole, 10)
	}
	wei.Mul(wei, big.NewInt(params.Ether))
	if frac != "" {
		f, _ := new(big.Int).SetString(frac+strings.Repeat("0", etherDecimals-len(frac)), 10)
		wei.Add(wei, f)
	}
	return wei, nil
}
