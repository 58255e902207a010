package account

import (
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

type paramsMarshal struct {
	PublicKey    string
	FactorKey    string
	TSSNonce     int
	TSSShare     string
	TSSIndex     string
	SelectedTag  string
	Verifier     string
	VerifierID   string
	NodeIndexes  []*big.Int
	TSSEndpoints []string
	AuthSigs     []string
}

// MarshalBinary encodes p with cbor.
func (p *Params) MarshalBinary() ([]byte, error) {
	return cbor.Marshal(paramsMarshal(*p))
}

// UnmarshalBinary decodes cbor data and validates the result.
func (p *Params) UnmarshalBinary(data []byte) error {
	var pm paramsMarshal
	if err := cbor.Unmarshal(data, &pm); err != nil {
		return fmt.Errorf("account: unmarshal params: %w", err)
	}
	out := Params(pm)
	if err := out.Validate(); err != nil {
		return err
	}
	*p = out
	return nil
}
