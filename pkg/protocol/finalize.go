package protocol

import (
	"math/big"

	"github.com/taurusgroup/tss-account/internal/params"
	"github.com/taurusgroup/tss-account/pkg/ecdsa"
	"github.com/taurusgroup/tss-account/pkg/math/curve"
)

// Finalize checks that sig is a valid signature of digest under X, and that its raw
// recovery id designates X. It returns a copy of sig with V following the convention of
// kind. R and S are unchanged and not canonicalized.
//
// Every failure to verify is a KindVerification error, an unverified signature is
// never returned.
func Finalize(digest []byte, sig *ecdsa.Signature, X curve.Point, chainID *big.Int, kind ecdsa.Kind) (*ecdsa.Signature, error) {
	const op = "finalize"
	if len(digest) != params.BytesDigest {
		return nil, Errorf(KindValidation, op, "digest must be %d bytes, got %d", params.BytesDigest, len(digest))
	}
	if sig == nil || sig.R == nil || sig.S == nil {
		return nil, NewError(KindVerification, op, ecdsa.ErrInvalidSignature)
	}
	if !sig.Verify(X, digest) {
		return nil, NewError(KindVerification, op, ecdsa.ErrInvalidSignature)
	}

	recovered, err := sig.RecoverPublicKeyFor(digest, kind, chainID)
	if err != nil {
		return nil, NewError(KindVerification, op, err)
	}
	if !recovered.Equal(X) {
		return nil, NewError(KindVerification, op, ecdsa.ErrRecoveryMismatch)
	}

	v, err := ecdsa.Normalize(sig.V, kind, chainID)
	if err != nil {
		return nil, NewError(KindValidation, op, err)
	}
	out := sig.Clone()
	out.V = v
	return out, nil
}
