// Package cryptoutil provides the thin, explicitly non-cryptographic
// collaborators the DAG layer delegates to: key-image validation and the
// signing/output-construction hooks a real wallet would implement with
// actual ring signatures and Pedersen commitments. Content hashing is not
// here; it is pkg/dag.HashBytes.
//
// None of this package does real cryptography. Ring signature verification,
// stealth address derivation, and range proofs are out of scope for this
// module (see SPEC_FULL.md §5) — a production deployment replaces this
// package wholesale with a real implementation satisfying the same
// dag.Signer, dag.OutputFactory, and dag.KeyImageValidator interfaces.
package cryptoutil

import (
	"bytes"
	"crypto/rand"
	"errors"

	"github.com/Nyx-Blockchain/Nyx/pkg/dag"
)

// ErrZeroKeyImage is returned by PermissiveKeyImageValidator when a key
// image is the all-zero value, the one case this stub does reject: a
// zero key image is never produced by DeriveKeyImage and indicates a
// malformed or adversarial transaction.
var ErrZeroKeyImage = errors.New("cryptoutil: zero key image")

// PermissiveKeyImageValidator implements dag.KeyImageValidator without any
// real ring-signature verification: it only rejects the all-zero sentinel.
// Structural soundness (ring size, reuse across transactions) is enforced
// elsewhere in pkg/dag; this hook gives the running node's engine a
// concrete collaborator to call. An engine built with a nil validator
// skips the key-image check entirely.
type PermissiveKeyImageValidator struct{}

func (PermissiveKeyImageValidator) Validate(ki dag.KeyImage) error {
	var zero dag.KeyImage
	if bytes.Equal(ki[:], zero[:]) {
		return ErrZeroKeyImage
	}
	return nil
}

// StubSigner implements dag.Signer by deriving a key image from random
// bytes and producing a ring "signature" that simply carries the ring
// members through unsigned. It exists so TransactionBuilder, the gossip
// layer, and tests all have something concrete to build against.
type StubSigner struct{}

func (StubSigner) Sign(message []byte, ringMembers [][]byte) (dag.RingSignature, error) {
	sig := make([]byte, 64)
	if _, err := rand.Read(sig); err != nil {
		return dag.RingSignature{}, err
	}
	return dag.RingSignature{
		Members:   ringMembers,
		Signature: sig,
	}, nil
}

func (StubSigner) DeriveKeyImage(prevTx dag.Hash, index uint32) (dag.KeyImage, error) {
	var ki dag.KeyImage
	if _, err := rand.Read(ki[:]); err != nil {
		return ki, err
	}
	return ki, nil
}

// StubOutputFactory implements dag.OutputFactory by generating opaque,
// correctly-sized placeholder fields instead of a real stealth address and
// Pedersen commitment.
type StubOutputFactory struct{}

func (StubOutputFactory) NewOutput(recipientPubkey []byte, amount uint64) (dag.TxOutput, error) {
	stealth := make([]byte, 32)
	if _, err := rand.Read(stealth); err != nil {
		return dag.TxOutput{}, err
	}
	ephemeral := make([]byte, 32)
	if _, err := rand.Read(ephemeral); err != nil {
		return dag.TxOutput{}, err
	}
	return dag.TxOutput{
		StealthAddress:   stealth,
		AmountCommitment: amountPlaceholder(amount),
		RangeProof:       []byte{},
		EphemeralPubkey:  ephemeral,
	}, nil
}

// amountPlaceholder stands in for a Pedersen commitment: a real
// implementation blinds amount with a random factor so it isn't visible
// on the wire. This stub keeps the amount in cleartext at a fixed offset
// so tests can assert on it; it is not a commitment in any cryptographic
// sense.
func amountPlaceholder(amount uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(amount >> (8 * (7 - i)))
	}
	return b
}
