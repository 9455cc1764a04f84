package dag

import (
	"bytes"
	"encoding/binary"
)

// KeyImage is the deterministic per-input value used to detect double
// spends without revealing the spender. Its construction and verification
// is the crypto collaborator's job; the DAG only stores and compares it.
type KeyImage [32]byte

// KeyImageValidator is the crypto collaborator's opaque validation hook.
// The DAG engine calls it once per input during structural validation and
// never inspects a key image's bytes beyond equality comparison.
type KeyImageValidator interface {
	Validate(KeyImage) error
}

// TxInput references a previous output being spent.
type TxInput struct {
	PrevTx      Hash
	Index       uint32
	KeyImage    KeyImage
	RingIndices []uint32
}

// TxOutput is a new, privacy-preserving output. Every field is opaque to
// the core; the core never decodes or validates their contents, only
// round-trips them.
type TxOutput struct {
	StealthAddress   []byte
	AmountCommitment []byte
	RangeProof       []byte
	EphemeralPubkey  []byte
}

// RingSignature is opaque to the core beyond its member count, which
// structural validation checks against Params.MinRingSize.
type RingSignature struct {
	Members   [][]byte
	Signature []byte
}

// RingSize returns the number of ring members (real input plus decoys).
func (r RingSignature) RingSize() int {
	return len(r.Members)
}

// Transaction is a privacy-preserving DAG entry referencing exactly two
// parents. It is immutable after admission: score, state, and children are
// owned by the DAG engine, never by the Transaction value itself.
type Transaction struct {
	Version       uint8
	Inputs        []TxInput
	Outputs       []TxOutput
	RingSignature RingSignature
	TxKey         []byte
	References    [2]Hash
	Timestamp     Timestamp
	Extra         []byte
}

// NewTransaction builds an unsigned transaction with the current timestamp.
// Signing (attaching a real RingSignature) is the TransactionBuilder's job.
func NewTransaction(inputs []TxInput, outputs []TxOutput, parent1, parent2 Hash) Transaction {
	return Transaction{
		Version:    1,
		Inputs:     inputs,
		Outputs:    outputs,
		References: [2]Hash{parent1, parent2},
		Timestamp:  now(),
	}
}

// ID computes the transaction's content hash over a canonical serialization
// of every field. Two transactions are the same transaction iff their IDs
// match.
func (t Transaction) ID() Hash {
	return HashBytes(t.canonicalBytes())
}

// canonicalBytes produces a deterministic, order-preserving byte encoding
// of the transaction for hashing. It intentionally does not need to be a
// general-purpose wire format: internal/network/message.go owns wire serialization,
// this only needs to be stable and collision-resistant across identical
// field values.
func (t Transaction) canonicalBytes() []byte {
	var buf bytes.Buffer
	buf.WriteByte(t.Version)

	binary.Write(&buf, binary.LittleEndian, uint32(len(t.Inputs)))
	for _, in := range t.Inputs {
		buf.Write(in.PrevTx[:])
		binary.Write(&buf, binary.LittleEndian, in.Index)
		buf.Write(in.KeyImage[:])
		binary.Write(&buf, binary.LittleEndian, uint32(len(in.RingIndices)))
		for _, ri := range in.RingIndices {
			binary.Write(&buf, binary.LittleEndian, ri)
		}
	}

	binary.Write(&buf, binary.LittleEndian, uint32(len(t.Outputs)))
	for _, out := range t.Outputs {
		writeLenPrefixed(&buf, out.StealthAddress)
		writeLenPrefixed(&buf, out.AmountCommitment)
		writeLenPrefixed(&buf, out.RangeProof)
		writeLenPrefixed(&buf, out.EphemeralPubkey)
	}

	binary.Write(&buf, binary.LittleEndian, uint32(len(t.RingSignature.Members)))
	for _, m := range t.RingSignature.Members {
		writeLenPrefixed(&buf, m)
	}
	writeLenPrefixed(&buf, t.RingSignature.Signature)
	writeLenPrefixed(&buf, t.TxKey)

	buf.Write(t.References[0][:])
	buf.Write(t.References[1][:])
	binary.Write(&buf, binary.LittleEndian, uint64(t.Timestamp))
	writeLenPrefixed(&buf, t.Extra)

	return buf.Bytes()
}

func writeLenPrefixed(buf *bytes.Buffer, b []byte) {
	binary.Write(buf, binary.LittleEndian, uint32(len(b)))
	buf.Write(b)
}

// ValidateStructure enforces the structural invariants required before a
// transaction may be admitted: non-empty inputs/outputs, distinct parents,
// a timestamp not too far in the future, a sufficiently large ring, and
// opaque-validated key images. It never touches economic balances.
func (t Transaction) ValidateStructure(p Params, validator KeyImageValidator) error {
	if len(t.Inputs) == 0 || len(t.Outputs) == 0 {
		return ErrStructural
	}
	// References must be distinct, except for the genesis case where both
	// are the "no parent" sentinel - a real transaction id can never equal
	// ZeroHash, so this can't be abused to smuggle a duplicate reference
	// past validation.
	if t.References[0] == t.References[1] && t.References[0] != ZeroHash {
		return ErrStructural
	}
	if t.Timestamp > now()+p.MaxFutureDrift {
		return ErrStructural
	}
	if t.RingSignature.RingSize() < p.MinRingSize {
		return ErrStructural
	}
	if validator != nil {
		for _, in := range t.Inputs {
			if err := validator.Validate(in.KeyImage); err != nil {
				return ErrStructural
			}
		}
	}
	return nil
}

// KeyImages returns every key image spent by this transaction's inputs, in
// order. Used by the engine's conflict-detection map.
func (t Transaction) KeyImages() []KeyImage {
	out := make([]KeyImage, len(t.Inputs))
	for i, in := range t.Inputs {
		out[i] = in.KeyImage
	}
	return out
}
