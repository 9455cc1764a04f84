package dag

import "testing"

// fakeSigner and fakeOutputFactory stand in for a real crypto collaborator
// in these tests; internal/cryptoutil provides the real (still
// non-cryptographic) stand-ins used by the running node.
type fakeSigner struct{}

func (fakeSigner) Sign(message []byte, ringMembers [][]byte) (RingSignature, error) {
	return RingSignature{Members: ringMembers, Signature: []byte("sig")}, nil
}

func (fakeSigner) DeriveKeyImage(prevTx Hash, index uint32) (KeyImage, error) {
	var ki KeyImage
	ki[0] = byte(index) + 1
	return ki, nil
}

type fakeOutputFactory struct{}

func (fakeOutputFactory) NewOutput(recipientPubkey []byte, amount uint64) (TxOutput, error) {
	return TxOutput{StealthAddress: recipientPubkey, EphemeralPubkey: []byte{0xEE}}, nil
}

func TestTransactionBuilderBuild(t *testing.T) {
	b := NewTransactionBuilder(fakeSigner{}, fakeOutputFactory{})
	b.WithRingMembers([][]byte{{1}, {2}, {3}})
	b.AddInput(ZeroHash, 0)
	if err := b.AddOutput([]byte("recipient"), 100); err != nil {
		t.Fatalf("AddOutput: %v", err)
	}

	var parent1, parent2 Hash
	parent1[0] = 0xAA

	tx, err := b.Build(parent1, parent2)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(tx.Inputs) != 1 {
		t.Fatalf("len(Inputs) = %d, want 1", len(tx.Inputs))
	}
	if tx.Inputs[0].KeyImage[0] != 1 {
		t.Fatalf("KeyImage[0] = %d, want 1 (derived from index 0)", tx.Inputs[0].KeyImage[0])
	}
	if len(tx.Outputs) != 1 || string(tx.Outputs[0].StealthAddress) != "recipient" {
		t.Fatalf("unexpected outputs: %+v", tx.Outputs)
	}
	if tx.RingSignature.RingSize() != 3 {
		t.Fatalf("RingSize() = %d, want 3", tx.RingSignature.RingSize())
	}
	if tx.References[0] != parent1 || tx.References[1] != parent2 {
		t.Fatalf("References = %v, want [%v, %v]", tx.References, parent1, parent2)
	}

	if err := tx.ValidateStructure(DefaultParams(), nil); err != nil {
		t.Fatalf("built transaction fails structural validation: %v", err)
	}
}
