package dag

// Signer is the crypto collaborator's signing hook: given the transaction
// bytes to sign and the ring members gathered by the builder, it produces
// a ring signature and the key images for each spent input. The builder
// never constructs a signature itself.
type Signer interface {
	Sign(message []byte, ringMembers [][]byte) (RingSignature, error)
	DeriveKeyImage(prevTx Hash, index uint32) (KeyImage, error)
}

// OutputFactory is the crypto collaborator's output-construction hook: it
// turns a plaintext amount and a recipient's public material into a
// stealth address, amount commitment, range proof, and ephemeral pubkey.
// The builder treats all four as opaque bytes.
type OutputFactory interface {
	NewOutput(recipientPubkey []byte, amount uint64) (TxOutput, error)
}

// TransactionBuilder assembles a Transaction the way a wallet's
// transaction-construction code would: gather inputs and outputs, pick a
// ring, then hand off to a Signer to produce the ring signature and key
// images. It never touches balances or UTXO selection policy - that is
// explicitly a wallet concern, out of scope here.
type TransactionBuilder struct {
	signer  Signer
	outputs OutputFactory

	ringMembers [][]byte
	inputs      []pendingInput
	outs        []TxOutput
	extra       []byte
}

type pendingInput struct {
	prevTx Hash
	index  uint32
}

// NewTransactionBuilder starts a builder backed by the given crypto
// collaborators.
func NewTransactionBuilder(signer Signer, outputs OutputFactory) *TransactionBuilder {
	return &TransactionBuilder{signer: signer, outputs: outputs}
}

// WithRingMembers sets the decoy public keys mixed in with the real input
// to form the ring. Must be called before Build.
func (b *TransactionBuilder) WithRingMembers(members [][]byte) *TransactionBuilder {
	b.ringMembers = members
	return b
}

// AddInput references an output being spent. The key image is derived at
// Build time via the Signer, once the full set of inputs is known.
func (b *TransactionBuilder) AddInput(prevTx Hash, index uint32) *TransactionBuilder {
	b.inputs = append(b.inputs, pendingInput{prevTx: prevTx, index: index})
	return b
}

// AddOutput requests a new output paying amount to recipientPubkey. The
// actual stealth address/commitment/range proof are produced by the
// OutputFactory collaborator.
func (b *TransactionBuilder) AddOutput(recipientPubkey []byte, amount uint64) error {
	out, err := b.outputs.NewOutput(recipientPubkey, amount)
	if err != nil {
		return err
	}
	b.outs = append(b.outs, out)
	return nil
}

// WithExtra attaches opaque application data to the transaction.
func (b *TransactionBuilder) WithExtra(extra []byte) *TransactionBuilder {
	b.extra = extra
	return b
}

// Build derives key images for every input, signs the assembled
// transaction, and returns the finished, ready-to-gossip Transaction
// referencing the two given parents.
func (b *TransactionBuilder) Build(parent1, parent2 Hash) (Transaction, error) {
	inputs := make([]TxInput, len(b.inputs))
	for i, in := range b.inputs {
		ki, err := b.signer.DeriveKeyImage(in.prevTx, in.index)
		if err != nil {
			return Transaction{}, err
		}
		ringIndices := make([]uint32, len(b.ringMembers))
		for j := range b.ringMembers {
			ringIndices[j] = uint32(j)
		}
		inputs[i] = TxInput{
			PrevTx:      in.prevTx,
			Index:       in.index,
			KeyImage:    ki,
			RingIndices: ringIndices,
		}
	}

	tx := NewTransaction(inputs, b.outs, parent1, parent2)
	tx.Extra = b.extra

	sig, err := b.signer.Sign(tx.canonicalBytes(), b.ringMembers)
	if err != nil {
		return Transaction{}, err
	}
	tx.RingSignature = sig

	return tx, nil
}
