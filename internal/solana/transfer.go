package solana

import (
	"fmt"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

// TxFeeLamports is the base fee of a single-signature transaction.
const TxFeeLamports = 5000

// Transfer is one native-currency movement.
type Transfer struct {
	To       solanago.PublicKey
	Lamports uint64
}

// NewTransferTransaction builds an unsigned transaction paying every
// transfer from payer. The blockhash is filled in by Submitter.
func NewTransferTransaction(payer solanago.PublicKey, transfers ...Transfer) (*solanago.Transaction, error) {
	if len(transfers) == 0 {
		return nil, fmt.Errorf("no transfers")
	}

	instructions := make([]solanago.Instruction, 0, len(transfers))
	for _, t := range transfers {
		if t.Lamports == 0 {
			return nil, fmt.Errorf("zero lamport transfer to %s", t.To)
		}
		instructions = append(instructions,
			system.NewTransferInstruction(t.Lamports, payer, t.To).Build())
	}

	tx, err := solanago.NewTransaction(instructions, solanago.Hash{}, solanago.TransactionPayer(payer))
	if err != nil {
		return nil, fmt.Errorf("build transfer transaction: %w", err)
	}
	return tx, nil
}
