package program

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/launchpad/internal/errs"
	"github.com/rovshanmuradov/launchpad/internal/launch"
)

// TxError is a transaction that executed and failed. The transaction is still
// recorded in history with its logs; none of its writes were applied.
type TxError struct {
	Signature   solana.Signature
	Instruction int
	Err         error
	Logs        []string
}

func (e *TxError) Error() string {
	if code, ok := launch.CodeForKind(errs.KindOf(e.Err)); ok {
		return fmt.Sprintf("Error processing Instruction %d: custom program error: %s (%v)", e.Instruction, code.Hex(), e.Err)
	}
	return fmt.Sprintf("Error processing Instruction %d: %v", e.Instruction, e.Err)
}

func (e *TxError) Unwrap() error { return e.Err }

// SignatureError reports an account that had to sign and did not.
type SignatureError struct {
	Op      string
	Account solana.PublicKey
	Role    string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("%s: missing required signature for %s %s", e.Op, e.Role, e.Account)
}
