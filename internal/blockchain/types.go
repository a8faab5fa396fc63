// internal/blockchain/types.go
package blockchain

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// SignatureInfo - элемент истории подписей для адреса (newest first).
type SignatureInfo struct {
	Signature solana.Signature
	Slot      uint64
	BlockTime time.Time
	Failed    bool
}

// TransactionRecord - исполненная транзакция вместе с логами программ.
type TransactionRecord struct {
	Signature solana.Signature
	Slot      uint64
	BlockTime time.Time
	Failed    bool
	Err       string
	Logs      []string
}

// SignatureStatus - статус отправленной транзакции.
type SignatureStatus struct {
	Found     bool
	Slot      uint64
	Confirmed bool
	Err       string
}

// Landed сообщает, что транзакция исполнена без ошибки.
func (s SignatureStatus) Landed() bool {
	return s.Found && s.Err == ""
}
