package launch

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// LaunchSeed is the PDA namespace tag for launch accounts.
const LaunchSeed = "launch"

// DefaultProgramID is the localnet deployment of the launchpad program.
var DefaultProgramID = solana.MustPublicKeyFromBase58("PWin111111111111111111111111111111111111111")

// Addresses groups every address derived from a mint.
type Addresses struct {
	Mint    solana.PublicKey
	Launch  solana.PublicKey
	Bump    uint8
	Custody solana.PublicKey
}

// DeriveLaunchAddress вычисляет PDA launch-аккаунта: seeds = ["launch", mint].
func DeriveLaunchAddress(programID, mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(
		[][]byte{[]byte(LaunchSeed), mint.Bytes()},
		programID,
	)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive launch address: %w", err)
	}
	return addr, bump, nil
}

// DeriveCustodyAddress вычисляет ATA, в котором программа держит токены
// launch-а. Владелец ATA - сам launch PDA.
func DeriveCustodyAddress(launchAddr, mint solana.PublicKey) (solana.PublicKey, error) {
	custody, _, err := solana.FindAssociatedTokenAddress(launchAddr, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive custody address: %w", err)
	}
	return custody, nil
}

// DeriveUserTokenAccount returns the user's associated token account for mint.
func DeriveUserTokenAccount(user, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(user, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive user token account: %w", err)
	}
	return ata, nil
}

// Derive вычисляет все адреса launch-а для данного mint.
func Derive(programID, mint solana.PublicKey) (Addresses, error) {
	// Шаг 1: PDA launch-аккаунта
	launchAddr, bump, err := DeriveLaunchAddress(programID, mint)
	if err != nil {
		return Addresses{}, err
	}

	// Шаг 2: custody ATA, принадлежащий PDA
	custody, err := DeriveCustodyAddress(launchAddr, mint)
	if err != nil {
		return Addresses{}, err
	}

	return Addresses{
		Mint:    mint,
		Launch:  launchAddr,
		Bump:    bump,
		Custody: custody,
	}, nil
}
