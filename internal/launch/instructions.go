package launch

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/launchpad/internal/errs"
)

// Instruction discriminators: sha256("global:<name>")[:8].
var (
	CreateLaunchDiscriminator = bin.SighashTypeID(bin.SIGHASH_GLOBAL_NAMESPACE, "create_launch")
	BuyDiscriminator          = bin.SighashTypeID(bin.SIGHASH_GLOBAL_NAMESPACE, "buy")
	SellDiscriminator         = bin.SighashTypeID(bin.SIGHASH_GLOBAL_NAMESPACE, "sell")
)

// InstructionKind identifies one of the three program instructions.
type InstructionKind uint8

const (
	InstructionUnknown InstructionKind = iota
	InstructionCreateLaunch
	InstructionBuy
	InstructionSell
)

func (k InstructionKind) String() string {
	switch k {
	case InstructionCreateLaunch:
		return "create_launch"
	case InstructionBuy:
		return "buy"
	case InstructionSell:
		return "sell"
	default:
		return "unknown"
	}
}

// CreateLaunchArgs are the create_launch arguments.
type CreateLaunchArgs struct {
	FeeRateBps          uint16
	InitialTokenReserve uint64
}

// TradeArgs are shared by buy and sell. AmountIn is lamports for buy and token
// base units for sell; MinAmountOut is the caller's slippage floor.
type TradeArgs struct {
	AmountIn     uint64
	MinAmountOut uint64
}

// CreateLaunchAccounts lists the accounts create_launch touches.
type CreateLaunchAccounts struct {
	Creator      solana.PublicKey
	FeeAuthority solana.PublicKey
	Launch       solana.PublicKey
	Mint         solana.PublicKey
	Custody      solana.PublicKey
}

// TradeAccounts lists the accounts buy and sell touch. Creator is passed as a
// trailing writable account so the program can pay the creator fee share.
type TradeAccounts struct {
	User             solana.PublicKey
	FeeAuthority     solana.PublicKey
	Creator          solana.PublicKey
	Launch           solana.PublicKey
	Mint             solana.PublicKey
	Custody          solana.PublicKey
	UserTokenAccount solana.PublicKey
}

// NewCreateLaunchInstruction builds create_launch. Both creator and mint sign.
func NewCreateLaunchInstruction(programID solana.PublicKey, accounts CreateLaunchAccounts, args CreateLaunchArgs) solana.Instruction {
	data := encodeData(CreateLaunchDiscriminator, func(enc *bin.Encoder) error {
		if err := enc.WriteUint16(args.FeeRateBps, binary.LittleEndian); err != nil {
			return err
		}
		return enc.WriteUint64(args.InitialTokenReserve, binary.LittleEndian)
	})

	// Порядок аккаунтов должен совпадать с ожидаемым программой
	metas := solana.AccountMetaSlice{
		solana.Meta(accounts.Creator).WRITE().SIGNER(),
		solana.Meta(accounts.FeeAuthority).WRITE(),
		solana.Meta(accounts.Launch).WRITE(),
		solana.Meta(accounts.Mint).WRITE().SIGNER(),
		solana.Meta(accounts.Custody).WRITE(),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(solana.SPLAssociatedTokenAccountProgramID),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.SysVarRentPubkey),
	}
	return solana.NewInstruction(programID, metas, data)
}

// NewBuyInstruction builds buy. The user token account is derived when unset.
func NewBuyInstruction(programID solana.PublicKey, accounts TradeAccounts, args TradeArgs) (solana.Instruction, error) {
	accounts, err := withUserTokenAccount(accounts)
	if err != nil {
		return nil, err
	}
	data := encodeData(BuyDiscriminator, tradeArgsEncoder(args))

	metas := solana.AccountMetaSlice{
		solana.Meta(accounts.User).WRITE().SIGNER(),
		solana.Meta(accounts.FeeAuthority).WRITE(),
		solana.Meta(accounts.Launch).WRITE(),
		solana.Meta(accounts.Mint),
		solana.Meta(accounts.Custody).WRITE(),
		solana.Meta(accounts.UserTokenAccount).WRITE(),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(solana.SPLAssociatedTokenAccountProgramID),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.SysVarRentPubkey),
		solana.Meta(accounts.Creator).WRITE(),
	}
	return solana.NewInstruction(programID, metas, data), nil
}

// NewSellInstruction builds sell.
func NewSellInstruction(programID solana.PublicKey, accounts TradeAccounts, args TradeArgs) (solana.Instruction, error) {
	accounts, err := withUserTokenAccount(accounts)
	if err != nil {
		return nil, err
	}
	data := encodeData(SellDiscriminator, tradeArgsEncoder(args))

	metas := solana.AccountMetaSlice{
		solana.Meta(accounts.User).WRITE().SIGNER(),
		solana.Meta(accounts.FeeAuthority).WRITE(),
		solana.Meta(accounts.Launch).WRITE(),
		solana.Meta(accounts.Mint),
		solana.Meta(accounts.Custody).WRITE(),
		solana.Meta(accounts.UserTokenAccount).WRITE(),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(accounts.Creator).WRITE(),
	}
	return solana.NewInstruction(programID, metas, data), nil
}

// ParsedInstruction is a decoded program instruction.
type ParsedInstruction struct {
	Kind   InstructionKind
	Create CreateLaunchArgs
	Trade  TradeArgs

	// Only the field matching Kind is populated.
	CreateAccounts CreateLaunchAccounts
	TradeAccounts  TradeAccounts
}

// ParseInstruction decodes an instruction addressed to programID.
func ParseInstruction(programID solana.PublicKey, ix solana.Instruction) (*ParsedInstruction, error) {
	const op = "launch.ParseInstruction"

	if !ix.ProgramID().Equals(programID) {
		return nil, errs.Errorf(op, errs.KindInvalidInstruction, "instruction for foreign program %s", ix.ProgramID())
	}
	data, err := ix.Data()
	if err != nil {
		return nil, fmt.Errorf("%s: read data: %w", op, err)
	}
	keys := ix.Accounts()

	dec := bin.NewBorshDecoder(data)
	disc, err := dec.ReadDiscriminator()
	if err != nil {
		return nil, errs.E(op, errs.KindInvalidInstruction, fmt.Errorf("read discriminator: %w", err))
	}

	var parsed ParsedInstruction
	switch disc {
	case CreateLaunchDiscriminator:
		parsed.Kind = InstructionCreateLaunch
		if parsed.Create.FeeRateBps, err = dec.ReadUint16(binary.LittleEndian); err != nil {
			return nil, errs.E(op, errs.KindInvalidInstruction, err)
		}
		if parsed.Create.InitialTokenReserve, err = dec.ReadUint64(binary.LittleEndian); err != nil {
			return nil, errs.E(op, errs.KindInvalidInstruction, err)
		}
		if len(keys) < 5 {
			return nil, errs.Errorf(op, errs.KindInvalidInstruction, "create_launch needs 5 accounts, got %d", len(keys))
		}
		parsed.CreateAccounts = CreateLaunchAccounts{
			Creator:      keys[0].PublicKey,
			FeeAuthority: keys[1].PublicKey,
			Launch:       keys[2].PublicKey,
			Mint:         keys[3].PublicKey,
			Custody:      keys[4].PublicKey,
		}
	case BuyDiscriminator, SellDiscriminator:
		parsed.Kind = InstructionBuy
		if disc == SellDiscriminator {
			parsed.Kind = InstructionSell
		}
		if parsed.Trade.AmountIn, err = dec.ReadUint64(binary.LittleEndian); err != nil {
			return nil, errs.E(op, errs.KindInvalidInstruction, err)
		}
		if parsed.Trade.MinAmountOut, err = dec.ReadUint64(binary.LittleEndian); err != nil {
			return nil, errs.E(op, errs.KindInvalidInstruction, err)
		}
		if len(keys) < 6 {
			return nil, errs.Errorf(op, errs.KindInvalidInstruction, "%s needs 6 accounts, got %d", parsed.Kind, len(keys))
		}
		parsed.TradeAccounts = TradeAccounts{
			User:             keys[0].PublicKey,
			FeeAuthority:     keys[1].PublicKey,
			Launch:           keys[2].PublicKey,
			Mint:             keys[3].PublicKey,
			Custody:          keys[4].PublicKey,
			UserTokenAccount: keys[5].PublicKey,
		}
		// creator is the trailing remaining account when present
		fixed := 10
		if parsed.Kind == InstructionSell {
			fixed = 8
		}
		if len(keys) > fixed {
			parsed.TradeAccounts.Creator = keys[fixed].PublicKey
		}
	default:
		return nil, errs.Errorf(op, errs.KindInvalidInstruction, "unknown instruction discriminator %x", disc[:])
	}
	return &parsed, nil
}

func withUserTokenAccount(accounts TradeAccounts) (TradeAccounts, error) {
	if !accounts.UserTokenAccount.IsZero() {
		return accounts, nil
	}
	ata, err := DeriveUserTokenAccount(accounts.User, accounts.Mint)
	if err != nil {
		return accounts, err
	}
	accounts.UserTokenAccount = ata
	return accounts, nil
}

func tradeArgsEncoder(args TradeArgs) func(*bin.Encoder) error {
	return func(enc *bin.Encoder) error {
		if err := enc.WriteUint64(args.AmountIn, binary.LittleEndian); err != nil {
			return err
		}
		return enc.WriteUint64(args.MinAmountOut, binary.LittleEndian)
	}
}

// encodeData writes the discriminator followed by the borsh arguments. Writes
// into a bytes.Buffer cannot fail.
func encodeData(disc bin.TypeID, body func(*bin.Encoder) error) []byte {
	buf := new(bytes.Buffer)
	buf.Write(disc[:])
	_ = body(bin.NewBorshEncoder(buf))
	return buf.Bytes()
}
