package launch

import (
	"crypto/sha256"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/launchpad/internal/errs"
)

func newKey(t *testing.T) solana.PublicKey {
	t.Helper()
	k, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return k.PublicKey()
}

func sighash(s string) []byte {
	sum := sha256.Sum256([]byte(s))
	return sum[:8]
}

func TestDiscriminators(t *testing.T) {
	assert.Equal(t, sighash("global:create_launch"), CreateLaunchDiscriminator[:])
	assert.Equal(t, sighash("global:buy"), BuyDiscriminator[:])
	assert.Equal(t, sighash("global:sell"), SellDiscriminator[:])
	assert.Equal(t, sighash("account:Launch"), AccountDiscriminator[:])
	assert.Equal(t, sighash("event:LaunchCreated"), CreatedDiscriminator[:])
	assert.Equal(t, sighash("event:Bought"), BoughtDiscriminator[:])
	assert.Equal(t, sighash("event:Sold"), SoldDiscriminator[:])
}

func TestDerive(t *testing.T) {
	mint := newKey(t)

	addrs, err := Derive(DefaultProgramID, mint)
	require.NoError(t, err)

	wantLaunch, wantBump, err := solana.FindProgramAddress([][]byte{[]byte("launch"), mint.Bytes()}, DefaultProgramID)
	require.NoError(t, err)
	assert.Equal(t, wantLaunch, addrs.Launch)
	assert.Equal(t, wantBump, addrs.Bump)

	wantCustody, _, err := solana.FindAssociatedTokenAddress(wantLaunch, mint)
	require.NoError(t, err)
	assert.Equal(t, wantCustody, addrs.Custody)

	again, err := Derive(DefaultProgramID, mint)
	require.NoError(t, err)
	assert.Equal(t, addrs, again)

	other, err := Derive(DefaultProgramID, newKey(t))
	require.NoError(t, err)
	assert.NotEqual(t, addrs.Launch, other.Launch)
}

func TestStateLayout(t *testing.T) {
	s := State{
		Bump:         254,
		Mint:         newKey(t),
		Custody:      newKey(t),
		FeeAuthority: newKey(t),
		Creator:      newKey(t),
		FeeRateBps:   200,
		Graduated:    true,
		SolReserve:   98_000_000,
		TokenReserve: 10_101_010_101_011,
	}

	data, err := s.Encode()
	require.NoError(t, err)
	require.Len(t, data, StateSize)
	assert.Equal(t, 156, StateSize)

	// field offsets after the discriminator
	assert.Equal(t, byte(254), data[8])
	assert.Equal(t, s.Mint.Bytes(), data[9:41])
	assert.Equal(t, s.Creator.Bytes(), data[105:137])
	assert.Equal(t, []byte{200, 0}, data[137:139])
	assert.Equal(t, byte(1), data[139])

	got, err := DecodeState(data)
	require.NoError(t, err)
	assert.Equal(t, s, *got)
}

func TestDecodeStateRejects(t *testing.T) {
	data, err := State{Mint: newKey(t)}.Encode()
	require.NoError(t, err)

	t.Run("short", func(t *testing.T) {
		_, err := DecodeState(data[:40])
		assert.True(t, errs.Is(err, errs.KindNotFound))
	})

	t.Run("foreign account", func(t *testing.T) {
		foreign := append([]byte(nil), data...)
		foreign[0] ^= 0xff
		_, err := DecodeState(foreign)
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})
}

func TestBuildAndParseInstructions(t *testing.T) {
	mint := newKey(t)
	addrs, err := Derive(DefaultProgramID, mint)
	require.NoError(t, err)

	creator, authority, user := newKey(t), newKey(t), newKey(t)

	t.Run("create_launch", func(t *testing.T) {
		ix := NewCreateLaunchInstruction(DefaultProgramID, CreateLaunchAccounts{
			Creator:      creator,
			FeeAuthority: authority,
			Launch:       addrs.Launch,
			Mint:         mint,
			Custody:      addrs.Custody,
		}, CreateLaunchArgs{FeeRateBps: 200, InitialTokenReserve: 1_000_000_000_000_000})

		data, err := ix.Data()
		require.NoError(t, err)
		assert.Len(t, data, 8+2+8)

		metas := ix.Accounts()
		require.Len(t, metas, 9)
		assert.True(t, metas[0].IsSigner && metas[0].IsWritable)
		assert.True(t, metas[3].IsSigner && metas[3].IsWritable)
		assert.False(t, metas[1].IsSigner)

		parsed, err := ParseInstruction(DefaultProgramID, ix)
		require.NoError(t, err)
		assert.Equal(t, InstructionCreateLaunch, parsed.Kind)
		assert.Equal(t, uint16(200), parsed.Create.FeeRateBps)
		assert.Equal(t, uint64(1_000_000_000_000_000), parsed.Create.InitialTokenReserve)
		assert.Equal(t, addrs.Custody, parsed.CreateAccounts.Custody)
	})

	accounts := TradeAccounts{
		User:         user,
		FeeAuthority: authority,
		Creator:      creator,
		Launch:       addrs.Launch,
		Mint:         mint,
		Custody:      addrs.Custody,
	}
	ata, err := DeriveUserTokenAccount(user, mint)
	require.NoError(t, err)

	tests := []struct {
		name  string
		build func(solana.PublicKey, TradeAccounts, TradeArgs) (solana.Instruction, error)
		kind  InstructionKind
		metas int
	}{
		{"buy", NewBuyInstruction, InstructionBuy, 11},
		{"sell", NewSellInstruction, InstructionSell, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix, err := tt.build(DefaultProgramID, accounts, TradeArgs{AmountIn: 100_000_000, MinAmountOut: 42})
			require.NoError(t, err)
			require.Len(t, ix.Accounts(), tt.metas)

			parsed, err := ParseInstruction(DefaultProgramID, ix)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, parsed.Kind)
			assert.Equal(t, TradeArgs{AmountIn: 100_000_000, MinAmountOut: 42}, parsed.Trade)
			assert.Equal(t, ata, parsed.TradeAccounts.UserTokenAccount)
			assert.Equal(t, creator, parsed.TradeAccounts.Creator)
			assert.Equal(t, user, parsed.TradeAccounts.User)
		})
	}

	t.Run("foreign program", func(t *testing.T) {
		ix := solana.NewInstruction(solana.SystemProgramID, nil, []byte{1, 2, 3})
		_, err := ParseInstruction(DefaultProgramID, ix)
		assert.ErrorIs(t, err, errs.ErrInvalidInstruction)
	})

	t.Run("malformed", func(t *testing.T) {
		cases := map[string][]byte{
			"short discriminator": {1, 2, 3},
			"unknown":             make([]byte, 24),
			"truncated args":      BuyDiscriminator[:],
		}
		for name, data := range cases {
			ix := solana.NewInstruction(DefaultProgramID, nil, data)
			_, err := ParseInstruction(DefaultProgramID, ix)
			assert.Equal(t, errs.KindInvalidInstruction, errs.KindOf(err), name)
		}

		ix, err := NewBuyInstruction(DefaultProgramID, accounts, TradeArgs{AmountIn: 1})
		require.NoError(t, err)
		data, err := ix.Data()
		require.NoError(t, err)
		few := solana.NewInstruction(DefaultProgramID, ix.Accounts()[:3], data)
		_, err = ParseInstruction(DefaultProgramID, few)
		assert.ErrorIs(t, err, errs.ErrInvalidInstruction)
	})
}

func TestEvents(t *testing.T) {
	launchAddr, user := newKey(t), newKey(t)

	bought := &Bought{
		Launch:       launchAddr,
		User:         user,
		SolIn:        100_000_000,
		FeeLamports:  2_000_000,
		TokensOut:    989_898_989_898_989,
		SolReserve:   98_000_000,
		TokenReserve: 10_101_010_101_011,
		Graduated:    false,
	}
	data, err := EncodeEvent(bought)
	require.NoError(t, err)
	assert.Len(t, data, 8+32*2+8*5+1)

	ev, err := DecodeEvent(data)
	require.NoError(t, err)
	require.Equal(t, EventBought, ev.Kind())
	assert.Equal(t, bought, ev.(*Bought))
	sol, tok := ev.Reserves()
	assert.Equal(t, uint64(98_000_000), sol)
	assert.Equal(t, uint64(10_101_010_101_011), tok)

	sold := &Sold{Launch: launchAddr, User: user, TokensIn: 5, SolOutGross: 10, FeeLamports: 1, SolOutNet: 9, Graduated: true}
	data, err = EncodeEvent(sold)
	require.NoError(t, err)
	ev, err = DecodeEvent(data)
	require.NoError(t, err)
	assert.True(t, ev.IsGraduated())
	assert.Equal(t, launchAddr, ev.LaunchAddress())

	t.Run("malformed", func(t *testing.T) {
		cases := map[string][]byte{
			"empty":          nil,
			"unknown kind":   append(sighash("event:Swapped"), make([]byte, 64)...),
			"truncated body": data[:len(data)-3],
			"trailing bytes": append(append([]byte(nil), data...), 0),
		}
		for name, raw := range cases {
			_, err := DecodeEvent(raw)
			assert.True(t, errs.Is(err, errs.KindMalformedEvent), "%s: %v", name, err)
		}
	})
}

func TestClassifyLedgerError(t *testing.T) {
	tests := []struct {
		msg  string
		want errs.Kind
	}{
		{"Transaction simulation failed: Error processing Instruction 0: custom program error: 0x1772", errs.KindSlippageExceeded},
		{"custom program error: 0x1778", errs.KindLaunchGraduated},
		{"custom program error: 0x1770", errs.KindInvalidFeeRate},
		{"custom program error: 0x1776", errs.KindInvalidAmount},
		{"custom program error: 0x1774", errs.KindInvalidAccount},
		{"custom program error: 0x1775", errs.KindInvalidAccount},
		{"custom program error: 0xbc4", errs.KindNotFound},
		{"Allocate: account Address { address: abc } already in use", errs.KindAlreadyExists},
		{"Transfer: insufficient lamports 10, need 20", errs.KindInsufficientBalance},
		{"custom program error: 0x1", errs.KindUnknown},
		{"blockhash not found", errs.KindUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyLedgerError(tt.msg), tt.msg)
	}

	code, ok := CodeForKind(errs.KindSlippageExceeded)
	require.True(t, ok)
	assert.Equal(t, "0x1772", code.Hex())

	for _, kind := range []errs.Kind{errs.KindInvalidAccount, errs.KindNotFound, errs.KindInvalidAmount} {
		code, ok := CodeForKind(kind)
		require.True(t, ok, kind)
		assert.Equal(t, kind, code.Kind(), "code %s", code)
	}
	_, ok = CodeForKind(errs.KindInvalidInstruction)
	assert.False(t, ok)
}
