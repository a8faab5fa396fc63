package launch

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/launchpad/internal/errs"
)

// AccountDiscriminator prefixes every Launch account.
var AccountDiscriminator = bin.SighashTypeID(bin.SIGHASH_ACCOUNT_NAMESPACE, "Launch")

// StateSize is the serialized size of a Launch account including the
// discriminator.
const StateSize = bin.ACCOUNT_DISCRIMINATOR_SIZE + 1 + 4*32 + 2 + 1 + 8 + 8

// State is the Launch account. Reserves are real balances; virtual reserves
// are protocol constants and never stored here.
type State struct {
	Bump         uint8
	Mint         solana.PublicKey
	Custody      solana.PublicKey
	FeeAuthority solana.PublicKey
	Creator      solana.PublicKey
	FeeRateBps   uint16
	Graduated    bool
	SolReserve   uint64
	TokenReserve uint64
}

func (s State) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteUint8(s.Bump); err != nil {
		return err
	}
	for _, key := range []solana.PublicKey{s.Mint, s.Custody, s.FeeAuthority, s.Creator} {
		if err := writeKey(enc, key); err != nil {
			return err
		}
	}
	if err := enc.WriteUint16(s.FeeRateBps, binary.LittleEndian); err != nil {
		return err
	}
	if err := enc.WriteBool(s.Graduated); err != nil {
		return err
	}
	if err := enc.WriteUint64(s.SolReserve, binary.LittleEndian); err != nil {
		return err
	}
	return enc.WriteUint64(s.TokenReserve, binary.LittleEndian)
}

func (s *State) UnmarshalWithDecoder(dec *bin.Decoder) (err error) {
	if s.Bump, err = dec.ReadUint8(); err != nil {
		return err
	}
	for _, key := range []*solana.PublicKey{&s.Mint, &s.Custody, &s.FeeAuthority, &s.Creator} {
		if *key, err = readKey(dec); err != nil {
			return err
		}
	}
	if s.FeeRateBps, err = dec.ReadUint16(binary.LittleEndian); err != nil {
		return err
	}
	if s.Graduated, err = dec.ReadBool(); err != nil {
		return err
	}
	if s.SolReserve, err = dec.ReadUint64(binary.LittleEndian); err != nil {
		return err
	}
	s.TokenReserve, err = dec.ReadUint64(binary.LittleEndian)
	return err
}

// Encode serializes the account with its discriminator.
func (s State) Encode() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Grow(StateSize)
	buf.Write(AccountDiscriminator[:])
	if err := s.MarshalWithEncoder(bin.NewBorshEncoder(buf)); err != nil {
		return nil, fmt.Errorf("encode launch state: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeState parses raw Launch account data. Data that does not carry the
// Launch discriminator is reported as NotFound: there is no launch there.
func DecodeState(data []byte) (*State, error) {
	const op = "launch.DecodeState"

	if len(data) < StateSize {
		return nil, errs.Errorf(op, errs.KindNotFound, "account data too short: %d bytes", len(data))
	}
	dec := bin.NewBorshDecoder(data)
	disc, err := dec.ReadDiscriminator()
	if err != nil {
		return nil, errs.E(op, errs.KindNotFound, err)
	}
	if disc != AccountDiscriminator {
		return nil, errs.Errorf(op, errs.KindNotFound, "not a launch account")
	}

	var s State
	if err := s.UnmarshalWithDecoder(dec); err != nil {
		return nil, errs.E(op, errs.KindNotFound, fmt.Errorf("decode launch state: %w", err))
	}
	return &s, nil
}

// Active reports whether the launch still trades on the curve.
func (s *State) Active() bool {
	return !s.Graduated
}

func readKey(dec *bin.Decoder) (solana.PublicKey, error) {
	b, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(b), nil
}

func writeKey(enc *bin.Encoder, key solana.PublicKey) error {
	return enc.WriteBytes(key[:], false)
}
