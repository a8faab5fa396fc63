package launch

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/launchpad/internal/errs"
)

const eventNamespace = "event"

// Event discriminators: sha256("event:<Name>")[:8].
var (
	CreatedDiscriminator = bin.SighashTypeID(eventNamespace, "LaunchCreated")
	BoughtDiscriminator  = bin.SighashTypeID(eventNamespace, "Bought")
	SoldDiscriminator    = bin.SighashTypeID(eventNamespace, "Sold")
)

// EventKind is the kind of a program event.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventBought  EventKind = "bought"
	EventSold    EventKind = "sold"
)

// Event is one of *Created, *Bought, *Sold.
type Event interface {
	Kind() EventKind
	LaunchAddress() solana.PublicKey
	// Reserves returns the real reserves recorded after the operation.
	Reserves() (solReserve, tokenReserve uint64)
	// IsGraduated returns the graduation flag recorded after the operation.
	IsGraduated() bool

	discriminator() bin.TypeID
	bin.EncoderDecoder
}

// Created is emitted once by create_launch.
type Created struct {
	Launch       solana.PublicKey
	Mint         solana.PublicKey
	Custody      solana.PublicKey
	Creator      solana.PublicKey
	FeeAuthority solana.PublicKey
	FeeRateBps   uint16
	TokenReserve uint64
	SolReserve   uint64
}

// Bought is emitted by every buy.
type Bought struct {
	Launch       solana.PublicKey
	User         solana.PublicKey
	SolIn        uint64
	FeeLamports  uint64
	TokensOut    uint64
	SolReserve   uint64
	TokenReserve uint64
	Graduated    bool
}

// Sold is emitted by every sell.
type Sold struct {
	Launch       solana.PublicKey
	User         solana.PublicKey
	TokensIn     uint64
	SolOutGross  uint64
	FeeLamports  uint64
	SolOutNet    uint64
	SolReserve   uint64
	TokenReserve uint64
	Graduated    bool
}

var (
	_ Event = (*Created)(nil)
	_ Event = (*Bought)(nil)
	_ Event = (*Sold)(nil)
)

func (e *Created) Kind() EventKind                 { return EventCreated }
func (e *Created) LaunchAddress() solana.PublicKey { return e.Launch }
func (e *Created) Reserves() (uint64, uint64)      { return e.SolReserve, e.TokenReserve }
func (e *Created) IsGraduated() bool               { return false }
func (e *Created) discriminator() bin.TypeID       { return CreatedDiscriminator }

func (e *Bought) Kind() EventKind                 { return EventBought }
func (e *Bought) LaunchAddress() solana.PublicKey { return e.Launch }
func (e *Bought) Reserves() (uint64, uint64)      { return e.SolReserve, e.TokenReserve }
func (e *Bought) IsGraduated() bool               { return e.Graduated }
func (e *Bought) discriminator() bin.TypeID       { return BoughtDiscriminator }

func (e *Sold) Kind() EventKind                 { return EventSold }
func (e *Sold) LaunchAddress() solana.PublicKey { return e.Launch }
func (e *Sold) Reserves() (uint64, uint64)      { return e.SolReserve, e.TokenReserve }
func (e *Sold) IsGraduated() bool               { return e.Graduated }
func (e *Sold) discriminator() bin.TypeID       { return SoldDiscriminator }

func (e *Created) MarshalWithEncoder(enc *bin.Encoder) error {
	w := fieldWriter{enc: enc}
	w.keys(e.Launch, e.Mint, e.Custody, e.Creator, e.FeeAuthority)
	w.u16(e.FeeRateBps)
	w.u64s(e.TokenReserve, e.SolReserve)
	return w.err
}

func (e *Created) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := fieldReader{dec: dec}
	r.keys(&e.Launch, &e.Mint, &e.Custody, &e.Creator, &e.FeeAuthority)
	r.u16(&e.FeeRateBps)
	r.u64s(&e.TokenReserve, &e.SolReserve)
	return r.err
}

func (e *Bought) MarshalWithEncoder(enc *bin.Encoder) error {
	w := fieldWriter{enc: enc}
	w.keys(e.Launch, e.User)
	w.u64s(e.SolIn, e.FeeLamports, e.TokensOut, e.SolReserve, e.TokenReserve)
	w.flag(e.Graduated)
	return w.err
}

func (e *Bought) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := fieldReader{dec: dec}
	r.keys(&e.Launch, &e.User)
	r.u64s(&e.SolIn, &e.FeeLamports, &e.TokensOut, &e.SolReserve, &e.TokenReserve)
	r.flag(&e.Graduated)
	return r.err
}

func (e *Sold) MarshalWithEncoder(enc *bin.Encoder) error {
	w := fieldWriter{enc: enc}
	w.keys(e.Launch, e.User)
	w.u64s(e.TokensIn, e.SolOutGross, e.FeeLamports, e.SolOutNet, e.SolReserve, e.TokenReserve)
	w.flag(e.Graduated)
	return w.err
}

func (e *Sold) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := fieldReader{dec: dec}
	r.keys(&e.Launch, &e.User)
	r.u64s(&e.TokensIn, &e.SolOutGross, &e.FeeLamports, &e.SolOutNet, &e.SolReserve, &e.TokenReserve)
	r.flag(&e.Graduated)
	return r.err
}

// EncodeEvent serializes ev as the program emits it: discriminator then body.
func EncodeEvent(ev Event) ([]byte, error) {
	disc := ev.discriminator()
	buf := new(bytes.Buffer)
	buf.Write(disc[:])
	if err := ev.MarshalWithEncoder(bin.NewBorshEncoder(buf)); err != nil {
		return nil, fmt.Errorf("encode %s event: %w", ev.Kind(), err)
	}
	return buf.Bytes(), nil
}

// DecodeEvent dispatches on the 8-byte discriminator. Unknown discriminators,
// short bodies and trailing bytes fail with MalformedEvent.
func DecodeEvent(data []byte) (Event, error) {
	const op = "launch.DecodeEvent"

	dec := bin.NewBorshDecoder(data)
	disc, err := dec.ReadDiscriminator()
	if err != nil {
		return nil, errs.E(op, errs.KindMalformedEvent, err)
	}

	var ev Event
	switch disc {
	case CreatedDiscriminator:
		ev = new(Created)
	case BoughtDiscriminator:
		ev = new(Bought)
	case SoldDiscriminator:
		ev = new(Sold)
	default:
		return nil, errs.Errorf(op, errs.KindMalformedEvent, "unknown event discriminator %x", disc[:])
	}

	if err := ev.UnmarshalWithDecoder(dec); err != nil {
		return nil, errs.E(op, errs.KindMalformedEvent, fmt.Errorf("decode %s: %w", ev.Kind(), err))
	}
	if rest := dec.Remaining(); rest != 0 {
		return nil, errs.Errorf(op, errs.KindMalformedEvent, "%d trailing bytes after %s", rest, ev.Kind())
	}
	return ev, nil
}

// fieldWriter and fieldReader keep the first error so field lists read flat.
type fieldWriter struct {
	enc *bin.Encoder
	err error
}

func (w *fieldWriter) keys(keys ...solana.PublicKey) {
	for _, k := range keys {
		if w.err == nil {
			w.err = writeKey(w.enc, k)
		}
	}
}

func (w *fieldWriter) u16(v uint16) {
	if w.err == nil {
		w.err = w.enc.WriteUint16(v, binary.LittleEndian)
	}
}

func (w *fieldWriter) u64s(vs ...uint64) {
	for _, v := range vs {
		if w.err == nil {
			w.err = w.enc.WriteUint64(v, binary.LittleEndian)
		}
	}
}

func (w *fieldWriter) flag(v bool) {
	if w.err == nil {
		w.err = w.enc.WriteBool(v)
	}
}

type fieldReader struct {
	dec *bin.Decoder
	err error
}

func (r *fieldReader) keys(keys ...*solana.PublicKey) {
	for _, k := range keys {
		if r.err == nil {
			*k, r.err = readKey(r.dec)
		}
	}
}

func (r *fieldReader) u16(v *uint16) {
	if r.err == nil {
		*v, r.err = r.dec.ReadUint16(binary.LittleEndian)
	}
}

func (r *fieldReader) u64s(vs ...*uint64) {
	for _, v := range vs {
		if r.err == nil {
			*v, r.err = r.dec.ReadUint64(binary.LittleEndian)
		}
	}
}

func (r *fieldReader) flag(v *bool) {
	if r.err == nil {
		*v, r.err = r.dec.ReadBool()
	}
}
