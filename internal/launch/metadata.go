package launch

import (
	"strings"

	"github.com/rovshanmuradov/launchpad/internal/errs"
)

// Metaplex field limits.
const (
	MaxNameLength   = 32
	MaxSymbolLength = 10
	MaxURILength    = 200
)

// TokenMetadata is the human-readable identity issued once per mint.
type TokenMetadata struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	URI    string `json:"uri"`
}

// Validate checks field presence and length.
func (m TokenMetadata) Validate() error {
	const op = "launch.TokenMetadata"
	switch {
	case strings.TrimSpace(m.Name) == "":
		return errs.Errorf(op, errs.KindInvalidAmount, "name is required")
	case strings.TrimSpace(m.Symbol) == "":
		return errs.Errorf(op, errs.KindInvalidAmount, "symbol is required")
	case len(m.Name) > MaxNameLength:
		return errs.Errorf(op, errs.KindInvalidAmount, "name longer than %d bytes", MaxNameLength)
	case len(m.Symbol) > MaxSymbolLength:
		return errs.Errorf(op, errs.KindInvalidAmount, "symbol longer than %d bytes", MaxSymbolLength)
	case len(m.URI) > MaxURILength:
		return errs.Errorf(op, errs.KindInvalidAmount, "uri longer than %d bytes", MaxURILength)
	}
	return nil
}
