package launch

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rovshanmuradov/launchpad/internal/errs"
)

// ErrorCode is a custom program error code. Anchor numbers user errors from
// 6000.
type ErrorCode uint32

// CodeAccountNotInitialized is the Anchor framework code for an account that
// was never created, which is how a trade against a missing launch fails.
const CodeAccountNotInitialized ErrorCode = 3012

const (
	CodeFeeTooHigh ErrorCode = 6000 + iota
	CodeMathOverflow
	CodeSlippageExceeded
	CodeInsufficientLiquidity
	CodeBadMint
	CodeBadVault
	CodeZeroAmount
	CodeTooSmall
	CodeAlreadyGraduated
)

var codeKinds = map[ErrorCode]errs.Kind{
	CodeFeeTooHigh:            errs.KindInvalidFeeRate,
	CodeMathOverflow:          errs.KindArithmeticOverflow,
	CodeSlippageExceeded:      errs.KindSlippageExceeded,
	CodeInsufficientLiquidity: errs.KindInsufficientOutput,
	CodeBadMint:               errs.KindInvalidAccount,
	CodeBadVault:              errs.KindInvalidAccount,
	CodeZeroAmount:            errs.KindInvalidAmount,
	CodeTooSmall:              errs.KindInsufficientOutput,
	CodeAlreadyGraduated:      errs.KindLaunchGraduated,
	CodeAccountNotInitialized: errs.KindNotFound,
}

var codeNames = map[ErrorCode]string{
	CodeFeeTooHigh:            "FeeTooHigh",
	CodeMathOverflow:          "MathOverflow",
	CodeSlippageExceeded:      "SlippageExceeded",
	CodeInsufficientLiquidity: "InsufficientLiquidity",
	CodeBadMint:               "BadMint",
	CodeBadVault:              "BadVault",
	CodeZeroAmount:            "ZeroAmount",
	CodeTooSmall:              "TooSmall",
	CodeAlreadyGraduated:      "AlreadyGraduated",
	CodeAccountNotInitialized: "AccountNotInitialized",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Code%d", uint32(c))
}

// CodeForKind returns the program error code a kind is reported with.
func CodeForKind(kind errs.Kind) (ErrorCode, bool) {
	switch kind {
	case errs.KindInvalidFeeRate:
		return CodeFeeTooHigh, true
	case errs.KindArithmeticOverflow:
		return CodeMathOverflow, true
	case errs.KindSlippageExceeded:
		return CodeSlippageExceeded, true
	case errs.KindInsufficientOutput:
		return CodeInsufficientLiquidity, true
	case errs.KindNotFound:
		return CodeAccountNotInitialized, true
	case errs.KindInvalidAccount:
		return CodeBadMint, true
	case errs.KindInvalidAmount:
		return CodeZeroAmount, true
	case errs.KindLaunchGraduated:
		return CodeAlreadyGraduated, true
	}
	return 0, false
}

// Kind maps the code back to its error kind.
func (c ErrorCode) Kind() errs.Kind {
	return codeKinds[c]
}

func (c ErrorCode) Hex() string {
	return fmt.Sprintf("0x%x", uint32(c))
}

var customErrorRe = regexp.MustCompile(`custom program error: (0x[0-9a-fA-F]+)`)

// ClassifyLedgerError extracts the error kind from a ledger failure message:
// custom program errors, account-in-use on create and underfunded payers.
// Unrecognised failures report KindUnknown.
func ClassifyLedgerError(msg string) errs.Kind {
	if m := customErrorRe.FindStringSubmatch(msg); m != nil {
		if code, err := strconv.ParseUint(strings.TrimPrefix(m[1], "0x"), 16, 32); err == nil {
			if kind := ErrorCode(code).Kind(); kind != errs.KindUnknown {
				return kind
			}
		}
	}

	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "already in use"):
		return errs.KindAlreadyExists
	case strings.Contains(lower, "insufficient funds"),
		strings.Contains(lower, "insufficient lamports"),
		strings.Contains(lower, "attempt to debit an account but found no record of a prior credit"):
		return errs.KindInsufficientBalance
	}
	return errs.KindUnknown
}
