package program

import (
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/launchpad/internal/errs"
	"github.com/rovshanmuradov/launchpad/internal/launch"
)

const computeUnitLimit = 200_000

// Compute units charged per instruction. The numbers only have to look
// plausible in logs.
var computeUnits = map[launch.InstructionKind]uint64{
	launch.InstructionCreateLaunch: 48_211,
	launch.InstructionBuy:          31_907,
	launch.InstructionSell:         29_436,
}

// programLog collects log lines in the format the runtime writes them, so the
// event log reader parses local and remote history the same way.
type programLog struct {
	lines []string
}

func (l *programLog) invoke(programID solana.PublicKey, depth int) {
	l.lines = append(l.lines, fmt.Sprintf("Program %s invoke [%d]", programID, depth))
}

func (l *programLog) success(programID solana.PublicKey) {
	l.lines = append(l.lines, fmt.Sprintf("Program %s success", programID))
}

func (l *programLog) msg(format string, args ...any) {
	l.lines = append(l.lines, "Program log: "+fmt.Sprintf(format, args...))
}

func (l *programLog) consumed(programID solana.PublicKey, units uint64) {
	l.lines = append(l.lines, fmt.Sprintf("Program %s consumed %d of %d compute units", programID, units, computeUnitLimit))
}

func (l *programLog) data(payload []byte) {
	l.lines = append(l.lines, "Program data: "+base64.StdEncoding.EncodeToString(payload))
}

// cpi logs a nested call into a builtin program.
func (l *programLog) cpi(programID solana.PublicKey, instruction string) {
	l.invoke(programID, 2)
	if instruction != "" {
		l.msg("Instruction: %s", instruction)
	}
	l.success(programID)
}

// failed writes the tail of a failed instruction. Program errors with a code
// are reported the way Anchor reports them.
func (l *programLog) failed(programID solana.PublicKey, kind launch.InstructionKind, err error) {
	code, ok := launch.CodeForKind(errs.KindOf(err))
	if ok {
		l.msg("AnchorError occurred. Error Code: %s. Error Number: %d. Error Message: %v.", code, uint32(code), err)
		l.consumed(programID, computeUnits[kind]/2)
		l.lines = append(l.lines, fmt.Sprintf("Program %s failed: custom program error: %s", programID, code.Hex()))
		return
	}
	l.msg("Error: %v", err)
	l.lines = append(l.lines, fmt.Sprintf("Program %s failed: %v", programID, err))
}

func instructionName(kind launch.InstructionKind) string {
	switch kind {
	case launch.InstructionCreateLaunch:
		return "CreateLaunch"
	case launch.InstructionBuy:
		return "Buy"
	case launch.InstructionSell:
		return "Sell"
	default:
		return "Unknown"
	}
}

type builtinCall struct {
	program     solana.PublicKey
	instruction string
}

// builtinCalls lists the nested program calls an instruction makes.
func builtinCalls(kind launch.InstructionKind) []builtinCall {
	switch kind {
	case launch.InstructionCreateLaunch:
		return []builtinCall{
			{solana.SystemProgramID, ""},
			{solana.SPLAssociatedTokenAccountProgramID, "Create"},
			{solana.TokenProgramID, "Transfer"},
		}
	case launch.InstructionBuy:
		return []builtinCall{
			{solana.SystemProgramID, ""},
			{solana.SPLAssociatedTokenAccountProgramID, "CreateIdempotent"},
			{solana.TokenProgramID, "Transfer"},
		}
	case launch.InstructionSell:
		return []builtinCall{
			{solana.TokenProgramID, "Transfer"},
			{solana.SystemProgramID, ""},
		}
	}
	return nil
}
