package eventlog

import (
	"encoding/base64"
	"strings"

	"github.com/gagliardetto/solana-go"
)

const (
	programPrefix     = "Program "
	programDataPrefix = "Program data: "
	invokePrefix      = "invoke ["
	successWord       = "success"
	failedPrefix      = "failed"
)

// Payload is one "Program data:" line emitted by the program.
type Payload struct {
	// Index is the position among the program's data lines in the transaction.
	Index int
	Data  []byte
	// Err is set when the line is not valid base64.
	Err error
}

// ProgramData returns the data lines written while programID was the active
// invocation. Lines logged by programs it calls, or by other top-level
// programs, are ignored.
func ProgramData(programID solana.PublicKey, logs []string) []Payload {
	target := programID.String()

	var (
		stack []string
		out   []Payload
	)
	for _, line := range logs {
		switch {
		case strings.HasPrefix(line, programDataPrefix):
			if len(stack) == 0 || stack[len(stack)-1] != target {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(line, programDataPrefix))
			out = append(out, Payload{Index: len(out), Data: data, Err: err})

		case strings.HasPrefix(line, programPrefix):
			id, rest, ok := strings.Cut(strings.TrimPrefix(line, programPrefix), " ")
			if !ok || strings.HasSuffix(id, ":") {
				// "Program log:", "Program return:"
				continue
			}
			switch {
			case strings.HasPrefix(rest, invokePrefix):
				stack = append(stack, id)
			case rest == successWord, strings.HasPrefix(rest, failedPrefix):
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
			}
		}
	}
	return out
}
