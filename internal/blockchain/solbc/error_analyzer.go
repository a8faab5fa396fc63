package solbc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// AnchorError represents an error from Anchor framework
type AnchorError struct {
	Number int
	Name   string
	Msg    string
}

// SendError is a rejected submission together with the program logs the
// node returned from preflight.
type SendError struct {
	Err    error
	Logs   []string
	Anchor *AnchorError
}

func (e *SendError) Error() string {
	msg := e.Err.Error()
	if e.Anchor != nil && !strings.Contains(msg, "custom program error") {
		msg = fmt.Sprintf("%s: custom program error: 0x%x", msg, e.Anchor.Number)
	}
	if e.Anchor != nil {
		msg = fmt.Sprintf("%s (%s: %s)", msg, e.Anchor.Name, e.Anchor.Msg)
	}
	return msg
}

func (e *SendError) Unwrap() error { return e.Err }

// AnalyzeSendError extracts preflight logs and the Anchor error from a
// jsonrpc.RPCError. Other errors are returned unchanged.
func AnalyzeSendError(err error) error {
	var rpcErr *jsonrpc.RPCError
	if !errors.As(err, &rpcErr) {
		return err
	}
	data, ok := rpcErr.Data.(map[string]interface{})
	if !ok {
		return err
	}
	raw, _ := data["logs"].([]interface{})
	if len(raw) == 0 {
		return err
	}

	out := &SendError{Err: err}
	for _, entry := range raw {
		line, ok := entry.(string)
		if !ok {
			continue
		}
		out.Logs = append(out.Logs, line)
		if out.Anchor == nil && strings.Contains(line, "AnchorError occurred") {
			a := ParseAnchorErrorLog(line)
			out.Anchor = &a
		}
	}
	return out
}

// invalidParams is the JSON-RPC code a node answers with when, among other
// things, a queried account does not exist.
const invalidParams = -32602

// accountMissing reports whether the node rejected a read because the
// account is not on the ledger.
func accountMissing(err error) bool {
	var rpcErr *jsonrpc.RPCError
	if !errors.As(err, &rpcErr) || rpcErr.Code != invalidParams {
		return false
	}
	return strings.Contains(rpcErr.Message, "could not find account")
}

// ParseAnchorErrorLog parses an Anchor error log string
// Example: "Program log: AnchorError occurred. Error Code: SlippageExceeded. Error Number: 6002. Error Message: slippage exceeded."
func ParseAnchorErrorLog(line string) AnchorError {
	var res AnchorError
	if _, rest, ok := strings.Cut(line, "Error Code:"); ok {
		res.Name = strings.TrimSpace(strings.SplitN(rest, ".", 2)[0])
	}
	if _, rest, ok := strings.Cut(line, "Error Number:"); ok {
		res.Number, _ = strconv.Atoi(strings.TrimSpace(strings.SplitN(rest, ".", 2)[0]))
	}
	if _, rest, ok := strings.Cut(line, "Error Message:"); ok {
		res.Msg = strings.TrimSuffix(strings.TrimSpace(rest), ".")
	}
	return res
}

// txErrString renders a transaction error from a JSON response. Custom
// program errors are written the way the runtime prints them so callers can
// classify them by code.
func txErrString(v interface{}) string {
	if v == nil {
		return ""
	}
	if m, ok := v.(map[string]interface{}); ok {
		if ie, ok := m["InstructionError"].([]interface{}); ok && len(ie) == 2 {
			idx := fmt.Sprint(ie[0])
			if inner, ok := ie[1].(map[string]interface{}); ok {
				if code, ok := inner["Custom"]; ok {
					if n, err := strconv.ParseUint(fmt.Sprint(code), 10, 32); err == nil {
						return fmt.Sprintf("Error processing Instruction %s: custom program error: 0x%x", idx, n)
					}
				}
			}
			return fmt.Sprintf("Error processing Instruction %s: %v", idx, ie[1])
		}
	}
	return fmt.Sprint(v)
}
