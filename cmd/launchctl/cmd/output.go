package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/launchpad/internal/curve"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

func parseKey(arg string) (solana.PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(arg)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid address %q: %w", arg, err)
	}
	return pk, nil
}

// parseSOL converts a SOL amount such as "1.5" into lamports.
func parseSOL(arg string) (uint64, error) {
	d, err := decimal.NewFromString(arg)
	if err != nil || !d.IsPositive() {
		return 0, fmt.Errorf("invalid SOL amount %q", arg)
	}
	return curve.SOLToLamports(d), nil
}

// parseTokens converts a whole-token amount into base units.
func parseTokens(arg string) (uint64, error) {
	d, err := decimal.NewFromString(arg)
	if err != nil || !d.IsPositive() {
		return 0, fmt.Errorf("invalid token amount %q", arg)
	}
	return curve.TokensToBaseUnits(d), nil
}

func sol(lamports uint64) string {
	return curve.LamportsToSOL(lamports).String() + " SOL"
}

func tokens(units uint64) string {
	return curve.BaseUnitsToTokens(units).String()
}

type field struct {
	key   string
	value any
}

// printFields prints an aligned key/value block under a title.
func printFields(w io.Writer, title string, fields ...field) {
	fmt.Fprintln(w, headerStyle.Render(title))
	width := 0
	for _, f := range fields {
		width = max(width, len(f.key))
	}
	for _, f := range fields {
		fmt.Fprintf(w, "  %s %v\n", keyStyle.Render(fmt.Sprintf("%-*s", width+1, f.key+":")), f.value)
	}
}

// printTable prints rows under headers with a rounded border.
func printTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(keyStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
}
