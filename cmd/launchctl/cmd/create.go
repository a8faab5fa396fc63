package cmd

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/launchpad/internal/client"
	"github.com/rovshanmuradov/launchpad/internal/launch"
	"github.com/rovshanmuradov/launchpad/internal/wallet"
)

// DefaultSupply is the initial token reserve in whole tokens.
const DefaultSupply = "1000000000"

var (
	tokenName    string
	tokenSymbol  string
	tokenURI     string
	feeRateBps   uint16
	supply       string
	mintKeyPath  string
	feeAuthority string

	createCmd = &cobra.Command{
		Use:   "create",
		Short: "Create a launch for a new mint",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			params, err := createParams()
			if err != nil {
				return err
			}
			res, err := application.Client.CreateLaunch(c.Context(), params, application.Mints(), application.Issuer())
			if err != nil {
				return err
			}
			printCreated(c, params, res)
			return nil
		},
	}
)

func init() {
	addCreateFlags(createCmd)
}

func addCreateFlags(c *cobra.Command) {
	flags := c.Flags()
	flags.StringVar(&tokenName, "name", "", "token name")
	flags.StringVar(&tokenSymbol, "symbol", "", "token symbol")
	flags.StringVar(&tokenURI, "uri", "", "token metadata URI")
	flags.Uint16Var(&feeRateBps, "fee-bps", 100, "trade fee in basis points")
	flags.StringVar(&supply, "supply", DefaultSupply, "initial token reserve in whole tokens")
	flags.StringVar(&mintKeyPath, "mint-key", "", "keypair of an existing mint (required on remote clusters)")
	flags.StringVar(&feeAuthority, "fee-authority", "", "fee recipient, defaults to the creator")
}

func createParams() (client.CreateLaunchParams, error) {
	units, err := parseTokens(supply)
	if err != nil {
		return client.CreateLaunchParams{}, err
	}
	p := client.CreateLaunchParams{
		FeeRateBps:          feeRateBps,
		InitialTokenReserve: units,
	}
	if tokenName != "" || tokenSymbol != "" || tokenURI != "" {
		p.Metadata = &launch.TokenMetadata{Name: tokenName, Symbol: tokenSymbol, URI: tokenURI}
	}
	if feeAuthority != "" {
		if p.FeeAuthority, err = parseKey(feeAuthority); err != nil {
			return p, err
		}
	}
	if mintKeyPath != "" {
		w, err := wallet.Load(mintKeyPath)
		if err != nil {
			return p, fmt.Errorf("failed to load mint key: %w", err)
		}
		p.Mint = w.PrivateKey
	} else if application.Mints() == nil {
		return p, fmt.Errorf("--mint-key is required on %s", application.Config.Cluster)
	}
	return p, nil
}

func printCreated(c *cobra.Command, p client.CreateLaunchParams, res *client.CreateResult) {
	fields := []field{
		{"mint", res.Addresses.Mint},
		{"launch", res.Addresses.Launch},
		{"custody", res.Addresses.Custody},
		{"fee", fmt.Sprintf("%d bps", p.FeeRateBps)},
		{"supply", tokens(p.InitialTokenReserve)},
		{"signature", res.Signature},
	}
	if p.Metadata != nil {
		fields = append(fields, field{"token", fmt.Sprintf("%s (%s)", p.Metadata.Name, p.Metadata.Symbol)})
	}
	printFields(c.OutOrStdout(), "Launch created", fields...)
}

func mintArg(args []string) (solana.PublicKey, error) {
	return parseKey(args[0])
}
