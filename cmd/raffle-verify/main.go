// Command raffle-verify recomputes a lottery winner from the oracle value.
//
// The value is either passed in hex with --randomness or read from the
// oracle with --tag. Given --claimed the command exits non-zero when the
// claimed entry is not the winner.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/ArowuTest/raffle-backend/pkg/draw"
	"github.com/ArowuTest/raffle-backend/pkg/vrf"
)

type verifyFlags struct {
	randomness  string
	tag         string
	oracleURL   string
	apiKey      string
	ticketsSold uint64
	claimed     uint64
	timeout     time.Duration
}

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &verifyFlags{}
	cmd := &cobra.Command{
		Use:          "raffle-verify",
		Short:        "Recompute the winning entry of a lottery",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.randomness, "randomness", "", "fulfilled oracle value (128 hex characters)")
	cmd.Flags().StringVar(&flags.tag, "tag", "", "correlation tag to read from the oracle (64 hex characters)")
	cmd.Flags().StringVar(&flags.oracleURL, "oracle-url", os.Getenv("ORACLE_BASEURL"), "randomness oracle base URL")
	cmd.Flags().StringVar(&flags.apiKey, "api-key", os.Getenv("ORACLE_APIKEY"), "randomness oracle API key")
	cmd.Flags().Uint64Var(&flags.ticketsSold, "tickets-sold", 0, "number of tickets sold")
	cmd.Flags().Uint64Var(&flags.claimed, "claimed", 0, "entry number claimed as the winner")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 10*time.Second, "oracle request timeout")

	_ = cmd.MarkFlagRequired("tickets-sold")
	cmd.MarkFlagsMutuallyExclusive("randomness", "tag")
	cmd.MarkFlagsOneRequired("randomness", "tag")
	return cmd
}

func run(cmd *cobra.Command, flags *verifyFlags) error {
	value, err := loadRandomness(cmd.Context(), flags)
	if err != nil {
		return err
	}

	index, err := draw.DeriveIndex(value[:], flags.ticketsSold)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "winning entry: %d of %d\n", index, flags.ticketsSold)

	if !cmd.Flags().Changed("claimed") {
		return nil
	}
	if err := draw.Verify(value[:], flags.ticketsSold, flags.claimed); err != nil {
		return err
	}
	fmt.Fprintf(out, "claim %d verified\n", flags.claimed)
	return nil
}

func loadRandomness(ctx context.Context, flags *verifyFlags) (models.Randomness, error) {
	if flags.randomness != "" {
		return models.ParseRandomness(flags.randomness)
	}

	tag, err := models.ParseCorrelationTag(flags.tag)
	if err != nil {
		return models.Randomness{}, err
	}
	if flags.oracleURL == "" {
		return models.Randomness{}, errors.New("--oracle-url is required with --tag")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, flags.timeout)
	defer cancel()

	value, err := vrf.NewClient(flags.oracleURL, flags.apiKey, false).ReadFulfilled(ctx, tag)
	if err != nil {
		return models.Randomness{}, err
	}
	if value == nil {
		return models.Randomness{}, fmt.Errorf("randomness for tag %s is not fulfilled yet", flags.tag)
	}
	return *value, nil
}
