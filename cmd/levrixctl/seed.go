package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/levrixhq/levrix/pkg/leads"
	"github.com/levrixhq/levrix/pkg/testdata"
	"github.com/levrixhq/levrix/pkg/users"
)

var (
	seedUser  string
	seedCount int
	seedValue int64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate demo leads for an existing account",
	Long: `Generate realistic leads for the account registered with --user.

Plan limits are not applied. A fixed --seed reproduces the same leads.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedUser, "user", "", "Email of the account to seed (required)")
	seedCmd.Flags().IntVar(&seedCount, "count", 25, "Number of leads to create")
	seedCmd.Flags().Int64Var(&seedValue, "seed", 0, "Random seed, 0 for a random one")
	_ = seedCmd.MarkFlagRequired("user")
}

func runSeed(cmd *cobra.Command, args []string) error {
	if seedCount <= 0 {
		return fmt.Errorf("--count must be positive")
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	log := newLogger()
	userService := users.NewService(users.NewRepository(db), nil, nil, cfg.JWTSecret, cfg.JWTExpirationHours, log)
	owner, err := userService.ByEmail(ctx, seedUser)
	if err != nil {
		return fmt.Errorf("account %s: %w", seedUser, err)
	}

	genCfg := testdata.DefaultConfig(seedCount)
	genCfg.Seed = seedValue
	inputs := testdata.NewGenerator(genCfg).Leads()

	leadService := leads.NewService(leads.NewSQLRepository(db), nil, nil, nil, log)
	created, err := testdata.BulkInsertLeads(ctx, leadService, owner.ID, inputs)
	fmt.Fprintf(cmd.OutOrStdout(), "created %d of %d leads for %s\n", created, len(inputs), owner.Email)
	return err
}
