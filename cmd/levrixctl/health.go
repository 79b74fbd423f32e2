package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/levrixhq/levrix/pkg/leads"
	"github.com/levrixhq/levrix/pkg/users"
)

var healthUser string

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Report duplicate and dirty leads of an account",
	RunE:  runHealth,
}

func init() {
	healthCmd.Flags().StringVar(&healthUser, "user", "", "Email of the account to inspect (required)")
	_ = healthCmd.MarkFlagRequired("user")
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	log := newLogger()
	owner, err := users.NewService(users.NewRepository(db), nil, nil, cfg.JWTSecret, cfg.JWTExpirationHours, log).ByEmail(ctx, healthUser)
	if err != nil {
		return fmt.Errorf("account %s: %w", healthUser, err)
	}

	leadService := leads.NewService(leads.NewSQLRepository(db), nil, nil, nil, log)
	groups, err := leadService.Duplicates(ctx, owner.ID)
	if err != nil {
		return err
	}
	dirty, err := leadService.DirtyCount(ctx, owner.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "dirty leads: %d\n", dirty)
	fmt.Fprintf(out, "duplicate groups: %d\n", len(groups))
	for _, g := range groups {
		fmt.Fprintf(out, "  %s\n", strings.Join(g, ", "))
	}
	return nil
}
