package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/levrixhq/levrix/pkg/email"
	"github.com/levrixhq/levrix/pkg/jobs"
	"github.com/levrixhq/levrix/pkg/leads"
	"github.com/levrixhq/levrix/pkg/outreach"
	"github.com/levrixhq/levrix/pkg/profile"
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Send queued outreach messages that are due",
	Long: `Send one batch of scheduled messages whose time has come.

This runs the same pass as the API's every-minute job, for deployments that
disable in-process cron and schedule this command instead.`,
	RunE: runDispatch,
}

func runDispatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	appLogger := newLogger()
	emailService := email.NewService(cfg.EmailFrom, cfg.EmailFromName, cfg.FrontendURL, cfg.SendGridAPIKey)
	dispatcher := outreach.NewDispatcher(emailService, cfg.TwilioBaseURL, cfg.WhatsAppBaseURL, &http.Client{Timeout: cfg.OutreachTimeout})
	leadService := leads.NewService(leads.NewSQLRepository(db), nil, nil, nil, appLogger)
	outreachService := outreach.NewService(outreach.NewSQLLogStore(db), leadService, profile.NewStore(db), dispatcher, outreach.Options{
		Concurrency: cfg.OutreachConcurrency,
		Timeout:     cfg.OutreachTimeout,
	}, appLogger)

	cm := jobs.NewCronManager(outreachService, nil, log.New(cmd.ErrOrStderr(), "", log.LstdFlags))
	sent := cm.RunDispatch(ctx)
	fmt.Fprintf(cmd.OutOrStdout(), "dispatched %d messages\n", sent)
	return nil
}
