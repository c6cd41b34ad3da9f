package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/example/wordreview/internal/bot"
	"github.com/example/wordreview/internal/excel"
	"github.com/example/wordreview/internal/queue"
	"github.com/example/wordreview/internal/scheduler"
	"github.com/example/wordreview/pkg/models"
)

func newRootCommand() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "wordreview",
		Short:         "Spaced repetition vocabulary review",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env", ".env", "environment file to load")

	root.AddCommand(
		newServeCommand(&envFile),
		newImportCommand(&envFile),
		newCurveCommand(&envFile),
		newQueueCommand(&envFile),
	)
	return root
}

func newServeCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot and the reminder scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := bootstrap(ctx, *envFile, true)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			if a.config.Telegram.Token == "" {
				return errors.New("TELEGRAM_BOT_TOKEN environment variable is not set")
			}
			api, err := bot.Connect(a.config.Telegram.Token)
			if err != nil {
				return err
			}
			a.logger.Info("authorized on telegram", "account", api.Self.UserName)

			botConfig := bot.DefaultConfig()
			botConfig.AdminUserIDs = a.config.Telegram.Admins
			botConfig.LearnerUserIDs = a.config.Telegram.Learners
			b := bot.NewBot(api, a.review, excel.NewImporter(a.vocab), botConfig, a.logger)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return b.Run(gctx) })
			if a.config.Scheduler.Enabled {
				s := scheduler.New(b, a.review, scheduler.Options{
					StartHour:  a.config.Scheduler.StartHour,
					EndHour:    a.config.Scheduler.EndHour,
					Recipients: a.config.Telegram.Reviewers(),
				}, a.logger)
				g.Go(func() error { return s.Run(gctx) })
			}

			a.logger.Info("service started, press Ctrl+C to stop")
			err = g.Wait()
			a.logger.Info("service stopped")
			return err
		},
	}
}

func newImportCommand(envFile *string) *cobra.Command {
	importConfig := excel.DefaultImportConfig()
	var wordbook, show string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import words from an .xlsx or .csv file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), *envFile, false)
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())

			switch {
			case show != "":
				importConfig.Source = models.Source{Type: models.SourceTypeShow, ID: show}
			case wordbook != "":
				importConfig.Source = models.Source{Type: models.SourceTypeWordbook, ID: wordbook}
			}

			result, err := excel.NewImporter(a.vocab).ImportFile(cmd.Context(), args[0], importConfig)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "processed: %d, added: %d, updated: %d, skipped: %d\n",
				result.TotalProcessed, result.Created, result.Updated, result.Skipped)
			for _, msg := range result.Errors {
				fmt.Fprintf(out, "error: %s\n", msg)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&importConfig.Language, "language", importConfig.Language, "ISO 639-1 code of the words")
	cmd.Flags().StringVar(&importConfig.SheetName, "sheet", "", "sheet to import, first sheet when empty")
	cmd.Flags().IntVar(&importConfig.StartRow, "start-row", importConfig.StartRow, "first row to import")
	cmd.Flags().StringVar(&wordbook, "wordbook", "", "wordbook the words belong to, defaults to the file name")
	cmd.Flags().StringVar(&show, "show", "", "show the words were collected from")
	return cmd
}

func newCurveCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "curve <word> [days]",
		Short: "Predict the retention of a reviewed word",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			days := 7
			if len(args) == 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil || n < 1 || n > bot.MaxCurveDays {
					return fmt.Errorf("invalid number of days %q, expected 1 to %d", args[1], bot.MaxCurveDays)
				}
				days = n
			}

			a, err := bootstrap(cmd.Context(), *envFile, false)
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())

			rec, ok := a.review.FindRecord(args[0])
			if !ok {
				return fmt.Errorf("%q has not been reviewed yet", args[0])
			}
			rates, err := a.review.Curve(rec.WordID, days)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: mastery %d%%, interval %d days, next review %s\n",
				rec.Word, rec.MasteryLevel, rec.IntervalDays, rec.NextReviewDate.Format(time.DateOnly))
			for i, r := range rates {
				fmt.Fprintf(out, "day %3d: %3d%%\n", i+1, r)
			}
			return nil
		},
	}
}

func newQueueCommand(envFile *string) *cobra.Command {
	var (
		req  queue.Request
		mode string
	)

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Print the review batch that would be served",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd.Context(), *envFile, false)
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())

			req.Mode = queue.Mode(mode)
			batch, err := a.review.BuildBatch(cmd.Context(), req)
			if err != nil {
				return err
			}
			printBatch(cmd, batch)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Type, "type", "", "wrong_words, show, wordbook or empty for a generic review")
	cmd.Flags().StringVar(&req.ID, "id", "", "show or wordbook id")
	cmd.Flags().StringVar(&mode, "mode", string(queue.ModeSmart), "smart or all")
	return cmd
}

func printBatch(cmd *cobra.Command, batch models.ReviewBatch) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d words\n", batch.Mode, batch.Len())

	for i, e := range batch.Entries {
		next := "never"
		if !e.NextReviewAt.IsZero() {
			next = e.NextReviewAt.Format(time.DateTime)
		}
		fmt.Fprintf(out, "%3d. %-20s %-20s mistakes=%d next=%s\n", i+1, e.Word, e.Translation, e.IncorrectCount, next)
	}
}
