package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/vadiminshakov/papertrade/internal/cli"
	"github.com/vadiminshakov/papertrade/internal/storage/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the SQLite trade journal",
	Long: `Query sessions, trades and portfolio snapshots recorded in storage.journal_path.

Subcommands:
  sessions            - List sessions, newest first
  trades [session]    - List trades of a session (default: latest)
  snapshots [session] - List portfolio snapshots of a session (default: latest)

Examples:
  papertrade journal sessions
  papertrade journal trades 01HV8Z3N4Q6W2X9Y7K5M1P0R3T`,
}

var journalSessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List journal sessions",
	Args:  cobra.NoArgs,
	RunE:  runJournalSessions,
}

var journalTradesCmd = &cobra.Command{
	Use:   "trades [session]",
	Short: "List trades of a session",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runJournalTrades,
}

var journalSnapshotsCmd = &cobra.Command{
	Use:   "snapshots [session]",
	Short: "List portfolio snapshots of a session",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runJournalSnapshots,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalSessionsCmd)
	journalCmd.AddCommand(journalTradesCmd)
	journalCmd.AddCommand(journalSnapshotsCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "", "path to SQLite journal DB (default: storage.journal_path)")
}

func openJournal() (*journal.SQLite, error) {
	path := journalDBPath
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		path = cfg.Storage.JournalPath
	}
	if path == "" {
		return nil, errors.New("no journal configured: set storage.journal_path or pass --db")
	}
	return journal.NewSQLite(path, logger)
}

// sessionArg returns the session named in args or the latest one.
func sessionArg(cmd *cobra.Command, j *journal.SQLite, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	s, err := j.LatestSession(cmd.Context())
	if err != nil {
		return "", err
	}
	return s.ID, nil
}

func runJournalSessions(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	sessions, err := j.ListSessions(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions recorded.")
		return nil
	}
	fmt.Fprintf(out, "%-26s  %-19s  %-5s  %-11s  %-5s  %6s\n", "SESSION", "STARTED", "VENUE", "PLATFORM", "QUOTE", "TRADES")
	for _, s := range sessions {
		fmt.Fprintf(out, "%-26s  %-19s  %-5s  %-11s  %-5s  %6d\n",
			s.ID, s.StartedAt.Local().Format("2006-01-02 15:04:05"), s.Venue, s.Platform, s.QuoteCurrency, s.Trades)
	}
	return nil
}

func runJournalTrades(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	session, err := sessionArg(cmd, j, args)
	if err != nil {
		return err
	}
	trades, err := j.ListTrades(cmd.Context(), session)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Session %s\n%s\n", session, cli.Trades(trades))
	return nil
}

func runJournalSnapshots(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	session, err := sessionArg(cmd, j, args)
	if err != nil {
		return err
	}
	snapshots, err := j.ListSnapshots(cmd.Context(), session)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session %s\n", session)
	fmt.Fprintf(out, "%-19s  %14s  %12s  %8s  %6s\n", "TIME", "TOTAL", "P&L", "P&L %", "TRADES")
	for _, s := range snapshots {
		fmt.Fprintf(out, "%-19s  %14s  %12s  %8s  %6d\n",
			s.Timestamp.Local().Format("2006-01-02 15:04:05"), s.TotalValue.StringFixed(2),
			s.ProfitLoss.StringFixed(2), s.ProfitLossPercent.StringFixed(2), s.TradesCount)
	}
	return nil
}
