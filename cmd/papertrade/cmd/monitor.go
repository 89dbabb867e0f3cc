package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/papertrade/internal/cli"
)

const dashboardSnapshotInterval = time.Minute

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Poll the configured price alerts until interrupted",
	Long: `Register alerts.rules from the config and check them every alerts.interval.
Fired alerts are delivered through alerts.notify_method and are not re-armed.

Example:
  papertrade monitor --interval 30s --dashboard`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Serve the web dashboard with alert monitoring",
	Long: `Serve portfolio snapshots, fired alerts and executed trades over HTTP and SSE
on web.addr, or over HTTPS with Let's Encrypt when web.domains is set.
Configured alerts are monitored and the portfolio is snapshotted every minute.`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

var (
	monitorInterval  time.Duration
	monitorDashboard bool
)

func init() {
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(dashboardCmd)
	monitorCmd.Flags().DurationVarP(&monitorInterval, "interval", "i", 0, "polling interval (default: alerts.interval)")
	monitorCmd.Flags().BoolVar(&monitorDashboard, "dashboard", false, "serve the web dashboard while monitoring")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	return serve(cmd, monitorDashboard)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	return serve(cmd, true)
}

func serve(cmd *cobra.Command, withDashboard bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	bot, err := newBot(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer bot.Close()

	out := cmd.OutOrStdout()
	n, err := bot.LoadConfiguredAlerts()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Monitoring %d alerts, Ctrl+C to stop\n", n)
	fmt.Fprintln(out, cli.Alerts(bot.ListAlerts()))

	if err := bot.StartMonitoring(monitorInterval); err != nil {
		return err
	}
	defer bot.StopMonitoring()

	g, ctx := errgroup.WithContext(ctx)
	if withDashboard {
		g.Go(func() error { return bot.Dashboard(ctx) })
		g.Go(func() error { return bot.SnapshotEvery(ctx, dashboardSnapshotInterval) })
	} else {
		g.Go(func() error {
			<-ctx.Done()
			return ctx.Err()
		})
	}
	err = ignoreCanceled(g.Wait())

	bot.StopMonitoring()
	fmt.Fprintln(out, cli.Alerts(bot.ListAlerts()))
	fmt.Fprintln(out, cli.Notifications(bot.Notifications(0)))
	return err
}
