package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rcliao/wayfarer/internal/web"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard API server",
		Long:  "Serve the dashboard JSON API. Stops gracefully on SIGINT or SIGTERM, draining in-flight requests.",
		Run:   runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (default WAYFARER_ADDR or :8080)")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.HTTPAddr = addr
	}

	gen, store := newGenerator()
	defer store.Close()
	manager, jobs := newFinetuneManager()
	if jobs != nil {
		defer jobs.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := web.NewServer(cfg, gen, manager, log)
	if err := srv.Run(ctx); err != nil {
		exitErr("serve", err)
	}
}
