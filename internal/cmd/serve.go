package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/voidnologo/bokeh-graph/internal/hub"
	"github.com/voidnologo/bokeh-graph/internal/report"
	"github.com/voidnologo/bokeh-graph/internal/server"
	"github.com/voidnologo/bokeh-graph/internal/watcher"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chart over HTTP",
	Long: `Serve the chart on a local HTTP port instead of writing a file.
With --watch, the whole log file is re-read and re-aggregated after every
change, and open browser tabs reload themselves.

Examples:
  loggraph serve -f fileprocess.log -s 2024-01-01 -e 2024-01-02
  loggraph serve -f fileprocess.log -s 2024-01-01 -e 2024-01-02 --watch --port 9000`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 8080, "HTTP port")
	serveCmd.Flags().Bool("watch", false, "rebuild the chart when the log file changes")
	cobra.CheckErr(viper.BindPFlags(serveCmd.Flags()))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Set up context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := newLogger(viper.GetString("log-level"))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	opts, err := optionsFromConfig(viper.GetViper())
	if err != nil {
		return err
	}
	builder, err := report.NewBuilder(opts, logger)
	if err != nil {
		return err
	}

	// Initialize watcher
	var events <-chan watcher.Event
	live := viper.GetBool("watch")
	if live {
		path, err := builder.Path()
		if err != nil {
			return err
		}
		w, err := watcher.New(path, logger)
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		events = w.Events
		go w.Start(ctx)
	}

	// Initial build
	h := hub.New(builder, events, logger)
	if err := h.Load(); err != nil {
		return err
	}
	go h.Start(ctx)

	addr := fmt.Sprintf(":%d", viper.GetInt("port"))
	fmt.Fprintln(os.Stderr, styleOK.Render(fmt.Sprintf("serving chart on http://localhost%s", addr)))
	logger.Info("preview server starting", zap.String("addr", addr), zap.Bool("watch", live))

	return server.New(h, addr, live, logger).Start(ctx)
}
