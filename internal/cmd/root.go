package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/voidnologo/bokeh-graph/internal/aggregator"
	"github.com/voidnologo/bokeh-graph/internal/report"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	cfgFile string

	styleOK  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))  // green
	styleErr = lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // red
)

// rootCmd renders a chart when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "loggraph",
	Short: "Chart log volume over time",
	Long: `loggraph buckets the timestamped lines of a log file into fixed-width
intervals over a date range and renders the per-interval counts as an
interactive chart.

Examples:
  loggraph -f fileprocess.log -s 2024-01-01 -e 2024-01-02
  loggraph -f fileprocess.log -s 2024-01-01 -e 2024-01-08 -i 60 --open
  loggraph -f "/var/log/**/fileprocess.log" -s 2024-01-01 -e 2024-01-02 -o - --format text`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRender,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styleErr.Render("loggraph: "+err.Error()))
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file (default: $HOME/.loggraph.yaml)")
	pf.IntP("interval", "i", report.DefaultInterval, "time intervals in minutes")
	pf.StringP("file", "f", "", "log file, or a glob matching exactly one file (required)")
	pf.StringP("start", "s", "", "start date, inclusive; YYYY-mm-dd (required)")
	pf.StringP("end", "e", "", "end date, exclusive; YYYY-mm-dd (required)")
	pf.String("tz", "UTC", "time zone for the date range and chart axis")
	pf.String("log-tz", "UTC", "time zone of log timestamps that carry no offset")
	pf.String("layout", "auto", "Go time layout of the line prefix, or auto")
	pf.String("out-of-range", "drop", "lines outside the date range: drop or clamp")
	pf.Bool("skip-invalid", false, "skip lines without a timestamp instead of failing")
	pf.String("title", "", "chart title (default: \"Files per N minutes\")")
	pf.String("log-level", "warn", "diagnostic log level: debug, info, warn, error")

	rootCmd.Flags().StringP("out", "o", "graph.html", "output file, - for stdout")
	rootCmd.Flags().String("format", "", "html, svg, png, text or json (default: from --out extension)")
	rootCmd.Flags().Bool("open", false, "open the chart in the default viewer")

	cobra.CheckErr(viper.BindPFlags(pf))
	cobra.CheckErr(viper.BindPFlags(rootCmd.Flags()))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".loggraph")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("loggraph")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

// optionsFromConfig assembles report options from flags, env and config file.
func optionsFromConfig(v *viper.Viper) (report.Options, error) {
	for _, key := range []string{"file", "start", "end"} {
		if v.GetString(key) == "" {
			return report.Options{}, fmt.Errorf("required flag %q not set", key)
		}
	}

	loc, err := time.LoadLocation(v.GetString("tz"))
	if err != nil {
		return report.Options{}, fmt.Errorf("invalid --tz: %w", err)
	}
	logLoc, err := time.LoadLocation(v.GetString("log-tz"))
	if err != nil {
		return report.Options{}, fmt.Errorf("invalid --log-tz: %w", err)
	}
	policy, err := aggregator.ParsePolicy(v.GetString("out-of-range"))
	if err != nil {
		return report.Options{}, err
	}

	interval := v.GetInt("interval")
	if interval <= 0 {
		return report.Options{}, fmt.Errorf("%w: got %d minutes", aggregator.ErrInvalidInterval, interval)
	}

	return report.Options{
		File:        v.GetString("file"),
		Start:       v.GetString("start"),
		End:         v.GetString("end"),
		Interval:    interval,
		Location:    loc,
		LogLocation: logLoc,
		Layout:      v.GetString("layout"),
		Policy:      policy,
		SkipInvalid: v.GetBool("skip-invalid"),
		Title:       v.GetString("title"),
	}, nil
}

// newLogger builds the diagnostic logger. It always writes to stderr so
// artifacts sent to stdout stay clean.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg.Build()
}
