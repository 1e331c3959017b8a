package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/voidnologo/bokeh-graph/internal/output"
	"github.com/voidnologo/bokeh-graph/internal/report"
	"go.uber.org/zap"
)

func runRender(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(viper.GetString("log-level"))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	opts, err := optionsFromConfig(viper.GetViper())
	if err != nil {
		return err
	}

	out := viper.GetString("out")
	format := output.FormatFromPath(out)
	if f := viper.GetString("format"); f != "" {
		if format, err = output.ParseFormat(f); err != nil {
			return err
		}
	}
	renderer, err := output.New(format)
	if err != nil {
		return err
	}

	builder, err := report.NewBuilder(opts, logger)
	if err != nil {
		return err
	}
	rep, err := builder.Build()
	if err != nil {
		return err
	}

	if out == "-" {
		w := bufio.NewWriter(cmd.OutOrStdout())
		if err := renderer.Render(w, rep); err != nil {
			return err
		}
		return w.Flush()
	}

	if err := writeArtifact(out, renderer, rep); err != nil {
		return err
	}
	logger.Debug("wrote artifact", zap.String("path", out), zap.String("format", string(format)))
	fmt.Fprintln(cmd.ErrOrStderr(), styleOK.Render(fmt.Sprintf(
		"wrote %s (%d buckets, %d files processed)", out, len(rep.Summaries), rep.Total)))

	if viper.GetBool("open") {
		if err := openInViewer(out); err != nil {
			return fmt.Errorf("open %s: %w", out, err)
		}
	}
	return nil
}

// writeArtifact renders to a temp file first, then renames for atomicity,
// so a failed render never leaves a truncated chart behind.
func writeArtifact(path string, r output.Renderer, rep report.Report) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	err = render(w, r, rep)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func render(w *bufio.Writer, r output.Renderer, rep report.Report) error {
	if err := r.Render(w, rep); err != nil {
		return err
	}
	return w.Flush()
}

// openInViewer hands path to the platform's default opener.
func openInViewer(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	var c *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		c = exec.Command("open", abs)
	case "windows":
		c = exec.Command("rundll32", "url.dll,FileProtocolHandler", abs)
	default:
		c = exec.Command("xdg-open", abs)
	}
	c.Stdout, c.Stderr = io.Discard, io.Discard
	return c.Start()
}
