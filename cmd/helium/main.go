package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/helium-dev/helium/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦ ╦┌─┐┬  ┬┬ ┬┌┬┐
  ╠═╣├┤ │  ││ ││││
  ╩ ╩└─┘┴─┘┴└─┘┴ ┴
`

func main() {
	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		errors.DisableColors()
	}

	if err := newRootCmd().Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

// globalFlags are shared by every command.
type globalFlags struct {
	dir        string
	configFile string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "helium",
		Short: "Typed procedures and file-based routes for web applications",
		Long: `Helium links browser code to Go procedures over a small JSON
protocol and maps a pages directory to URL routes.

  • Procedure calls over HTTP and WebSocket
  • File-based routing with dynamic and catch-all segments
  • Route manifests stored on disk or in S3
  • Prometheus metrics and OpenTelemetry spans per call`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&g.dir, "dir", "C", ".", "Project directory")
	rootCmd.PersistentFlags().StringVarP(&g.configFile, "config", "c", "", "Configuration file (default helium.json or helium.yaml in --dir)")

	rootCmd.AddCommand(
		serveCmd(g),
		routesCmd(g),
		callCmd(),
		versionCmd(),
	)

	return rootCmd
}

// printBanner prints the Helium ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", green("✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", yellow("⚠"), fmt.Sprintf(format, args...))
}

var colorOutput = isatty.IsTerminal(os.Stdout.Fd())

func green(s string) string {
	if !colorOutput {
		return s
	}
	return "\033[32m" + s + "\033[0m"
}

func yellow(s string) string {
	if !colorOutput {
		return s
	}
	return "\033[33m" + s + "\033[0m"
}
