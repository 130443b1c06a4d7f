package main

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/docopt/docopt-go"
	"github.com/gdamore/tcell"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/snsinfu/sge-qtop/gridengine"
	"github.com/snsinfu/sge-qtop/qtop"
	"github.com/snsinfu/sge-qtop/subprocess"
)

const usage = `
Summarize Grid Engine jobs per user

Usage:
  qtop [options]
  qtop watch [options] [-i <interval>]
  qtop serve [options] [-l <addr>]
  qtop -h | --help

Options:
  -c, --config <file>    Read defaults from an ini file (~/.qtoprc if it exists)
  -f, --format <fmt>     Input format: auto, text or xml
  -n, --top <count>      Number of users to list
  -t, --timeout <dur>    Timeout for the qstat invocation
  --input <file>         Read qstat output from a file ("-" for stdin)
  --strict               Apply the strict validation policy to text input too
  -v, --verbose          Log rejected jobs and debug information
  -i, --interval <dur>   Refresh interval for watch mode
  -l, --listen <addr>    Listen address for the metrics endpoint
  -h, --help             Show this help message and exit
`

func main() {
	opts, err := docopt.ParseDoc(usage)
	if err != nil {
		panic(err)
	}

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(opts docopt.Opts) error {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.InfoLevel)

	if verbose, _ := opts.Bool("--verbose"); verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	config, err := loadConfig(opts)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"command": config.Command,
		"format":  config.Options.Format,
		"timeout": config.Timeout,
	}).Debug("configured")

	if watch, _ := opts.Bool("watch"); watch {
		return runWatch(config, log)
	}

	if serve, _ := opts.Bool("serve"); serve {
		return runServe(config, log)
	}

	input, _ := opts.String("--input")
	return runOnce(config, input, log)
}

func loadConfig(opts docopt.Opts) (qtop.Config, error) {
	// Unset when the flag is not given.
	path, _ := opts.String("--config")

	config, err := qtop.LoadConfig(path)
	if err != nil {
		return config, err
	}

	if s, err := opts.String("--format"); err == nil {
		f, err := gridengine.ParseFormat(s)
		if err != nil {
			return config, err
		}
		config.Options.Format = f
	}

	if s, err := opts.String("--top"); err == nil {
		n, err := strconv.Atoi(s)
		if err != nil {
			return config, errors.Wrap(err, "bad --top")
		}
		config.Top = n
	}

	if s, err := opts.String("--timeout"); err == nil {
		d, err := qtop.ParseDuration(s)
		if err != nil {
			return config, errors.Wrap(err, "bad --timeout")
		}
		config.Timeout = d
	}

	if s, err := opts.String("--interval"); err == nil {
		d, err := qtop.ParseDuration(s)
		if err != nil {
			return config, errors.Wrap(err, "bad --interval")
		}
		config.Interval = d
	}

	if s, err := opts.String("--listen"); err == nil {
		config.Listen = s
	}

	if strict, _ := opts.Bool("--strict"); strict {
		config.Options.Strict = true
	}

	return config, nil
}

// runOnce prints the ranking of a single snapshot, read either from qstat or
// from a file.
func runOnce(config qtop.Config, input string, log *logrus.Logger) error {
	var rep qtop.Report
	var diags []qtop.Diagnostic

	if input == "" {
		top := qtop.NewTop(subprocess.Exec{}, config, log)
		if err := top.Update(); err != nil {
			return err
		}
		sum := top.Current()
		rep, diags = sum.Report, sum.Diagnostics
	} else {
		r, closer, err := openInput(input)
		if err != nil {
			return err
		}
		defer closer.Close()

		rep, diags, err = qtop.Summarize(r, config.Options)
		if err != nil {
			return err
		}
		qtop.LogDiagnostics(log, diags)
	}

	log.WithFields(logrus.Fields{
		"format":   rep.Format,
		"accepted": rep.Accepted,
		"rejected": len(diags),
	}).Debug("summarized")

	out := bufio.NewWriter(os.Stdout)
	if err := rep.WriteTable(out, config.Top); err != nil {
		return err
	}
	return out.Flush()
}

func openInput(name string) (io.Reader, io.Closer, error) {
	if name == "-" {
		return os.Stdin, io.NopCloser(os.Stdin), nil
	}

	file, err := os.Open(name)
	if err != nil {
		return nil, nil, err
	}
	return file, file, nil
}

func runWatch(config qtop.Config, log *logrus.Logger) error {
	// Log lines would corrupt the screen.
	log.SetOutput(io.Discard)

	top := qtop.NewTop(subprocess.Exec{}, config, log)

	scr, err := tcell.NewScreen()
	if err != nil {
		return err
	}

	if err := scr.Init(); err != nil {
		return err
	}
	defer scr.Fini()

	app := qtop.NewApp(top, scr, config)
	return app.Start()
}

func runServe(config qtop.Config, log *logrus.Logger) error {
	top := qtop.NewTop(subprocess.Exec{}, config, log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(qtop.NewCollector(top))

	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	log.WithField("listen", config.Listen).Info("serving metrics")
	return http.ListenAndServe(config.Listen, nil)
}
