package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/docopt/docopt-go"
	"github.com/pkg/errors"

	"github.com/snsinfu/sge-qtop/ptop"
	"github.com/snsinfu/sge-qtop/subprocess"
)

var usage = fmt.Sprintf(`
Summarize process CPU and memory usage per user

Usage:
  ptop [-n <count>] [--input <file>]
  ptop -h | --help

Options:
  -n, --top <count>  Number of users to list [default: %d]
  --input <file>     Read top batch output from a file instead of running top
  -h, --help         Show this help message and exit
`, ptop.DefaultTop)

const queryTimeout = 30 * time.Second

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
	s, _ := opts.String("--top")
	n, err := strconv.Atoi(s)
	if err != nil {
		return errors.Wrap(err, "bad --top")
	}

	var input io.Reader

	if name, err := opts.String("--input"); err == nil {
		file, err := os.Open(name)
		if err != nil {
			return err
		}
		defer file.Close()
		input = file
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		defer cancel()

		out, err := ptop.Query(ctx, subprocess.Exec{})
		if err != nil {
			return err
		}
		input = bytes.NewReader(out)
	}

	usages, err := ptop.Parse(input)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(os.Stdout)
	if err := ptop.WriteReport(w, usages, n); err != nil {
		return err
	}
	return w.Flush()
}
