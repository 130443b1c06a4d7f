package qtop

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/snsinfu/sge-qtop/gridengine"
	"github.com/snsinfu/sge-qtop/subprocess"
)

// A Snapshot is the summary of one qstat invocation.
type Snapshot struct {
	Report      Report
	Diagnostics []Diagnostic
	Time        time.Time
}

// Top queries qstat and keeps the latest summary. Each update is independent
// of the previous ones.
type Top struct {
	runner subprocess.Runner
	config Config
	log    logrus.FieldLogger

	mu  sync.Mutex
	sum *Snapshot
}

func NewTop(runner subprocess.Runner, config Config, log logrus.FieldLogger) *Top {
	return &Top{runner: runner, config: config, log: log}
}

func (top *Top) Update() error {
	ctx, cancel := context.WithTimeout(context.Background(), top.config.Timeout)
	defer cancel()

	opts := top.config.Options

	out, err := gridengine.QueryJobs(ctx, top.runner, top.config.Command, opts.Format)
	if err != nil {
		return err
	}

	rep, diags, err := Summarize(bytes.NewReader(out), opts)
	if err != nil {
		return err
	}

	LogDiagnostics(top.log, diags)

	top.mu.Lock()
	top.sum = &Snapshot{Report: rep, Diagnostics: diags, Time: time.Now()}
	top.mu.Unlock()

	return nil
}

func (top *Top) Current() *Snapshot {
	top.mu.Lock()
	defer top.mu.Unlock()

	return top.sum
}

// LogDiagnostics reports rejected jobs at debug level.
func LogDiagnostics(log logrus.FieldLogger, diags []Diagnostic) {
	for _, diag := range diags {
		log.WithFields(logrus.Fields{
			"job":    diag.Job.ID,
			"owner":  diag.Job.Owner,
			"reason": diag.Reason,
		}).Debug(diag.String())
	}
}
