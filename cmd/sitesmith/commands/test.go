package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"git.home.luguber.info/inful/sitesmith/internal/metrics"
	"git.home.luguber.info/inful/sitesmith/internal/site"
)

const defaultTestTimeout = 10 * time.Minute

// TestCmd builds everything once with stylesheet errors treated as failures.
// It is the CI smoke test: exit status zero means every task succeeded.
type TestCmd struct {
	Timeout time.Duration `name:"timeout" default:"10m" help:"Abort the build after this long."`
}

func (t *TestCmd) Run(g *Global, root *CLI) error {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = defaultTestTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := loadConfig(root.Config, g.Logger)
	if err != nil {
		return err
	}
	builder := newBuilder(cfg, g.Logger, metrics.NoopRecorder{}, true)
	defer func() { _ = builder.Close() }()

	if err := site.NewTasks(builder).Run(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stdout, "FAIL")
		return err
	}
	_, _ = fmt.Fprintln(os.Stdout, "ok")
	return nil
}
