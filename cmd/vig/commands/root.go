package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/a-luna/vigorish-sub003/internal/app"
	"github.com/a-luna/vigorish-sub003/internal/config"
	"github.com/a-luna/vigorish-sub003/internal/observability"
	"github.com/a-luna/vigorish-sub003/internal/platform/logging"
)

// session carries what one invocation has opened so it can be closed after
// the command returns, whether or not it failed.
type session struct {
	cfg     config.Config
	logger  *logging.Logger
	app     *app.App
	closers []func(context.Context) error
}

func (s *session) App() (*app.App, error) {
	if s.app != nil {
		return s.app, nil
	}
	a, err := app.New(s.cfg, s.logger)
	if err != nil {
		return nil, err
	}
	s.app = a
	s.closers = append(s.closers, a.Close)
	return a, nil
}

func (s *session) close(ctx context.Context) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			s.logger.Error("shutdown", "error", err)
		}
	}
	_ = s.logger.Sync()
}

func newRootCmd(s *session) *cobra.Command {
	root := &cobra.Command{
		Use:           "vig",
		Short:         "vig reconciles scraped box scores, pitch logs and pitch telemetry.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return s.open(cmd.Context())
		},
	}
	root.AddCommand(
		newReconcileCmd(s),
		newStatusCmd(s),
		newGameIDCmd(),
		newPatchCmd(s),
		newMigrateCmd(s),
	)
	return root
}

func (s *session) open(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}
	s.cfg = cfg

	if cfg.Interactive {
		s.logger = logging.NewConsole(cfg.LogLevel)
	} else {
		s.logger = logging.NewJSON(cfg.LogLevel)
	}
	logging.SetDefault(s.logger)

	shutdownTracing, err := observability.InitUptrace(cfg, s.logger)
	if err != nil {
		return err
	}
	s.closers = append(s.closers, shutdownTracing)

	stopProfiler, err := observability.InitPyroscope(cfg, s.logger)
	if err != nil {
		return err
	}
	s.closers = append(s.closers, func(context.Context) error { return stopProfiler() })
	return nil
}

// ExecuteContext runs the CLI and returns the process exit code.
func ExecuteContext(ctx context.Context, args []string) int {
	s := &session{logger: logging.NewNop()}
	root := newRootCmd(s)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	s.close(context.WithoutCancel(ctx))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return exitCode(err)
}
