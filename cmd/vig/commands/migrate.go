package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	crerr "github.com/cockroachdb/errors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/a-luna/vigorish-sub003/internal/app"
	"github.com/a-luna/vigorish-sub003/internal/usecase"
)

func newMigrateCmd(s *session) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the postgres status schema.",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "migrations directory (default ./db/migrations)")

	// withMigrator opens a migrator for one subcommand and closes it after.
	withMigrator := func(fn func(cmd *cobra.Command, m *migrate.Migrate, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			m, err := s.openMigrator(dir)
			if err != nil {
				return err
			}
			defer func() {
				srcErr, dbErr := m.Close()
				if srcErr != nil {
					s.logger.Warn("close migration source", "error", srcErr)
				}
				if dbErr != nil {
					s.logger.Warn("close migration db", "error", dbErr)
				}
			}()
			return fn(cmd, m, args)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration.",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(_ *cobra.Command, m *migrate.Migrate, _ []string) error {
				if err := ignoreNoChange(m.Up()); err != nil {
					return err
				}
				s.logger.Info("migrations applied")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back migrations, one by default.",
			Args:  cobra.MaximumNArgs(1),
			RunE: withMigrator(func(_ *cobra.Command, m *migrate.Migrate, args []string) error {
				steps, err := parseSteps(args)
				if err != nil {
					return err
				}
				if err := ignoreNoChange(m.Steps(-steps)); err != nil {
					return err
				}
				s.logger.Info("migrations rolled back", "steps", steps)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version.",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(cmd *cobra.Command, m *migrate.Migrate, _ []string) error {
				version, dirty, err := m.Version()
				if crerr.Is(err, migrate.ErrNilVersion) {
					fmt.Fprintln(cmd.OutOrStdout(), "version: none")
					return nil
				}
				if err != nil {
					return crerr.Wrap(err, "read version")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version: %d\ndirty: %t\n", version, dirty)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Set the schema version without running migrations.",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(func(_ *cobra.Command, m *migrate.Migrate, args []string) error {
				version, err := strconv.Atoi(strings.TrimSpace(args[0]))
				if err != nil || version < 0 {
					return crerr.Wrapf(usecase.ErrInvalidInput, "invalid version %q", args[0])
				}
				if err := m.Force(version); err != nil {
					return crerr.Wrapf(err, "force version %d", version)
				}
				s.logger.Info("forced schema version", "version", version)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "goto <version>",
			Short: "Migrate up or down to a version.",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(func(_ *cobra.Command, m *migrate.Migrate, args []string) error {
				target, err := strconv.ParseUint(strings.TrimSpace(args[0]), 10, 64)
				if err != nil {
					return crerr.Wrapf(usecase.ErrInvalidInput, "invalid target version %q", args[0])
				}
				if err := ignoreNoChange(m.Migrate(uint(target))); err != nil {
					return err
				}
				s.logger.Info("migrated", "version", target)
				return nil
			}),
		},
	)
	return cmd
}

func (s *session) openMigrator(dir string) (*migrate.Migrate, error) {
	if s.cfg.DBURL == "" {
		return nil, crerr.Wrap(errConfig, "db_url is required for migrations")
	}
	migrationsDir, err := resolveMigrationsDir(dir)
	if err != nil {
		return nil, err
	}
	m, err := migrate.New("file://"+filepath.ToSlash(migrationsDir), app.DSN(s.cfg))
	if err != nil {
		return nil, crerr.Wrap(err, "create migrator")
	}
	return m, nil
}

func ignoreNoChange(err error) error {
	if err == nil || crerr.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	steps, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, crerr.Wrapf(usecase.ErrInvalidInput, "invalid down steps %q: %v", args[0], err)
	}
	if steps <= 0 {
		return 0, crerr.Wrap(usecase.ErrInvalidInput, "down steps must be > 0")
	}
	return steps, nil
}

func resolveMigrationsDir(flag string) (string, error) {
	candidates := []string{
		strings.TrimSpace(flag),
		strings.TrimSpace(os.Getenv("VIG_MIGRATIONS_DIR")),
		"./db/migrations",
	}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			return abs, nil
		}
	}
	return "", crerr.Wrap(usecase.ErrNotFound, "migration directory not found (checked --dir, VIG_MIGRATIONS_DIR, ./db/migrations)")
}
