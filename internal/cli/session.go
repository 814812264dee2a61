package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/decsync/internal/config"
	"github.com/roach88/decsync/internal/engine"
	"github.com/roach88/decsync/internal/listener"
	"github.com/roach88/decsync/internal/mirror"
	"github.com/roach88/decsync/internal/platform"
)

// session holds what one command invocation needs: resolved settings, the
// logger, the output formatter and, once opened, the engine and mirror.
type session struct {
	cfg      config.Config
	logger   *slog.Logger
	out      *OutputFormatter
	root     platform.Dir
	decsync  *engine.Decsync[context.Context]
	mirror   *mirror.Mirror
	closeLog func() error
}

// loadSession resolves settings and sets up logging. It touches nothing on
// disk except the log file and the .decsync-info marker.
// Errors have already been reported through the formatter.
func loadSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	cfg, err := config.Load(opts.ConfigFile, cmd.Flags())
	if err != nil {
		return nil, out.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}

	logger, closeLog, err := newLogger(cfg.Log, opts.Verbose, cmd.ErrOrStderr())
	if err != nil {
		return nil, out.Fail(ExitCommandError, ErrCodeConfig, "invalid log settings", err)
	}

	s := &session{
		cfg:      cfg,
		logger:   logger,
		out:      out,
		root:     platform.NewOSDir(cfg.Dir),
		closeLog: closeLog,
	}
	out.VerboseLog("decsync dir %s, sync type %q, collection %q, app %s",
		cfg.Dir, cfg.SyncType, cfg.Collection, cfg.AppID)

	if err := engine.CheckDecsyncInfo(s.root); err != nil {
		s.Close()
		return nil, out.Fail(ExitCommandError, ErrCodeDirectory, "unusable decsync directory", err)
	}
	return s, nil
}

// openEngine opens the engine for the configured sync type and collection.
// With withMirror and a configured mirror database, the mirror is opened and
// registered as the listener for every path.
func (s *session) openEngine(withMirror bool) error {
	local := platform.DecsyncSubdir(platform.NewOSDir(s.cfg.LocalDir), s.cfg.SyncType, s.cfg.Collection).
		Dir(s.cfg.AppID)

	d, err := engine.New[context.Context](
		s.root, local,
		s.cfg.SyncType, s.cfg.Collection, s.cfg.AppID,
		engine.WithLogger(s.logger),
	)
	if err != nil {
		return s.out.Fail(ExitCommandError, ErrCodeDirectory, "failed to open decsync directory", err)
	}
	s.decsync = d

	if withMirror && s.cfg.Mirror != "" {
		if err := s.openMirror(); err != nil {
			return err
		}
		d.AddListener(listener.Listener[context.Context]{OnEntriesUpdate: s.mirror.OnEntriesUpdate})
	}
	return nil
}

// openMirror opens the configured mirror database.
func (s *session) openMirror() error {
	if s.cfg.Mirror == "" {
		return s.out.Fail(ExitCommandError, ErrCodeMirror, "no mirror database configured (use --mirror)", nil)
	}
	m, err := mirror.Open(s.cfg.Mirror, s.logger)
	if err != nil {
		return s.out.Fail(ExitCommandError, ErrCodeMirror, "failed to open mirror", err)
	}
	s.mirror = m
	return nil
}

// engineOptions returns the options for the engine's directory-level helpers.
func (s *session) engineOptions() []engine.Option {
	return []engine.Option{engine.WithLogger(s.logger)}
}

// Close releases the mirror and the log file.
func (s *session) Close() error {
	var errs []error
	if s.mirror != nil {
		if err := s.mirror.Close(); err != nil {
			s.logger.Error("error closing mirror", "error", err)
			errs = append(errs, err)
		}
	}
	if s.closeLog != nil {
		errs = append(errs, s.closeLog())
	}
	return errors.Join(errs...)
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
