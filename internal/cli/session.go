package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/ontic/internal/engine"
	"github.com/roach88/ontic/internal/store"
)

// session is a runtime bound to its contracts and, when a database is
// configured, to a SQLite journal it has already replayed.
type session struct {
	contracts *Contracts
	runtime   *engine.Runtime
	store     *store.Store
	replay    *engine.ReplayReport
	logger    *slog.Logger
}

// addDatabaseFlags registers the flags of commands that open a journal.
func addDatabaseFlags(cmd *cobra.Command, required string) {
	cmd.Flags().String("db", "", "path to SQLite journal"+required)
}

// addRuntimeFlags registers the flags of commands that execute calls.
func addRuntimeFlags(cmd *cobra.Command) {
	addDatabaseFlags(cmd, " (optional; calls are not persisted without it)")
	cmd.Flags().Bool("shared-ids", false, "issue truth and reality ids from one counter")
}

// openSession loads contracts and builds a runtime. With a database, every
// journaled call is replayed first so new calls continue the history. A
// journal recorded in the other id mode, or one that does not replay
// cleanly, is refused: appending to it would extend a history the
// runtime cannot reproduce.
func openSession(ctx context.Context, opts *RootOptions, extra ...engine.Option) (*session, error) {
	cfg := opts.Config
	c, err := LoadContracts(cfg.ContractsDir)
	if err != nil {
		return nil, err
	}

	s := &session{contracts: c, logger: opts.Logger}
	rtOpts := []engine.Option{
		engine.WithLogger(opts.Logger),
		engine.WithSpecHash(c.Hash),
	}
	if cfg.SharedIDs {
		rtOpts = append(rtOpts, engine.WithSharedIDs())
	}

	if cfg.Database != "" {
		st, err := openStore(cfg.Database, opts.Logger)
		if err != nil {
			return nil, err
		}
		s.store = st
		if err := claimIDMode(ctx, st, cfg.SharedIDs); err != nil {
			_ = s.Close()
			return nil, err
		}
		rtOpts = append(rtOpts, engine.WithJournal(st))
	}

	s.runtime = engine.New(c.Catalog, append(rtOpts, extra...)...)

	if s.store != nil {
		report, err := s.runtime.Replay(ctx, s.store)
		if err != nil {
			_ = s.Close()
			return nil, &LoadError{Code: ErrCodeDatabase, Message: "failed to replay journal: " + err.Error()}
		}
		if !report.OK() {
			opts.Logger.Warn("journal does not replay cleanly",
				"mismatches", len(report.Mismatches),
				"incomplete", len(report.Incomplete),
			)
			_ = s.Close()
			return nil, &LoadError{
				Code:    ErrCodeDatabase,
				Message: fmt.Sprintf("journal does not replay cleanly (%d mismatch(es)); refusing to append, run ontic replay for details", len(report.Mismatches)),
			}
		}
		s.replay = report
	}
	return s, nil
}

func idMode(shared bool) string {
	if shared {
		return "shared"
	}
	return "separate"
}

// claimIDMode records the session's id mode in a journal that has none and
// fails if the journal was recorded in the other mode.
func claimIDMode(ctx context.Context, st *store.Store, shared bool) error {
	want := idMode(shared)
	got, err := st.ClaimMeta(ctx, store.MetaIDMode, want)
	if err != nil {
		return &LoadError{Code: ErrCodeDatabase, Message: "failed to read journal settings: " + err.Error()}
	}
	return idModeMismatch(got, want)
}

// checkIDMode is claimIDMode for readers: a journal with no recorded mode
// is accepted as is.
func checkIDMode(ctx context.Context, st *store.Store, shared bool) error {
	got, ok, err := st.Meta(ctx, store.MetaIDMode)
	if err != nil {
		return &LoadError{Code: ErrCodeDatabase, Message: "failed to read journal settings: " + err.Error()}
	}
	if !ok {
		return nil
	}
	return idModeMismatch(got, idMode(shared))
}

func idModeMismatch(got, want string) error {
	if got == want {
		return nil
	}
	return &LoadError{
		Code:    ErrCodeDatabase,
		Message: fmt.Sprintf("journal was recorded with %s ids but this session uses %s ids (set shared_ids to match)", got, want),
	}
}

// openStore opens the journal at path.
func openStore(path string, logger *slog.Logger) (*store.Store, error) {
	logger.Debug("opening journal", "path", path)
	st, err := store.Open(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDatabase, Message: "failed to open database: " + err.Error()}
	}
	return st, nil
}

// requireFile fails unless path names an existing file. Commands that only
// read the journal use it so a mistyped path is not created empty.
func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("database not found: %s", path)
	}
	if info.IsDir() {
		return fmt.Errorf("database is a directory: %s", path)
	}
	return nil
}

// Close releases the journal, if any.
func (s *session) Close() error {
	if s.store == nil {
		return nil
	}
	err := s.store.Close()
	if err != nil {
		s.logger.Error("error closing database", "error", err)
	}
	return err
}

// reportLoadError writes a LoadError (or any other setup error) and returns
// the command error to exit with.
func reportLoadError(f *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return f.Fail(ExitCommandError, loadErr.Code, loadErr.Message, posDetails(loadErr))
	}
	return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
}

// posDetails returns the source position of a load error, or nil.
func posDetails(e *LoadError) any {
	if !e.Pos.IsValid() {
		return nil
	}
	return map[string]any{
		"file":   e.Pos.Filename(),
		"line":   e.Pos.Line(),
		"column": e.Pos.Column(),
	}
}
