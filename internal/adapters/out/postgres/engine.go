// Package postgres shells out to the PostgreSQL client tools for dump and
// restore, and uses pgx for the post-restore verification queries. pg_dump
// and psql are the engine's native, battle-tested snapshot facility; there
// is no point reimplementing them over a wire protocol.
package postgres

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/bnema/lifeboat/internal/boundaries/out"
	"github.com/bnema/lifeboat/internal/config"
)

// Engine implements out.DatabaseEngine against a live PostgreSQL server.
type Engine struct {
	cfg config.DatabaseConfig
	log *log.Logger
}

// NewEngine creates a PostgreSQL engine.
func NewEngine(cfg config.DatabaseConfig, logger *log.Logger) *Engine {
	return &Engine{cfg: cfg, log: logger}
}

var _ out.DatabaseEngine = (*Engine)(nil)

// dumpArgs builds the pg_dump invocation. --clean --if-exists makes the
// resulting SQL drop conflicting objects on restore while ignoring missing
// ones; plain format keeps the artifact restorable with nothing but psql.
func (e *Engine) dumpArgs() []string {
	return append(e.connArgs(),
		"--format=plain",
		"--clean",
		"--if-exists",
		"--no-owner",
		e.cfg.Name,
	)
}

// restoreArgs builds the psql invocation applying a plain SQL dump as one
// transaction. ON_ERROR_STOP turns any statement failure into a transaction
// abort instead of a stream of ignored errors.
func (e *Engine) restoreArgs(sqlPath string) []string {
	return append(e.connArgs(),
		"--single-transaction",
		"-v", "ON_ERROR_STOP=1",
		"--dbname", e.cfg.Name,
		"--file", sqlPath,
	)
}

func (e *Engine) connArgs() []string {
	return []string{
		"--host", e.cfg.Host,
		"--port", strconv.Itoa(e.cfg.Port),
		"--username", e.cfg.User,
		"--no-password",
	}
}

func (e *Engine) env() []string {
	env := os.Environ()
	if e.cfg.Password != "" {
		env = append(env, "PGPASSWORD="+e.cfg.Password)
	}
	return env
}

// Dump streams pg_dump output through gzip at maximum compression into
// destPath, written as a temp file and renamed into place so a partial dump
// never looks like a finished artifact.
func (e *Engine) Dump(ctx context.Context, destPath string) error {
	tmpPath := destPath + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create dump file: %w", err)
	}

	zw, err := gzip.NewWriterLevel(f, gzip.BestCompression)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	cmd := exec.CommandContext(ctx, "pg_dump", e.dumpArgs()...)
	cmd.Env = e.env()

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	if err := cmd.Start(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to start pg_dump: %w", err)
	}

	written, copyErr := io.Copy(zw, stdout)
	waitErr := cmd.Wait()

	if err := zw.Close(); err != nil && copyErr == nil {
		copyErr = err
	}
	if err := f.Close(); err != nil && copyErr == nil {
		copyErr = err
	}

	if waitErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("pg_dump failed: %v: %s", waitErr, stderrTail(&stderr))
	}
	if copyErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write dump: %w", copyErr)
	}
	if written == 0 {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("pg_dump produced an empty dump for %q", e.cfg.Name)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize dump file: %w", err)
	}

	e.log.Debug("database dump written", "path", destPath, "uncompressed_bytes", written)
	return nil
}

// Restore applies a plain SQL file with psql inside a single transaction.
// psql chatter on stderr (NOTICE lines, benign ordering hints) is logged,
// not treated as failure; only a non-zero exit aborts.
func (e *Engine) Restore(ctx context.Context, sqlPath string) error {
	cmd := exec.CommandContext(ctx, "psql", e.restoreArgs(sqlPath)...)
	cmd.Env = e.env()

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Stdout = io.Discard

	err := cmd.Run()
	if notices := stderrTail(&stderr); notices != "" {
		if err != nil {
			return fmt.Errorf("psql failed: %v: %s", err, notices)
		}
		e.log.Warn("restore finished with engine notices", "notices", notices)
		return nil
	}
	if err != nil {
		return fmt.Errorf("psql failed: %w", err)
	}
	return nil
}

// stderrTail returns the last few lines of captured stderr, enough to
// diagnose without flooding the log with a whole dump's worth of notices.
func stderrTail(buf *bytes.Buffer) string {
	const maxLines = 5

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return ""
	}
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return strings.Join(lines, "; ")
}
