package postgres

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5"

	"github.com/bnema/lifeboat/internal/domain"
)

// Queries mirroring the application's RLS audit: user relations overall and
// the subset with row-level security enabled. RLS coverage is a cheap proxy
// for "the schema and its security config came back intact".
const (
	tableCountQuery = `
		SELECT count(*)
		FROM pg_catalog.pg_tables
		WHERE schemaname NOT IN ('pg_catalog', 'information_schema')`

	rlsCountQuery = `
		SELECT count(*)
		FROM pg_catalog.pg_class c
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relkind = 'r'
		  AND c.relrowsecurity
		  AND n.nspname NOT IN ('pg_catalog', 'information_schema')`
)

// Verify connects to the restored database and produces the verification
// report.
func (e *Engine) Verify(ctx context.Context) (domain.VerificationReport, error) {
	conn, err := pgx.Connect(ctx, e.dsn())
	if err != nil {
		return domain.VerificationReport{}, fmt.Errorf("verification connection failed: %w", err)
	}
	defer conn.Close(ctx)

	var report domain.VerificationReport
	if err := conn.QueryRow(ctx, tableCountQuery).Scan(&report.TableCount); err != nil {
		return domain.VerificationReport{}, fmt.Errorf("table count query failed: %w", err)
	}
	if err := conn.QueryRow(ctx, rlsCountQuery).Scan(&report.RLSEnabledCount); err != nil {
		return domain.VerificationReport{}, fmt.Errorf("rls count query failed: %w", err)
	}
	return report, nil
}

func (e *Engine) dsn() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port),
		Path:   "/" + e.cfg.Name,
	}
	if e.cfg.Password != "" {
		u.User = url.UserPassword(e.cfg.User, e.cfg.Password)
	} else {
		u.User = url.User(e.cfg.User)
	}
	return u.String()
}
