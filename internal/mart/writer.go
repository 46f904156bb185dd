package mart

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/fundtrace/internal/contracts"
	"github.com/wonny/fundtrace/pkg/database"
	"github.com/wonny/fundtrace/pkg/logger"
)

// TxBeginner is satisfied by *pgxpool.Pool
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Writer replaces every mart table in a single transaction
type Writer struct {
	db     TxBeginner
	logger *logger.Logger
	now    func() time.Time
}

// NewWriter creates a new mart Writer
func NewWriter(db TxBeginner, log *logger.Logger) *Writer {
	return &Writer{db: db, logger: log, now: time.Now}
}

// Write drops and recreates all tables, bulk-copies the rows, recreates the
// views and appends the run log. Nothing is visible until commit.
// ⭐ SSOT: S5 마트 적재 (단일 트랜잭션)
func (w *Writer) Write(ctx context.Context, run contracts.RunInfo, out *contracts.OutputSet) error {
	tx, err := w.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, v := range viewNames {
		if _, err := tx.Exec(ctx, "DROP VIEW IF EXISTS "+database.QuoteIdent(v)); err != nil {
			return fmt.Errorf("drop view %s: %w", v, err)
		}
	}

	counts := make(map[string]int, len(Tables()))
	for _, t := range Tables() {
		n, err := writeTable(ctx, tx, t, out)
		if err != nil {
			return err
		}
		counts[t.Name] = n
	}

	// vw_dashboard_cards 가 etl_run_log 를 참조하므로 view 보다 먼저
	if _, err := tx.Exec(ctx, runLogDDL); err != nil {
		return fmt.Errorf("create etl_run_log: %w", err)
	}

	for _, sql := range viewSQL {
		if _, err := tx.Exec(ctx, sql); err != nil {
			return fmt.Errorf("create view: %w", err)
		}
	}

	if err := w.insertRunLog(ctx, tx, run, out, counts); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	fields := make(map[string]interface{}, len(counts)+1)
	for name, n := range counts {
		fields[name] = n
	}
	fields["run_id"] = run.RunID
	w.logger.WithFields(fields).Info("Mart tables written")

	return nil
}

func writeTable(ctx context.Context, tx pgx.Tx, t Table, out *contracts.OutputSet) (int, error) {
	name := database.QuoteIdent(t.Name)

	if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+name+" CASCADE"); err != nil {
		return 0, fmt.Errorf("drop %s: %w", t.Name, err)
	}
	if _, err := tx.Exec(ctx, CreateTableSQL(t)); err != nil {
		return 0, fmt.Errorf("create %s: %w", t.Name, err)
	}

	rows := t.Rows(out)
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{t.Name}, t.ColumnNames(), pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy %s: %w", t.Name, err)
	}
	return int(n), nil
}

// CreateTableSQL renders the CREATE TABLE statement of t
func CreateTableSQL(t Table) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(database.QuoteIdent(t.Name))
	b.WriteString(" (\n")
	for i, c := range t.Columns {
		b.WriteString("\t")
		b.WriteString(database.QuoteIdent(c.Name))
		b.WriteString(" ")
		b.WriteString(c.Type)
		if i < len(t.Columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(")")
	return b.String()
}

func (w *Writer) insertRunLog(ctx context.Context, tx pgx.Tx, run contracts.RunInfo, out *contracts.OutputSet, counts map[string]int) error {
	countsJSON, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("marshal row counts: %w", err)
	}

	finished := w.now()
	_, err = tx.Exec(ctx, runLogInsert,
		run.RunID, run.ConfigHash, out.BaseCurrency, out.TopN,
		run.StartedAt, finished, finished.Sub(run.StartedAt).Milliseconds(), countsJSON,
	)
	if err != nil {
		return fmt.Errorf("insert run log: %w", err)
	}
	return nil
}
