package optimizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/amolj/index_alerter/utils"
)

// PGWhatIfOptimizer is the what-if optimizer implementation for PostgreSQL,
// built on the hypopg extension. It holds exactly one connection because
// hypothetical indexes only exist in the session that created them.
type PGWhatIfOptimizer struct {
	conn      *pgx.Conn
	stats     WhatIfOptimizerStats
	debugFlag bool
}

// NewPGWhatIfOptimizer connects to the given PostgreSQL DSN and prepares the
// hypopg extension. A failure to create the extension is not fatal here; it
// surfaces on the first hypothetical-index call.
func NewPGWhatIfOptimizer(ctx context.Context, dsn string) (*PGWhatIfOptimizer, error) {
	utils.Debugf("connecting to %v", dsn)
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	o := &PGWhatIfOptimizer{conn: conn}
	if err := o.Execute(ctx, `CREATE EXTENSION IF NOT EXISTS hypopg`); err != nil {
		utils.Warningf("could not create hypopg extension: %v", err)
	}
	return o, nil
}

// ResetStats resets the statistics.
func (o *PGWhatIfOptimizer) ResetStats() {
	o.stats = WhatIfOptimizerStats{}
}

// Stats returns the statistics.
func (o *PGWhatIfOptimizer) Stats() WhatIfOptimizerStats {
	return o.stats
}

// SetDebug sets the debug flag.
func (o *PGWhatIfOptimizer) SetDebug(flag bool) {
	o.debugFlag = flag
}

func (o *PGWhatIfOptimizer) recordStats(startTime time.Time, dur *time.Duration, counter *int) {
	*dur = *dur + time.Since(startTime)
	*counter = *counter + 1
}

// Execute executes the specified SQL statement.
func (o *PGWhatIfOptimizer) Execute(ctx context.Context, sql string) error {
	defer o.recordStats(time.Now(), &o.stats.ExecuteTime, &o.stats.ExecuteCount)
	if o.debugFlag {
		fmt.Println(sql)
	}
	_, err := o.conn.Exec(ctx, sql)
	return err
}

// Close releases the underlying database connection.
func (o *PGWhatIfOptimizer) Close(ctx context.Context) error {
	return o.conn.Close(ctx)
}

// Explain returns the planner's cost estimate and the inspectable plan of
// the query. Any hypothetical index alive in this session is visible to the
// planner; VERBOSE keeps the referenced index names in the output.
func (o *PGWhatIfOptimizer) Explain(ctx context.Context, query string) (ExplainOutput, error) {
	defer o.recordStats(time.Now(), &o.stats.GetCostTime, &o.stats.GetCostCount)
	if o.debugFlag {
		fmt.Println(query)
	}
	var doc []byte
	if err := o.conn.QueryRow(ctx, "EXPLAIN (FORMAT JSON, VERBOSE) "+query).Scan(&doc); err != nil {
		return ExplainOutput{}, fmt.Errorf("explaining query: %w", err)
	}
	return ParseExplainOutput(doc)
}

// EstimateCost returns the planner's total cost estimate of the query.
func (o *PGWhatIfOptimizer) EstimateCost(ctx context.Context, query string) (float64, error) {
	out, err := o.Explain(ctx, query)
	if err != nil {
		return 0, err
	}
	return out.PlanCost(), nil
}

// CreateHypoIndex creates a hypothetical index and returns its handle,
// including the oracle-estimated size.
func (o *PGWhatIfOptimizer) CreateHypoIndex(ctx context.Context, table string, columns []string) (HypoIndex, error) {
	defer o.recordStats(time.Now(), &o.stats.CreateOrDropHypoIdxTime, &o.stats.CreateOrDropHypoIdxCount)
	createStmt := fmt.Sprintf(`CREATE INDEX ON %s (%s)`, table, strings.Join(columns, ", "))
	index := HypoIndex{Table: table, Columns: columns}
	err := o.conn.QueryRow(ctx, `SELECT indexrelid, indexname FROM hypopg_create_index($1)`, createStmt).
		Scan(&index.OID, &index.IndexName)
	if err != nil {
		return HypoIndex{}, fmt.Errorf("creating hypothetical index %q: %w", createStmt, err)
	}
	if size, err := o.HypoIndexSize(ctx, index); err == nil {
		index.SizeBytes = size
	} else {
		utils.Debugf("could not size hypothetical index %v: %v", index.IndexName, err)
	}
	return index, nil
}

// HypoIndexSize returns the oracle-estimated size of the hypothetical index in bytes.
func (o *PGWhatIfOptimizer) HypoIndexSize(ctx context.Context, index HypoIndex) (int64, error) {
	var size int64
	if err := o.conn.QueryRow(ctx, `SELECT hypopg_relation_size($1)`, index.OID).Scan(&size); err != nil {
		return 0, fmt.Errorf("sizing hypothetical index: %w", err)
	}
	return size, nil
}

// DropHypoIndex drops a hypothetical index.
func (o *PGWhatIfOptimizer) DropHypoIndex(ctx context.Context, index HypoIndex) error {
	defer o.recordStats(time.Now(), &o.stats.CreateOrDropHypoIdxTime, &o.stats.CreateOrDropHypoIdxCount)
	var dropped bool
	if err := o.conn.QueryRow(ctx, `SELECT hypopg_drop_index($1)`, index.OID).Scan(&dropped); err != nil {
		return fmt.Errorf("dropping hypothetical index %v: %w", index.IndexName, err)
	}
	if !dropped {
		return fmt.Errorf("hypothetical index %v was not dropped", index.IndexName)
	}
	return nil
}

// ResetHypoIndexes drops every hypothetical index of this session.
func (o *PGWhatIfOptimizer) ResetHypoIndexes(ctx context.Context) error {
	defer o.recordStats(time.Now(), &o.stats.CreateOrDropHypoIdxTime, &o.stats.CreateOrDropHypoIdxCount)
	_, err := o.conn.Exec(ctx, `SELECT hypopg_reset()`)
	return err
}

// IndexedColumns returns the columns of the table covered by existing real indexes.
func (o *PGWhatIfOptimizer) IndexedColumns(ctx context.Context, table string) (utils.Set[utils.LowerString], error) {
	rows, err := o.conn.Query(ctx, `
		SELECT a.attname
		FROM pg_index i
		JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey)
		JOIN pg_class t ON t.oid = i.indrelid
		WHERE t.relname = $1`, strings.ToLower(table))
	if err != nil {
		return nil, fmt.Errorf("listing indexed columns of %v: %w", table, err)
	}
	defer rows.Close()

	cols := utils.NewSet[utils.LowerString]()
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, err
		}
		cols.Add(utils.NewLowerString(col))
	}
	return cols, rows.Err()
}

// RealIndexSize measures the realized size of an index on (table, column) by
// creating a temporary real index, reading pg_relation_size, and dropping it.
func (o *PGWhatIfOptimizer) RealIndexSize(ctx context.Context, table, column string) (int64, error) {
	tempName := fmt.Sprintf("temp_idx_size_%s_%d", column, time.Now().UnixMicro())
	if err := o.Execute(ctx, fmt.Sprintf("CREATE INDEX %s ON %s (%s)", tempName, table, column)); err != nil {
		return 0, fmt.Errorf("creating temporary index on %v(%v): %w", table, column, err)
	}
	defer func() {
		if err := o.Execute(ctx, "DROP INDEX "+tempName); err != nil {
			utils.Warningf("could not drop temporary index %v: %v", tempName, err)
		}
	}()

	var size int64
	if err := o.conn.QueryRow(ctx, `SELECT pg_relation_size($1::regclass)`, tempName).Scan(&size); err != nil {
		return 0, fmt.Errorf("sizing temporary index %v: %w", tempName, err)
	}
	return size, nil
}
