package osm2ttm

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

const (
	DEFAULT_POSTGRES_TABLE = "travel_times"
)

// PostgresWriter replaces matrix table and grid table (suffixed `_grid`) in a single transaction
type PostgresWriter struct {
	dsn   string
	table string
}

func NewPostgresWriter(dsn, table string) *PostgresWriter {
	if table == "" {
		table = DEFAULT_POSTGRES_TABLE
	}
	return &PostgresWriter{dsn: dsn, table: table}
}

func (writer *PostgresWriter) Name() string {
	return "postgres"
}

// Write ignores output directory
func (writer *PostgresWriter) Write(ctx context.Context, _ string, data OutputData) error {
	pool, err := pgxpool.New(ctx, writer.dsn)
	if err != nil {
		return errors.Wrap(err, "Can't connect to PostgreSQL")
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "Can't begin transaction")
	}
	// No-op after commit
	defer tx.Rollback(ctx)

	if err := writer.copyMatrix(ctx, tx, data.Matrix); err != nil {
		return err
	}
	if err := writer.copyGrid(ctx, tx, data.Points); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "Can't commit travel times")
	}
	return nil
}

func (writer *PostgresWriter) matrixDDL(table string, columns []string) string {
	definitions := []string{
		pgx.Identifier{FROM_ID_COLUMN}.Sanitize() + " TEXT NOT NULL",
		pgx.Identifier{TO_ID_COLUMN}.Sanitize() + " TEXT NOT NULL",
	}
	for _, column := range columns {
		definitions = append(definitions, pgx.Identifier{column}.Sanitize()+" DOUBLE PRECISION")
	}
	definitions = append(definitions, fmt.Sprintf("PRIMARY KEY (%s, %s)", pgx.Identifier{FROM_ID_COLUMN}.Sanitize(), pgx.Identifier{TO_ID_COLUMN}.Sanitize()))
	return fmt.Sprintf("CREATE TABLE %s (%s)", pgx.Identifier{table}.Sanitize(), strings.Join(definitions, ", "))
}

func (writer *PostgresWriter) recreate(ctx context.Context, tx pgx.Tx, table, ddl string) error {
	if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+pgx.Identifier{table}.Sanitize()); err != nil {
		return errors.Wrapf(err, "Can't drop table '%s'", table)
	}
	if _, err := tx.Exec(ctx, ddl); err != nil {
		return errors.Wrapf(err, "Can't create table '%s'", table)
	}
	return nil
}

func (writer *PostgresWriter) copyMatrix(ctx context.Context, tx pgx.Tx, matrix *TravelTimeMatrix) error {
	columns := matrix.Columns()
	if err := writer.recreate(ctx, tx, writer.table, writer.matrixDDL(writer.table, columns)); err != nil {
		return err
	}
	row := 0
	source := pgx.CopyFromFunc(func() ([]any, error) {
		if row >= matrix.Len() {
			return nil, nil
		}
		pair := matrix.Pair(row)
		values := make([]any, 0, len(columns)+2)
		values = append(values, pair.FromID, pair.ToID)
		for _, column := range columns {
			values = append(values, cellValue(matrix, column, row))
		}
		row++
		return values, nil
	})
	copied, err := tx.CopyFrom(ctx, pgx.Identifier{writer.table}, csvHeader(matrix), source)
	if err != nil {
		return errors.Wrapf(err, "Can't copy travel times into '%s'", writer.table)
	}
	log.WithField("table", writer.table).Infof("Copied %d rows", copied)
	return nil
}

func (writer *PostgresWriter) copyGrid(ctx context.Context, tx pgx.Tx, points []Point) error {
	table := writer.table + "_grid"
	ddl := fmt.Sprintf("CREATE TABLE %s (%s TEXT PRIMARY KEY, centroid TEXT NOT NULL)", pgx.Identifier{table}.Sanitize(), pgx.Identifier{DEFAULT_POINT_ID_PROPERTY}.Sanitize())
	if err := writer.recreate(ctx, tx, table, ddl); err != nil {
		return err
	}
	rows := make([][]any, len(points))
	for i, pt := range points {
		rows[i] = []any{pt.ID, PrepareEWKTPoint(pt.Geom)}
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{table}, []string{DEFAULT_POINT_ID_PROPERTY, "centroid"}, pgx.CopyFromRows(rows)); err != nil {
		return errors.Wrapf(err, "Can't copy grid into '%s'", table)
	}
	return nil
}
