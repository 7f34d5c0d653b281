package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"propsearch/internal/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const propertyColumns = `unique_property_id, project_name, location, price, area, pincode, property_type, landmark, amenities`

// PostgresRepository is the read-only query interface over the property table.
// All operations are side-effect-free and safe for concurrent use.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	// Disable prepared statement caching to avoid "unnamed prepared statement does not exist" errors
	if !strings.Contains(dsn, "?") {
		dsn += "?prefer_simple_protocol=true"
	} else {
		dsn += "&prefer_simple_protocol=true"
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// DB exposes the underlying connection pool so the document retriever can
// share it.
func (r *PostgresRepository) DB() *sqlx.DB {
	return r.db
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// GetByID retrieves a single property by its unique ID. Returns (nil, nil)
// when no such property exists.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*model.PropertyRecord, error) {
	var record model.PropertyRecord
	query := fmt.Sprintf(`SELECT %s FROM properties WHERE unique_property_id = $1`, propertyColumns)
	err := r.db.GetContext(ctx, &record, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return &record, nil
}

// ListFiltered returns a page of properties matching the optional price
// bounds, together with the total matching count. The count ignores
// limit/offset.
func (r *PostgresRepository) ListFiltered(ctx context.Context, minPrice, maxPrice *int64, limit, offset int) ([]model.PropertyRecord, int, error) {
	whereClause, args, argIndex := buildPriceFilter(minPrice, maxPrice, 1)

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM properties WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count properties: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM properties
		WHERE %s
		ORDER BY unique_property_id
		LIMIT $%d OFFSET $%d
	`, propertyColumns, whereClause, argIndex, argIndex+1)
	args = append(args, limit, offset)

	var records []model.PropertyRecord
	if err := r.db.SelectContext(ctx, &records, selectQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to fetch properties: %w", err)
	}

	return records, total, nil
}

// FilterByIDs returns the identifiers from ids that exist in the store and
// satisfy the optional price bounds, ordered per sortBy when given. An empty
// id set yields an empty result without issuing a query.
func (r *PostgresRepository) FilterByIDs(ctx context.Context, ids []string, minPrice, maxPrice *int64, sortBy string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args := buildIDFilterQuery(ids, minPrice, maxPrice, sortBy)

	var surviving []string
	if err := r.db.SelectContext(ctx, &surviving, query, args...); err != nil {
		return nil, fmt.Errorf("failed to filter properties: %w", err)
	}
	return surviving, nil
}

// Stats computes aggregate statistics over the property table.
func (r *PostgresRepository) Stats(ctx context.Context) (*model.PropertyStats, error) {
	stats := &model.PropertyStats{}

	if err := r.db.GetContext(ctx, &stats.TotalProperties, `SELECT COUNT(*) FROM properties`); err != nil {
		return nil, fmt.Errorf("failed to count properties: %w", err)
	}

	var aggregates struct {
		AvgPrice sql.NullFloat64 `db:"avg_price"`
		MinPrice sql.NullInt64   `db:"min_price"`
		MaxPrice sql.NullInt64   `db:"max_price"`
	}
	err := r.db.GetContext(ctx, &aggregates, `
		SELECT AVG(price) AS avg_price, MIN(price) AS min_price, MAX(price) AS max_price
		FROM properties
		WHERE price IS NOT NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate prices: %w", err)
	}
	if aggregates.AvgPrice.Valid {
		avg := math.Round(aggregates.AvgPrice.Float64*100) / 100
		stats.AveragePrice = &avg
	}
	if aggregates.MinPrice.Valid {
		stats.MinPrice = &aggregates.MinPrice.Int64
	}
	if aggregates.MaxPrice.Valid {
		stats.MaxPrice = &aggregates.MaxPrice.Int64
	}

	err = r.db.SelectContext(ctx, &stats.PropertyTypes, `
		SELECT property_type, COUNT(*) AS count
		FROM properties
		GROUP BY property_type
		ORDER BY count DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count property types: %w", err)
	}

	return stats, nil
}

// buildPriceFilter builds the shared price-range WHERE fragment. Absent
// bounds leave that side unconstrained.
func buildPriceFilter(minPrice, maxPrice *int64, argIndex int) (string, []interface{}, int) {
	clauses := []string{"1=1"}
	args := []interface{}{}

	if minPrice != nil {
		clauses = append(clauses, fmt.Sprintf("price >= $%d", argIndex))
		args = append(args, *minPrice)
		argIndex++
	}
	if maxPrice != nil {
		clauses = append(clauses, fmt.Sprintf("price <= $%d", argIndex))
		args = append(args, *maxPrice)
		argIndex++
	}

	return strings.Join(clauses, " AND "), args, argIndex
}

// buildIDFilterQuery builds the ID-set membership query used during
// reconciliation.
func buildIDFilterQuery(ids []string, minPrice, maxPrice *int64, sortBy string) (string, []interface{}) {
	placeholders := make([]string, len(ids))
	args := make([]interface{}, 0, len(ids)+2)
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args = append(args, id)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT unique_property_id FROM properties WHERE unique_property_id IN (%s)", strings.Join(placeholders, ","))

	argIndex := len(ids) + 1
	if minPrice != nil {
		fmt.Fprintf(&sb, " AND price >= $%d", argIndex)
		args = append(args, *minPrice)
		argIndex++
	}
	if maxPrice != nil {
		fmt.Fprintf(&sb, " AND price <= $%d", argIndex)
		args = append(args, *maxPrice)
		argIndex++
	}

	switch sortBy {
	case model.SortPriceAsc:
		sb.WriteString(" ORDER BY price ASC")
	case model.SortPriceDesc:
		sb.WriteString(" ORDER BY price DESC")
	}

	return sb.String(), args
}
