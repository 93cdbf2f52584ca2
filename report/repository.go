// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jcodagnone/routeco2/estimate"
	"github.com/jcodagnone/routeco2/spatial"
	"github.com/uber/h3-go/v4"
)

// Repository stores trips in a DuckDB table.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repository on top of db.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateSchema creates the trips table.
func (r *Repository) CreateSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS trips (
			seq BIGINT NOT NULL,
			status VARCHAR NOT NULL,
			distance_km DOUBLE,
			co2_kg DOUBLE,
			origin_cell BIGINT
		);
	`)

	return err
}

// BulkInsert appends trips in a single transaction.
func (r *Repository) BulkInsert(ctx context.Context, trips []Trip, resolution int) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trips(seq, status, distance_km, co2_kg, origin_cell)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, t := range trips {
		cell, err := originCell(t.Origin, resolution)
		if err != nil {
			return fmt.Errorf("trip %d: %w", i+1, err)
		}

		if _, err := stmt.ExecContext(ctx, int64(i), t.Status, nullable(t.DistanceKM), nullable(t.CO2KG), cell); err != nil {
			return fmt.Errorf("trip %d: %w", i+1, err)
		}
	}

	return tx.Commit()
}

// originCell and nullable return plain values or an untyped nil, which the
// driver binds as NULL.
func originCell(p *spatial.Point, resolution int) (any, error) {
	if p == nil {
		return nil, nil
	}

	cell, err := p.Cell(resolution)
	if err != nil {
		return nil, err
	}

	return int64(cell), nil
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}

	return *v
}

// StatusBreakdown counts trips per status, most frequent first.
func (r *Repository) StatusBreakdown(ctx context.Context) ([]StatusSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(distance_km), 0), COALESCE(SUM(co2_kg), 0)
		FROM trips
		GROUP BY status
		ORDER BY COUNT(*) DESC, status
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query status breakdown: %w", err)
	}
	defer rows.Close()

	var ret []StatusSummary

	for rows.Next() {
		var s StatusSummary
		if err := rows.Scan(&s.Status, &s.Trips, &s.DistanceKM, &s.CO2KG); err != nil {
			return nil, fmt.Errorf("failed to scan status breakdown: %w", err)
		}

		s.DistanceKM = estimate.Round(s.DistanceKM, 2)
		s.CO2KG = estimate.Round(s.CO2KG, 3)
		ret = append(ret, s)
	}

	return ret, rows.Err()
}

// TopOrigins returns the origin cells of successful trips with the highest
// emissions.
func (r *Repository) TopOrigins(ctx context.Context, limit int) ([]CellSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT origin_cell, COUNT(*), COALESCE(SUM(co2_kg), 0) AS co2
		FROM trips
		WHERE origin_cell IS NOT NULL AND co2_kg IS NOT NULL
		GROUP BY origin_cell
		ORDER BY co2 DESC, origin_cell
		LIMIT ?
	`, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query top origins: %w", err)
	}
	defer rows.Close()

	var ret []CellSummary

	for rows.Next() {
		var (
			id int64
			c  CellSummary
		)

		if err := rows.Scan(&id, &c.Trips, &c.CO2KG); err != nil {
			return nil, fmt.Errorf("failed to scan top origins: %w", err)
		}

		c.Cell = h3.Cell(id)
		c.ID = c.Cell.String()
		c.CO2KG = estimate.Round(c.CO2KG, 3)

		center, err := h3.CellToLatLng(c.Cell)
		if err != nil {
			return nil, fmt.Errorf("cell %s: %w", c.ID, err)
		}

		c.Center = spatial.Point{Lat: center.Lat, Lng: center.Lng}
		ret = append(ret, c)
	}

	return ret, rows.Err()
}
