package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/unklstewy/skyradar/pkg/adsb"
	"github.com/unklstewy/skyradar/pkg/geo"
)

// SourceName identifies the database data source.
const SourceName = "database"

const aircraftColumns = `icao24, callsign, origin_country, latitude, longitude,
		        altitude_ft, geo_altitude_ft, velocity_kts, heading_deg, vertical_rate_fpm,
		        squawk, on_ground, last_position_time, last_contact`

// AircraftRepository stores the latest report per aircraft and serves it
// back as an adsb.DataSource.
type AircraftRepository struct {
	db     *DB
	maxAge time.Duration
	now    func() time.Time
}

// NewAircraftRepository creates a new aircraft repository. Fetch ignores
// rows older than adsb.StaleThreshold.
func NewAircraftRepository(db *DB) *AircraftRepository {
	return &AircraftRepository{
		db:     db,
		maxAge: adsb.StaleThreshold,
		now:    time.Now,
	}
}

// Name implements adsb.DataSource.
func (r *AircraftRepository) Name() string {
	return SourceName
}

// Close closes the underlying connection pool.
func (r *AircraftRepository) Close() error {
	return r.db.Close()
}

// UpsertAircraft inserts or replaces one aircraft's latest report.
func (r *AircraftRepository) UpsertAircraft(ctx context.Context, ac adsb.Aircraft, source string, now time.Time) error {
	return upsert(ctx, r.db, ac, source, now)
}

// UpsertSnapshot stores a whole fetch in one transaction and returns the
// number of aircraft written.
func (r *AircraftRepository) UpsertSnapshot(ctx context.Context, aircraft []adsb.Aircraft, source string, now time.Time) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, ac := range aircraft {
		if err := upsert(ctx, tx, ac, source, now); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return len(aircraft), nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, ex execer, ac adsb.Aircraft, source string, now time.Time) error {
	var lat, lon sql.NullFloat64
	if ac.Position != nil {
		lat = sql.NullFloat64{Float64: ac.Position.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: ac.Position.Longitude, Valid: true}
	}

	_, err := ex.ExecContext(ctx,
		`INSERT INTO aircraft (
			icao24, callsign, origin_country, latitude, longitude,
			altitude_ft, geo_altitude_ft, velocity_kts, heading_deg, vertical_rate_fpm,
			squawk, on_ground, last_position_time, last_contact, source,
			report_count, first_seen, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, 1, $16, $16
		)
		ON CONFLICT (icao24) DO UPDATE SET
			callsign = EXCLUDED.callsign,
			origin_country = EXCLUDED.origin_country,
			latitude = COALESCE(EXCLUDED.latitude, aircraft.latitude),
			longitude = COALESCE(EXCLUDED.longitude, aircraft.longitude),
			altitude_ft = EXCLUDED.altitude_ft,
			geo_altitude_ft = EXCLUDED.geo_altitude_ft,
			velocity_kts = EXCLUDED.velocity_kts,
			heading_deg = EXCLUDED.heading_deg,
			vertical_rate_fpm = EXCLUDED.vertical_rate_fpm,
			squawk = EXCLUDED.squawk,
			on_ground = EXCLUDED.on_ground,
			last_position_time = COALESCE(EXCLUDED.last_position_time, aircraft.last_position_time),
			last_contact = EXCLUDED.last_contact,
			source = EXCLUDED.source,
			report_count = aircraft.report_count + 1,
			updated_at = EXCLUDED.updated_at`,
		strings.ToLower(ac.ICAO24), strings.TrimSpace(ac.Callsign), ac.OriginCountry, lat, lon,
		nullFloat(ac.Altitude), nullFloat(ac.GeoAltitude), nullFloat(ac.Velocity),
		nullFloat(ac.Heading), nullFloat(ac.VerticalRate),
		ac.Squawk, ac.OnGround, nullTime(ac.LastPositionTime), nullTime(ac.LastContact), source,
		now.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert aircraft %s: %w", ac.ICAO24, err)
	}
	return nil
}

// Fetch implements adsb.DataSource: recently updated aircraft within
// radiusKm of location, ordered by ICAO address.
func (r *AircraftRepository) Fetch(ctx context.Context, location geo.Location, radiusKm float64) ([]adsb.Aircraft, error) {
	box := adsb.NewBoundingBox(location, radiusKm)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+aircraftColumns+`
		 FROM aircraft
		 WHERE latitude BETWEEN $1 AND $2
		   AND longitude BETWEEN $3 AND $4
		   AND updated_at >= $5
		 ORDER BY icao24`,
		box.MinLat, box.MaxLat, box.MinLon, box.MaxLon,
		r.now().UTC().Add(-r.maxAge),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query aircraft: %w", err)
	}
	defer rows.Close()

	var aircraft []adsb.Aircraft
	for rows.Next() {
		ac, err := scanAircraft(rows)
		if err != nil {
			return nil, err
		}
		aircraft = append(aircraft, ac)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read aircraft: %w", err)
	}

	return adsb.FilterByRange(aircraft, location, radiusKm), nil
}

// Lookup implements adsb.ICAOLookup. Unknown addresses return nil, nil.
func (r *AircraftRepository) Lookup(ctx context.Context, icao24 string) (*adsb.Aircraft, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+aircraftColumns+`
		 FROM aircraft
		 WHERE icao24 = $1`,
		strings.ToLower(icao24),
	)
	ac, err := scanAircraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ac, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAircraft(s scanner) (adsb.Aircraft, error) {
	var (
		ac                                     adsb.Aircraft
		lat, lon, alt, geoAlt, vel, hdg, vrate sql.NullFloat64
		lastPos, lastContact                   sql.NullTime
	)
	err := s.Scan(
		&ac.ICAO24, &ac.Callsign, &ac.OriginCountry, &lat, &lon,
		&alt, &geoAlt, &vel, &hdg, &vrate,
		&ac.Squawk, &ac.OnGround, &lastPos, &lastContact,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ac, err
	}
	if err != nil {
		return ac, fmt.Errorf("failed to scan aircraft: %w", err)
	}

	if lat.Valid && lon.Valid {
		p := geo.NewPosition(lat.Float64, lon.Float64)
		ac.Position = &p
	}
	ac.Altitude = floatPtr(alt)
	ac.GeoAltitude = floatPtr(geoAlt)
	ac.Velocity = floatPtr(vel)
	ac.Heading = floatPtr(hdg)
	ac.VerticalRate = floatPtr(vrate)
	if lastPos.Valid {
		ac.LastPositionTime = lastPos.Time
	}
	if lastContact.Valid {
		ac.LastContact = lastContact.Time
	}
	return ac, nil
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
