package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/omriShneor/meeting_agent/internal/dialogue"
)

const defaultBookingsLimit = 50

// Booking is a confirmed meeting as recorded after the calendar accepted it
type Booking struct {
	ID              int64     `json:"id"`
	UserID          string    `json:"user_id"`
	Title           string    `json:"title"`
	Person          string    `json:"person"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Timezone        string    `json:"timezone"`
	EventRef        string    `json:"event_ref,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// RecordBooking stores a booked event for userID
func (d *DB) RecordBooking(ctx context.Context, userID string, ev dialogue.EventSpec) error {
	var eventRef sql.NullString
	if ev.EventRef != "" {
		eventRef = sql.NullString{String: ev.EventRef, Valid: true}
	}

	_, err := d.ExecContext(ctx, `
		INSERT INTO bookings (user_id, title, person, start_time, duration_minutes, timezone, event_ref)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, userID, ev.Title, ev.Person, ev.Start.UTC(), ev.DurationMinutes, ev.Timezone, eventRef)
	if err != nil {
		return fmt.Errorf("failed to record booking: %w", err)
	}
	return nil
}

// ListBookingsByUser returns the user's bookings, latest start first
func (d *DB) ListBookingsByUser(ctx context.Context, userID string, limit int) ([]Booking, error) {
	if limit <= 0 {
		limit = defaultBookingsLimit
	}

	rows, err := d.QueryContext(ctx, `
		SELECT id, user_id, title, person, start_time, duration_minutes, timezone, event_ref, created_at
		FROM bookings
		WHERE user_id = ?
		ORDER BY start_time DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []Booking{}
	for rows.Next() {
		var b Booking
		var eventRef sql.NullString
		if err := rows.Scan(&b.ID, &b.UserID, &b.Title, &b.Person, &b.StartTime,
			&b.DurationMinutes, &b.Timezone, &eventRef, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		b.EventRef = eventRef.String
		bookings = append(bookings, b)
	}

	return bookings, rows.Err()
}
