package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bistrobytes/internal/models"
)

// SaveLead inserts a captured lead. Interests are stored comma-joined.
func (db *DB) SaveLead(ctx context.Context, lead *models.Lead) error {
	query := `INSERT INTO leads (
				id, restaurant_name, owner_name, email, phone, interests,
				current_solution, locations, biggest_challenge, event_id,
				zoom_meeting_id, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	createdAt := lead.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := db.db.ExecContext(ctx, query,
		lead.ID,
		lead.RestaurantName,
		lead.OwnerName,
		lead.Email,
		lead.Phone,
		strings.Join(lead.Interests, ","),
		lead.CurrentSolution,
		lead.Locations,
		lead.BiggestChallenge,
		lead.EventID,
		lead.ZoomMeetingID,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save lead: %w", err)
	}

	lead.CreatedAt = createdAt
	return nil
}

// ListLeads returns all captured leads, newest first.
func (db *DB) ListLeads(ctx context.Context) ([]*models.Lead, error) {
	query := `
        SELECT id, restaurant_name, owner_name, email, phone, interests,
               current_solution, locations, biggest_challenge, event_id,
               zoom_meeting_id, created_at
        FROM leads ORDER BY created_at DESC
    `

	rows, err := db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	var leads []*models.Lead
	for rows.Next() {
		var lead models.Lead
		var interests string
		err := rows.Scan(
			&lead.ID,
			&lead.RestaurantName,
			&lead.OwnerName,
			&lead.Email,
			&lead.Phone,
			&interests,
			&lead.CurrentSolution,
			&lead.Locations,
			&lead.BiggestChallenge,
			&lead.EventID,
			&lead.ZoomMeetingID,
			&lead.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		if interests != "" {
			lead.Interests = strings.Split(interests, ",")
		}
		leads = append(leads, &lead)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return leads, nil
}
