package store

import (
	"database/sql"
	"errors"
	"time"
)

// Event represents a presence transition recorded in the database.
// PersonID is empty for unrecognized subjects.
type Event struct {
	ID         string
	PersonID   string
	PersonName string
	Kind       string
	Confidence float64
	BBoxX      int
	BBoxY      int
	BBoxWidth  int
	BBoxHeight int
	CreatedAt  time.Time
}

// DailyStats summarizes today's events.
type DailyStats struct {
	Total    int `json:"total"`
	Appeared int `json:"appeared"`
	Departed int `json:"departed"`
}

// EventRepository provides operations on the detection event log.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Create inserts a new event.
func (r *EventRepository) Create(e *Event) error {
	e.CreatedAt = time.Now()

	var personID any
	if e.PersonID != "" {
		personID = e.PersonID
	}

	_, err := r.db.Exec(
		`INSERT INTO events (id, person_id, kind, person_name, confidence, bbox_x, bbox_y, bbox_width, bbox_height, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, personID, e.Kind, e.PersonName, e.Confidence, e.BBoxX, e.BBoxY, e.BBoxWidth, e.BBoxHeight, e.CreatedAt,
	)
	return err
}

// Recent retrieves the most recent events, newest first.
func (r *EventRepository) Recent(limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(
		`SELECT id, person_id, person_name, kind, confidence, bbox_x, bbox_y, bbox_width, bbox_height, created_at
		 FROM events ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEvents(rows)
}

// ByPerson retrieves all events for a person, newest first.
func (r *EventRepository) ByPerson(personID string) ([]*Event, error) {
	rows, err := r.db.Query(
		`SELECT id, person_id, person_name, kind, confidence, bbox_x, bbox_y, bbox_width, bbox_height, created_at
		 FROM events WHERE person_id = ? ORDER BY created_at DESC, id DESC`,
		personID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEvents(rows)
}

// DailyStats counts today's events by kind. "Today" starts at local
// midnight, not UTC midnight.
func (r *EventRepository) DailyStats() (*DailyStats, error) {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	rows, err := r.db.Query(
		`SELECT kind, COUNT(*) FROM events WHERE created_at >= ? GROUP BY kind`,
		midnight,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &DailyStats{}
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		switch kind {
		case "appeared":
			stats.Appeared = count
		case "departed":
			stats.Departed = count
		}
		stats.Total += count
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

func collectEvents(rows *sql.Rows) ([]*Event, error) {
	var events []*Event
	for rows.Next() {
		e := &Event{}
		var personID, personName sql.NullString

		err := rows.Scan(&e.ID, &personID, &personName, &e.Kind, &e.Confidence,
			&e.BBoxX, &e.BBoxY, &e.BBoxWidth, &e.BBoxHeight, &e.CreatedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrNotFound
			}
			return nil, err
		}

		e.PersonID = personID.String
		e.PersonName = personName.String
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
