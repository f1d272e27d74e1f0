package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Person represents a gallery identity stored in the database.
// Embedding and Ratios are optional; whichever the active matcher
// consumes is loaded into it at startup.
type Person struct {
	ID        string
	Name      string
	Category  string
	Embedding []float64
	Ratios    []float64
	PhotoPath string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PersonRepository provides CRUD operations for persons.
type PersonRepository struct {
	db *sql.DB
}

// Persons returns the person repository for this store.
func (s *Store) Persons() *PersonRepository {
	return &PersonRepository{db: s.db}
}

// Create inserts a new person into the database.
func (r *PersonRepository) Create(p *Person) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	embedding, err := encodeVector(p.Embedding)
	if err != nil {
		return err
	}
	ratios, err := encodeVector(p.Ratios)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(
		`INSERT INTO persons (id, name, category, embedding, ratios, photo_path, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Category, embedding, ratios, p.PhotoPath, p.Notes, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// GetByID retrieves a person by id.
func (r *PersonRepository) GetByID(id string) (*Person, error) {
	row := r.db.QueryRow(
		`SELECT id, name, category, embedding, ratios, photo_path, notes, created_at, updated_at
		 FROM persons WHERE id = ?`,
		id,
	)
	return scanPerson(row)
}

// GetByName retrieves a person by name.
func (r *PersonRepository) GetByName(name string) (*Person, error) {
	row := r.db.QueryRow(
		`SELECT id, name, category, embedding, ratios, photo_path, notes, created_at, updated_at
		 FROM persons WHERE name = ?`,
		name,
	)
	return scanPerson(row)
}

// List retrieves all persons ordered by creation time ascending, so the
// gallery loads in first-seen order and ratio-distance ties stay stable
// across restarts.
func (r *PersonRepository) List() ([]*Person, error) {
	rows, err := r.db.Query(
		`SELECT id, name, category, embedding, ratios, photo_path, notes, created_at, updated_at
		 FROM persons ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var persons []*Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		persons = append(persons, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return persons, nil
}

// ListByCategory retrieves all persons with the given category.
func (r *PersonRepository) ListByCategory(category string) ([]*Person, error) {
	rows, err := r.db.Query(
		`SELECT id, name, category, embedding, ratios, photo_path, notes, created_at, updated_at
		 FROM persons WHERE category = ? ORDER BY created_at ASC, id ASC`,
		category,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var persons []*Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		persons = append(persons, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return persons, nil
}

// Update updates an existing person.
func (r *PersonRepository) Update(p *Person) error {
	p.UpdatedAt = time.Now()

	embedding, err := encodeVector(p.Embedding)
	if err != nil {
		return err
	}
	ratios, err := encodeVector(p.Ratios)
	if err != nil {
		return err
	}

	result, err := r.db.Exec(
		`UPDATE persons SET name = ?, category = ?, embedding = ?, ratios = ?, photo_path = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.Category, embedding, ratios, p.PhotoPath, p.Notes, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a person by id.
func (r *PersonRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM persons WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for scanPerson.
type scanner interface {
	Scan(dest ...any) error
}

func scanPerson(row scanner) (*Person, error) {
	p := &Person{}
	var embedding, ratios, photoPath, notes sql.NullString

	err := row.Scan(&p.ID, &p.Name, &p.Category, &embedding, &ratios, &photoPath, &notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	p.PhotoPath = photoPath.String
	p.Notes = notes.String

	if p.Embedding, err = decodeVector(embedding); err != nil {
		return nil, err
	}
	if p.Ratios, err = decodeVector(ratios); err != nil {
		return nil, err
	}
	return p, nil
}

// encodeVector serializes a vector to JSON; empty vectors become NULL.
func encodeVector(vec []float64) (any, error) {
	if len(vec) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(vec)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func decodeVector(col sql.NullString) ([]float64, error) {
	if !col.Valid || col.String == "" {
		return nil, nil
	}
	var vec []float64
	if err := json.Unmarshal([]byte(col.String), &vec); err != nil {
		return nil, err
	}
	return vec, nil
}
