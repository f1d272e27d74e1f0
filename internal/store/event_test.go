package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestEventRepository_CreateAndRecent(t *testing.T) {
	s := newTestStore(t)
	events := s.Events()

	p := testPerson("Ana", "known")
	if err := s.Persons().Create(p); err != nil {
		t.Fatalf("Create(person) error = %v", err)
	}

	for _, kind := range []string{"appeared", "departed"} {
		e := &Event{
			ID:         uuid.New().String(),
			PersonID:   p.ID,
			PersonName: p.Name,
			Kind:       kind,
			Confidence: 0.92,
			BBoxX:      100, BBoxY: 80, BBoxWidth: 200, BBoxHeight: 240,
		}
		if err := events.Create(e); err != nil {
			t.Fatalf("Create(%s) error = %v", kind, err)
		}
	}

	recent, err := events.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Recent() returned %d events, want 2", len(recent))
	}
	if recent[0].PersonName != "Ana" || recent[0].BBoxWidth != 200 {
		t.Errorf("event round trip failed: %+v", recent[0])
	}
}

func TestEventRepository_AnonymousEvent(t *testing.T) {
	events := newTestStore(t).Events()

	e := &Event{
		ID:   uuid.New().String(),
		Kind: "appeared",
	}
	if err := events.Create(e); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	recent, err := events.Recent(1)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if recent[0].PersonID != "" {
		t.Errorf("anonymous event has person id %q, want empty", recent[0].PersonID)
	}
}

func TestEventRepository_RecentLimit(t *testing.T) {
	events := newTestStore(t).Events()

	for i := 0; i < 5; i++ {
		events.Create(&Event{ID: uuid.New().String(), Kind: "appeared"})
	}

	recent, err := events.Recent(3)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 3 {
		t.Errorf("Recent(3) returned %d events", len(recent))
	}
}

func TestEventRepository_ByPerson(t *testing.T) {
	s := newTestStore(t)

	p := testPerson("Ana", "known")
	s.Persons().Create(p)

	s.Events().Create(&Event{ID: uuid.New().String(), PersonID: p.ID, Kind: "appeared"})
	s.Events().Create(&Event{ID: uuid.New().String(), Kind: "appeared"})

	got, err := s.Events().ByPerson(p.ID)
	if err != nil {
		t.Fatalf("ByPerson() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("ByPerson() returned %d events, want 1", len(got))
	}
}

// Deleting a person keeps their event history but detaches the
// reference, courtesy of ON DELETE SET NULL.
func TestEventRepository_SurvivesPersonDelete(t *testing.T) {
	s := newTestStore(t)

	p := testPerson("Ana", "known")
	s.Persons().Create(p)
	s.Events().Create(&Event{ID: uuid.New().String(), PersonID: p.ID, PersonName: "Ana", Kind: "appeared"})

	if err := s.Persons().Delete(p.ID); err != nil {
		t.Fatalf("Delete(person) error = %v", err)
	}

	recent, err := s.Events().Recent(10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("event log lost rows after person delete")
	}
	if recent[0].PersonID != "" {
		t.Errorf("PersonID = %q after delete, want empty", recent[0].PersonID)
	}
	if recent[0].PersonName != "Ana" {
		t.Errorf("PersonName = %q, want preserved snapshot", recent[0].PersonName)
	}
}

func TestEventRepository_DailyStats(t *testing.T) {
	events := newTestStore(t).Events()

	events.Create(&Event{ID: uuid.New().String(), Kind: "appeared"})
	events.Create(&Event{ID: uuid.New().String(), Kind: "appeared"})
	events.Create(&Event{ID: uuid.New().String(), Kind: "departed"})

	stats, err := events.DailyStats()
	if err != nil {
		t.Fatalf("DailyStats() error = %v", err)
	}
	if stats.Total != 3 || stats.Appeared != 2 || stats.Departed != 1 {
		t.Errorf("DailyStats() = %+v, want total 3, appeared 2, departed 1", stats)
	}
}

// DailyStats cuts over at local midnight, so an event from before local
// midnight never counts toward today even when it falls inside the
// current UTC day.
func TestEventRepository_DailyStatsExcludesYesterday(t *testing.T) {
	events := newTestStore(t).Events()

	events.Create(&Event{ID: uuid.New().String(), Kind: "appeared"})

	now := time.Now()
	localMidnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	_, err := events.db.Exec(
		`INSERT INTO events (id, kind, person_name, confidence, bbox_x, bbox_y, bbox_width, bbox_height, created_at)
		 VALUES (?, ?, '', 0, 0, 0, 0, 0, ?)`,
		uuid.New().String(), "departed", localMidnight.Add(-time.Hour),
	)
	if err != nil {
		t.Fatalf("inserting backdated event: %v", err)
	}

	stats, err := events.DailyStats()
	if err != nil {
		t.Fatalf("DailyStats() error = %v", err)
	}
	if stats.Total != 1 || stats.Appeared != 1 || stats.Departed != 0 {
		t.Errorf("DailyStats() = %+v, want only today's event counted", stats)
	}
}
