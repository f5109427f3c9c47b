package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/oakmoor-systems/doorcore/internal/door"
	"github.com/oakmoor-systems/doorcore/internal/infrastructure/database"
	_ "github.com/oakmoor-systems/doorcore/migrations"
)

// openTestRepo creates a migrated temporary database and a repository over it.
func openTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return NewSQLiteRepository(db.DB)
}

func TestRecordAndList(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	events := []door.Event{
		{Status: door.StatusOpening, Previous: door.StatusClosed, Source: door.SourceCommand, Remote: true, Pulsed: true, At: base},
		{Status: door.StatusOpen, Previous: door.StatusOpening, Source: door.SourceInterrupt, At: base.Add(10 * time.Second)},
		{Status: door.StatusClosing, Previous: door.StatusOpen, Source: door.SourceCommand, Remote: true, Pulsed: true, At: base.Add(time.Minute)},
		{Status: door.StatusClosed, Previous: door.StatusClosing, Source: door.SourceInterrupt, At: base.Add(70 * time.Second)},
	}
	for _, ev := range events {
		if err := repo.Record(ctx, ev); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	result, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if result.Total != len(events) {
		t.Errorf("Total = %d, want %d", result.Total, len(events))
	}
	if len(result.Events) != len(events) {
		t.Fatalf("len(Events) = %d, want %d", len(result.Events), len(events))
	}

	// Newest first.
	if result.Events[0].Status != "closed" {
		t.Errorf("Events[0].Status = %q, want %q", result.Events[0].Status, "closed")
	}
	if result.Events[len(result.Events)-1].Status != "opening" {
		t.Errorf("oldest status = %q, want %q", result.Events[len(result.Events)-1].Status, "opening")
	}

	// Command-sourced entries carry the remote and pulsed flags.
	var cmd Entry
	for _, e := range result.Events {
		if e.Source == "command" && e.Status == "opening" {
			cmd = e
		}
	}
	if !cmd.Remote || !cmd.Pulsed {
		t.Errorf("command entry remote=%v pulsed=%v, want both true", cmd.Remote, cmd.Pulsed)
	}
}

func TestList_Filtered(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	events := []door.Event{
		{Status: door.StatusOpening, Previous: door.StatusClosed, Source: door.SourceCommand, At: base},
		{Status: door.StatusOpen, Previous: door.StatusOpening, Source: door.SourceInterrupt, At: base.Add(time.Second)},
		{Status: door.StatusStuck, Previous: door.StatusOpening, Source: door.SourceTimeout, At: base.Add(2 * time.Second)},
	}
	for _, ev := range events {
		if err := repo.Record(ctx, ev); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	t.Run("by status", func(t *testing.T) {
		result, err := repo.List(ctx, Filter{Status: "stuck"})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if result.Total != 1 {
			t.Errorf("Total = %d, want 1", result.Total)
		}
		if len(result.Events) != 1 || result.Events[0].Source != "timeout" {
			t.Errorf("unexpected events: %+v", result.Events)
		}
	})

	t.Run("by source", func(t *testing.T) {
		result, err := repo.List(ctx, Filter{Source: "command"})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if result.Total != 1 {
			t.Errorf("Total = %d, want 1", result.Total)
		}
	})

	t.Run("no matches returns empty slice", func(t *testing.T) {
		result, err := repo.List(ctx, Filter{Status: "reed_error"})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if result.Events == nil {
			t.Error("Events should be an empty slice, not nil")
		}
		if result.Total != 0 {
			t.Errorf("Total = %d, want 0", result.Total)
		}
	})
}

func TestList_Pagination(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		ev := door.Event{
			Status:   door.StatusOpen,
			Previous: door.StatusOpening,
			Source:   door.SourceInterrupt,
			At:       base.Add(time.Duration(i) * time.Second),
		}
		if err := repo.Record(ctx, ev); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	result, err := repo.List(ctx, Filter{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if result.Total != 5 {
		t.Errorf("Total = %d, want 5", result.Total)
	}
	if len(result.Events) != 2 {
		t.Errorf("len(Events) = %d, want 2", len(result.Events))
	}
	if result.Limit != 2 || result.Offset != 2 {
		t.Errorf("Limit/Offset = %d/%d, want 2/2", result.Limit, result.Offset)
	}
}

func TestCycleCount(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	events := []door.Event{
		{Status: door.StatusOpening, Previous: door.StatusClosed, Source: door.SourceCommand, At: base},
		{Status: door.StatusOpen, Previous: door.StatusOpening, Source: door.SourceInterrupt, At: base.Add(time.Second)},
		{Status: door.StatusClosing, Previous: door.StatusOpen, Source: door.SourceCommand, At: base.Add(2 * time.Second)},
		{Status: door.StatusClosed, Previous: door.StatusClosing, Source: door.SourceInterrupt, At: base.Add(3 * time.Second)},
		{Status: door.StatusClosed, Previous: door.StatusClosed, Source: door.SourceInterrupt, At: base.Add(4 * time.Second)},
	}
	for _, ev := range events {
		if err := repo.Record(ctx, ev); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	count, err := repo.CycleCount(ctx)
	if err != nil {
		t.Fatalf("CycleCount() error = %v", err)
	}
	// Only the closing->closed transition counts; the repeated closed
	// resolve does not.
	if count != 1 {
		t.Errorf("CycleCount() = %d, want 1", count)
	}
}
