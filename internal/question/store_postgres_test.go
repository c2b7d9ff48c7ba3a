package question_test

import (
	"testing"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/noteoverflow/noteoverflow/internal/platform/database"
	"github.com/noteoverflow/noteoverflow/internal/question"
)

func TestPostgresStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := t.Context()

	ctn, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("note"),
		tcpostgres.WithUsername("note"),
		tcpostgres.WithPassword("note"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctn); err != nil {
			t.Logf("terminating container: %v", err)
		}
	})

	connStr, err := ctn.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	db, err := database.New(ctx, connStr, 5, 1)
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(db.Close)

	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}

	store, err := question.NewPostgresStore(db.Pool)
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}

	q := testQuestion(4)
	if err := store.Upsert(ctx, q); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	ok, err := store.Exists(ctx, q.ID)
	if err != nil || !ok {
		t.Fatalf("Exists() = %v, %v; want true, nil", ok, err)
	}

	got, err := store.Get(ctx, q.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Season != question.SeasonSummer {
		t.Errorf("Season = %q, want Summer", got.Season)
	}
	if len(got.Answers) != 1 || got.Answers[0].Letter != "B" {
		t.Errorf("Answers = %v, want single MCQ letter B", got.Answers)
	}

	// Upsert targeting the same id overwrites mutable fields.
	q.Topics = []string{"Kinematics", "Dynamics"}
	if err := store.Upsert(ctx, q); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}
	got, err = store.Get(ctx, q.ID)
	if err != nil {
		t.Fatalf("Get() after upsert error = %v", err)
	}
	if len(got.Topics) != 2 {
		t.Errorf("Topics = %v, want overwritten pair", got.Topics)
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Error("UpdatedAt should be bumped past CreatedAt on overwrite")
	}

	results, err := store.Search(ctx, question.Criteria{
		SubjectKey: "Physics (9702)",
		Topics:     []string{"Dynamics"},
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Errorf("Search() returned %d questions, want 1", len(results))
	}

	if err := store.EnsureValue(ctx, "Physics (9702)", question.DimTopic, "Dynamics"); err != nil {
		t.Fatalf("EnsureValue() error = %v", err)
	}
	if err := store.EnsureValue(ctx, "Physics (9702)", question.DimTopic, "Dynamics"); err != nil {
		t.Fatalf("EnsureValue() twice error = %v", err)
	}
	values, err := store.KnownValues(ctx, "Physics (9702)", question.DimTopic)
	if err != nil {
		t.Fatalf("KnownValues() error = %v", err)
	}
	if len(values) != 1 || values[0] != "Dynamics" {
		t.Errorf("KnownValues() = %v, want [Dynamics]", values)
	}
}
