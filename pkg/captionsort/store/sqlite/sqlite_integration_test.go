package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/cognicore/captionsort/pkg/captionsort/store"
)

func openTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleRun(id string, at time.Time) store.Run {
	return store.Run{
		ID:         id,
		StartedAt:  at,
		Root:       "/datasets/goth",
		Entries:    12,
		Written:    12,
		Threshold:  5,
		KeepFirstN: 1,
		Outcome:    store.OutcomeWritten,
		Counts:     []store.TagCount{{Tag: "long hair", Count: 12}, {Tag: "dress", Count: 9}},
		Banned:     []string{"signature", "watermark"},
		Pruned:     []string{"cup"},
	}
}

func TestSQLiteSaveAndGetRun(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	at := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	run := sampleRun("01HZX", at)
	run.Outcome = store.OutcomeUnresolved
	run.Written = 0
	run.Unsorted = []store.TagCount{{Tag: "smile", Count: 7}}

	if err := st.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, found, err := st.GetRun(ctx, "01HZX")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if !found {
		t.Fatal("run should be found")
	}
	if diff := cmp.Diff(run, got); diff != "" {
		t.Errorf("run mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteGetRunMissing(t *testing.T) {
	st := openTestStore(t)

	_, found, err := st.GetRun(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if found {
		t.Error("missing run should not be found")
	}
}

func TestSQLiteSaveRunReplaces(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	run := sampleRun("r1", time.Now())
	if err := st.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	run.Counts = []store.TagCount{{Tag: "dress", Count: 1}}
	run.Pruned = nil
	if err := st.SaveRun(ctx, run); err != nil {
		t.Fatalf("second SaveRun: %v", err)
	}

	got, _, err := st.GetRun(ctx, "r1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if len(got.Counts) != 1 || len(got.Pruned) != 0 {
		t.Errorf("old rows should be replaced: %+v", got)
	}
}

func TestSQLiteListRuns(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := st.SaveRun(ctx, sampleRun(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("SaveRun %s: %v", id, err)
		}
	}

	runs, err := st.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "c" || runs[1].ID != "b" {
		t.Errorf("runs should be newest first: %s, %s", runs[0].ID, runs[1].ID)
	}
	if runs[0].DistinctTags != 2 {
		t.Errorf("DistinctTags = %d, want 2", runs[0].DistinctTags)
	}
}

func TestSQLiteSaveRunRequiresID(t *testing.T) {
	st := openTestStore(t)
	if err := st.SaveRun(context.Background(), store.Run{}); err == nil {
		t.Error("run without id should fail")
	}
}
