package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/cognicore/captionsort/pkg/captionsort"
	"github.com/cognicore/captionsort/pkg/captionsort/caption"
	"github.com/cognicore/captionsort/pkg/captionsort/counts"
	"github.com/cognicore/captionsort/pkg/captionsort/groups"
	"github.com/cognicore/captionsort/pkg/captionsort/store"
)

func assertContains(t *testing.T, out string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestUnsortedKeepDrop(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Unsorted([]counts.UnsortedTag{
		{Tag: "frequent", Count: 7},
		{Tag: "rare", Count: 1},
	}, 5)

	out := buf.String()
	assertContains(t, out, "keep frequent (7)", "drop rare (1)")
	if strings.Contains(out, "\x1b[") {
		t.Error("non-terminal output should carry no escape codes")
	}
}

func TestUnresolvedListsEntries(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Unresolved([]counts.UnsortedTag{
		{Tag: "smile", Count: 2, Entries: []string{"001", "007"}},
	})
	assertContains(t, buf.String(), "1 unsorted tag(s) need a group", "smile", "in 001, 007")
}

func TestCountsLimit(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Counts(counts.Counts{"dress": 4, "hat": 2, "smile": 1}, 2)

	out := buf.String()
	assertContains(t, out, "3 distinct, 7 total", "dress", "hat")
	if strings.Contains(out, "smile") {
		t.Errorf("limit not applied:\n%s", out)
	}
	if strings.Index(out, "dress") > strings.Index(out, "hat") {
		t.Error("counts should be descending")
	}
}

func TestRegistryShowsDuplicates(t *testing.T) {
	reg := groups.NewRegistry(nil, nil)
	reg.Add("clothing", []string{"hat"})
	reg.Add("accessories", []string{"hat"})
	reg.Add("colors", nil)

	var buf bytes.Buffer
	New(&buf).Registry(reg)
	assertContains(t, buf.String(), "Groups (3)", " 999 colors 0 tag(s) unranked", "hat in [clothing, accessories]")
}

func TestSummaryAndGroups(t *testing.T) {
	e := &caption.Entry{ID: "001", Groups: []caption.AssignedGroup{
		{Priority: 2, Name: "hair_features", Tags: []string{"long hair", "blue hair"}},
	}}
	res := &captionsort.Result{
		RunID:         "01TESTRUN",
		Entries:       []*caption.Entry{e},
		Written:       1,
		BannedRemoved: 2,
		Outcome:       store.OutcomeWritten,
	}

	var buf bytes.Buffer
	p := New(&buf)
	p.Groups(res.Entries)
	p.Summary(res)
	assertContains(t, buf.String(),
		"hair_features (2): long hair, blue hair",
		"run 01TESTRUN: 1 caption(s), 1 written, written",
		"0 empty, 2 banned, 0 pruned")
}

func TestHistoryAndRun(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	p := New(&buf)
	p.History(nil)
	assertContains(t, buf.String(), "no runs recorded")

	buf.Reset()
	p.Run(store.Run{
		ID:        "01RUN",
		StartedAt: at,
		Root:      "/data",
		Outcome:   store.OutcomeUnresolved,
		Counts:    []store.TagCount{{Tag: "dress", Count: 3}, {Tag: "hat", Count: 1}},
		Unsorted:  []store.TagCount{{Tag: "smile", Count: 2}},
	}, 1)
	out := buf.String()
	assertContains(t, out, "Run 01RUN", "/data", "Top tags (1 of 2)", "dress", "Unresolved (1)", "smile")
	if strings.Contains(out, "hat") {
		t.Errorf("top limit not applied:\n%s", out)
	}
}
