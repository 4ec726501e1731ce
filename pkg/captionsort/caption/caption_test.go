package caption

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cognicore/captionsort/pkg/captionsort/banlist"
	"github.com/cognicore/captionsort/pkg/captionsort/groups"
	"github.com/cognicore/captionsort/pkg/captionsort/internalerr"
	"github.com/cognicore/captionsort/pkg/captionsort/tokenize"
)

// byLen measures token length as string length.
var byLen = tokenize.NewCache(tokenize.CounterFunc(func(s string) int { return len(s) }))

func fixedLengths(m map[string]int) tokenize.Lengther {
	return tokenize.NewCache(tokenize.CounterFunc(func(s string) int {
		if n, ok := m[s]; ok {
			return n
		}
		return 1
	}))
}

func testRegistry(t *testing.T) *groups.Registry {
	t.Helper()
	reg := groups.NewRegistry(nil, nil)
	reg.Add(groups.KeepTokens, nil)
	reg.Add("hair_features", []string{"long hair", "blue hair"})
	reg.Add("clothing", []string{"dress", "striped socks"})
	reg.Add(groups.Unsorted, nil)
	reg.Add("background", []string{"simple background"})
	return reg
}

func TestNewEntryFirstLine(t *testing.T) {
	e := NewEntry("img1", "/data/img1.txt", "\n  red, long hair ,, blue  \nsecond line, ignored\n")

	if e.Original != "red, long hair ,, blue" {
		t.Errorf("Original = %q", e.Original)
	}
	want := []string{"red", "long hair", "", "blue"}
	if diff := cmp.Diff(want, e.RawTags); diff != "" {
		t.Errorf("RawTags mismatch (-want +got):\n%s", diff)
	}
}

func TestNewEntryEmptyFile(t *testing.T) {
	e := NewEntry("empty", "/data/empty.txt", "")
	if len(e.RawTags) != 0 {
		t.Errorf("empty file should have zero tags, got %v", e.RawTags)
	}

	reg := testRegistry(t)
	if err := e.Classify(reg, 0); err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(e.Groups) != 0 {
		t.Errorf("no groups expected, got %+v", e.Groups)
	}
	out, err := e.Render()
	if err != nil || out != "" {
		t.Errorf("Render = %q, %v; want empty", out, err)
	}
}

func TestCleanupEmpty(t *testing.T) {
	e := &Entry{RawTags: []string{"a", "", "  ", "b", ""}}
	if n := e.CleanupEmpty(); n != 3 {
		t.Errorf("dropped %d, want 3", n)
	}
	if diff := cmp.Diff([]string{"a", "b"}, e.RawTags); diff != "" {
		t.Errorf("RawTags mismatch (-want +got):\n%s", diff)
	}
}

func TestCleanupBannedAdjacentDuplicates(t *testing.T) {
	e := &Entry{RawTags: []string{"watermark", "watermark", "red", "text", "watermark", "blue"}}
	removed := e.CleanupBanned(banlist.New([]string{"watermark", "text", "unused"}))

	if diff := cmp.Diff([]string{"text", "watermark"}, removed); diff != "" {
		t.Errorf("removed mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"red", "blue"}, e.RawTags); diff != "" {
		t.Errorf("RawTags mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyGroupsAndUnsorted(t *testing.T) {
	reg := testRegistry(t)
	e := &Entry{ID: "x", RawTags: []string{"dress", "long hair", "smile", "striped socks", "blue hair", "smile"}}

	if err := e.Classify(reg, 0); err != nil {
		t.Fatalf("Classify: %v", err)
	}

	want := []AssignedGroup{
		{Priority: 2, Name: "hair_features", Tags: []string{"long hair", "blue hair"}},
		{Priority: 8, Name: "clothing", Tags: []string{"dress", "striped socks"}},
		{Priority: 13, Name: groups.Unsorted, Tags: []string{"smile", "smile"}},
	}
	if diff := cmp.Diff(want, e.Groups); diff != "" {
		t.Errorf("Groups mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyKeepFirstN(t *testing.T) {
	reg := testRegistry(t)
	e := &Entry{RawTags: []string{"alterciri", "dress", "long hair"}}

	if err := e.Classify(reg, 2); err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if e.Groups[0].Name != groups.KeepTokens {
		t.Fatalf("first group = %s, want keep_tokens", e.Groups[0].Name)
	}
	if diff := cmp.Diff([]string{"alterciri", "dress"}, e.Groups[0].Tags); diff != "" {
		t.Errorf("kept mismatch (-want +got):\n%s", diff)
	}
	if len(e.Groups) != 2 || e.Groups[1].Name != "hair_features" {
		t.Errorf("unexpected groups %+v", e.Groups)
	}
}

func TestClassifyKeepFirstNExceedsTags(t *testing.T) {
	reg := testRegistry(t)
	e := &Entry{RawTags: []string{"a", "b"}}

	if err := e.Classify(reg, 10); err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(e.Groups) != 1 || len(e.Groups[0].Tags) != 2 {
		t.Errorf("all tags should be kept, got %+v", e.Groups)
	}
}

func TestClassifyTwiceFails(t *testing.T) {
	reg := testRegistry(t)
	e := &Entry{RawTags: []string{"dress"}}
	if err := e.Classify(reg, 0); err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if err := e.Classify(reg, 0); !errors.Is(err, internalerr.ErrAlreadyClassified) {
		t.Errorf("second Classify should fail, got %v", err)
	}

	e.Reset()
	if err := e.Classify(reg, 0); err != nil {
		t.Errorf("Classify after Reset: %v", err)
	}
}

func TestClassifyMissingUnsortedGroup(t *testing.T) {
	reg := groups.NewRegistry(nil, nil)
	reg.Add("colors", []string{"red"})
	e := &Entry{RawTags: []string{"red", "long"}}

	err := e.Classify(reg, 0)
	if !errors.Is(err, internalerr.ErrMissingReservedGroup) {
		t.Fatalf("expected missing reserved group, got %v", err)
	}
	if len(e.Groups) != 0 {
		t.Error("entry should be unchanged on error")
	}
}

func TestClassifyIsPermutation(t *testing.T) {
	reg := testRegistry(t)
	raw := []string{"smile", "dress", "dress", "simple background", "long hair", "x", "blue hair"}
	e := &Entry{RawTags: append([]string(nil), raw...)}

	if err := e.Classify(reg, 1); err != nil {
		t.Fatalf("Classify: %v", err)
	}

	count := map[string]int{}
	for _, tag := range raw {
		count[tag]++
	}
	for _, g := range e.Groups {
		for _, tag := range g.Tags {
			count[tag]--
		}
	}
	for tag, n := range count {
		if n != 0 {
			t.Errorf("tag %q off by %d", tag, n)
		}
	}

	seen := map[string]string{}
	for _, g := range e.Groups {
		for _, tag := range g.Tags {
			if prev, ok := seen[tag]; ok && prev != g.Name {
				t.Errorf("tag %q in %s and %s", tag, prev, g.Name)
			}
			seen[tag] = g.Name
		}
	}
}

func TestSortTagsStable(t *testing.T) {
	tags := []string{"bb", "a", "ccc", "b", "dd", "c"}
	SortTags(tags, byLen)

	want := []string{"ccc", "bb", "dd", "a", "b", "c"}
	if diff := cmp.Diff(want, tags); diff != "" {
		t.Errorf("SortTags mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderOrdersByPriority(t *testing.T) {
	e := &Entry{Groups: []AssignedGroup{
		{Priority: 14, Name: "background", Tags: []string{"simple background"}},
		{Priority: 999, Name: "custom_b", Tags: []string{"b"}},
		{Priority: 2, Name: "hair_features", Tags: []string{"long hair"}},
		{Priority: 999, Name: "custom_a", Tags: []string{"a"}},
	}}

	got, err := e.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if want := "long hair, simple background, b, a"; got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestRenderRefusesUnsorted(t *testing.T) {
	e := &Entry{ID: "x", Groups: []AssignedGroup{{Priority: 13, Name: groups.Unsorted, Tags: []string{"smile"}}}}
	if _, err := e.Render(); !errors.Is(err, internalerr.ErrUnsortedRemaining) {
		t.Errorf("Render should refuse unsorted tags, got %v", err)
	}
}

func TestEndToEndExamplePreview(t *testing.T) {
	reg := groups.NewRegistry([]string{"colors", groups.Unsorted}, nil)
	reg.Add("colors", []string{"red"})
	reg.Add(groups.Unsorted, nil)

	e := NewEntry("ex", "ex.txt", "red, long, a, red")
	e.CleanupEmpty()
	e.CleanupBanned(banlist.New(nil))
	if diff := cmp.Diff([]string{"red", "long", "a", "red"}, e.RawTags); diff != "" {
		t.Fatalf("cleaned tags mismatch (-want +got):\n%s", diff)
	}

	if err := e.Classify(reg, 0); err != nil {
		t.Fatalf("Classify: %v", err)
	}
	e.SortGroups(fixedLengths(map[string]int{"red": 3, "long": 2, "a": 1}))

	if got := e.Preview(); got != "red, red, long, a" {
		t.Errorf("Preview = %q, want %q", got, "red, red, long, a")
	}
	if diff := cmp.Diff([]string{"long", "a"}, e.UnsortedTags()); diff != "" {
		t.Errorf("unsorted mismatch (-want +got):\n%s", diff)
	}
}
