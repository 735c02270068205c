package todo

import (
	"fmt"
	"slices"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func genMode(t *rapid.T) Mode {
	return rapid.SampledFrom(ValidModes()).Draw(t, "mode")
}

func genCollection(t *rapid.T) Collection {
	n := rapid.IntRange(0, 12).Draw(t, "n")
	c := make(Collection, n)
	for i := range c {
		done := rapid.Bool().Draw(t, fmt.Sprintf("done%d", i))
		c[i] = Task{
			ID:        fmt.Sprintf("id%d", i),
			Text:      rapid.StringMatching(`[a-z]{1,8}`).Draw(t, fmt.Sprintf("text%d", i)),
			Completed: done,
			Status:    statusFor(done),
			CreatedAt: epoch.Add(time.Duration(rapid.IntRange(0, 5).Draw(t, fmt.Sprintf("age%d", i))) * time.Minute),
			Priority:  rapid.SampledFrom(ValidPriorities()).Draw(t, fmt.Sprintf("prio%d", i)),
		}
	}
	return c
}

// genRef picks an id from c, or sometimes one that does not exist.
func genRef(t *rapid.T, c Collection, label string) string {
	if len(c) == 0 || rapid.IntRange(0, 9).Draw(t, label+"Missing") == 0 {
		return "missing"
	}
	return c[rapid.IntRange(0, len(c)-1).Draw(t, label)].ID
}

func genIntent(t *rapid.T, c Collection) Intent {
	switch rapid.IntRange(0, 7).Draw(t, "kind") {
	case 0:
		text := rapid.SampledFrom([]string{"milk", "call /high", "  ", "/low", "x /medium y"}).Draw(t, "addText")
		return Add{Text: text}
	case 1:
		return Toggle{ID: genRef(t, c, "toggle")}
	case 2:
		return Delete{ID: genRef(t, c, "delete")}
	case 3:
		return Edit{ID: genRef(t, c, "edit"), Text: rapid.StringMatching(`[a-z ]{0,6}`).Draw(t, "editText")}
	case 4:
		return ChangePriority{ID: genRef(t, c, "prio"), Priority: rapid.SampledFrom(ValidPriorities()).Draw(t, "newPrio")}
	case 5:
		return MoveToSection{ID: genRef(t, c, "move"), Status: rapid.SampledFrom([]Status{StatusAll, StatusDone}).Draw(t, "section")}
	case 6:
		if rapid.Bool().Draw(t, "toSection") {
			return Reorder{ID: genRef(t, c, "reorder"), TargetStatus: rapid.SampledFrom([]Status{StatusAll, StatusDone}).Draw(t, "targetSection")}
		}
		return Reorder{ID: genRef(t, c, "reorder"), TargetID: genRef(t, c, "target")}
	default:
		return ClearAll{}
	}
}

func TestProperty_MutationsKeepInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e := Engine{Mode: genMode(t), Now: newStepClock().Now, IDs: UUIDSource{}}
		c := genCollection(t)
		steps := rapid.IntRange(1, 20).Draw(t, "steps")
		for range steps {
			before := c.Clone()
			next, changed := e.Apply(c, genIntent(t, c))
			if !c.Equal(before) {
				t.Fatalf("Apply modified its input")
			}
			if changed == next.Equal(c) {
				t.Fatalf("changed=%v but equality says otherwise", changed)
			}
			seen := map[string]bool{}
			for _, task := range next {
				if !task.Consistent() {
					t.Fatalf("task %s: completed=%v status=%q", task.ID, task.Completed, task.Status)
				}
				if seen[task.ID] {
					t.Fatalf("duplicate id %s", task.ID)
				}
				seen[task.ID] = true
			}
			if e.Mode == ModePriority && !slices.Equal(ids(next), ids(SortByPriority(next))) {
				t.Fatalf("priority mode left collection unsorted")
			}
			c = next
		}
	})
}

func TestProperty_ReorderOnlyMovesOneTask(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		mode := rapid.SampledFrom([]Mode{ModeSectioned, ModeList}).Draw(t, "mode")
		c := genCollection(t)
		if len(c) == 0 {
			return
		}
		a := c[rapid.IntRange(0, len(c)-1).Draw(t, "a")]

		// section lists the ids sharing a's section, in display order.
		section := func(col Collection) []string {
			var out []string
			for _, task := range col {
				if mode.HasSections() && task.Status != a.Status {
					continue
				}
				out = append(out, task.ID)
			}
			return out
		}
		before := section(c)
		b := before[rapid.IntRange(0, len(before)-1).Draw(t, "b")]

		got, _ := testEngine(mode).Apply(c, Reorder{ID: a.ID, TargetID: b})
		after := section(got)

		without := func(s []string) []string {
			return slices.DeleteFunc(slices.Clone(s), func(id string) bool { return id == a.ID })
		}
		if !slices.Equal(without(before), without(after)) {
			t.Fatalf("relative order of other tasks changed: %v -> %v", before, after)
		}
		if slices.Index(after, a.ID) != slices.Index(before, b) {
			t.Fatalf("task %s landed at %d, target was at %d", a.ID, slices.Index(after, a.ID), slices.Index(before, b))
		}
		if !mode.HasSections() {
			return
		}
		for i, task := range got {
			if task.Status != c[i].Status {
				t.Fatalf("slot %d changed section", i)
			}
		}
	})
}

func TestProperty_UnknownIDsAreNoops(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := genCollection(t)
		e := testEngine(genMode(t))
		for _, in := range []Intent{
			Toggle{ID: "missing"},
			Delete{ID: "missing"},
			Edit{ID: "missing", Text: "x"},
			ChangePriority{ID: "missing", Priority: PriorityHigh},
		} {
			got, changed := e.Apply(c, in)
			if e.Mode == ModePriority {
				// Apply may resort; compare against the sorted input.
				if !got.Equal(c) && !got.Equal(SortByPriority(c)) {
					t.Fatalf("%T changed content", in)
				}
				continue
			}
			if changed || !got.Equal(c) {
				t.Fatalf("%T with unknown id changed the collection", in)
			}
		}
	})
}

func TestProperty_MigrationIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := genCollection(t)
		for i := range c {
			if rapid.Bool().Draw(t, fmt.Sprintf("dropStatus%d", i)) {
				c[i].Status = ""
			}
			if rapid.Bool().Draw(t, fmt.Sprintf("dropPriority%d", i)) {
				c[i].Priority = ""
			}
			if rapid.Bool().Draw(t, fmt.Sprintf("dropCreated%d", i)) {
				c[i].CreatedAt = time.Time{}
			}
		}
		version := rapid.IntRange(0, CurrentVersion).Draw(t, "version")

		m := testMigrator()
		first, _, err := m.Migrate(Document{Version: version, Todos: c})
		if err != nil {
			t.Fatal(err)
		}
		second, changed, err := m.Migrate(Document{Version: CurrentVersion, Todos: first})
		if err != nil {
			t.Fatal(err)
		}
		if changed || !second.Equal(first) {
			t.Fatalf("second migration changed the collection")
		}
		for _, task := range second {
			if !task.Consistent() || !task.Priority.IsValid() {
				t.Fatalf("migrated task %+v breaks the schema", task)
			}
		}
	})
}
