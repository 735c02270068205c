package todo

import "sort"

// Section is one display partition of the collection.
type Section struct {
	Status Status
	Title  string
	Tasks  []Task
}

// Sections arranges c for display. Sectioned mode yields All then Done, each
// keeping canonical order. List mode yields one section in canonical order,
// priority mode one section in priority order.
func Sections(mode Mode, c Collection) []Section {
	switch mode {
	case ModeSectioned:
		all := Section{Status: StatusAll, Title: StatusAll.Title(), Tasks: []Task{}}
		done := Section{Status: StatusDone, Title: StatusDone.Title(), Tasks: []Task{}}
		for _, t := range c {
			if t.Status == StatusDone {
				done.Tasks = append(done.Tasks, t)
			} else {
				all.Tasks = append(all.Tasks, t)
			}
		}
		return []Section{all, done}
	case ModePriority:
		return []Section{{Title: "Tasks", Tasks: SortByPriority(c)}}
	default:
		return []Section{{Title: "Tasks", Tasks: c.Clone()}}
	}
}

// Flatten concatenates sections in display order.
func Flatten(sections []Section) []Task {
	var out []Task
	for _, s := range sections {
		out = append(out, s.Tasks...)
	}
	return out
}

// SortByPriority returns a copy of c ordered by: incomplete before completed,
// then priority (high, medium, low), then newest first. Ties keep their
// current relative order.
func SortByPriority(c Collection) Collection {
	out := c.Clone()
	sort.SliceStable(out, func(i, j int) bool {
		return priorityLess(out[i], out[j])
	})
	return out
}

func priorityLess(a, b Task) bool {
	if a.Completed != b.Completed {
		return !a.Completed
	}
	ra, rb := sortRank(a.Priority), sortRank(b.Priority)
	if ra != rb {
		return ra < rb
	}
	return a.CreatedAt.After(b.CreatedAt)
}

// sortRank puts unknown priorities with low.
func sortRank(p Priority) int {
	if r := p.Rank(); r != 0 {
		return r
	}
	return PriorityLow.Rank()
}
