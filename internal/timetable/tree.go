package timetable

// Walk visits every entry of the given trees depth-first, parents before children.
// Returning false from fn skips the entry's children.
func Walk(entries []*Entry, fn func(*Entry) bool) {
	for _, e := range entries {
		if fn(e) {
			Walk(e.Children, fn)
		}
	}
}

// Flatten returns every entry of the given trees, parents before children.
func Flatten(entries []*Entry) []*Entry {
	var out []*Entry
	Walk(entries, func(e *Entry) bool {
		out = append(out, e)
		return true
	})
	return out
}

// BuildTree links flat entries to their parents by ParentID and returns the roots
// sorted by start. Entries whose parent is not in the set are returned as roots.
func BuildTree(entries []*Entry) []*Entry {
	byID := make(map[int64]*Entry, len(entries))
	for _, e := range entries {
		e.Children = nil
		e.Parent = nil
		byID[e.ID] = e
	}

	var roots []*Entry
	for _, e := range entries {
		if e.ParentID != nil {
			if p, ok := byID[*e.ParentID]; ok {
				e.Parent = p
				p.Children = append(p.Children, e)
				continue
			}
		}
		roots = append(roots, e)
	}

	for _, e := range entries {
		SortByStart(e.Children)
	}
	SortByStart(roots)
	return roots
}

// Clone deep-copies entry trees. The copies share no pointers with the originals
// and keep their dirty flags.
func Clone(entries []*Entry) []*Entry {
	out := make([]*Entry, len(entries))
	for i, e := range entries {
		out[i] = cloneEntry(e, nil)
	}
	return out
}

func cloneEntry(e *Entry, parent *Entry) *Entry {
	c := *e
	c.Parent = parent
	c.Children = make([]*Entry, len(e.Children))
	for i, child := range e.Children {
		c.Children[i] = cloneEntry(child, &c)
	}
	return &c
}

// Changed compares a tree with its clone taken earlier and returns the entries of
// after whose start or duration differ from before. Entries are matched by ID.
func Changed(before, after []*Entry) []*Entry {
	orig := make(map[int64]*Entry)
	Walk(before, func(e *Entry) bool {
		orig[e.ID] = e
		return true
	})

	var changed []*Entry
	Walk(after, func(e *Entry) bool {
		o, ok := orig[e.ID]
		if !ok || !o.StartDt.Equal(e.StartDt) || o.Duration != e.Duration {
			changed = append(changed, e)
		}
		return true
	})
	return changed
}
