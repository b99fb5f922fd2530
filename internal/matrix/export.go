package matrix

// Export renders the whole dataset in the import schema.
func (e *Engine) Export() Table {
	return TableFromStore(e.cur.store)
}

// FilteredExport renders only the units visible in v: the endpoints of its
// relation and equivalence edges, with open facts expanded to every unit they
// contain. A kept unit's Children and Equivalences only list units that are
// also kept and whose resolved pair is still displayed.
func (e *Engine) FilteredExport(v *View) Table {
	return FilteredTable(e.cur.store, v)
}

// FilteredTable is the store-level form of Engine.FilteredExport.
func FilteredTable(s *Store, v *View) Table {
	r := NewResolver(s, v.Open)

	var queue []string
	for _, e := range v.Edges {
		queue = append(queue, e.From, e.To)
	}
	for _, e := range v.Equivalences {
		queue = append(queue, e.From, e.To)
	}
	kept := make(map[string]bool)
	for len(queue) > 0 {
		code := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if kept[code] {
			continue
		}
		u, ok := s.Get(code)
		if !ok {
			continue
		}
		kept[code] = true
		if u.Kind == KindFact {
			for _, m := range u.Members {
				if !kept[m] {
					queue = append(queue, m)
				}
			}
		}
	}

	t := Table{Header: cloneList(Columns)}
	for _, u := range s.Units() {
		if !kept[u.Code] {
			continue
		}
		c := u.Clone()
		c.Children = nil
		for _, child := range u.Children {
			if kept[child] && v.HasRelation(r.Resolve(u.Code), r.Resolve(child)) {
				c.Children = append(c.Children, child)
			}
		}
		c.Equivalences = nil
		for _, eq := range u.Equivalences {
			if kept[eq] && v.HasEquivalence(r.Resolve(u.Code), r.Resolve(eq)) {
				c.Equivalences = append(c.Equivalences, eq)
			}
		}
		c.Members = nil
		for _, m := range u.Members {
			if kept[m] {
				c.Members = append(c.Members, m)
			}
		}
		t.Rows = append(t.Rows, row(c))
	}
	return t
}
