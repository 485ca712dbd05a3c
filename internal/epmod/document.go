package epmod

// MaxSort returns the highest sort value among groups, pages and maps, used
// to place generated groups after the source-ordered content.
func (m *Module) MaxSort() int {
	max := 0
	for _, g := range m.Groups {
		if g.Sort > max {
			max = g.Sort
		}
	}
	for _, p := range m.Pages {
		if p.Sort > max {
			max = p.Sort
		}
	}
	for _, mp := range m.Maps {
		if mp.Sort > max {
			max = mp.Sort
		}
	}
	return max
}

// HasGroup reports whether a group with the id already exists.
func (m *Module) HasGroup(id string) bool {
	for _, g := range m.Groups {
		if g.ID == id {
			return true
		}
	}
	return false
}

// PruneGroups removes groups nothing points at, repeating until stable so
// that emptied parent chains collapse too.
func (m *Module) PruneGroups() {
	for {
		inUse := map[string]bool{}
		for _, g := range m.Groups {
			if g.Parent != "" {
				inUse[g.Parent] = true
			}
		}
		for _, p := range m.Pages {
			if p.Parent != "" {
				inUse[p.Parent] = true
			}
		}
		for _, mp := range m.Maps {
			if mp.Parent != "" {
				inUse[mp.Parent] = true
			}
		}
		for _, a := range m.Assets {
			if a.Parent != "" {
				inUse[a.Parent] = true
			}
		}
		kept := m.Groups[:0]
		removed := false
		for _, g := range m.Groups {
			if inUse[g.ID] {
				kept = append(kept, g)
			} else {
				removed = true
			}
		}
		m.Groups = kept
		if !removed {
			return
		}
	}
}
