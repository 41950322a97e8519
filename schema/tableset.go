package schema

// TableSet is the working set of live tables during one run. Tables are
// removed as models claim them; whatever remains is dropped.
type TableSet struct {
	order   []string
	members map[string]struct{}
}

func NewTableSet(names []string) *TableSet {
	s := &TableSet{members: make(map[string]struct{}, len(names))}
	for _, name := range names {
		s.Add(name)
	}
	return s
}

func (s *TableSet) Contains(name string) bool {
	_, ok := s.members[name]
	return ok
}

// Add appends name, keeping the position of an existing entry.
func (s *TableSet) Add(name string) {
	if s.Contains(name) {
		return
	}
	s.members[name] = struct{}{}
	s.order = append(s.order, name)
}

// Remove reports whether name was present.
func (s *TableSet) Remove(name string) bool {
	if !s.Contains(name) {
		return false
	}
	delete(s.members, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Rename replaces old with new, as after ALTER TABLE ... RENAME TO.
func (s *TableSet) Rename(old, new string) {
	if s.Remove(old) {
		s.Add(new)
	}
}

func (s *TableSet) Len() int {
	return len(s.members)
}

// Remaining returns the unclaimed tables in insertion order.
func (s *TableSet) Remaining() []string {
	remaining := make([]string, len(s.order))
	copy(remaining, s.order)
	return remaining
}
