package pyeval

// Dict is an insertion-ordered mapping.
type Dict struct {
	keys  []Value
	vals  []Value
	index map[string]int
}

// NewDict returns an empty Dict.
func NewDict() *Dict {
	return &Dict{index: make(map[string]int)}
}

func (*Dict) Type() string { return "dict" }

// Len returns the number of entries.
func (d *Dict) Len() int { return len(d.keys) }

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []Value { return append([]Value(nil), d.keys...) }

// Values returns the values in insertion order.
func (d *Dict) Values() []Value { return append([]Value(nil), d.vals...) }

// Get returns the value stored under k.
func (d *Dict) Get(k Value) (Value, bool) {
	h, ok := hashKey(k)
	if !ok {
		return nil, false
	}
	i, ok := d.index[h]
	if !ok {
		return nil, false
	}
	return d.vals[i], true
}

// GetStr returns the value stored under the string key k.
func (d *Dict) GetStr(k string) (Value, bool) {
	return d.Get(Str(k))
}

// Set stores v under k. It fails for unhashable keys.
func (d *Dict) Set(k, v Value) bool {
	h, ok := hashKey(k)
	if !ok {
		return false
	}
	if i, ok := d.index[h]; ok {
		d.vals[i] = v
		return true
	}
	d.index[h] = len(d.keys)
	d.keys = append(d.keys, k)
	d.vals = append(d.vals, v)
	return true
}

// SetStr stores v under the string key k.
func (d *Dict) SetStr(k string, v Value) {
	d.Set(Str(k), v)
}

// Delete removes k and reports whether it was present.
func (d *Dict) Delete(k Value) bool {
	h, ok := hashKey(k)
	if !ok {
		return false
	}
	i, ok := d.index[h]
	if !ok {
		return false
	}
	d.keys = append(d.keys[:i], d.keys[i+1:]...)
	d.vals = append(d.vals[:i], d.vals[i+1:]...)
	delete(d.index, h)
	for j := i; j < len(d.keys); j++ {
		hk, _ := hashKey(d.keys[j])
		d.index[hk] = j
	}
	return true
}

func (d *Dict) copy() *Dict {
	c := NewDict()
	for i, k := range d.keys {
		c.Set(k, d.vals[i])
	}
	return c
}

// Set is an insertion-ordered set.
type Set struct {
	items []Value
	index map[string]int
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{index: make(map[string]int)}
}

func (*Set) Type() string { return "set" }

// Len returns the number of members.
func (s *Set) Len() int { return len(s.items) }

// Items returns the members in insertion order.
func (s *Set) Items() []Value { return append([]Value(nil), s.items...) }

// Add inserts v. It fails for unhashable values.
func (s *Set) Add(v Value) bool {
	h, ok := hashKey(v)
	if !ok {
		return false
	}
	if _, ok := s.index[h]; !ok {
		s.index[h] = len(s.items)
		s.items = append(s.items, v)
	}
	return true
}

// Has reports whether v is a member.
func (s *Set) Has(v Value) bool {
	h, ok := hashKey(v)
	if !ok {
		return false
	}
	_, ok = s.index[h]
	return ok
}

// Remove deletes v and reports whether it was present.
func (s *Set) Remove(v Value) bool {
	h, ok := hashKey(v)
	if !ok {
		return false
	}
	i, ok := s.index[h]
	if !ok {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	delete(s.index, h)
	for j := i; j < len(s.items); j++ {
		hk, _ := hashKey(s.items[j])
		s.index[hk] = j
	}
	return true
}
