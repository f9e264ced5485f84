package core

// orderedMap is a string keyed map that iterates in insertion order.
// Setting an existing key keeps its position.
type orderedMap[V any] struct {
	keys   []string
	values map[string]V
}

func newOrderedMap[V any]() *orderedMap[V] {
	return &orderedMap[V]{values: map[string]V{}}
}

func (m *orderedMap[V]) Get(key string) (V, bool) {
	value, ok := m.values[key]
	return value, ok
}

func (m *orderedMap[V]) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

func (m *orderedMap[V]) Set(key string, value V) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

func (m *orderedMap[V]) Delete(key string) bool {
	if _, ok := m.values[key]; !ok {
		return false
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

func (m *orderedMap[V]) Len() int {
	return len(m.keys)
}

// Keys returns a copy of the keys so callers may mutate the map while
// ranging over the result.
func (m *orderedMap[V]) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}
