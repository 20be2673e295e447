package service

import (
	"github.com/pkg/errors"
)

// CounterUpdate describes a change to one counter. Nil fields are left as is;
// Diff is applied after Count and Capacity.
type CounterUpdate struct {
	Name     string
	Count    *int64
	Capacity *int64
	Diff     int64
}

// Counter returns the count and capacity of a counter
func (s *Service) Counter(name string) (count, capacity int64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.gs.Status.Counters[name]
	if !ok {
		return 0, 0, errors.Wrapf(ErrNotFound, "counter %s", name)
	}
	return c.Count, c.Capacity, nil
}

// UpdateCounter applies u atomically: on error nothing changes
func (s *Service) UpdateCounter(u CounterUpdate) (count, capacity int64, err error) {
	s.mu.Lock()
	c, ok := s.gs.Status.Counters[u.Name]
	if !ok {
		s.mu.Unlock()
		return 0, 0, errors.Wrapf(ErrNotFound, "counter %s", u.Name)
	}

	count, capacity = c.Count, c.Capacity
	if u.Capacity != nil {
		capacity = *u.Capacity
		if capacity < 0 {
			s.mu.Unlock()
			return 0, 0, errors.Wrapf(ErrOutOfRange, "capacity must be greater than or equal to 0, found %d", capacity)
		}
	}
	if u.Count != nil {
		count = *u.Count
	}
	count += u.Diff
	if count < 0 || count > capacity {
		s.mu.Unlock()
		return 0, 0, errors.Wrapf(ErrOutOfRange, "count must be within [0,%d], found %d", capacity, count)
	}

	c.Count, c.Capacity = count, capacity
	s.mu.Unlock()

	s.notify()
	return count, capacity, nil
}

// List returns the capacity and a copy of the values of a list
func (s *Service) List(name string) (capacity int64, values []string, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.gs.Status.Lists[name]
	if !ok {
		return 0, nil, errors.Wrapf(ErrNotFound, "list %s", name)
	}
	return l.Capacity, append([]string{}, l.Values...), nil
}

// UpdateList overwrites the fields named in paths ("capacity", "values").
// Values beyond the new capacity are dropped.
func (s *Service) UpdateList(name string, paths []string, capacity int64, values []string) (int64, []string, error) {
	if len(paths) == 0 {
		return 0, nil, errors.Wrap(ErrInvalidArgument, "update mask must name at least one field")
	}
	var setCapacity, setValues bool
	for _, p := range paths {
		switch p {
		case "capacity":
			setCapacity = true
		case "values":
			setValues = true
		default:
			return 0, nil, errors.Wrapf(ErrInvalidArgument, "field %q cannot be updated on a list", p)
		}
	}
	if setCapacity && (capacity < 0 || capacity > ListMaxCapacity) {
		return 0, nil, errors.Wrapf(ErrOutOfRange, "capacity must be within [0,%d], found %d", ListMaxCapacity, capacity)
	}

	s.mu.Lock()
	l, ok := s.gs.Status.Lists[name]
	if !ok {
		s.mu.Unlock()
		return 0, nil, errors.Wrapf(ErrNotFound, "list %s", name)
	}
	if setCapacity {
		l.Capacity = capacity
	}
	if setValues {
		l.Values = dedupe(values)
	}
	if int64(len(l.Values)) > l.Capacity {
		l.Values = append([]string{}, l.Values[:l.Capacity]...)
	}
	capacity, values = l.Capacity, append([]string{}, l.Values...)
	s.mu.Unlock()

	s.notify()
	return capacity, values, nil
}

// AddListValue appends value to a list
func (s *Service) AddListValue(name, value string) (int64, []string, error) {
	s.mu.Lock()
	l, ok := s.gs.Status.Lists[name]
	if !ok {
		s.mu.Unlock()
		return 0, nil, errors.Wrapf(ErrNotFound, "list %s", name)
	}
	if int64(len(l.Values)) >= l.Capacity {
		s.mu.Unlock()
		return 0, nil, errors.Wrapf(ErrOutOfRange, "no available capacity, capacity %d, size %d", l.Capacity, len(l.Values))
	}
	for _, v := range l.Values {
		if v == value {
			s.mu.Unlock()
			return 0, nil, errors.Wrapf(ErrAlreadyExists, "value %s already in list %s", value, name)
		}
	}
	l.Values = append(l.Values, value)
	capacity, values := l.Capacity, append([]string{}, l.Values...)
	s.mu.Unlock()

	s.notify()
	return capacity, values, nil
}

// RemoveListValue removes value from a list
func (s *Service) RemoveListValue(name, value string) (int64, []string, error) {
	s.mu.Lock()
	l, ok := s.gs.Status.Lists[name]
	if !ok {
		s.mu.Unlock()
		return 0, nil, errors.Wrapf(ErrNotFound, "list %s", name)
	}
	found := -1
	for i, v := range l.Values {
		if v == value {
			found = i
			break
		}
	}
	if found < 0 {
		s.mu.Unlock()
		return 0, nil, errors.Wrapf(ErrNotFound, "value %s not in list %s", value, name)
	}
	l.Values = append(l.Values[:found], l.Values[found+1:]...)
	capacity, values := l.Capacity, append([]string{}, l.Values...)
	s.mu.Unlock()

	s.notify()
	return capacity, values, nil
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
