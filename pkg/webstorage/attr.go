package webstorage

import "reflect"

// memberNames is the set of exported methods of *Storage. Attribute-style
// access gives these precedence over stored entries.
var memberNames = func() map[string]struct{} {
	t := reflect.TypeOf((*Storage)(nil))
	names := make(map[string]struct{}, t.NumMethod())
	for i := 0; i < t.NumMethod(); i++ {
		names[t.Method(i).Name] = struct{}{}
	}
	return names
}()

// IsMember reports whether name is a declared method of Storage rather than
// an entry name. A key that collides with a member stays fully reachable
// through the explicit methods but is shadowed for attribute-style access.
func IsMember(name string) bool {
	_, ok := memberNames[name]
	return ok
}

// Attr reads name attribute-style: a declared member yields the bound
// method value, any other name behaves like Get with absent keys reported
// as a plain nil. Decode failures propagate.
//
// Example:
//
//	value, err := store.Attr("theme") // same entry as store.Get("theme")
func (s *Storage) Attr(name string) (any, error) {
	if IsMember(name) {
		return reflect.ValueOf(s).MethodByName(name).Interface(), nil
	}
	value, _, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	return value, nil
}

// SetAttr writes name attribute-style and reports whether the store was
// written. Go methods cannot be reassigned, so declared member names are
// refused; any other name behaves like Set, including its capacity
// semantics.
func (s *Storage) SetAttr(name string, value any) (bool, error) {
	if IsMember(name) {
		return false, nil
	}
	return s.Set(name, value)
}

// HasAttr reports presence attribute-style: declared members always exist,
// any other name behaves like Has.
func (s *Storage) HasAttr(name string) bool {
	if IsMember(name) {
		return true
	}
	return s.Has(name)
}

// DelAttr deletes name attribute-style, discarding the success flag.
// Declared members are left untouched.
func (s *Storage) DelAttr(name string) {
	if IsMember(name) {
		return
	}
	s.Delete(name)
}

// AttrNames enumerates the view's own attribute names: exactly the stored
// logical keys, never the declared members.
func (s *Storage) AttrNames() []string {
	return s.Keys()
}
