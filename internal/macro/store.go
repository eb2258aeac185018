package macro

import (
	"sort"
	"strings"
)

// Store owns every live macro and maintains the dispatch indexes:
// name → macro, key → macro, a trigger list in fire order, and a per-hook
// list in the same order. All indexes are rebuilt or adjusted on every
// mutation.
type Store struct {
	nextNum int
	byNum   map[int]*Macro
	byName  map[string]int
	byKey   map[string]int

	// trigList and hookLists hold macro nums in fire order: descending
	// priority; at equal priority fall-throughs before non-fall-throughs;
	// then descending num (newest first).
	trigList  []int
	hookLists [NumHooks][]int
}

// NewStore returns an empty macro store.
func NewStore() *Store {
	return &Store{
		nextNum: 1,
		byNum:   make(map[int]*Macro),
		byName:  make(map[string]int),
		byKey:   make(map[string]int),
	}
}

// Add registers a macro and returns its assigned num.
//
// If the name collides with a live macro, the old macro is replaced. The
// replacement keeps the old macro's position in trigger order when its
// priority is unchanged; otherwise it is re-inserted at the position its
// new priority demands.
func (s *Store) Add(m *Macro) int {
	m.Num = s.nextNum
	s.nextNum++

	var keepSlotOf *Macro
	if m.Name != "" {
		if oldNum, ok := s.byName[m.Name]; ok {
			old := s.byNum[oldNum]
			if old.IsTrigger() && m.IsTrigger() && old.Priority == m.Priority {
				keepSlotOf = old
			}
			s.removeIndexes(old, keepSlotOf == old)
			delete(s.byNum, oldNum)
		}
		s.byName[m.Name] = m.Num
	}

	s.byNum[m.Num] = m
	if m.Key != "" {
		s.byKey[m.Key] = m.Num
	}

	if m.IsTrigger() {
		if keepSlotOf != nil {
			// Same-priority redefinition: reuse the vacated slot.
			for i, n := range s.trigList {
				if n == keepSlotOf.Num {
					s.trigList[i] = m.Num
					keepSlotOf = nil
					break
				}
			}
		}
		if keepSlotOf == nil && !s.containsTrig(m.Num) {
			s.trigList = insertOrdered(s.trigList, s.byNum, m)
		}
	}
	for h := Hook(0); h < hookCount; h++ {
		if m.Hooks.Contains(h) {
			s.hookLists[h] = insertOrdered(s.hookLists[h], s.byNum, m)
		}
	}
	return m.Num
}

func (s *Store) containsTrig(num int) bool {
	for _, n := range s.trigList {
		if n == num {
			return true
		}
	}
	return false
}

// removeIndexes strips a macro from every index except byNum.
// keepTrigSlot leaves its trigger-list entry in place for slot reuse.
func (s *Store) removeIndexes(m *Macro, keepTrigSlot bool) {
	if m.Name != "" {
		delete(s.byName, m.Name)
	}
	if m.Key != "" && s.byKey[m.Key] == m.Num {
		delete(s.byKey, m.Key)
	}
	if !keepTrigSlot {
		s.trigList = removeNum(s.trigList, m.Num)
	}
	for h := range s.hookLists {
		s.hookLists[h] = removeNum(s.hookLists[h], m.Num)
	}
}

// Remove deletes a macro by num. Returns false if it does not exist.
func (s *Store) Remove(num int) bool {
	m, ok := s.byNum[num]
	if !ok {
		return false
	}
	s.removeIndexes(m, false)
	delete(s.byNum, num)
	return true
}

// RemoveByName deletes a named macro.
func (s *Store) RemoveByName(name string) bool {
	num, ok := s.byName[name]
	if !ok {
		return false
	}
	return s.Remove(num)
}

// Purge removes every macro matching pred, then rebuilds the trigger and
// hook lists by re-sorting the survivors (O(n log n)). Returns the number
// removed.
func (s *Store) Purge(pred func(*Macro) bool) int {
	var doomed []int
	for num, m := range s.byNum {
		if pred(m) {
			doomed = append(doomed, num)
		}
	}
	for _, num := range doomed {
		m := s.byNum[num]
		if m.Name != "" {
			delete(s.byName, m.Name)
		}
		if m.Key != "" && s.byKey[m.Key] == num {
			delete(s.byKey, m.Key)
		}
		delete(s.byNum, num)
	}
	if len(doomed) > 0 {
		s.rebuildLists()
	}
	return len(doomed)
}

// rebuildLists reconstructs trigList and hookLists from byNum in O(n log n).
func (s *Store) rebuildLists() {
	s.trigList = s.trigList[:0]
	for h := range s.hookLists {
		s.hookLists[h] = s.hookLists[h][:0]
	}
	for num, m := range s.byNum {
		if m.IsTrigger() {
			s.trigList = append(s.trigList, num)
		}
		for h := Hook(0); h < hookCount; h++ {
			if m.Hooks.Contains(h) {
				s.hookLists[h] = append(s.hookLists[h], num)
			}
		}
	}
	s.sortList(s.trigList)
	for h := range s.hookLists {
		s.sortList(s.hookLists[h])
	}
}

func (s *Store) sortList(list []int) {
	sort.Slice(list, func(i, j int) bool {
		return firesBefore(s.byNum[list[i]], s.byNum[list[j]])
	})
}

// firesBefore reports whether a dispatches before b.
func firesBefore(a, b *Macro) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if a.Fallthru != b.Fallthru {
		return a.Fallthru
	}
	return a.Num > b.Num
}

// Get returns a macro by num.
func (s *Store) Get(num int) (*Macro, bool) {
	m, ok := s.byNum[num]
	return m, ok
}

// GetByName returns a macro by name.
func (s *Store) GetByName(name string) (*Macro, bool) {
	num, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return s.byNum[num], true
}

// FindBinding returns the macro bound to key, if any.
func (s *Store) FindBinding(key string) (*Macro, bool) {
	num, ok := s.byKey[key]
	if !ok {
		return nil, false
	}
	return s.byNum[num], true
}

// Len returns the number of live macros.
func (s *Store) Len() int { return len(s.byNum) }

// All returns every live macro sorted by num (definition order).
func (s *Store) All() []*Macro {
	out := make([]*Macro, 0, len(s.byNum))
	for _, m := range s.byNum {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Num < out[j].Num })
	return out
}

// FindTriggers returns the macros that fire for one inbound line, in fire
// order: every matching fall-through first (priority order), then exactly
// one non-fall-through: the first match in list order, i.e. the highest
// priority, newest definition.
//
// The returned slice is a snapshot: bodies executed afterwards may mutate
// the store without affecting this dispatch pass. Each selected macro has
// already passed its probability roll.
func (s *Store) FindTriggers(text, world, worldType string) []*Macro {
	var out []*Macro
	for _, num := range s.trigList {
		m := s.byNum[num]
		if m.World != "" && !strings.EqualFold(m.World, world) {
			continue
		}
		if m.WorldType != nil && !m.WorldType.Matches(worldType) {
			continue
		}
		if !m.Trig.Matches(text) {
			continue
		}
		if !roll(m.Probability) {
			continue
		}
		out = append(out, m)
		if !m.Fallthru {
			break
		}
	}
	return out
}

// FindHooks returns the macros handling hook whose argument pattern (if
// any) matches args, in the same fire order as FindTriggers.
func (s *Store) FindHooks(hook Hook, args string) []*Macro {
	var out []*Macro
	for _, num := range s.hookLists[hook] {
		m := s.byNum[num]
		if m.HookArgs != nil && !m.HookArgs.Matches(args) {
			continue
		}
		if !roll(m.Probability) {
			continue
		}
		out = append(out, m)
		if !m.Fallthru {
			break
		}
	}
	return out
}

// ConsumeShot decrements a macro's self-destruct count after a fire.
// When the count reaches zero the macro is removed; returns true if it
// was removed.
func (s *Store) ConsumeShot(num int) bool {
	m, ok := s.byNum[num]
	if !ok || m.Shots == 0 {
		return false
	}
	m.Shots--
	if m.Shots == 0 {
		s.Remove(num)
		return true
	}
	return false
}

// insertOrdered inserts m.Num into list keeping the fire-order sort.
func insertOrdered(list []int, byNum map[int]*Macro, m *Macro) []int {
	pos := sort.Search(len(list), func(i int) bool {
		return firesBefore(m, byNum[list[i]])
	})
	list = append(list, 0)
	copy(list[pos+1:], list[pos:])
	list[pos] = m.Num
	return list
}

func removeNum(list []int, num int) []int {
	for i, n := range list {
		if n == num {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
