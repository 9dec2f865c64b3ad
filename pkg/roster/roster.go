package roster

import (
	"fmt"
	"strings"
)

// Roster is the member registry together with each member's attendance log and the list
// of known maps. It is not safe for concurrent use; callers serialize access.
type Roster struct {
	members   []*Member
	byKey     map[string]*Member
	log       map[string][]AttendanceLogEntry
	knownMaps []string
}

// Snapshot is the persisted form of a Roster.
type Snapshot struct {
	Members   []Member                        `json:"members"`
	Log       map[string][]AttendanceLogEntry `json:"log"`
	KnownMaps []string                        `json:"knownMaps,omitempty"`
}

// New creates an empty roster.
func New() *Roster {
	return &Roster{
		byKey: make(map[string]*Member),
		log:   make(map[string][]AttendanceLogEntry),
	}
}

// FromSnapshot rebuilds a roster. Log entries for unknown members are dropped.
func FromSnapshot(s Snapshot) (*Roster, error) {
	r := New()
	for i := range s.Members {
		m := s.Members[i]
		if err := r.Add(&m); err != nil {
			return nil, fmt.Errorf("failed to load member %q: %w", m.Name, err)
		}
	}
	for name, entries := range s.Log {
		m, ok := r.Get(name)
		if !ok {
			continue
		}
		r.log[m.Key()] = append(r.log[m.Key()], entries...)
	}
	for _, mp := range s.KnownMaps {
		r.EnsureMap(mp)
	}
	return r, nil
}

// Snapshot copies the roster into its persisted form. Log keys are member display names.
func (r *Roster) Snapshot() Snapshot {
	s := Snapshot{
		Members:   make([]Member, 0, len(r.members)),
		Log:       make(map[string][]AttendanceLogEntry, len(r.log)),
		KnownMaps: append([]string(nil), r.knownMaps...),
	}
	for _, m := range r.members {
		s.Members = append(s.Members, *m)
		if entries := r.log[m.Key()]; len(entries) > 0 {
			s.Log[m.Name] = append([]AttendanceLogEntry(nil), entries...)
		}
	}
	return s
}

// Len returns the number of members.
func (r *Roster) Len() int {
	return len(r.members)
}

// Members returns the members in registration order. The pointers are live.
func (r *Roster) Members() []*Member {
	out := make([]*Member, len(r.members))
	copy(out, r.members)
	return out
}

// Get looks a member up by name, case-insensitively.
func (r *Roster) Get(name string) (*Member, bool) {
	m, ok := r.byKey[Key(name)]
	return m, ok
}

// Add registers a new member.
func (r *Roster) Add(m *Member) error {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return ErrInvalidName
	}
	key := m.Key()
	if _, exists := r.byKey[key]; exists {
		return fmt.Errorf("%w: %s", ErrMemberExists, m.Name)
	}
	m.normalize()
	r.members = append(r.members, m)
	r.byKey[key] = m
	return nil
}

// Rename moves a member to a new identity key. Counters and attendance history move with
// it. Changing only the casing of a name is allowed.
func (r *Roster) Rename(oldName, newName string) (*Member, error) {
	m, ok := r.Get(oldName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, oldName)
	}
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, ErrInvalidName
	}

	oldKey, newKey := m.Key(), Key(newName)
	if oldKey != newKey {
		if _, taken := r.byKey[newKey]; taken {
			return nil, fmt.Errorf("%w: %s", ErrMemberExists, newName)
		}
		delete(r.byKey, oldKey)
		r.byKey[newKey] = m
		if entries, ok := r.log[oldKey]; ok {
			r.log[newKey] = entries
			delete(r.log, oldKey)
		}
	}
	m.Name = newName
	return m, nil
}

// Delete removes a member and purges their attendance log.
func (r *Roster) Delete(name string) error {
	m, ok := r.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrMemberNotFound, name)
	}
	key := m.Key()
	delete(r.byKey, key)
	delete(r.log, key)
	for i, cur := range r.members {
		if cur == m {
			r.members = append(r.members[:i], r.members[i+1:]...)
			break
		}
	}
	return nil
}

// Merge folds an imported record into the roster. A record matches an existing member by
// name or alias, case-insensitively. On a match, level takes the higher value, imported
// counters are added with negative values treated as zero, and empty alias, group, rank,
// comment and join date are filled in. Without a match the record is added as a new
// member. It reports whether a member was created.
func (r *Roster) Merge(in Member) (*Member, bool, error) {
	if existing := r.findByNameOrAlias(in.Name, in.Alias); existing != nil {
		existing.Level = max(existing.Level, in.Level)
		existing.SinceLastPromotion = existing.SinceLastPromotion.Add(clampCounters(in.SinceLastPromotion))
		existing.Lifetime = existing.Lifetime.Add(clampCounters(in.Lifetime))
		existing.NoResponseCounter += max(in.NoResponseCounter, 0)
		if existing.Alias == "" {
			existing.Alias = in.Alias
		}
		if existing.Group == "" {
			existing.Group = in.Group
		}
		if existing.Rank == "" {
			existing.Rank = in.Rank
		}
		if existing.Comment == "" {
			existing.Comment = in.Comment
		}
		if existing.JoinDate.IsZero() {
			existing.JoinDate = in.JoinDate
		}
		existing.normalize()
		return existing, false, nil
	}

	m := in
	if err := r.Add(&m); err != nil {
		return nil, false, err
	}
	return &m, true, nil
}

func (r *Roster) findByNameOrAlias(name, alias string) *Member {
	keys := []string{Key(name), Key(alias)}
	for _, m := range r.members {
		for _, k := range keys {
			if k == "" {
				continue
			}
			if k == m.Key() || (m.Alias != "" && k == Key(m.Alias)) {
				return m
			}
		}
	}
	return nil
}

// Log returns a copy of the member's attendance history, oldest first.
func (r *Roster) Log(name string) []AttendanceLogEntry {
	return append([]AttendanceLogEntry(nil), r.log[Key(name)]...)
}

// AppendLog records an attendance entry for an existing member.
func (r *Roster) AppendLog(name string, entry AttendanceLogEntry) error {
	m, ok := r.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrMemberNotFound, name)
	}
	r.log[m.Key()] = append(r.log[m.Key()], entry)
	return nil
}

// KnownMaps returns the known map names in insertion order.
func (r *Roster) KnownMaps() []string {
	return append([]string(nil), r.knownMaps...)
}

// EnsureMap adds a map name unless it is already known (case-insensitive).
// It reports whether the map was added.
func (r *Roster) EnsureMap(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	for _, known := range r.knownMaps {
		if strings.EqualFold(known, name) {
			return false
		}
	}
	r.knownMaps = append(r.knownMaps, name)
	return true
}
