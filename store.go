package panicctx

import (
	"iter"
	"math"
	"slices"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/peterbourgon/panicctx/internal/pcdebug"
)

var storeIDEntropy = ulid.DefaultEntropy()

// Store is the ordered collection of live context entries for a single
// goroutine. Entries are ordered by the sequence number assigned when they
// were created, so updating an entry never changes its position.
//
// A store is not safe for concurrent use. It belongs to the goroutine that
// created it: entries are pushed, updated, released, and dumped from that
// goroutine only. Use [Go] or [Run] to give a goroutine its own store.
type Store struct {
	id       ulid.ULID
	next     uint64
	entries  []entry
	reported panicFrame
}

type entry struct {
	id   uint64
	text string
}

func newStore() *Store {
	return &Store{}
}

// ID returns a unique identifier for the store, which can be used to
// correlate reports produced by different hooks. The identifier is generated
// on first use, so creating a store never touches the shared entropy source.
func (s *Store) ID() string {
	if s.id == (ulid.ULID{}) {
		s.id = ulid.MustNew(ulid.Timestamp(time.Now()), storeIDEntropy)
	}
	return s.id.String()
}

// Len returns the number of live entries in the store.
func (s *Store) Len() int {
	return len(s.entries)
}

// All returns an iterator over the text of every live entry, oldest first.
// The iterator reflects the store at the moment it's ranged over, and may be
// ranged over more than once.
func (s *Store) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, e := range s.entries {
			if !yield(e.text) {
				return
			}
		}
	}
}

// Snapshot returns the text of every live entry, oldest first.
func (s *Store) Snapshot() []string {
	return slices.Collect(s.All())
}

// create allocates the next sequence number, and inserts an entry with the
// given text if present is true. The counter saturates at math.MaxUint64,
// which would take centuries of continuous use to reach.
func (s *Store) create(text string, present bool) uint64 {
	id := s.next
	if s.next < math.MaxUint64 {
		s.next++
	}

	if present {
		s.entries = append(s.entries, entry{id: id, text: text}) // id is always the greatest
	}

	pcdebug.Entries.Push.Add(1)

	return id
}

// markReported records the innermost panic unwinding on the calling goroutine
// as reported. Outside of a panic it does nothing.
func (s *Store) markReported() {
	if frames := panicFrames(); len(frames) > 0 {
		s.reported = frames[0]
	}
}

// reporting returns true if the panic most recently reported by the store is
// still unwinding. A reported panic that has since been recovered is
// forgotten, so the next panic is reported again.
func (s *Store) reporting() bool {
	if s.reported == (panicFrame{}) {
		return false
	}

	for _, f := range panicFrames() {
		if f == s.reported {
			return true
		}
	}

	s.reported = panicFrame{}
	return false
}

func (s *Store) set(id uint64, text string) {
	i, found := slices.BinarySearchFunc(s.entries, id, compareEntryID)
	if found {
		s.entries[i].text = text
		return
	}
	s.entries = slices.Insert(s.entries, i, entry{id: id, text: text})
}

func (s *Store) remove(id uint64) {
	// Entries are usually released in reverse order of creation.
	if n := len(s.entries); n > 0 && s.entries[n-1].id == id {
		s.entries = s.entries[:n-1]
		return
	}

	i, found := slices.BinarySearchFunc(s.entries, id, compareEntryID)
	if !found {
		return
	}
	s.entries = slices.Delete(s.entries, i, i+1)
}

func compareEntryID(e entry, id uint64) int {
	switch {
	case e.id < id:
		return -1
	case e.id > id:
		return 1
	default:
		return 0
	}
}
