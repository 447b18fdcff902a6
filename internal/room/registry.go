package room

import (
	"errors"
	"sort"
	"sync"
)

// ErrDuplicateUser is returned when a userId is already taken inside a room.
var ErrDuplicateUser = errors.New("user id already present in room")

// Member is the registry's view of a connection. Entries are non-owning:
// the transport closes the connection, the registry only forgets it.
type Member interface {
	UserID() string
	IsHost() bool
	Connected() bool
}

// room is the member set of one room id
type room struct {
	members map[Member]struct{}
}

// Summary is a (roomId, participantCount) pair for listing
type Summary struct {
	RoomID           string
	ParticipantCount int
}

// Participant is a read-only projection of one member
type Participant struct {
	UserID    string
	IsHost    bool
	Connected bool
}

// Registry maps room ids to rooms. A room key exists only while it has at
// least one member; all access goes through the methods below.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry { return &Registry{rooms: map[string]*room{}} }

// ensureRoom returns the room for id, creating it if needed. Caller holds mu.
func (r *Registry) ensureRoom(id string) *room {
	rm := r.rooms[id]
	if rm == nil {
		rm = &room{members: map[Member]struct{}{}}
		r.rooms[id] = rm
	}
	return rm
}

// AddMember inserts m into the room, creating the room on first join.
// Adding a member twice is a no-op. Another member with the same user id
// makes the call fail with ErrDuplicateUser and leaves the registry as it was.
func (r *Registry) AddMember(roomID string, m Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rm := r.rooms[roomID]; rm != nil {
		if _, ok := rm.members[m]; ok {
			return nil
		}
		uid := m.UserID()
		for other := range rm.members {
			if other.UserID() == uid {
				return ErrDuplicateUser
			}
		}
	}
	r.ensureRoom(roomID).members[m] = struct{}{}
	return nil
}

// RemoveMember drops m from the room. When the room becomes empty it is
// deleted in the same critical section and deleted is true. Removing an
// absent member changes nothing and reports the current count.
func (r *Registry) RemoveMember(roomID string, m Member) (deleted bool, remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm := r.rooms[roomID]
	if rm == nil {
		return false, 0
	}
	if _, ok := rm.members[m]; !ok {
		return false, len(rm.members)
	}
	delete(rm.members, m)
	if len(rm.members) == 0 {
		delete(r.rooms, roomID)
		return true, 0
	}
	return false, len(rm.members)
}

// MemberCount returns the number of members, 0 for unknown rooms
func (r *Registry) MemberCount(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rm := r.rooms[roomID]; rm != nil {
		return len(rm.members)
	}
	return 0
}

// FindByUserID scans the room for the member with userID
func (r *Registry) FindByUserID(roomID, userID string) (Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm := r.rooms[roomID]
	if rm == nil {
		return nil, false
	}
	for m := range rm.members {
		if m.UserID() == userID {
			return m, true
		}
	}
	return nil, false
}

// Members returns a snapshot of the room's members
func (r *Registry) Members(roomID string) []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm := r.rooms[roomID]
	if rm == nil {
		return nil
	}
	out := make([]Member, 0, len(rm.members))
	for m := range rm.members {
		out = append(out, m)
	}
	return out
}

// RoomCount returns how many rooms exist
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// ListRooms returns every room with its participant count, sorted by id
func (r *Registry) ListRooms() []Summary {
	r.mu.RLock()
	out := make([]Summary, 0, len(r.rooms))
	for id, rm := range r.rooms {
		out = append(out, Summary{RoomID: id, ParticipantCount: len(rm.members)})
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}

// DescribeRoom returns the participants of a room sorted by user id.
// ok is false when the room does not exist.
func (r *Registry) DescribeRoom(roomID string) (participants []Participant, ok bool) {
	r.mu.RLock()
	rm := r.rooms[roomID]
	if rm == nil {
		r.mu.RUnlock()
		return nil, false
	}
	participants = make([]Participant, 0, len(rm.members))
	for m := range rm.members {
		participants = append(participants, Participant{
			UserID:    m.UserID(),
			IsHost:    m.IsHost(),
			Connected: m.Connected(),
		})
	}
	r.mu.RUnlock()

	sort.Slice(participants, func(i, j int) bool { return participants[i].UserID < participants[j].UserID })
	return participants, true
}
