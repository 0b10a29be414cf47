package residency

import (
	"sort"

	"github.com/google/uuid"
)

// RoomGroup is the set of active tenants sharing one room and its meter.
// It is derived from the registry on demand and never stored.
type RoomGroup struct {
	RoomNumber string
	Tenants    []*Tenant
}

// TenantIDs returns the IDs of the group's tenants in group order
func (g RoomGroup) TenantIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(g.Tenants))
	for i, t := range g.Tenants {
		ids[i] = t.ID
	}
	return ids
}

// GroupByRoom keeps active tenants and groups them by room number.
// Tenants keep their input order inside a group, which is the order the
// electricity split uses; groups are sorted by room number.
func GroupByRoom(tenants []*Tenant) []RoomGroup {
	index := make(map[string]int)
	var groups []RoomGroup
	for _, t := range tenants {
		if t == nil || !t.IsActive() {
			continue
		}
		i, ok := index[t.RoomNumber]
		if !ok {
			i = len(groups)
			index[t.RoomNumber] = i
			groups = append(groups, RoomGroup{RoomNumber: t.RoomNumber})
		}
		groups[i].Tenants = append(groups[i].Tenants, t)
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].RoomNumber < groups[b].RoomNumber
	})
	return groups
}
