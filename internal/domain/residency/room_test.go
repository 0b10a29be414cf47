package residency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupByRoom(t *testing.T) {
	a := newTestTenant(t, "A", "301", 0)
	b := newTestTenant(t, "B", "102", 0)
	c := newTestTenant(t, "C", "301", 0)
	d := newTestTenant(t, "D", "301", 0)
	gone := newTestTenant(t, "E", "301", 0)
	require.NoError(t, gone.ChangeStatus(TenantStatusInactive, testNow))
	adjusting := newTestTenant(t, "F", "500", 0)
	require.NoError(t, adjusting.ChangeStatus(TenantStatusAdjust, testNow))

	groups := GroupByRoom([]*Tenant{a, b, c, gone, d, adjusting, nil})

	require.Len(t, groups, 2)
	assert.Equal(t, "102", groups[0].RoomNumber)
	assert.Equal(t, "301", groups[1].RoomNumber)
	assert.Equal(t, []*Tenant{a, c, d}, groups[1].Tenants)
	assert.Equal(t, a.ID, groups[1].TenantIDs()[0])
}

func TestGroupByRoom_Empty(t *testing.T) {
	assert.Empty(t, GroupByRoom(nil))
}
