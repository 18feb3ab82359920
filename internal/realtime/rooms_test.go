package realtime

import (
	"slices"
	"testing"

	"github.com/dukerupert/helpline/internal/model"
)

func TestRoomsFor(t *testing.T) {
	tests := []struct {
		role model.Role
		want []string
	}{
		{model.RoleDependent, []string{"user:4", "dependent:4", "dependents"}},
		{model.RoleSupervisor, []string{"user:4", "supervisor:4"}},
		{model.RoleEducator, []string{"user:4", "supervisor:4"}},
	}

	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			if got := RoomsFor(4, tt.role); !slices.Equal(got, tt.want) {
				t.Errorf("RoomsFor(4, %s) = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

func TestRoomsForCoversEveryRole(t *testing.T) {
	for _, r := range model.AllRoles {
		rooms := RoomsFor(1, r)
		if len(rooms) < 2 {
			t.Errorf("role %s joins only %v; every role needs a role room", r, rooms)
		}
	}
}
