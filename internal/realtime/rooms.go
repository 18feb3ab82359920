package realtime

import (
	"strconv"

	"github.com/dukerupert/helpline/internal/model"
)

// DependentsRoom is joined by every connected dependent.
const DependentsRoom = "dependents"

func UserRoom(accountID int64) string {
	return "user:" + strconv.FormatInt(accountID, 10)
}

func DependentRoom(accountID int64) string {
	return "dependent:" + strconv.FormatInt(accountID, 10)
}

func SupervisorRoom(accountID int64) string {
	return "supervisor:" + strconv.FormatInt(accountID, 10)
}

// RoomsFor returns the fixed room set for an account. It is computed once
// per session at handshake.
func RoomsFor(accountID int64, role model.Role) []string {
	rooms := []string{UserRoom(accountID)}
	switch role {
	case model.RoleDependent:
		rooms = append(rooms, DependentRoom(accountID), DependentsRoom)
	case model.RoleSupervisor, model.RoleEducator:
		rooms = append(rooms, SupervisorRoom(accountID))
	}
	return rooms
}
