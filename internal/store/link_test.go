package store

import (
	"testing"

	"github.com/dukerupert/helpline/internal/model"
)

func setupLinkTest(t *testing.T) (*LinkStore, *AccountStore, *model.Account, *model.Account) {
	t.Helper()
	db := setupTestDB(t)
	as := NewAccountStore(db)
	sup, _ := seedAccount(t, as, "carol@example.com", model.RoleSupervisor, "CAR-AAA-AAA")
	dep, _ := seedAccount(t, as, "dave@example.com", model.RoleDependent, "STU-AAA-AAA")
	return NewLinkStore(db), as, sup, dep
}

func TestLinkActivateIdempotent(t *testing.T) {
	ls, _, sup, dep := setupLinkTest(t)

	first, err := ls.Activate(sup.ID, dep.ID)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if first.Status != model.LinkActive {
		t.Errorf("status = %q, want active", first.Status)
	}

	second, err := ls.Activate(sup.ID, dep.ID)
	if err != nil {
		t.Fatalf("activate again: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second activate id = %d, want %d", second.ID, first.ID)
	}

	var n int
	if err := ls.db.QueryRow(`SELECT COUNT(*) FROM links`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("links = %d, want 1", n)
	}
}

func TestLinkActivateReactivates(t *testing.T) {
	ls, _, sup, dep := setupLinkTest(t)

	l, _ := ls.Activate(sup.ID, dep.ID)
	if _, err := ls.UpdateStatus(l.ID, model.LinkBlocked); err != nil {
		t.Fatalf("block: %v", err)
	}

	again, err := ls.Activate(sup.ID, dep.ID)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if again.Status != model.LinkActive {
		t.Errorf("status = %q, want active", again.Status)
	}
}

func TestLinkActiveSupervisorIDs(t *testing.T) {
	ls, as, sup, dep := setupLinkTest(t)
	pending, _ := seedAccount(t, as, "pat@example.com", model.RoleEducator, "EDU-AAA-AAA")
	blocked, _ := seedAccount(t, as, "bob@example.com", model.RoleSupervisor, "CAR-BBB-BBB")

	ls.Activate(sup.ID, dep.ID)
	lp, _ := ls.Activate(pending.ID, dep.ID)
	ls.UpdateStatus(lp.ID, model.LinkPending)
	lb, _ := ls.Activate(blocked.ID, dep.ID)
	ls.UpdateStatus(lb.ID, model.LinkBlocked)

	ids, err := ls.ActiveSupervisorIDs(dep.ID)
	if err != nil {
		t.Fatalf("active supervisors: %v", err)
	}
	if len(ids) != 1 || ids[0] != sup.ID {
		t.Errorf("ids = %v, want [%d]", ids, sup.ID)
	}

	ok, err := ls.IsActive(pending.ID, dep.ID)
	if err != nil {
		t.Fatalf("is active: %v", err)
	}
	if ok {
		t.Error("pending link reported active")
	}
}

func TestLinkListWithPeers(t *testing.T) {
	ls, _, sup, dep := setupLinkTest(t)
	ls.Activate(sup.ID, dep.ID)

	forSup, err := ls.ListForSupervisor(sup.ID, "")
	if err != nil {
		t.Fatalf("list for supervisor: %v", err)
	}
	if len(forSup) != 1 {
		t.Fatalf("len = %d, want 1", len(forSup))
	}
	if forSup[0].Peer.AccountID != dep.ID || forSup[0].Peer.Role != model.RoleDependent {
		t.Errorf("peer = %+v, want dependent %d", forSup[0].Peer, dep.ID)
	}

	forDep, err := ls.ListForDependent(dep.ID, model.LinkActive)
	if err != nil {
		t.Fatalf("list for dependent: %v", err)
	}
	if len(forDep) != 1 || forDep[0].Peer.AccountID != sup.ID {
		t.Fatalf("got %+v, want supervisor peer", forDep)
	}

	blocked, err := ls.ListForDependent(dep.ID, model.LinkBlocked)
	if err != nil {
		t.Fatalf("list blocked: %v", err)
	}
	if len(blocked) != 0 {
		t.Errorf("blocked len = %d, want 0", len(blocked))
	}
}

func TestLinkRejectsSelfPair(t *testing.T) {
	ls, _, sup, _ := setupLinkTest(t)

	if _, err := ls.Activate(sup.ID, sup.ID); err == nil {
		t.Fatal("expected error linking an account to itself")
	}
}
