package store

import (
	"testing"
	"time"

	"github.com/dukerupert/helpline/internal/model"
)

func setupHelpRequestTest(t *testing.T) (*HelpRequestStore, *LinkStore, *AccountStore) {
	t.Helper()
	db := setupTestDB(t)
	return NewHelpRequestStore(db), NewLinkStore(db), NewAccountStore(db)
}

func TestHelpRequestCreateAndGet(t *testing.T) {
	hs, _, as := setupHelpRequestTest(t)
	dep, _ := seedAccount(t, as, "dave@example.com", model.RoleDependent, "STU-AAA-AAA")

	msg := "need help"
	hr, err := hs.Create(dep.ID, &msg, model.UrgencyUrgent)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if hr.Status != model.HelpOpen {
		t.Errorf("status = %q, want open", hr.Status)
	}
	if hr.Urgency != model.UrgencyUrgent {
		t.Errorf("urgency = %q, want urgent", hr.Urgency)
	}
	if hr.Message == nil || *hr.Message != msg {
		t.Errorf("message = %v, want %q", hr.Message, msg)
	}
	if hr.ResolvedBy != nil || hr.ResolvedAt != nil {
		t.Error("expected unresolved request")
	}

	noMsg, err := hs.Create(dep.ID, nil, model.UrgencyOK)
	if err != nil {
		t.Fatalf("create without message: %v", err)
	}
	if noMsg.Message != nil {
		t.Errorf("message = %q, want nil", *noMsg.Message)
	}
}

func TestHelpRequestListForDependentNewestFirst(t *testing.T) {
	hs, _, as := setupHelpRequestTest(t)
	dep, _ := seedAccount(t, as, "dave@example.com", model.RoleDependent, "STU-AAA-AAA")
	other, _ := seedAccount(t, as, "eve@example.com", model.RoleDependent, "STU-BBB-BBB")

	first, _ := hs.Create(dep.ID, nil, model.UrgencyOK)
	second, _ := hs.Create(dep.ID, nil, model.UrgencyAttention)
	hs.Create(other.ID, nil, model.UrgencyOK)

	list, err := hs.ListForDependent(dep.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].ID != second.ID || list[1].ID != first.ID {
		t.Errorf("order = [%d %d], want [%d %d]", list[0].ID, list[1].ID, second.ID, first.ID)
	}
}

func TestHelpRequestListForSupervisorActiveOnly(t *testing.T) {
	hs, ls, as := setupHelpRequestTest(t)
	sup, _ := seedAccount(t, as, "carol@example.com", model.RoleSupervisor, "CAR-AAA-AAA")
	linked, _ := seedAccount(t, as, "dave@example.com", model.RoleDependent, "STU-AAA-AAA")
	blocked, _ := seedAccount(t, as, "eve@example.com", model.RoleDependent, "STU-BBB-BBB")
	unlinked, _ := seedAccount(t, as, "fay@example.com", model.RoleDependent, "STU-CCC-CCC")

	ls.Activate(sup.ID, linked.ID)
	lb, _ := ls.Activate(sup.ID, blocked.ID)
	ls.UpdateStatus(lb.ID, model.LinkBlocked)

	want, _ := hs.Create(linked.ID, nil, model.UrgencyOK)
	hs.Create(blocked.ID, nil, model.UrgencyOK)
	hs.Create(unlinked.ID, nil, model.UrgencyOK)

	list, err := hs.ListForSupervisor(sup.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != want.ID {
		t.Errorf("got %+v, want only request %d", list, want.ID)
	}
}

func TestHelpRequestTransitionCompareAndSet(t *testing.T) {
	hs, _, as := setupHelpRequestTest(t)
	sup, _ := seedAccount(t, as, "carol@example.com", model.RoleSupervisor, "CAR-AAA-AAA")
	dep, _ := seedAccount(t, as, "dave@example.com", model.RoleDependent, "STU-AAA-AAA")
	hr, _ := hs.Create(dep.ID, nil, model.UrgencyOK)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ok, err := hs.Transition(hr.ID, model.HelpOpen, model.HelpAnswered, sup.ID, at)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if !ok {
		t.Fatal("expected transition to apply")
	}

	ok, err = hs.Transition(hr.ID, model.HelpOpen, model.HelpClosed, sup.ID, at)
	if err != nil {
		t.Fatalf("stale transition: %v", err)
	}
	if ok {
		t.Error("stale from-status must not apply")
	}

	got, err := hs.GetByID(hr.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.HelpAnswered {
		t.Errorf("status = %q, want answered", got.Status)
	}
	if got.ResolvedBy == nil || *got.ResolvedBy != sup.ID {
		t.Errorf("resolved_by = %v, want %d", got.ResolvedBy, sup.ID)
	}
	if got.ResolvedAt == nil || !got.ResolvedAt.Equal(at) {
		t.Errorf("resolved_at = %v, want %v", got.ResolvedAt, at)
	}
}

func TestHelpRequestGetByIDNotFound(t *testing.T) {
	hs, _, _ := setupHelpRequestTest(t)

	hr, err := hs.GetByID(42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if hr != nil {
		t.Error("expected nil for nonexistent request")
	}
}
