package helprequest

import (
	"testing"

	"github.com/dukerupert/helpline/internal/model"
)

func TestCanTransition(t *testing.T) {
	statuses := []model.HelpStatus{model.HelpOpen, model.HelpAnswered, model.HelpClosed}
	allowed := map[[2]model.HelpStatus]bool{
		{model.HelpOpen, model.HelpAnswered}:   true,
		{model.HelpOpen, model.HelpClosed}:     true,
		{model.HelpAnswered, model.HelpClosed}: true,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[[2]model.HelpStatus{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestCanTransitionUnknownStatus(t *testing.T) {
	if CanTransition("pending", model.HelpClosed) {
		t.Error("unknown from-status must not transition")
	}
	if CanTransition(model.HelpOpen, "reopened") {
		t.Error("unknown to-status must not be reachable")
	}
}
