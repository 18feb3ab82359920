package helprequest

import "github.com/dukerupert/helpline/internal/model"

// transitions lists the legal moves. Nothing leaves closed.
var transitions = map[model.HelpStatus][]model.HelpStatus{
	model.HelpOpen:     {model.HelpAnswered, model.HelpClosed},
	model.HelpAnswered: {model.HelpClosed},
	model.HelpClosed:   nil,
}

// CanTransition reports whether a request in from may move to to.
func CanTransition(from, to model.HelpStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
