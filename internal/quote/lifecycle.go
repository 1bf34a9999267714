package quote

// ownerTransitions lists the status changes a quote's owner may perform.
// Owners only move a quote forward; putting one back into draft is an
// administrative correction workflow.
var ownerTransitions = map[Status]map[Status]bool{
	StatusDraft: {StatusSent: true, StatusApproved: true, StatusRejected: true},
	StatusSent:  {StatusApproved: true, StatusRejected: true},
}

// CanTransition reports whether actor may move a quote from one status to
// another. Admins may set any valid target status, including draft.
func CanTransition(actor Actor, from, to Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if actor.Admin {
		return true
	}
	return ownerTransitions[from][to]
}

// Transition returns a copy of q with the target status applied, or a
// ForbiddenTransitionError naming the current and requested status. The
// input quote is never mutated; the caller persists the returned value.
func Transition(q Quote, actor Actor, to Status) (Quote, error) {
	if !CanTransition(actor, q.Status, to) {
		return Quote{}, &ForbiddenTransitionError{From: q.Status, To: to}
	}
	q.Status = to
	return q, nil
}
