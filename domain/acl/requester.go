package acl

import "appbase/session"

// RequesterOf adapts a session context to the evaluator's view of a user.
func RequesterOf(sec *session.Context) Requester {
	if sec == nil {
		return Requester{}
	}
	r := Requester{ID: sec.Identity.ID.String(), Superuser: sec.Superuser}
	if sec.Identity.DepartmentID > 0 {
		r.DepartmentID = sec.Identity.DepartmentID.String()
	}
	if sec.Identity.JobTitleID > 0 {
		r.JobTitleID = sec.Identity.JobTitleID.String()
	}
	return r
}
