package session

import (
	"time"

	"github.com/fundwit/go-commons/types"
)

type Context struct {
	Token     string   `json:"token"`
	Identity  Identity `json:"identity"`
	Superuser bool     `json:"superuser"`

	SigningTime time.Time `json:"-"`
}

type Identity struct {
	ID    types.ID `json:"id"`
	Email string   `json:"email"`
	Name  string   `json:"name"`

	DepartmentID types.ID `json:"departmentId"`
	JobTitleID   types.ID `json:"jobTitleId"`
}
