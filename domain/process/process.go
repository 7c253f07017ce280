package process

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"appbase/bizerror"
)

const (
	AssigneeTypeCreator  = "creator"
	AssigneeTypeUsers    = "users"
	AssigneeTypeField    = "field"
	AssigneeTypeEntities = "entities"
)

const (
	SelectionAll    = "all"
	SelectionSingle = "single"
)

const (
	EntityTypeUser       = "user"
	EntityTypeDepartment = "department"
	EntityTypeJobTitle   = "job_title"
)

type EntityRef struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
}

type Assignee struct {
	Type      string `json:"type"`
	Selection string `json:"selection,omitempty"`

	UserIDs   []string    `json:"user_ids,omitempty"`
	FieldCode string      `json:"field_code,omitempty"`
	Entities  []EntityRef `json:"entities,omitempty"`
}

type Status struct {
	Name     string    `json:"name"`
	Assignee *Assignee `json:"assignee,omitempty"`
}

type Action struct {
	Name string `json:"name"`
	From string `json:"from"`
	To   string `json:"to"`
}

// stateless configuration document, stored as one JSON column of an app
// and wholesale-replaced on each settings save
type ProcessManagement struct {
	Enabled  bool     `json:"enabled"`
	Statuses []Status `json:"statuses"`
	Actions  []Action `json:"actions"`
}

func (pm *ProcessManagement) FindStatus(name string) (Status, bool) {
	if pm == nil {
		return Status{}, false
	}
	for _, s := range pm.Statuses {
		if s.Name == name {
			return s, true
		}
	}
	return Status{}, false
}

func (pm *ProcessManagement) FirstStatusName() string {
	if pm == nil {
		return ""
	}
	for _, s := range pm.Statuses {
		if s.Name != "" {
			return s.Name
		}
	}
	return ""
}

// Validate save-time checks of the settings UI: an enabled process must carry
// at least one status, and a users-assignee must name at least one user.
// Actions referencing unknown statuses are deliberately tolerated.
func (pm *ProcessManagement) Validate() error {
	if pm == nil || !pm.Enabled {
		return nil
	}
	if len(pm.Statuses) == 0 {
		return bizerror.ErrProcessInvalid
	}
	for _, s := range pm.Statuses {
		if s.Name == "" {
			return bizerror.ErrProcessInvalid
		}
		if s.Assignee != nil && s.Assignee.Type == AssigneeTypeUsers && len(s.Assignee.UserIDs) == 0 {
			return bizerror.ErrProcessInvalid
		}
	}
	return nil
}

func (pm ProcessManagement) Value() (driver.Value, error) {
	jsonBytes, err := json.Marshal(&pm)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func (pm *ProcessManagement) Scan(v interface{}) error {
	jsonString, ok := v.(string)
	if !ok {
		jsonByte, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("type is neither string nor []byte: %T %v", v, v)
		}
		jsonString = string(jsonByte)
	}
	return json.Unmarshal([]byte(jsonString), pm)
}
