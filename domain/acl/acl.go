package acl

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

const (
	OperationView   = "view"
	OperationEdit   = "edit"
	OperationDelete = "delete"
	OperationManage = "manage"
)

const (
	EntityTypeEveryone   = "everyone"
	EntityTypeCreator    = "creator"
	EntityTypeUser       = "user"
	EntityTypeDepartment = "department"
	EntityTypeJobTitle   = "job_title"
)

const (
	OperatorEquals    = "="
	OperatorNotEquals = "!="
)

type Entity struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id,omitempty"`
}

type Condition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// RecordRule gates per-operation entity lists behind an equality condition
// over record data.
type RecordRule struct {
	Condition   *Condition          `json:"condition,omitempty"`
	Permissions map[string][]Entity `json:"permissions,omitempty"`
}

// Permissions is the per-app access configuration document: coarse app-level
// groups per operation plus ordered record rules.
type Permissions struct {
	App         map[string][]string `json:"app,omitempty"`
	RecordRules []RecordRule        `json:"record_rules,omitempty"`
}

// Requester is the slice of a user identity the evaluator needs.
type Requester struct {
	ID           string
	DepartmentID string
	JobTitleID   string
	Superuser    bool
}

// Subject is the slice of a record the evaluator needs.
type Subject struct {
	CreatedBy string
	Data      map[string]interface{}
}

// DefaultPermissions everyone may view, the creator manages.
func DefaultPermissions() *Permissions {
	return &Permissions{App: map[string][]string{
		OperationView:   {EntityTypeEveryone},
		OperationManage: {EntityTypeCreator},
	}}
}

// CheckAppPermission decides an app-level operation from the configured
// groups. Superusers bypass; absent configuration falls back to the
// everyone-view / creator-manage default; the manage groups imply every
// other operation.
func CheckAppPermission(perms *Permissions, operation string, requester Requester, appCreator string) bool {
	if requester.Superuser {
		return true
	}
	if perms == nil || perms.App == nil {
		perms = DefaultPermissions()
	}
	if matchAppGroups(perms.App[operation], requester, appCreator) {
		return true
	}
	return operation != OperationManage && matchAppGroups(perms.App[OperationManage], requester, appCreator)
}

func matchAppGroups(groups []string, requester Requester, appCreator string) bool {
	for _, group := range groups {
		if group == EntityTypeEveryone {
			return true
		}
		if group == EntityTypeCreator && appCreator != "" && appCreator == requester.ID {
			return true
		}
	}
	return false
}

// CheckRecordPermission evaluates the ordered record rules: the first rule
// whose condition holds decides, by matching its entity selectors against
// the requester. No matching condition means allow.
func CheckRecordPermission(rules []RecordRule, operation string, requester Requester, record Subject) bool {
	if requester.Superuser {
		return true
	}
	for _, rule := range rules {
		if rule.Condition == nil {
			continue
		}
		if !matchCondition(rule.Condition, record.Data) {
			continue
		}
		return matchEntities(rule.Permissions[operation], requester, record.CreatedBy)
	}
	return true
}

func matchCondition(cond *Condition, data map[string]interface{}) bool {
	value := ""
	if raw, found := data[cond.Field]; found && raw != nil {
		value = fmt.Sprint(raw)
	}
	switch cond.Operator {
	case OperatorEquals:
		return value == cond.Value
	case OperatorNotEquals:
		return value != cond.Value
	default:
		return false
	}
}

func matchEntities(entities []Entity, requester Requester, recordCreator string) bool {
	for _, entity := range entities {
		switch entity.EntityType {
		case EntityTypeEveryone:
			return true
		case EntityTypeCreator:
			if recordCreator != "" && recordCreator == requester.ID {
				return true
			}
		case EntityTypeUser:
			if entity.EntityID == requester.ID {
				return true
			}
		case EntityTypeDepartment:
			if entity.EntityID != "" && entity.EntityID == requester.DepartmentID {
				return true
			}
		case EntityTypeJobTitle:
			if entity.EntityID != "" && entity.EntityID == requester.JobTitleID {
				return true
			}
		}
	}
	return false
}

func (p Permissions) Value() (driver.Value, error) {
	jsonBytes, err := json.Marshal(&p)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func (p *Permissions) Scan(v interface{}) error {
	jsonString, ok := v.(string)
	if !ok {
		jsonByte, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("type is neither string nor []byte: %T %v", v, v)
		}
		jsonString = string(jsonByte)
	}
	return json.Unmarshal([]byte(jsonString), p)
}
