package process

import "fmt"

// RecordView is the slice of a record the resolver needs: current status,
// creator and stored field values.
type RecordView struct {
	Status    string
	CreatedBy string
	Data      map[string]interface{}
}

// AvailableActions computes the actions executable from currentStatus,
// preserving configuration order. A nil or disabled configuration yields
// no actions. Same-named actions sharing a from-status are all returned.
func AvailableActions(pm *ProcessManagement, currentStatus string) []Action {
	if pm == nil || !pm.Enabled {
		return []Action{}
	}
	r := []Action{}
	for _, action := range pm.Actions {
		if action.From == currentStatus {
			r = append(r, action)
		}
	}
	return r
}

// ResolveNextAssigneeCandidates computes the user ids eligible to become the
// next assignee once action is executed. Every unresolvable path (missing
// destination status, no assignee rule, unrecognized assignee type) degrades
// to an empty set; entity-based rules need org membership expansion and are
// resolved server-side, not here.
func ResolveNextAssigneeCandidates(pm *ProcessManagement, action Action, record RecordView) []string {
	status, found := pm.FindStatus(action.To)
	if !found || status.Assignee == nil {
		return []string{}
	}

	assignee := status.Assignee
	switch assignee.Type {
	case AssigneeTypeCreator:
		if record.CreatedBy != "" {
			return []string{record.CreatedBy}
		}
		return []string{}
	case AssigneeTypeUsers:
		if assignee.UserIDs == nil {
			return []string{}
		}
		return assignee.UserIDs
	case AssigneeTypeField:
		if assignee.FieldCode == "" {
			return []string{}
		}
		return stringifyFieldValue(record.Data[assignee.FieldCode])
	default:
		return []string{}
	}
}

// RequiresSingleSelection reports whether the destination status forces an
// explicit single-assignee choice.
func RequiresSingleSelection(pm *ProcessManagement, action Action) bool {
	status, found := pm.FindStatus(action.To)
	if !found || status.Assignee == nil {
		return false
	}
	return status.Assignee.Selection == SelectionSingle
}

// FindTransitionAction locates the configured action with the given name
// whose source status matches fromStatus.
func FindTransitionAction(pm *ProcessManagement, actionName, fromStatus string) (Action, bool) {
	if pm == nil {
		return Action{}, false
	}
	for _, action := range pm.Actions {
		if action.Name == actionName && action.From == fromStatus {
			return action, true
		}
	}
	return Action{}, false
}

// IsTerminalStatus reports whether no configured action leads out of status.
func IsTerminalStatus(pm *ProcessManagement, status string) bool {
	if pm == nil {
		return true
	}
	for _, action := range pm.Actions {
		if action.From == status {
			return false
		}
	}
	return true
}

func stringifyFieldValue(value interface{}) []string {
	if value == nil {
		return []string{}
	}
	if list, ok := value.([]interface{}); ok {
		r := make([]string, 0, len(list))
		for _, item := range list {
			r = append(r, fmt.Sprint(item))
		}
		return r
	}
	if list, ok := value.([]string); ok {
		return list
	}
	s := fmt.Sprint(value)
	if s == "" {
		return []string{}
	}
	return []string{s}
}
