package records

import (
	"appbase/account"
	"appbase/bizerror"
	"appbase/domain/acl"
	"appbase/domain/apps"
	"appbase/domain/process"
	"appbase/event"
	"appbase/notification"
	"appbase/persistence"
	"appbase/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	QueryWorkflowActionsFunc  = QueryWorkflowActions
	ExecuteWorkflowActionFunc = ExecuteWorkflowAction
)

type WorkflowActionInvocation struct {
	NextAssigneeID string `json:"nextAssigneeId"`
	Comment        string `json:"comment"`
}

type WorkflowActionView struct {
	Name string `json:"name"`
	From string `json:"from"`
	To   string `json:"to"`

	RequiresSingleSelection bool     `json:"requiresSingleSelection"`
	NextAssigneeCandidates  []string `json:"nextAssigneeCandidates"`
}

// QueryWorkflowActions lists the transitions offered to the current record
// status, each with its resolved pool of next assignees.
func QueryWorkflowActions(recordId types.ID, sec *session.Context) ([]WorkflowActionView, error) {
	record, err := DetailRecordFunc(recordId, sec)
	if err != nil {
		return nil, err
	}
	app, err := apps.DetailAppFunc(record.AppID, sec)
	if err != nil {
		return nil, err
	}

	pm := &app.ProcessManagement
	view := recordView(record)
	db := persistence.ActiveDataSourceManager.GormDB()

	actions := []WorkflowActionView{}
	for _, action := range process.AvailableActions(pm, record.Status) {
		candidates, err := nextAssigneeCandidates(db, pm, action, view)
		if err != nil {
			return nil, err
		}
		actions = append(actions, WorkflowActionView{Name: action.Name, From: action.From, To: action.To,
			RequiresSingleSelection: process.RequiresSingleSelection(pm, action),
			NextAssigneeCandidates:  candidates})
	}
	return actions, nil
}

func ExecuteWorkflowAction(recordId types.ID, actionName string, invocation *WorkflowActionInvocation,
	sec *session.Context) (*Record, error) {
	if sec == nil {
		return nil, bizerror.ErrUnauthenticated
	}

	record := Record{}
	var ev *event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&Record{ID: recordId}).First(&record).Error; err != nil {
			return err
		}
		app := apps.App{}
		if err := tx.Where(&apps.App{ID: record.AppID}).First(&app).Error; err != nil {
			return err
		}
		if !acl.CheckRecordPermission(app.Permissions.RecordRules, acl.OperationView, acl.RequesterOf(sec), recordSubject(&record)) {
			return bizerror.ErrForbidden
		}

		pm := &app.ProcessManagement
		if !pm.Enabled {
			return bizerror.ErrProcessDisabled
		}
		action, found := process.FindTransitionAction(pm, actionName, record.Status)
		if !found {
			return bizerror.ErrUnknownAction
		}
		if _, found := pm.FindStatus(action.To); !found {
			return bizerror.ErrUnknownStatus
		}
		if !isWorkflowActor(&record, sec) {
			return bizerror.ErrForbidden
		}

		candidates, err := nextAssigneeCandidates(tx, pm, action, recordView(&record))
		if err != nil {
			return err
		}

		// a sole candidate is auto-selected, an explicit choice is only
		// demanded when a single-select status offers more than one
		nextApprovers := ApproverList{}
		if len(candidates) > 0 {
			if invocation.NextAssigneeID != "" {
				if !containsApprover(candidates, invocation.NextAssigneeID) {
					return bizerror.ErrAssigneeNotCandidate
				}
				nextApprovers = ApproverList{invocation.NextAssigneeID}
			} else if process.RequiresSingleSelection(pm, action) && len(candidates) > 1 {
				return bizerror.ErrAssigneeRequired
			} else {
				nextApprovers = ApproverList(candidates)
			}
		}

		now := types.CurrentTimestamp()
		fromStatus := record.Status
		record.Status = action.To
		record.WorkflowApproverIDs = nextApprovers
		record.WorkflowHistory = append(record.WorkflowHistory, WorkflowHistoryEntry{
			Action: action.Name, From: fromStatus, To: action.To,
			OperatorID: sec.Identity.ID, OperatorName: sec.Identity.Name,
			Comment: invocation.Comment, Timestamp: now})
		record.UpdateTime = now

		if record.WorkflowSubmittedAt.IsZero() {
			record.WorkflowSubmittedAt = now
			record.WorkflowRequesterID = record.CreatedBy
		}
		record.WorkflowDecidedAt = types.Timestamp{}
		if len(nextApprovers) == 0 {
			record.WorkflowDecidedAt = now
		}

		if err := tx.Model(&Record{}).Where(&Record{ID: record.ID}).
			Update(map[string]interface{}{"status": record.Status,
				"workflow_approver_ids": record.WorkflowApproverIDs,
				"workflow_history":      record.WorkflowHistory,
				"workflow_submitted_at": record.WorkflowSubmittedAt,
				"workflow_requester_id": record.WorkflowRequesterID,
				"workflow_decided_at":   record.WorkflowDecidedAt,
				"update_time":           record.UpdateTime}).Error; err != nil {
			return err
		}

		if process.IsTerminalStatus(pm, record.Status) && record.CreatedBy != sec.Identity.ID {
			if _, err := notification.CreateNotificationFunc(&notification.NotificationCreation{
				UserID: record.CreatedBy,
				Title:  recordDesc(&app, &record) + " reached " + record.Status,
				Content: "the record you created was moved to its final status '" +
					record.Status + "' by " + sec.Identity.Name,
				SourceType: event.SourceTypeRecord, SourceID: record.ID}, tx); err != nil {
				return err
			}
		}

		created, err := event.CreateEvent(event.SourceTypeRecord, record.ID, recordDesc(&app, &record),
			event.EventCategoryWorkflowTransited, []event.UpdatedProperty{{
				PropertyName: "status", PropertyDesc: "status",
				OldValue: fromStatus, OldValueDesc: fromStatus,
				NewValue: record.Status, NewValueDesc: record.Status}},
			&sec.Identity, tx)
		if err != nil {
			return err
		}
		ev = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	if event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}
	return &record, nil
}

// isWorkflowActor: with assignees present only they may act, otherwise the
// creator keeps control of the record. Superusers always may.
func isWorkflowActor(record *Record, sec *session.Context) bool {
	if sec.Superuser {
		return true
	}
	if len(record.WorkflowApproverIDs) > 0 {
		return containsApprover(record.WorkflowApproverIDs, sec.Identity.ID.String())
	}
	return record.CreatedBy == sec.Identity.ID
}

// nextAssigneeCandidates resolves the assignee pool of the destination
// status, expanding department and job title selectors into user ids.
func nextAssigneeCandidates(db *gorm.DB, pm *process.ProcessManagement, action process.Action,
	view process.RecordView) ([]string, error) {

	dest, found := pm.FindStatus(action.To)
	if !found || dest.Assignee == nil {
		return []string{}, nil
	}
	if dest.Assignee.Type != process.AssigneeTypeEntities {
		return process.ResolveNextAssigneeCandidates(pm, action, view), nil
	}

	candidates := []string{}
	for _, ref := range dest.Assignee.Entities {
		switch ref.EntityType {
		case process.EntityTypeUser:
			candidates = append(candidates, ref.EntityID)
		case process.EntityTypeDepartment, process.EntityTypeJobTitle:
			id, err := types.ParseID(ref.EntityID)
			if err != nil {
				continue
			}
			users := []account.User{}
			query := db.Where("active = ?", true)
			if ref.EntityType == process.EntityTypeDepartment {
				query = query.Where("department_id = ?", id)
			} else {
				query = query.Where("job_title_id = ?", id)
			}
			if err := query.Order("id ASC").Find(&users).Error; err != nil {
				return nil, err
			}
			for _, user := range users {
				candidates = append(candidates, user.ID.String())
			}
		}
	}
	return dedupApprovers(candidates), nil
}

func recordView(r *Record) process.RecordView {
	return process.RecordView{Status: r.Status, CreatedBy: r.CreatedBy.String(), Data: r.Data}
}

func containsApprover(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

func dedupApprovers(list []string) []string {
	seen := map[string]bool{}
	result := []string{}
	for _, v := range list {
		if seen[v] {
			continue
		}
		seen[v] = true
		result = append(result, v)
	}
	return result
}
