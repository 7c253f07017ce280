package records

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"appbase/bizerror"
	"appbase/common"
	"appbase/domain/acl"
	"appbase/domain/apps"
	"appbase/event"
	"appbase/persistence"
	"appbase/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	recordIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateRecordFunc   = CreateRecord
	QueryRecordsFunc   = QueryRecords
	DetailRecordFunc   = DetailRecord
	UpdateRecordFunc   = UpdateRecord
	DeleteRecordFunc   = DeleteRecord
	PendingRecordsFunc = PendingRecords
	LoadRecordsFunc    = LoadRecords
)

// StatusDraft is the status of records created in apps whose process
// management is disabled or has no statuses configured.
const StatusDraft = "Draft"

type RecordData map[string]interface{}

type Record struct {
	ID           types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	AppID        types.ID `json:"appId" gorm:"index:idx_records_app"`
	RecordNumber int      `json:"recordNumber"`

	Data   RecordData `json:"data" sql:"type:TEXT"`
	Status string     `json:"status"`

	WorkflowApproverIDs ApproverList    `json:"workflowApproverIds" sql:"type:TEXT"`
	WorkflowHistory     WorkflowHistory `json:"workflowHistory" sql:"type:TEXT"`
	WorkflowSubmittedAt types.Timestamp `json:"workflowSubmittedAt" sql:"type:DATETIME(6)"`
	WorkflowRequesterID types.ID        `json:"workflowRequesterId"`
	WorkflowDecidedAt   types.Timestamp `json:"workflowDecidedAt" sql:"type:DATETIME(6)"`

	CreatedBy  types.ID        `json:"createdBy"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
	UpdateTime types.Timestamp `json:"updateTime" sql:"type:DATETIME(6) NOT NULL"`
}

type ApproverList []string

type WorkflowHistoryEntry struct {
	Action string `json:"action"`
	From   string `json:"from"`
	To     string `json:"to"`

	OperatorID   types.ID `json:"operatorId"`
	OperatorName string   `json:"operatorName"`
	Comment      string   `json:"comment"`

	Timestamp types.Timestamp `json:"timestamp"`
}

type WorkflowHistory []WorkflowHistoryEntry

type RecordCreation struct {
	Data RecordData `json:"data" binding:"required"`
}

type RecordUpdating struct {
	Data RecordData `json:"data" binding:"required"`
}

type RecordQuery struct {
	Status   string `json:"status" form:"status"`
	Page     int    `json:"page" form:"page"`
	PageSize int    `json:"pageSize" form:"pageSize"`

	// DataFilters matches stringified field values, collected from free
	// query parameters by the REST layer.
	DataFilters map[string]string `json:"-" form:"-"`
}

type PagedRecords struct {
	Total int      `json:"total"`
	List  []Record `json:"list"`
}

func CreateRecord(appId types.ID, c *RecordCreation, sec *session.Context) (*Record, error) {
	if sec == nil {
		return nil, bizerror.ErrUnauthenticated
	}

	record := Record{}
	var ev *event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		app := apps.App{}
		if err := tx.Where(&apps.App{ID: appId}).First(&app).Error; err != nil {
			return err
		}
		if !acl.CheckAppPermission(&app.Permissions, acl.OperationEdit, acl.RequesterOf(sec), app.CreatorID.String()) {
			return bizerror.ErrForbidden
		}

		var maxNumber struct{ N int }
		if err := tx.Model(&Record{}).Where("app_id = ?", appId).
			Select("COALESCE(MAX(record_number), 0) AS n").Scan(&maxNumber).Error; err != nil {
			return err
		}

		// a disabled process is inert: its statuses never seed new records
		status := StatusDraft
		if app.ProcessManagement.Enabled {
			if first := app.ProcessManagement.FirstStatusName(); first != "" {
				status = first
			}
		}

		now := types.CurrentTimestamp()
		record = Record{ID: common.NextId(recordIdWorker), AppID: appId, RecordNumber: maxNumber.N + 1,
			Data: c.Data, Status: status,
			WorkflowApproverIDs: ApproverList{}, WorkflowHistory: WorkflowHistory{},
			CreatedBy: sec.Identity.ID, CreateTime: now, UpdateTime: now}
		if record.Data == nil {
			record.Data = RecordData{}
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		created, err := event.CreateEvent(event.SourceTypeRecord, record.ID, recordDesc(&app, &record),
			event.EventCategoryCreated, nil, &sec.Identity, tx)
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

func QueryRecords(appId types.ID, q RecordQuery, sec *session.Context) (*PagedRecords, error) {
	app, err := apps.DetailAppFunc(appId, sec)
	if err != nil {
		return nil, err
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 500 {
		q.PageSize = 20
	}

	all := []Record{}
	db := persistence.ActiveDataSourceManager.GormDB().Where("app_id = ?", app.ID)
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if err := db.Order("record_number ASC").Find(&all).Error; err != nil {
		return nil, err
	}

	requester := acl.RequesterOf(sec)
	matched := []Record{}
	for _, record := range all {
		if !matchDataFilters(record.Data, q.DataFilters) {
			continue
		}
		if !acl.CheckRecordPermission(app.Permissions.RecordRules, acl.OperationView, requester, recordSubject(&record)) {
			continue
		}
		matched = append(matched, record)
	}

	result := PagedRecords{Total: len(matched), List: []Record{}}
	start := (q.Page - 1) * q.PageSize
	if start < len(matched) {
		end := start + q.PageSize
		if end > len(matched) {
			end = len(matched)
		}
		result.List = matched[start:end]
	}
	return &result, nil
}

func DetailRecord(id types.ID, sec *session.Context) (*Record, error) {
	record := Record{}
	db := persistence.ActiveDataSourceManager.GormDB()
	if err := db.Where(&Record{ID: id}).First(&record).Error; err != nil {
		return nil, err
	}
	app, err := apps.DetailAppFunc(record.AppID, sec)
	if err != nil {
		return nil, err
	}
	if !acl.CheckRecordPermission(app.Permissions.RecordRules, acl.OperationView, acl.RequesterOf(sec), recordSubject(&record)) {
		return nil, bizerror.ErrForbidden
	}
	return &record, nil
}

// UpdateRecord merges the submitted data into the stored document: submitted
// keys overwrite, absent keys are left as they are.
func UpdateRecord(id types.ID, u *RecordUpdating, sec *session.Context) (*Record, error) {
	record := Record{}
	var ev *event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&Record{ID: id}).First(&record).Error; err != nil {
			return err
		}
		app := apps.App{}
		if err := tx.Where(&apps.App{ID: record.AppID}).First(&app).Error; err != nil {
			return err
		}
		requester := acl.RequesterOf(sec)
		if !acl.CheckAppPermission(&app.Permissions, acl.OperationEdit, requester, app.CreatorID.String()) ||
			!acl.CheckRecordPermission(app.Permissions.RecordRules, acl.OperationEdit, requester, recordSubject(&record)) {
			return bizerror.ErrForbidden
		}

		updatedProperties := []event.UpdatedProperty{}
		for key, value := range u.Data {
			old := record.Data[key]
			record.Data[key] = value
			updatedProperties = append(updatedProperties, event.UpdatedProperty{
				PropertyName: key, PropertyDesc: key,
				OldValue: fmt.Sprint(old), OldValueDesc: fmt.Sprint(old),
				NewValue: fmt.Sprint(value), NewValueDesc: fmt.Sprint(value)})
		}
		record.UpdateTime = types.CurrentTimestamp()
		if err := tx.Model(&Record{}).Where(&Record{ID: id}).
			Update(map[string]interface{}{"data": record.Data, "update_time": record.UpdateTime}).Error; err != nil {
			return err
		}
		created, err := event.CreateEvent(event.SourceTypeRecord, record.ID, recordDesc(&app, &record),
			event.EventCategoryPropertyUpdated, updatedProperties, &sec.Identity, tx)
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

func DeleteRecord(id types.ID, sec *session.Context) error {
	var ev *event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		record := Record{}
		if err := tx.Where(&Record{ID: id}).First(&record).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}
		app := apps.App{}
		if err := tx.Where(&apps.App{ID: record.AppID}).First(&app).Error; err != nil {
			return err
		}
		requester := acl.RequesterOf(sec)
		if !acl.CheckAppPermission(&app.Permissions, acl.OperationDelete, requester, app.CreatorID.String()) ||
			!acl.CheckRecordPermission(app.Permissions.RecordRules, acl.OperationDelete, requester, recordSubject(&record)) {
			return bizerror.ErrForbidden
		}
		if err := tx.Delete(Record{}, "id = ?", id).Error; err != nil {
			return err
		}
		created, err := event.CreateEvent(event.SourceTypeRecord, record.ID, recordDesc(&app, &record),
			event.EventCategoryDeleted, nil, &sec.Identity, tx)
		if err != nil {
			return err
		}
		ev = created
		return nil
	})
	if err != nil {
		return err
	}

	if ev != nil && event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}
	return nil
}

// PendingRecords lists the records across all apps that are waiting for an
// action by the current user.
func PendingRecords(sec *session.Context) ([]Record, error) {
	if sec == nil {
		return nil, bizerror.ErrUnauthenticated
	}

	uid := sec.Identity.ID.String()
	candidates := []Record{}
	db := persistence.ActiveDataSourceManager.GormDB()
	if err := db.Where("workflow_approver_ids LIKE ?", `%"`+uid+`"%`).
		Order("update_time DESC").Find(&candidates).Error; err != nil {
		return nil, err
	}

	// the LIKE match is only a coarse filter over the serialized column
	pending := []Record{}
	for _, record := range candidates {
		for _, approver := range record.WorkflowApproverIDs {
			if approver == uid {
				pending = append(pending, record)
				break
			}
		}
	}
	return pending, nil
}

// LoadRecords pages over all records without permission filtering, for the
// index synchronizer only.
func LoadRecords(page, pageSize int) ([]Record, error) {
	if page < 1 {
		page = 1
	}
	result := []Record{}
	err := persistence.ActiveDataSourceManager.GormDB().Order("id ASC").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

// IsAppReferencedByRecord vetoes app deletion while records still exist,
// registered into apps.AppDeleteCheckFuncs at startup.
func IsAppReferencedByRecord(a apps.App, tx *gorm.DB) error {
	var r Record
	if err := tx.Where(&Record{AppID: a.ID}).First(&r).Error; err == gorm.ErrRecordNotFound {
		return nil
	} else if err != nil {
		return err
	}
	return bizerror.ErrAppIsReferenced
}

func recordSubject(r *Record) acl.Subject {
	return acl.Subject{CreatedBy: r.CreatedBy.String(), Data: r.Data}
}

func recordDesc(a *apps.App, r *Record) string {
	return fmt.Sprintf("%s #%d", a.Name, r.RecordNumber)
}

func matchDataFilters(data RecordData, filters map[string]string) bool {
	for key, want := range filters {
		value, found := data[key]
		if !found {
			return false
		}
		if !strings.EqualFold(fmt.Sprint(value), want) {
			return false
		}
	}
	return true
}

func (d RecordData) Value() (driver.Value, error) {
	jsonBytes, err := json.Marshal(&d)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func (d *RecordData) Scan(v interface{}) error {
	return scanJSONColumn(v, d)
}

func (l ApproverList) Value() (driver.Value, error) {
	jsonBytes, err := json.Marshal(&l)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func (l *ApproverList) Scan(v interface{}) error {
	return scanJSONColumn(v, l)
}

func (h WorkflowHistory) Value() (driver.Value, error) {
	jsonBytes, err := json.Marshal(&h)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func (h *WorkflowHistory) Scan(v interface{}) error {
	return scanJSONColumn(v, h)
}

func scanJSONColumn(v interface{}, out interface{}) error {
	jsonString, ok := v.(string)
	if !ok {
		jsonByte, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("type is neither string nor []byte: %T %v", v, v)
		}
		jsonString = string(jsonByte)
	}
	return json.Unmarshal([]byte(jsonString), out)
}
