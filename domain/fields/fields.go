package fields

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"appbase/bizerror"
	"appbase/common"
	"appbase/domain/acl"
	"appbase/domain/apps"
	"appbase/persistence"
	"appbase/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

const (
	TypeSingleLineText = "SINGLE_LINE_TEXT"
	TypeMultiLineText  = "MULTI_LINE_TEXT"
	TypeNumber         = "NUMBER"
	TypeDate           = "DATE"
	TypeDateTime       = "DATETIME"
	TypeDropDown       = "DROP_DOWN"
	TypeCheckBox       = "CHECK_BOX"
	TypeUserSelection  = "USER_SELECTION"
	TypeReference      = "REFERENCE"
	TypeFile           = "FILE"
)

var (
	fieldIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	QueryFieldsFunc = QueryFields
	SyncFieldsFunc  = SyncFields
)

type FieldConfig map[string]interface{}

type Field struct {
	ID    types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	AppID types.ID `json:"appId" gorm:"index:idx_fields_app"`

	Code  string `json:"code"`
	Type  string `json:"type"`
	Label string `json:"label"`

	Config FieldConfig `json:"config" sql:"type:TEXT"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

type FieldCreation struct {
	Code  string `json:"code" binding:"required,lte=255"`
	Type  string `json:"type" binding:"required"`
	Label string `json:"label" binding:"required"`

	Config       FieldConfig `json:"config"`
	Options      []string    `json:"options"`
	RelatedAppID types.ID    `json:"relatedAppId"`
}

func QueryFields(appId types.ID, sec *session.Context) ([]Field, error) {
	app, err := apps.DetailAppFunc(appId, sec)
	if err != nil {
		return nil, err
	}

	fields := []Field{}
	db := persistence.ActiveDataSourceManager.GormDB()
	if err := db.Where("app_id = ?", app.ID).Order("id ASC").Find(&fields).Error; err != nil {
		return nil, err
	}
	return fields, nil
}

// SyncFields wholesale-replaces the schema of an app: existing fields are
// dropped and the submitted list is recreated. Stored record data keyed by
// removed codes is left untouched.
func SyncFields(appId types.ID, creations []FieldCreation, sec *session.Context) ([]Field, error) {
	synced := []Field{}
	err := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		app := apps.App{}
		if err := tx.Where(&apps.App{ID: appId}).First(&app).Error; err != nil {
			return err
		}
		if !acl.CheckAppPermission(&app.Permissions, acl.OperationManage, acl.RequesterOf(sec), app.CreatorID.String()) {
			return bizerror.ErrForbidden
		}

		if err := tx.Delete(Field{}, "app_id = ?", appId).Error; err != nil {
			return err
		}
		now := types.CurrentTimestamp()
		for _, creation := range creations {
			field := Field{ID: common.NextId(fieldIdWorker), AppID: appId,
				Code: creation.Code, Type: creation.Type, Label: creation.Label,
				Config: creation.Config, CreateTime: now}
			if field.Config == nil {
				field.Config = FieldConfig{}
			}
			if len(creation.Options) > 0 {
				field.Config["options"] = creation.Options
			}
			if creation.RelatedAppID > 0 {
				field.Config["related_app_id"] = creation.RelatedAppID.String()
			}
			if err := tx.Create(&field).Error; err != nil {
				return err
			}
			synced = append(synced, field)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return synced, nil
}

func (c FieldConfig) Value() (driver.Value, error) {
	jsonBytes, err := json.Marshal(&c)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func (c *FieldConfig) Scan(v interface{}) error {
	jsonString, ok := v.(string)
	if !ok {
		jsonByte, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("type is neither string nor []byte: %T %v", v, v)
		}
		jsonString = string(jsonByte)
	}
	return json.Unmarshal([]byte(jsonString), c)
}
