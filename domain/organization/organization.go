package organization

import (
	"appbase/bizerror"
	"appbase/common"
	"appbase/persistence"
	"appbase/session"

	"github.com/fundwit/go-commons/types"
	"github.com/sony/sonyflake"
)

var (
	orgIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateDepartmentFunc = CreateDepartment
	QueryDepartmentsFunc = QueryDepartments
	DeleteDepartmentFunc = DeleteDepartment

	CreateJobTitleFunc = CreateJobTitle
	QueryJobTitlesFunc = QueryJobTitles
	DeleteJobTitleFunc = DeleteJobTitle
)

type Department struct {
	ID       types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	Name     string   `json:"name"`
	ParentID types.ID `json:"parentId"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

type JobTitle struct {
	ID   types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	Name string   `json:"name"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

type DepartmentCreation struct {
	Name     string   `json:"name" binding:"required,lte=255"`
	ParentID types.ID `json:"parentId"`
}

type JobTitleCreation struct {
	Name string `json:"name" binding:"required,lte=255"`
}

func CreateDepartment(c *DepartmentCreation, sec *session.Context) (*Department, error) {
	if sec == nil || !sec.Superuser {
		return nil, bizerror.ErrForbidden
	}
	record := Department{ID: common.NextId(orgIdWorker), Name: c.Name, ParentID: c.ParentID,
		CreateTime: types.CurrentTimestamp()}
	if err := persistence.ActiveDataSourceManager.GormDB().Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func QueryDepartments(sec *session.Context) ([]Department, error) {
	records := []Department{}
	if err := persistence.ActiveDataSourceManager.GormDB().Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func DeleteDepartment(id types.ID, sec *session.Context) error {
	if sec == nil || !sec.Superuser {
		return bizerror.ErrForbidden
	}
	return persistence.ActiveDataSourceManager.GormDB().Delete(Department{}, "id = ?", id).Error
}

func CreateJobTitle(c *JobTitleCreation, sec *session.Context) (*JobTitle, error) {
	if sec == nil || !sec.Superuser {
		return nil, bizerror.ErrForbidden
	}
	record := JobTitle{ID: common.NextId(orgIdWorker), Name: c.Name, CreateTime: types.CurrentTimestamp()}
	if err := persistence.ActiveDataSourceManager.GormDB().Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func QueryJobTitles(sec *session.Context) ([]JobTitle, error) {
	records := []JobTitle{}
	if err := persistence.ActiveDataSourceManager.GormDB().Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func DeleteJobTitle(id types.ID, sec *session.Context) error {
	if sec == nil || !sec.Superuser {
		return bizerror.ErrForbidden
	}
	return persistence.ActiveDataSourceManager.GormDB().Delete(JobTitle{}, "id = ?", id).Error
}
