package apps

import (
	"appbase/bizerror"
	"appbase/common"
	"appbase/domain/acl"
	"appbase/domain/process"
	"appbase/persistence"
	"appbase/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	appIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateAppFunc         = CreateApp
	QueryAppsFunc         = QueryApps
	DetailAppFunc         = DetailApp
	UpdateAppBaseFunc     = UpdateAppBase
	UpdateAppSettingsFunc = UpdateAppSettings
	DeleteAppFunc         = DeleteApp

	AppDeleteCheckFuncs []func(a App, tx *gorm.DB) error
)

type App struct {
	ID          types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`

	Permissions       acl.Permissions           `json:"permissions" sql:"type:TEXT"`
	ProcessManagement process.ProcessManagement `json:"processManagement" sql:"type:TEXT"`

	CreatorID  types.ID        `json:"creatorId"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

type AppCreation struct {
	Name        string `json:"name" binding:"required,lte=255"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type AppBaseUpdating struct {
	Name        string `json:"name" binding:"required,lte=255"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// AppSettingsUpdating wholesale-replaces the permission and process
// documents; statuses and actions are never diffed incrementally.
type AppSettingsUpdating struct {
	Permissions       *acl.Permissions           `json:"permissions"`
	ProcessManagement *process.ProcessManagement `json:"processManagement"`
}

type AppQuery struct {
	Name string `json:"name" form:"name"`
}

func CreateApp(c *AppCreation, sec *session.Context) (*App, error) {
	if sec == nil {
		return nil, bizerror.ErrUnauthenticated
	}

	app := App{ID: common.NextId(appIdWorker), Name: c.Name, Description: c.Description, Icon: c.Icon,
		Permissions: *acl.DefaultPermissions(),
		CreatorID:   sec.Identity.ID, CreateTime: types.CurrentTimestamp()}
	if err := persistence.ActiveDataSourceManager.GormDB().Create(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func QueryApps(q AppQuery, sec *session.Context) ([]App, error) {
	if sec == nil {
		return nil, bizerror.ErrUnauthenticated
	}

	apps := []App{}
	db := persistence.ActiveDataSourceManager.GormDB().Order("id ASC")
	if q.Name != "" {
		db = db.Where("name like ?", "%"+q.Name+"%")
	}
	if err := db.Find(&apps).Error; err != nil {
		return nil, err
	}

	visible := make([]App, 0, len(apps))
	requester := acl.RequesterOf(sec)
	for _, app := range apps {
		if acl.CheckAppPermission(&app.Permissions, acl.OperationView, requester, app.CreatorID.String()) {
			visible = append(visible, app)
		}
	}
	return visible, nil
}

func DetailApp(id types.ID, sec *session.Context) (*App, error) {
	app := App{}
	if err := persistence.ActiveDataSourceManager.GormDB().Where(&App{ID: id}).First(&app).Error; err != nil {
		return nil, err
	}
	if !acl.CheckAppPermission(&app.Permissions, acl.OperationView, acl.RequesterOf(sec), app.CreatorID.String()) {
		return nil, bizerror.ErrForbidden
	}
	return &app, nil
}

func UpdateAppBase(id types.ID, u *AppBaseUpdating, sec *session.Context) (*App, error) {
	app := App{}
	db := persistence.ActiveDataSourceManager.GormDB()
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&App{ID: id}).First(&app).Error; err != nil {
			return err
		}
		if !acl.CheckAppPermission(&app.Permissions, acl.OperationManage, acl.RequesterOf(sec), app.CreatorID.String()) {
			return bizerror.ErrForbidden
		}
		if err := tx.Model(&App{}).Where(&App{ID: id}).
			Update(map[string]interface{}{"name": u.Name, "description": u.Description, "icon": u.Icon}).Error; err != nil {
			return err
		}
		return tx.Where(&App{ID: id}).First(&app).Error
	})
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func UpdateAppSettings(id types.ID, u *AppSettingsUpdating, sec *session.Context) (*App, error) {
	if u.ProcessManagement != nil {
		if err := u.ProcessManagement.Validate(); err != nil {
			return nil, err
		}
	}

	app := App{}
	db := persistence.ActiveDataSourceManager.GormDB()
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&App{ID: id}).First(&app).Error; err != nil {
			return err
		}
		if !acl.CheckAppPermission(&app.Permissions, acl.OperationManage, acl.RequesterOf(sec), app.CreatorID.String()) {
			return bizerror.ErrForbidden
		}

		updates := map[string]interface{}{}
		if u.Permissions != nil {
			updates["permissions"] = *u.Permissions
		}
		if u.ProcessManagement != nil {
			updates["process_management"] = *u.ProcessManagement
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&App{}).Where(&App{ID: id}).Update(updates).Error; err != nil {
			return err
		}
		return tx.Where(&App{ID: id}).First(&app).Error
	})
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func DeleteApp(id types.ID, sec *session.Context) error {
	return persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		app := App{}
		if err := tx.Where(&App{ID: id}).First(&app).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}
		if !acl.CheckAppPermission(&app.Permissions, acl.OperationManage, acl.RequesterOf(sec), app.CreatorID.String()) {
			return bizerror.ErrForbidden
		}
		for _, f := range AppDeleteCheckFuncs {
			if err := f(app, tx); err != nil {
				return err
			}
		}
		return tx.Delete(App{}, "id = ?", id).Error
	})
}
