package account

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"appbase/bizerror"
	"appbase/common"
	"appbase/persistence"
	"appbase/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	userIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateUserFunc            = CreateUser
	QueryUsersFunc            = QueryUsers
	UpdateBasicAuthSecretFunc = UpdateBasicAuthSecret
)

type User struct {
	ID     types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	Email  string   `json:"email" gorm:"unique_index"`
	Name   string   `json:"name"`
	Secret string   `json:"-"`

	DepartmentID types.ID `json:"departmentId"`
	JobTitleID   types.ID `json:"jobTitleId"`

	Active    bool `json:"active"`
	Superuser bool `json:"superuser"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

type UserInfo struct {
	ID    types.ID `json:"id"`
	Email string   `json:"email"`
	Name  string   `json:"name"`

	DepartmentID types.ID `json:"departmentId"`
	JobTitleID   types.ID `json:"jobTitleId"`
}

type UserCreation struct {
	Email  string `json:"email" binding:"required,email"`
	Name   string `json:"name"`
	Secret string `json:"secret" binding:"required,gte=6"`
}

type BasicAuthUpdating struct {
	OriginalSecret string `json:"originalSecret"`
	NewSecret      string `json:"newSecret" binding:"required,gte=6"`
}

func HashSha256(raw string) string {
	h := sha256.New()
	h.Write([]byte(raw))
	return hex.EncodeToString(h.Sum(nil))
}

func CreateUser(c *UserCreation, sec *session.Context) (*UserInfo, error) {
	email := strings.ToLower(strings.TrimSpace(c.Email))

	db := persistence.ActiveDataSourceManager.GormDB()
	var exist User
	err := db.Where(&User{Email: email}).First(&exist).Error
	if err == nil {
		return nil, bizerror.ErrEmailExisted
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	user := User{ID: common.NextId(userIdWorker), Email: email, Name: c.Name, Secret: HashSha256(c.Secret),
		Active: true, CreateTime: types.CurrentTimestamp()}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &UserInfo{ID: user.ID, Email: user.Email, Name: user.Name}, nil
}

func QueryUsers(sec *session.Context) ([]UserInfo, error) {
	users := []UserInfo{}
	if err := persistence.ActiveDataSourceManager.GormDB().Model(&User{}).Order("id ASC").Scan(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func UpdateBasicAuthSecret(u *BasicAuthUpdating, sec *session.Context) error {
	db := persistence.ActiveDataSourceManager.GormDB()
	user := User{}
	if err := db.Model(&User{}).Where(&User{ID: sec.Identity.ID, Secret: HashSha256(u.OriginalSecret)}).Scan(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return bizerror.ErrInvalidPassword
		}
		return err
	}

	return db.Model(&User{}).Where(&User{ID: sec.Identity.ID, Secret: HashSha256(u.OriginalSecret)}).
		Update(&User{Secret: HashSha256(u.NewSecret)}).Error
}
