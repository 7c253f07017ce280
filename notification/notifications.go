package notification

import (
	"appbase/bizerror"
	"appbase/common"
	"appbase/persistence"
	"appbase/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	notificationIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateNotificationFunc = CreateNotification
	QueryNotificationsFunc = QueryNotifications
	CountUnreadFunc        = CountUnread
	MarkReadFunc           = MarkRead
	MarkAllReadFunc        = MarkAllRead
)

type Notification struct {
	ID     types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	UserID types.ID `json:"userId" gorm:"index:idx_notifications_user"`

	Title   string `json:"title"`
	Content string `json:"content"`

	SourceType string   `json:"sourceType"`
	SourceID   types.ID `json:"sourceId"`

	Read       bool            `json:"read"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

type NotificationCreation struct {
	UserID types.ID

	Title   string
	Content string

	SourceType string
	SourceID   types.ID
}

type NotificationQuery struct {
	UnreadOnly bool `json:"unreadOnly" form:"unreadOnly"`
	Page       int  `json:"page" form:"page"`
	PageSize   int  `json:"pageSize" form:"pageSize"`
}

type PagedNotifications struct {
	Total int64          `json:"total"`
	List  []Notification `json:"list"`
}

// CreateNotification is invoked by other services, not exposed over REST.
func CreateNotification(c *NotificationCreation, db *gorm.DB) (*Notification, error) {
	record := Notification{ID: common.NextId(notificationIdWorker), UserID: c.UserID,
		Title: c.Title, Content: c.Content, SourceType: c.SourceType, SourceID: c.SourceID,
		CreateTime: types.CurrentTimestamp()}
	if err := db.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func QueryNotifications(q NotificationQuery, sec *session.Context) (*PagedNotifications, error) {
	if sec == nil {
		return nil, bizerror.ErrUnauthenticated
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 500 {
		q.PageSize = 20
	}

	db := persistence.ActiveDataSourceManager.GormDB().Model(&Notification{}).
		Where("user_id = ?", sec.Identity.ID)
	if q.UnreadOnly {
		db = db.Where("`read` = ?", false)
	}

	result := PagedNotifications{List: []Notification{}}
	if err := db.Count(&result.Total).Error; err != nil {
		return nil, err
	}
	if err := db.Order("id DESC").Offset((q.Page - 1) * q.PageSize).Limit(q.PageSize).
		Find(&result.List).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func CountUnread(sec *session.Context) (int64, error) {
	if sec == nil {
		return 0, bizerror.ErrUnauthenticated
	}
	var count int64
	err := persistence.ActiveDataSourceManager.GormDB().Model(&Notification{}).
		Where("user_id = ? AND `read` = ?", sec.Identity.ID, false).Count(&count).Error
	return count, err
}

func MarkRead(id types.ID, sec *session.Context) error {
	if sec == nil {
		return bizerror.ErrUnauthenticated
	}
	db := persistence.ActiveDataSourceManager.GormDB()
	query := db.Model(&Notification{}).Where("id = ? AND user_id = ?", id, sec.Identity.ID).
		Update("read", true)
	if query.Error != nil {
		return query.Error
	}
	if query.RowsAffected == 0 {
		return bizerror.ErrNotFound
	}
	return nil
}

func MarkAllRead(sec *session.Context) error {
	if sec == nil {
		return bizerror.ErrUnauthenticated
	}
	return persistence.ActiveDataSourceManager.GormDB().Model(&Notification{}).
		Where("user_id = ? AND `read` = ?", sec.Identity.ID, false).Update("read", true).Error
}
