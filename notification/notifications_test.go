package notification_test

import (
	"testing"

	"appbase/bizerror"
	"appbase/notification"
	"appbase/persistence"
	"appbase/testinfra"

	. "github.com/onsi/gomega"
)

func setup(t *testing.T, testDatabase **testinfra.TestDatabase) {
	db := testinfra.StartMysqlTestDatabase("appbase")
	*testDatabase = db
	Expect(db.DS.GormDB().AutoMigrate(&notification.Notification{}).Error).To(BeNil())

	persistence.ActiveDataSourceManager = db.DS
}

func teardown(t *testing.T, testDatabase *testinfra.TestDatabase) {
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func TestNotifications(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should list own notifications newest first with unread filter", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		db := persistence.ActiveDataSourceManager.GormDB()
		n1, err := notification.CreateNotification(&notification.NotificationCreation{
			UserID: 10, Title: "expense #1 reached approved"}, db)
		Expect(err).To(BeNil())
		n2, err := notification.CreateNotification(&notification.NotificationCreation{
			UserID: 10, Title: "expense #2 reached approved"}, db)
		Expect(err).To(BeNil())
		_, err = notification.CreateNotification(&notification.NotificationCreation{
			UserID: 20, Title: "other user"}, db)
		Expect(err).To(BeNil())

		sec := testinfra.BuildSecCtx(10)
		page, err := notification.QueryNotifications(notification.NotificationQuery{}, sec)
		Expect(err).To(BeNil())
		Expect(page.Total).To(Equal(int64(2)))
		Expect(page.List[0].ID).To(Equal(n2.ID))
		Expect(page.List[1].ID).To(Equal(n1.ID))

		count, err := notification.CountUnread(sec)
		Expect(err).To(BeNil())
		Expect(count).To(Equal(int64(2)))

		Expect(notification.MarkRead(n1.ID, sec)).To(BeNil())
		page, err = notification.QueryNotifications(notification.NotificationQuery{UnreadOnly: true}, sec)
		Expect(err).To(BeNil())
		Expect(page.Total).To(Equal(int64(1)))
		Expect(page.List[0].ID).To(Equal(n2.ID))

		Expect(notification.MarkAllRead(sec)).To(BeNil())
		count, err = notification.CountUnread(sec)
		Expect(err).To(BeNil())
		Expect(count).To(BeZero())
	})

	t.Run("cannot mark another user's notification", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		db := persistence.ActiveDataSourceManager.GormDB()
		n, err := notification.CreateNotification(&notification.NotificationCreation{
			UserID: 10, Title: "mine"}, db)
		Expect(err).To(BeNil())

		Expect(notification.MarkRead(n.ID, testinfra.BuildSecCtx(20))).To(Equal(bizerror.ErrNotFound))
	})

	t.Run("anonymous requests are rejected", func(t *testing.T) {
		_, err := notification.QueryNotifications(notification.NotificationQuery{}, nil)
		Expect(err).To(Equal(bizerror.ErrUnauthenticated))
		_, err = notification.CountUnread(nil)
		Expect(err).To(Equal(bizerror.ErrUnauthenticated))
		Expect(notification.MarkAllRead(nil)).To(Equal(bizerror.ErrUnauthenticated))
	})
}
