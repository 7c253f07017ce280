package apps_test

import (
	"testing"
	"time"

	"appbase/bizerror"
	"appbase/domain/acl"
	"appbase/domain/apps"
	"appbase/domain/process"
	"appbase/persistence"
	"appbase/session"
	"appbase/testinfra"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func setup(t *testing.T, testDatabase **testinfra.TestDatabase) {
	db := testinfra.StartMysqlTestDatabase("appbase")
	*testDatabase = db
	Expect(db.DS.GormDB().AutoMigrate(&apps.App{}).Error).To(BeNil())

	persistence.ActiveDataSourceManager = db.DS
}

func teardown(t *testing.T, testDatabase *testinfra.TestDatabase) {
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func TestCreateApp(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should reject anonymous requests", func(t *testing.T) {
		a, err := apps.CreateApp(&apps.AppCreation{Name: "crm"}, nil)
		Expect(a).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrUnauthenticated))
	})

	t.Run("should be able to create app with default permissions", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		c := testinfra.BuildSecCtx(10)
		a, err := apps.CreateApp(&apps.AppCreation{Name: "crm", Description: "customers", Icon: "book"}, c)
		Expect(err).To(BeNil())
		Expect(a.ID > 0).To(BeTrue())
		Expect(time.Since(a.CreateTime.Time()) < time.Second).To(BeTrue())
		Expect(a.Name).To(Equal("crm"))
		Expect(a.Description).To(Equal("customers"))
		Expect(a.Icon).To(Equal("book"))
		Expect(a.CreatorID).To(Equal(types.ID(10)))
		Expect(a.Permissions).To(Equal(*acl.DefaultPermissions()))

		r := apps.App{}
		Expect(persistence.ActiveDataSourceManager.GormDB().Where("id = ?", a.ID).First(&r).Error).To(BeNil())
		Expect(r.Name).To(Equal(a.Name))
		Expect(r.Permissions).To(Equal(a.Permissions))
	})
}

func TestQueryApps(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should filter by name and by view permission", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		creator := testinfra.BuildSecCtx(10)
		a1, err := apps.CreateApp(&apps.AppCreation{Name: "crm"}, creator)
		Expect(err).To(BeNil())
		a2, err := apps.CreateApp(&apps.AppCreation{Name: "orders"}, creator)
		Expect(err).To(BeNil())

		// a2 becomes visible to its creator only
		_, err = apps.UpdateAppSettings(a2.ID, &apps.AppSettingsUpdating{
			Permissions: &acl.Permissions{App: map[string][]string{
				acl.OperationView: {acl.EntityTypeCreator}, acl.OperationManage: {acl.EntityTypeCreator}}}}, creator)
		Expect(err).To(BeNil())

		visible, err := apps.QueryApps(apps.AppQuery{}, creator)
		Expect(err).To(BeNil())
		Expect(len(visible)).To(Equal(2))

		other := testinfra.BuildSecCtx(20)
		visible, err = apps.QueryApps(apps.AppQuery{}, other)
		Expect(err).To(BeNil())
		Expect(len(visible)).To(Equal(1))
		Expect(visible[0].ID).To(Equal(a1.ID))

		visible, err = apps.QueryApps(apps.AppQuery{Name: "ord"}, creator)
		Expect(err).To(BeNil())
		Expect(len(visible)).To(Equal(1))
		Expect(visible[0].ID).To(Equal(a2.ID))
	})
}

func TestUpdateAppSettings(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should replace process configuration wholesale", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		creator := testinfra.BuildSecCtx(10)
		a, err := apps.CreateApp(&apps.AppCreation{Name: "expense"}, creator)
		Expect(err).To(BeNil())

		pm := process.ProcessManagement{Enabled: true,
			Statuses: []process.Status{{Name: "draft"}, {Name: "review",
				Assignee: &process.Assignee{Type: process.AssigneeTypeUsers, Selection: process.SelectionSingle, UserIDs: []string{"30"}}}},
			Actions: []process.Action{{Name: "submit", From: "draft", To: "review"}}}
		updated, err := apps.UpdateAppSettings(a.ID, &apps.AppSettingsUpdating{ProcessManagement: &pm}, creator)
		Expect(err).To(BeNil())
		Expect(updated.ProcessManagement).To(Equal(pm))

		// later save drops the action
		pm2 := process.ProcessManagement{Enabled: true, Statuses: []process.Status{{Name: "draft"}}}
		updated, err = apps.UpdateAppSettings(a.ID, &apps.AppSettingsUpdating{ProcessManagement: &pm2}, creator)
		Expect(err).To(BeNil())
		Expect(updated.ProcessManagement).To(Equal(pm2))
		Expect(len(updated.ProcessManagement.Actions)).To(BeZero())
	})

	t.Run("should reject invalid process configuration", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		creator := testinfra.BuildSecCtx(10)
		a, err := apps.CreateApp(&apps.AppCreation{Name: "expense"}, creator)
		Expect(err).To(BeNil())

		pm := process.ProcessManagement{Enabled: true}
		_, err = apps.UpdateAppSettings(a.ID, &apps.AppSettingsUpdating{ProcessManagement: &pm}, creator)
		Expect(err).To(Equal(bizerror.ErrProcessInvalid))
	})

	t.Run("only manager can update settings", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		creator := testinfra.BuildSecCtx(10)
		a, err := apps.CreateApp(&apps.AppCreation{Name: "expense"}, creator)
		Expect(err).To(BeNil())

		other := testinfra.BuildSecCtx(20)
		_, err = apps.UpdateAppSettings(a.ID, &apps.AppSettingsUpdating{Permissions: acl.DefaultPermissions()}, other)
		Expect(err).To(Equal(bizerror.ErrForbidden))

		super := testinfra.BuildSuperuserSecCtx(30)
		_, err = apps.UpdateAppSettings(a.ID, &apps.AppSettingsUpdating{Permissions: acl.DefaultPermissions()}, super)
		Expect(err).To(BeNil())
	})
}

func TestDeleteApp(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should delete app with manage permission only", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		creator := testinfra.BuildSecCtx(10)
		a, err := apps.CreateApp(&apps.AppCreation{Name: "expense"}, creator)
		Expect(err).To(BeNil())

		other := &session.Context{Token: "t", Identity: session.Identity{ID: 20}}
		Expect(apps.DeleteApp(a.ID, other)).To(Equal(bizerror.ErrForbidden))

		Expect(apps.DeleteApp(a.ID, creator)).To(BeNil())
		// deleting a missing app is tolerated
		Expect(apps.DeleteApp(a.ID, creator)).To(BeNil())
	})
}
