package event

import (
	"testing"
	"time"

	"appbase/persistence"
	"appbase/testinfra"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
)

var (
	testDatabase *testinfra.TestDatabase
)

func setup(t *testing.T) {
	testDatabase = testinfra.StartMysqlTestDatabase("appbase")
	assert.Nil(t, testDatabase.DS.GormDB().AutoMigrate(&EventRecord{}).Error)
	persistence.ActiveDataSourceManager = testDatabase.DS
}
func teardown(t *testing.T) {
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func TestEventPersistCreate(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should be able to persist event create", func(t *testing.T) {
		setup(t)
		defer teardown(t)

		event := EventRecord{
			Event: Event{
				SourceType: SourceTypeRecord,
				SourceId:   1234,
				SourceDesc: "record #12 of app 100",

				EventCategory: EventCategoryPropertyUpdated,
				UpdatedProperties: UpdatedProperties{{PropertyName: "amount", PropertyDesc: "amount",
					OldValue: "100", OldValueDesc: "100", NewValue: "200", NewValueDesc: "200"}},

				CreatorId:   333,
				CreatorName: "user333",
			},
			Timestamp: types.TimestampOfDate(2021, 1, 1, 12, 12, 12, 0, time.Local),
			Synced:    true,
		}

		assert.Nil(t, eventPersistCreate(&event, testDatabase.DS.GormDB()))

		// assert records in tables
		records := []EventRecord{}
		Expect(testDatabase.DS.GormDB().Model(&EventRecord{}).Find(&records).Error).To(BeNil())
		Expect(len(records)).To(Equal(1))
		Expect(records[0]).To(Equal(event))
	})
}
