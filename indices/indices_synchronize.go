package indices

import (
	"fmt"
	"sync"

	"appbase/bizerror"
	"appbase/domain/records"
	"appbase/session"

	"github.com/sirupsen/logrus"
)

var (
	lock    sync.Mutex
	running bool

	IndicesFullSyncFunc    = IndicesFullSync
	ScheduleNewSyncRunFunc = ScheduleNewSyncRun
)

func ScheduleNewSyncRun(sec *session.Context) (bool, error) {
	if sec == nil || !sec.Superuser {
		return false, bizerror.ErrForbidden
	}

	lock.Lock()
	if running {
		lock.Unlock()
		return false, nil
	}
	running = true
	lock.Unlock()

	waitRunning := sync.WaitGroup{}
	waitRunning.Add(1)
	go func() {
		waitRunning.Done()
		defer func() {
			lock.Lock()
			running = false
			lock.Unlock()
		}()
		IndicesFullSyncFunc()
	}()
	waitRunning.Wait()
	return true, nil
}

var (
	SyncBatchSize = 500
)

func IndicesFullSync() (err error) {
	defer func() {
		if ret := recover(); ret != nil {
			e, ok := ret.(error)
			if ok {
				err = e
			} else {
				err = fmt.Errorf("error on indices full sync: %v", ret)
			}
		}
	}()

	page := 1
	for {
		rs, err := records.LoadRecordsFunc(page, SyncBatchSize)
		if err != nil {
			logrus.Warnf("indices fully sync: error on retrive records(page = %d, pageSize = %d): %v", page, SyncBatchSize, err)
			page++
			continue
		}

		if len(rs) == 0 {
			logrus.Infof("indices fully sync: there are no more record to index")
			return nil // loop exit
		}

		if err := IndexRecords(rs); err != nil {
			logrus.Warnf("indices fully sync: error on index records(page = %d, pageSize = %d): %v", page, SyncBatchSize, err)
		}
		page++
	}
}
