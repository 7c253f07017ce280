package indices

import (
	cron "github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func StartCron() {
	crontab := cron.New(cron.WithSeconds())
	crontab.AddFunc("0 0 23 * * ?", func() {
		if err := IndicesFullSyncFunc(); err != nil {
			logrus.Errorf("scheduled indices full sync: %v", err)
		}
	})
	crontab.Start()
}
