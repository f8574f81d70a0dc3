package indices

import (
	"context"
	"launchpad/bizerror"
	"launchpad/domain/launch"
	"launchpad/persistence"
	"launchpad/session"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	lock    sync.Mutex
	running bool

	IndicesFullSyncFunc    = IndicesFullSync
	ScheduleNewSyncRunFunc = ScheduleNewSyncRun
)

const syncBatchSize = 500

// ScheduleNewSyncRun starts a full re-index in the background when no run is
// currently active. Admin only.
func ScheduleNewSyncRun(s *session.Session) (bool, error) {
	if !s.Identity.Role.IsAdmin() {
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

// IndicesFullSync walks every launch row in id order and re-indexes it.
func IndicesFullSync() {
	ctx := context.Background()
	var lastId uint64
	for {
		launches := []launch.Launch{}
		db := persistence.ActiveDataSourceManager.GormDB(ctx)
		if err := db.Where("id > ?", lastId).Order("id ASC").Limit(syncBatchSize).Find(&launches).Error; err != nil {
			logrus.Warnf("indices full sync aborted: %v", err)
			return
		}
		if len(launches) == 0 {
			return
		}

		if err := IndexLaunchesFunc(ctx, launches); err != nil {
			logrus.Warnf("indices full sync batch failed: %v", err)
		}
		lastId = uint64(launches[len(launches)-1].ID)
	}
}
