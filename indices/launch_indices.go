package indices

import (
	"context"
	"fmt"
	"launchpad/domain/launch"
	"launchpad/es"
	"launchpad/event"
	"launchpad/persistence"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

var (
	LaunchIndexName = "launches"

	IndexLaunchesFunc = IndexLaunches
)

type LaunchDocument struct {
	launch.Launch
}

type BatchActionError map[types.ID]error

func (e BatchActionError) Error() string {
	return fmt.Sprintf("%v", map[types.ID]error(e))
}

func IndexLaunches(ctx context.Context, launches []launch.Launch) error {
	docs := make([]LaunchDocument, 0, len(launches))
	for _, l := range launches {
		docs = append(docs, LaunchDocument{Launch: l})
	}
	if err := saveLaunchDocuments(ctx, docs); err != nil {
		return err
	}
	return nil
}

func saveLaunchDocuments(ctx context.Context, docs []LaunchDocument) BatchActionError {
	errs := BatchActionError{}

	for _, doc := range docs {
		if err := es.IndexFunc(ctx, LaunchIndexName, doc.ID, doc); err != nil {
			errs[doc.ID] = err
			logrus.Warnf("index launch %d %s %s\n", doc.ID, doc.Slug, err)
		} else {
			logrus.Infof("index launch %d %s successfully\n", doc.ID, doc.Slug)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// BootstrapLaunchIndexEventHandler hooks launch changes into the index.
func BootstrapLaunchIndexEventHandler() {
	event.EventHandlers = append(event.EventHandlers, LaunchIndexEventHandler)
}

var LaunchIndexEventHandlerName = "launchIndexer"

func LaunchIndexEventHandler(e *event.EventRecord) *event.EventHandleResult {
	if e == nil || e.SourceType != event.SourceTypeLaunch {
		return nil
	}

	ctx := context.Background()
	if e.EventCategory == event.EventCategoryDeleted {
		if err := es.DeleteFunc(ctx, LaunchIndexName, e.SourceId); err != nil {
			return &event.EventHandleResult{Success: false, Message: err.Error(), HandlerIdentifier: LaunchIndexEventHandlerName}
		}
		return &event.EventHandleResult{Success: true, HandlerIdentifier: LaunchIndexEventHandlerName}
	}

	record := launch.Launch{}
	db := persistence.ActiveDataSourceManager.GormDB(ctx)
	if err := db.Where(&launch.Launch{ID: e.SourceId}).First(&record).Error; err != nil {
		return &event.EventHandleResult{Success: false, Message: err.Error(), HandlerIdentifier: LaunchIndexEventHandlerName}
	}

	if err := IndexLaunchesFunc(ctx, []launch.Launch{record}); err != nil {
		return &event.EventHandleResult{Success: false, Message: err.Error(), HandlerIdentifier: LaunchIndexEventHandlerName}
	}
	return &event.EventHandleResult{Success: true, HandlerIdentifier: LaunchIndexEventHandlerName}
}
