package moderation

import (
	"launchpad/bizerror"
	"launchpad/domain/launch"
	"launchpad/event"
	"launchpad/persistence"
	"launchpad/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

type ReviewRequest struct {
	Decision Decision `json:"decision" binding:"required,oneof=approve reject"`
	Reason   string   `json:"reason" binding:"omitempty,lte=1000"`
}

type ReviewQueueQuery struct {
	Filter string `json:"filter" form:"filter" binding:"omitempty,oneof=pending approved rejected all"`
}

var (
	ReviewLaunchFunc     = ReviewLaunch
	ResubmitLaunchFunc   = ResubmitLaunch
	QueryReviewQueueFunc = QueryReviewQueue
)

// ReviewLaunch applies an admin decision to a pending launch. The update is
// guarded by a conditional write on approval_status so the first of two
// concurrent reviewers wins and the second observes a state conflict.
func ReviewLaunch(id types.ID, r *ReviewRequest, s *session.Session) (*launch.Launch, error) {
	if !s.Identity.Role.IsAdmin() {
		return nil, bizerror.ErrForbidden
	}
	if r.Decision == DecisionReject && r.Reason == "" {
		return nil, bizerror.ErrReasonRequired
	}

	var updated launch.Launch
	var ev *event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		record := launch.Launch{}
		if err := tx.Where(&launch.Launch{ID: id}).First(&record).Error; err != nil {
			return err
		}
		if record.ApprovalStatus != launch.ApprovalPending {
			return bizerror.ErrLaunchNotPending
		}

		now := types.CurrentTimestamp()
		changes := map[string]interface{}{
			"reviewed_by": s.Identity.ID,
			"reviewed_at": now,
			"update_time": now,
		}
		if r.Decision == DecisionApprove {
			changes["approval_status"] = launch.ApprovalApproved
			changes["status"] = launch.StatusOpen
			changes["rejection_reason"] = ""
		} else {
			changes["approval_status"] = launch.ApprovalRejected
			changes["status"] = launch.StatusRejected
			changes["rejection_reason"] = r.Reason
		}

		db := tx.Model(&launch.Launch{}).
			Where("id = ? AND approval_status = ?", id, launch.ApprovalPending).
			Updates(changes)
		if err := db.Error; err != nil {
			return err
		}
		if db.RowsAffected != 1 {
			return bizerror.ErrLaunchNotPending
		}

		var err error
		ev, err = event.CreateEvent(event.SourceTypeLaunch, record.ID, record.Title, event.EventCategoryPropertyUpdated,
			[]event.UpdatedProperty{{PropertyName: "ApprovalStatus",
				OldValue: string(record.ApprovalStatus), NewValue: string(changes["approval_status"].(launch.ApprovalStatus))}},
			&s.Identity, tx)
		if err != nil {
			return err
		}
		return tx.Where(&launch.Launch{ID: id}).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}

	if event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}
	return &updated, nil
}

// ResubmitLaunch puts a rejected launch back into the review queue. Only the
// owner may resubmit. Content fields and the verification artifact are
// preserved, reviewer metadata and the rejection reason are cleared.
func ResubmitLaunch(id types.ID, s *session.Session) (*launch.Launch, error) {
	var updated launch.Launch
	var ev *event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		record := launch.Launch{}
		if err := tx.Where(&launch.Launch{ID: id}).First(&record).Error; err != nil {
			return err
		}
		if record.OwnerID != s.Identity.ID {
			return bizerror.ErrForbidden
		}
		if record.ApprovalStatus != launch.ApprovalRejected {
			return bizerror.ErrLaunchNotRejected
		}

		now := types.CurrentTimestamp()
		db := tx.Model(&launch.Launch{}).
			Where("id = ? AND approval_status = ?", id, launch.ApprovalRejected).
			Updates(map[string]interface{}{
				"approval_status":  launch.ApprovalPending,
				"status":           launch.StatusPendingReview,
				"rejection_reason": "",
				"reviewed_by":      0,
				"reviewed_at":      types.Timestamp{},
				"submit_time":      now,
				"update_time":      now,
			})
		if err := db.Error; err != nil {
			return err
		}
		if db.RowsAffected != 1 {
			return bizerror.ErrLaunchNotRejected
		}

		var err error
		ev, err = event.CreateEvent(event.SourceTypeLaunch, record.ID, record.Title, event.EventCategoryPropertyUpdated,
			[]event.UpdatedProperty{{PropertyName: "ApprovalStatus",
				OldValue: string(launch.ApprovalRejected), NewValue: string(launch.ApprovalPending)}},
			&s.Identity, tx)
		if err != nil {
			return err
		}
		return tx.Where(&launch.Launch{ID: id}).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}

	if event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}
	return &updated, nil
}

// QueryReviewQueue lists launches for the admin review screen, newest
// submission first.
func QueryReviewQueue(q ReviewQueueQuery, s *session.Session) ([]launch.Launch, error) {
	if !s.Identity.Role.IsAdmin() {
		return nil, bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	query := db.Model(&launch.Launch{})
	switch q.Filter {
	case "", "all":
		// no approval filter
	default:
		query = query.Where("approval_status = ?", q.Filter)
	}

	launches := []launch.Launch{}
	if err := query.Order("submit_time DESC").Find(&launches).Error; err != nil {
		return nil, err
	}
	return launches, nil
}
