package proposal

import (
	"launchpad/bizerror"
	"launchpad/domain/launch"
	"launchpad/event"
	"launchpad/flags"
	"launchpad/idgen"
	"launchpad/persistence"
	"launchpad/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	proposalIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	SubmitProposalFunc   = SubmitProposal
	QueryProposalsFunc   = QueryProposals
	ListOwnProposalsFunc = ListOwnProposals
	DecideProposalFunc   = DecideProposal
	WithdrawProposalFunc = WithdrawProposal
	CompleteProposalFunc = CompleteProposal
)

// SubmitProposal files a developer's offer against an open launch. A developer
// may hold at most one proposal per launch, enforced by a unique index.
func SubmitProposal(c *ProposalCreation, s *session.Session) (*Proposal, error) {
	if !s.Identity.Role.CanSubmitProposals() {
		return nil, bizerror.ErrForbidden
	}
	if !flags.IsEnabledFunc(s.Context, flags.FlagProposals) {
		return nil, bizerror.ErrFeatureDisabled
	}

	record := Proposal{}
	var ev *event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		target := launch.Launch{}
		if err := tx.Where(&launch.Launch{ID: c.LaunchID}).First(&target).Error; err != nil {
			return err
		}
		if target.ApprovalStatus != launch.ApprovalApproved || target.Status != launch.StatusOpen {
			return bizerror.ErrLaunchNotOpen
		}
		if target.OwnerID == s.Identity.ID {
			return bizerror.ErrForbidden
		}

		now := types.CurrentTimestamp()
		record = Proposal{
			ID:          idgen.NextID(proposalIdWorker),
			LaunchID:    target.ID,
			DeveloperID: s.Identity.ID,
			Status:      StatusPending,

			CoverNote: c.CoverNote,

			PriceFixed:     c.PriceFixed,
			HourlyRate:     c.HourlyRate,
			EstimatedHours: c.EstimatedHours,
			EquityPercent:  c.EquityPercent,
			Milestones:     c.Milestones,

			CreateTime: now,
			UpdateTime: now,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		if err := tx.Model(&launch.Launch{}).Where(&launch.Launch{ID: target.ID}).
			UpdateColumn("proposal_count", gorm.Expr("proposal_count + 1")).Error; err != nil {
			return err
		}

		var err error
		ev, err = event.CreateEvent(event.SourceTypeProposal, record.ID, target.Title, event.EventCategoryCreated,
			nil, &s.Identity, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	if event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}
	return &record, nil
}

// QueryProposals lists the proposals filed against one launch, visible to the
// launch owner and admins only.
func QueryProposals(q ProposalQuery, s *session.Session) ([]Proposal, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)

	target := launch.Launch{}
	if err := db.Where(&launch.Launch{ID: q.LaunchID}).First(&target).Error; err != nil {
		return nil, err
	}
	if target.OwnerID != s.Identity.ID && !s.Identity.Role.IsAdmin() {
		return nil, bizerror.ErrForbidden
	}

	records := []Proposal{}
	if err := db.Where(&Proposal{LaunchID: q.LaunchID}).
		Order("create_time DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func ListOwnProposals(s *session.Session) ([]Proposal, error) {
	if s.Token == "" {
		return nil, bizerror.ErrUnauthenticated
	}
	records := []Proposal{}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Where(&Proposal{DeveloperID: s.Identity.ID}).
		Order("create_time DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// DecideProposal is the launch owner accepting or rejecting a pending
// proposal. Accepting also moves the launch from open to in_progress, so a
// concurrent accept on another proposal of the same launch loses.
func DecideProposal(id types.ID, req *DecideRequest, s *session.Session) (*Proposal, error) {
	var updated Proposal
	var ev *event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		record := Proposal{}
		if err := tx.Where(&Proposal{ID: id}).First(&record).Error; err != nil {
			return err
		}
		target := launch.Launch{}
		if err := tx.Where(&launch.Launch{ID: record.LaunchID}).First(&target).Error; err != nil {
			return err
		}
		if target.OwnerID != s.Identity.ID {
			return bizerror.ErrForbidden
		}
		if record.Status != StatusPending {
			return bizerror.ErrProposalStateInvalid
		}

		next := StatusRejected
		if req.Decision == DecisionAccept {
			next = StatusAccepted
		}

		now := types.CurrentTimestamp()
		db := tx.Model(&Proposal{}).Where("id = ? AND status = ?", id, StatusPending).
			Updates(map[string]interface{}{"status": next, "update_time": now})
		if err := db.Error; err != nil {
			return err
		}
		if db.RowsAffected != 1 {
			return bizerror.ErrProposalStateInvalid
		}

		if next == StatusAccepted {
			db := tx.Model(&launch.Launch{}).Where("id = ? AND status = ?", target.ID, launch.StatusOpen).
				Updates(map[string]interface{}{"status": launch.StatusInProgress, "update_time": now})
			if err := db.Error; err != nil {
				return err
			}
			if db.RowsAffected != 1 {
				return bizerror.ErrLaunchNotOpen
			}
		}

		var err error
		ev, err = event.CreateEvent(event.SourceTypeProposal, record.ID, target.Title, event.EventCategoryPropertyUpdated,
			[]event.UpdatedProperty{{PropertyName: "Status", OldValue: string(record.Status), NewValue: string(next)}},
			&s.Identity, tx)
		if err != nil {
			return err
		}
		return tx.Where(&Proposal{ID: id}).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}

	if event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}
	return &updated, nil
}

// WithdrawProposal lets the proposing developer pull back a pending proposal.
func WithdrawProposal(id types.ID, s *session.Session) (*Proposal, error) {
	var updated Proposal
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		record := Proposal{}
		if err := tx.Where(&Proposal{ID: id}).First(&record).Error; err != nil {
			return err
		}
		if record.DeveloperID != s.Identity.ID {
			return bizerror.ErrForbidden
		}
		if record.Status != StatusPending {
			return bizerror.ErrProposalStateInvalid
		}

		db := tx.Model(&Proposal{}).Where("id = ? AND status = ?", id, StatusPending).
			Updates(map[string]interface{}{"status": StatusWithdrawn, "update_time": types.CurrentTimestamp()})
		if err := db.Error; err != nil {
			return err
		}
		if db.RowsAffected != 1 {
			return bizerror.ErrProposalStateInvalid
		}
		return tx.Where(&Proposal{ID: id}).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// CompleteProposal closes out an accepted proposal. The launch owner confirms
// the work is done, which also completes the launch itself.
func CompleteProposal(id types.ID, s *session.Session) (*Proposal, error) {
	var updated Proposal
	var ev *event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		record := Proposal{}
		if err := tx.Where(&Proposal{ID: id}).First(&record).Error; err != nil {
			return err
		}
		target := launch.Launch{}
		if err := tx.Where(&launch.Launch{ID: record.LaunchID}).First(&target).Error; err != nil {
			return err
		}
		if target.OwnerID != s.Identity.ID {
			return bizerror.ErrForbidden
		}
		if record.Status != StatusAccepted {
			return bizerror.ErrProposalStateInvalid
		}

		now := types.CurrentTimestamp()
		db := tx.Model(&Proposal{}).Where("id = ? AND status = ?", id, StatusAccepted).
			Updates(map[string]interface{}{"status": StatusCompleted, "update_time": now})
		if err := db.Error; err != nil {
			return err
		}
		if db.RowsAffected != 1 {
			return bizerror.ErrProposalStateInvalid
		}

		if err := tx.Model(&launch.Launch{}).Where("id = ? AND status = ?", target.ID, launch.StatusInProgress).
			Updates(map[string]interface{}{"status": launch.StatusCompleted, "update_time": now}).Error; err != nil {
			return err
		}

		var err error
		ev, err = event.CreateEvent(event.SourceTypeProposal, record.ID, target.Title, event.EventCategoryPropertyUpdated,
			[]event.UpdatedProperty{{PropertyName: "Status", OldValue: string(StatusAccepted), NewValue: string(StatusCompleted)}},
			&s.Identity, tx)
		if err != nil {
			return err
		}
		return tx.Where(&Proposal{ID: id}).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}

	if event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}
	return &updated, nil
}
