package launch

import (
	"context"
	"errors"
	"launchpad/assets"
	"launchpad/bizerror"
	"launchpad/event"
	"launchpad/idgen"
	"launchpad/misc"
	"launchpad/persistence"
	"launchpad/session"
	"regexp"
	"strings"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
	"github.com/sony/sonyflake"
)

var (
	launchIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	SubmitLaunchFunc    = SubmitLaunch
	BrowseLaunchesFunc  = BrowseLaunches
	DetailLaunchFunc    = DetailLaunch
	ListOwnLaunchesFunc = ListOwnLaunches
	CancelLaunchFunc    = CancelLaunch
)

const DefaultPageSize = 20

// SubmitLaunch persists a new launch for review. The operation is two-phase:
// every image is staged to object storage first, the row insert happens only
// after all uploads succeeded, and staged objects are discarded when any
// later step fails.
func SubmitLaunch(c *LaunchCreation, screenshots []assets.Upload, photo *assets.Upload, s *session.Session) (*Launch, error) {
	if !s.Identity.Role.CanPostLaunches() {
		return nil, bizerror.ErrForbidden
	}
	if len(screenshots) < MinScreenshots || len(screenshots) > MaxScreenshots {
		return nil, &bizerror.ErrBadParam{Cause: errScreenshotCount}
	}
	if photo == nil {
		return nil, &bizerror.ErrBadParam{Cause: errVerificationPhotoMissing}
	}
	if !IsValidVerificationCode(c.VerificationCode) {
		return nil, &bizerror.ErrBadParam{Cause: errVerificationCodeFormat}
	}

	id := idgen.NextID(launchIdWorker)
	prefix := "launches/" + id.String()

	batch := assets.NewBatch(s)
	screenshotURLs := misc.Strings{}
	for _, shot := range screenshots {
		url, err := batch.Stage(prefix+"/screenshots", shot)
		if err != nil {
			batch.Discard()
			return nil, &bizerror.ErrUploadFailed{Cause: err}
		}
		screenshotURLs = append(screenshotURLs, url)
	}
	photoURL, err := batch.Stage(prefix+"/verification", *photo)
	if err != nil {
		batch.Discard()
		return nil, &bizerror.ErrUploadFailed{Cause: err}
	}

	now := types.CurrentTimestamp()
	record := Launch{
		ID:      id,
		OwnerID: s.Identity.ID,

		Title:            c.Title,
		Slug:             buildSlug(c.Title, id),
		Description:      c.Description,
		ShortDescription: c.ShortDescription,

		Screenshots: screenshotURLs,
		TechStack:   c.TechStack,
		Services:    c.Services,
		DealTypes:   c.DealTypes,

		BudgetMin:     c.BudgetMin,
		BudgetMax:     c.BudgetMax,
		EquityPercent: c.EquityPercent,
		TimelineDays:  c.TimelineDays,
		RepoURL:       c.RepoURL,
		DemoURL:       c.DemoURL,

		Status:         StatusPendingReview,
		ApprovalStatus: ApprovalPending,

		VerificationCode:     c.VerificationCode,
		VerificationPhotoURL: photoURL,

		SubmitTime: now,
		CreateTime: now,
		UpdateTime: now,
	}

	var ev *event.EventRecord
	err = persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		ev, err = event.CreateEvent(event.SourceTypeLaunch, record.ID, record.Title, event.EventCategoryCreated,
			nil, &s.Identity, tx)
		return err
	})
	if err != nil {
		batch.Discard()
		return nil, err
	}

	if event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}

	return &record, nil
}

// BrowseLaunches is the marketplace listing: approved launches in an
// operationally active status, newest submission first.
func BrowseLaunches(q LaunchQuery, s *session.Session) ([]Launch, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)

	query := db.Where("approval_status = ?", ApprovalApproved).
		Where("status in (?)", []Status{StatusOpen, StatusInProgress})
	if q.Tag != "" {
		query = query.Where("tech_stack LIKE ?", jsonMemberPattern(q.Tag))
	}
	if q.Service != "" {
		query = query.Where("services LIKE ?", jsonMemberPattern(q.Service))
	}
	if q.DealType != "" {
		query = query.Where("deal_types LIKE ?", jsonMemberPattern(q.DealType))
	}
	if q.Text != "" {
		pattern := "%" + q.Text + "%"
		query = query.Where("title LIKE ? OR short_description LIKE ?", pattern, pattern)
	}

	size := q.Size
	if size <= 0 || size > 100 {
		size = DefaultPageSize
	}
	offset := (q.Page - 1) * size
	if offset < 0 {
		offset = 0
	}

	launches := []Launch{}
	if err := query.Order("submit_time DESC").Offset(offset).Limit(size).Find(&launches).Error; err != nil {
		return nil, err
	}
	return launches, nil
}

// DetailLaunch returns one launch. Approved launches are public; others are
// visible to the owner and admins only. The view counter increment is
// best-effort and never blocks the response.
func DetailLaunch(id types.ID, s *session.Session) (*Launch, error) {
	record := Launch{}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Where(&Launch{ID: id}).First(&record).Error; err != nil {
		return nil, err
	}

	if record.ApprovalStatus != ApprovalApproved &&
		record.OwnerID != s.Identity.ID && !s.Identity.Role.IsAdmin() {
		return nil, bizerror.ErrForbidden
	}

	go bumpViewCount(id)

	return &record, nil
}

func bumpViewCount(id types.ID) {
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	if err := db.Model(&Launch{}).Where(&Launch{ID: id}).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error; err != nil {
		logrus.Warnf("bump view count of launch %d failed: %v", id, err)
	}
}

func ListOwnLaunches(s *session.Session) ([]Launch, error) {
	if s.Token == "" {
		return nil, bizerror.ErrUnauthenticated
	}
	launches := []Launch{}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Where(&Launch{OwnerID: s.Identity.ID}).
		Order("create_time DESC").Find(&launches).Error; err != nil {
		return nil, err
	}
	return launches, nil
}

// CancelLaunch moves an approved launch out of the marketplace. Only the
// owner may cancel, and only from an active status.
func CancelLaunch(id types.ID, s *session.Session) (*Launch, error) {
	var updated Launch
	var ev *event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		record := Launch{}
		if err := tx.Where(&Launch{ID: id}).First(&record).Error; err != nil {
			return err
		}
		if record.OwnerID != s.Identity.ID {
			return bizerror.ErrForbidden
		}
		if record.Status != StatusOpen && record.Status != StatusInProgress {
			return bizerror.ErrLaunchNotOpen
		}

		now := types.CurrentTimestamp()
		db := tx.Model(&Launch{}).Where("id = ? AND status in (?)", id, []Status{StatusOpen, StatusInProgress}).
			Updates(map[string]interface{}{"status": StatusCancelled, "update_time": now})
		if err := db.Error; err != nil {
			return err
		}
		if db.RowsAffected != 1 {
			return bizerror.ErrLaunchNotOpen
		}

		var err error
		ev, err = event.CreateEvent(event.SourceTypeLaunch, record.ID, record.Title, event.EventCategoryPropertyUpdated,
			[]event.UpdatedProperty{{PropertyName: "Status", OldValue: string(record.Status), NewValue: string(StatusCancelled)}},
			&s.Identity, tx)
		if err != nil {
			return err
		}
		return tx.Where(&Launch{ID: id}).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}

	if event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}
	return &updated, nil
}

var (
	slugStripPattern = regexp.MustCompile(`[^a-z0-9]+`)

	errScreenshotCount          = errors.New("screenshot count must be between 3 and 6")
	errVerificationPhotoMissing = errors.New("verification photo is required")
	errVerificationCodeFormat   = errors.New("verification code format is invalid")
)

func buildSlug(title string, id types.ID) string {
	slug := strings.Trim(slugStripPattern.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if len(slug) > 48 {
		slug = strings.Trim(slug[0:48], "-")
	}
	idStr := id.String()
	if len(idStr) > 6 {
		idStr = idStr[len(idStr)-6:]
	}
	return slug + "-" + idStr
}

// jsonMemberPattern matches a full member inside a JSON string array column.
func jsonMemberPattern(member string) string {
	return `%"` + member + `"%`
}
