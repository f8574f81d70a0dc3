package launch_test

import (
	"errors"
	"io"
	"launchpad/assets"
	"launchpad/authority"
	"launchpad/bizerror"
	"launchpad/client/s3"
	"launchpad/domain/launch"
	"launchpad/event"
	"launchpad/misc"
	"launchpad/persistence"
	"launchpad/session"
	"launchpad/testinfra"
	"strings"
	"testing"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func setupLaunchTestDatabase(t *testing.T) *testinfra.TestDatabase {
	testDatabase := testinfra.StartMysqlTestDatabase("launchpad")
	persistence.ActiveDataSourceManager = testDatabase.DS
	Expect(testDatabase.DS.GormDB(nil).AutoMigrate(&launch.Launch{}, &event.EventRecord{}).Error).To(BeNil())
	t.Cleanup(func() { testinfra.StopMysqlTestDatabase(testDatabase) })
	return testDatabase
}

func stubObjectStorage() {
	s3.PutObjectFunc = func(key string, r io.Reader, s *session.Session, opts ...oss.Option) error {
		return nil
	}
	s3.DeleteObjectFunc = func(key string, s *session.Session) error {
		return nil
	}
}

func buildLaunchCreation() *launch.LaunchCreation {
	return &launch.LaunchCreation{
		Title:            "TaskPilot",
		Description:      strings.Repeat("A prototype that needs hardening. ", 5),
		ShortDescription: "Prototype with real users looking for production hardening.",
		TechStack:        misc.Strings{"go", "react"},
		Services:         misc.Strings{launch.ServiceDevelopment},
		DealTypes:        misc.Strings{launch.DealHourly},
		BudgetMin:        1000,
		BudgetMax:        5000,
		VerificationCode: "PV-ABCD",
	}
}

func buildScreenshots(n int) []assets.Upload {
	uploads := []assets.Upload{}
	for i := 0; i < n; i++ {
		uploads = append(uploads, assets.Upload{Filename: "shot.png", Reader: strings.NewReader("img")})
	}
	return uploads
}

func TestSubmitLaunch(t *testing.T) {
	RegisterTestingT(t)
	setupLaunchTestDatabase(t)
	stubObjectStorage()

	photo := assets.Upload{Filename: "proof.png", Reader: strings.NewReader("img")}

	t.Run("reject callers who may not post launches", func(t *testing.T) {
		s := testinfra.BuildSession(10, authority.RoleDeveloper)
		record, err := launch.SubmitLaunch(buildLaunchCreation(), buildScreenshots(3), &photo, s)
		Expect(record).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("enforce screenshot count boundaries", func(t *testing.T) {
		s := testinfra.BuildSession(10, authority.RoleVibeCoder)
		for _, n := range []int{0, 2, 7} {
			record, err := launch.SubmitLaunch(buildLaunchCreation(), buildScreenshots(n), &photo, s)
			Expect(record).To(BeNil())
			var badParam *bizerror.ErrBadParam
			Expect(errors.As(err, &badParam)).To(BeTrue())
		}
	})

	t.Run("require the verification photo", func(t *testing.T) {
		s := testinfra.BuildSession(10, authority.RoleVibeCoder)
		record, err := launch.SubmitLaunch(buildLaunchCreation(), buildScreenshots(3), nil, s)
		Expect(record).To(BeNil())
		var badParam *bizerror.ErrBadParam
		Expect(errors.As(err, &badParam)).To(BeTrue())
	})

	t.Run("require a well formed verification code", func(t *testing.T) {
		s := testinfra.BuildSession(10, authority.RoleVibeCoder)
		creation := buildLaunchCreation()
		creation.VerificationCode = "PV-AB0D"
		record, err := launch.SubmitLaunch(creation, buildScreenshots(3), &photo, s)
		Expect(record).To(BeNil())
		var badParam *bizerror.ErrBadParam
		Expect(errors.As(err, &badParam)).To(BeTrue())
	})

	t.Run("submit a launch into the review queue", func(t *testing.T) {
		s := testinfra.BuildSession(10, authority.RoleVibeCoder)
		for _, n := range []int{3, 6} {
			creation := buildLaunchCreation()
			creation.Title = creation.Title + " " + strings.Repeat("x", n)
			record, err := launch.SubmitLaunch(creation, buildScreenshots(n), &photo, s)
			Expect(err).To(BeNil())
			Expect(record.ID).ToNot(BeZero())
			Expect(record.OwnerID).To(Equal(types.ID(10)))
			Expect(record.ApprovalStatus).To(Equal(launch.ApprovalPending))
			Expect(record.Status).To(Equal(launch.StatusPendingReview))
			Expect(len(record.Screenshots)).To(Equal(n))
			Expect(record.VerificationPhotoURL).ToNot(BeEmpty())
			Expect(record.Slug).ToNot(BeEmpty())
			Expect(record.SubmitTime).To(Equal(record.CreateTime))
		}
	})

	t.Run("discard staged objects when uploads fail midway", func(t *testing.T) {
		staged := []string{}
		deleted := []string{}
		s3.PutObjectFunc = func(key string, r io.Reader, s *session.Session, opts ...oss.Option) error {
			if len(staged) == 2 {
				return errors.New("storage unavailable")
			}
			staged = append(staged, key)
			return nil
		}
		s3.DeleteObjectFunc = func(key string, s *session.Session) error {
			deleted = append(deleted, key)
			return nil
		}
		defer stubObjectStorage()

		s := testinfra.BuildSession(10, authority.RoleVibeCoder)
		record, err := launch.SubmitLaunch(buildLaunchCreation(), buildScreenshots(3), &photo, s)
		Expect(record).To(BeNil())
		var uploadFailed *bizerror.ErrUploadFailed
		Expect(errors.As(err, &uploadFailed)).To(BeTrue())
		Expect(deleted).To(Equal(staged))
	})
}

func TestBrowseLaunches(t *testing.T) {
	RegisterTestingT(t)
	testDatabase := setupLaunchTestDatabase(t)

	db := testDatabase.DS.GormDB(nil)
	now := types.CurrentTimestamp()
	rows := []launch.Launch{
		{ID: 1, OwnerID: 10, Title: "Open Go", Slug: "open-go-1", ShortDescription: "an open go launch",
			TechStack: misc.Strings{"go"}, Services: misc.Strings{launch.ServiceDevelopment},
			DealTypes: misc.Strings{launch.DealHourly}, ApprovalStatus: launch.ApprovalApproved,
			Status: launch.StatusOpen, SubmitTime: now, CreateTime: now, UpdateTime: now},
		{ID: 2, OwnerID: 10, Title: "Busy Python", Slug: "busy-python-2", ShortDescription: "a busy python launch",
			TechStack: misc.Strings{"python"}, Services: misc.Strings{launch.ServiceDeployment},
			DealTypes: misc.Strings{launch.DealEquity}, ApprovalStatus: launch.ApprovalApproved,
			Status: launch.StatusInProgress, SubmitTime: now, CreateTime: now, UpdateTime: now},
		{ID: 3, OwnerID: 10, Title: "Pending", Slug: "pending-3", ShortDescription: "not reviewed yet",
			ApprovalStatus: launch.ApprovalPending, Status: launch.StatusPendingReview,
			SubmitTime: now, CreateTime: now, UpdateTime: now},
		{ID: 4, OwnerID: 10, Title: "Cancelled", Slug: "cancelled-4", ShortDescription: "owner cancelled",
			ApprovalStatus: launch.ApprovalApproved, Status: launch.StatusCancelled,
			SubmitTime: now, CreateTime: now, UpdateTime: now},
	}
	for i := range rows {
		Expect(db.Create(&rows[i]).Error).To(BeNil())
	}

	anonymous := &session.Session{}

	t.Run("only approved and active launches are listed", func(t *testing.T) {
		records, err := launch.BrowseLaunches(launch.LaunchQuery{}, anonymous)
		Expect(err).To(BeNil())
		Expect(len(records)).To(Equal(2))
	})

	t.Run("filter by tech stack tag", func(t *testing.T) {
		records, err := launch.BrowseLaunches(launch.LaunchQuery{Tag: "go"}, anonymous)
		Expect(err).To(BeNil())
		Expect(len(records)).To(Equal(1))
		Expect(records[0].ID).To(Equal(types.ID(1)))
	})

	t.Run("filter by service and deal type", func(t *testing.T) {
		records, err := launch.BrowseLaunches(launch.LaunchQuery{Service: launch.ServiceDeployment}, anonymous)
		Expect(err).To(BeNil())
		Expect(len(records)).To(Equal(1))
		Expect(records[0].ID).To(Equal(types.ID(2)))

		records, err = launch.BrowseLaunches(launch.LaunchQuery{DealType: launch.DealHourly}, anonymous)
		Expect(err).To(BeNil())
		Expect(len(records)).To(Equal(1))
		Expect(records[0].ID).To(Equal(types.ID(1)))
	})

	t.Run("free text matches title and short description", func(t *testing.T) {
		records, err := launch.BrowseLaunches(launch.LaunchQuery{Text: "python"}, anonymous)
		Expect(err).To(BeNil())
		Expect(len(records)).To(Equal(1))
		Expect(records[0].ID).To(Equal(types.ID(2)))
	})

	t.Run("unmatched filters return an empty page", func(t *testing.T) {
		records, err := launch.BrowseLaunches(launch.LaunchQuery{Tag: "rust"}, anonymous)
		Expect(err).To(BeNil())
		Expect(records).To(BeEmpty())
	})
}

func TestDetailLaunch(t *testing.T) {
	RegisterTestingT(t)
	testDatabase := setupLaunchTestDatabase(t)

	db := testDatabase.DS.GormDB(nil)
	now := types.CurrentTimestamp()
	Expect(db.Create(&launch.Launch{ID: 1, OwnerID: 10, Title: "Approved", Slug: "approved-1",
		ApprovalStatus: launch.ApprovalApproved, Status: launch.StatusOpen,
		SubmitTime: now, CreateTime: now, UpdateTime: now}).Error).To(BeNil())
	Expect(db.Create(&launch.Launch{ID: 2, OwnerID: 10, Title: "Pending", Slug: "pending-2",
		ApprovalStatus: launch.ApprovalPending, Status: launch.StatusPendingReview,
		SubmitTime: now, CreateTime: now, UpdateTime: now}).Error).To(BeNil())

	t.Run("approved launches are public", func(t *testing.T) {
		record, err := launch.DetailLaunch(1, &session.Session{})
		Expect(err).To(BeNil())
		Expect(record.ID).To(Equal(types.ID(1)))
	})

	t.Run("unapproved launches are hidden from strangers", func(t *testing.T) {
		record, err := launch.DetailLaunch(2, testinfra.BuildSession(20, authority.RoleDeveloper))
		Expect(record).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("unapproved launches stay visible to the owner and admins", func(t *testing.T) {
		record, err := launch.DetailLaunch(2, testinfra.BuildSession(10, authority.RoleVibeCoder))
		Expect(err).To(BeNil())
		Expect(record.ID).To(Equal(types.ID(2)))

		record, err = launch.DetailLaunch(2, testinfra.BuildSession(99, authority.RoleAdmin))
		Expect(err).To(BeNil())
		Expect(record.ID).To(Equal(types.ID(2)))
	})

	t.Run("views are counted in the background", func(t *testing.T) {
		_, err := launch.DetailLaunch(1, &session.Session{})
		Expect(err).To(BeNil())

		Eventually(func() uint64 {
			record := launch.Launch{}
			if err := db.Where(&launch.Launch{ID: 1}).First(&record).Error; err != nil {
				return 0
			}
			return record.ViewCount
		}, time.Second, 10*time.Millisecond).Should(BeNumerically(">=", 1))
	})
}

func TestCancelLaunch(t *testing.T) {
	RegisterTestingT(t)
	testDatabase := setupLaunchTestDatabase(t)

	db := testDatabase.DS.GormDB(nil)
	now := types.CurrentTimestamp()
	Expect(db.Create(&launch.Launch{ID: 1, OwnerID: 10, Title: "Open", Slug: "open-1",
		ApprovalStatus: launch.ApprovalApproved, Status: launch.StatusOpen,
		SubmitTime: now, CreateTime: now, UpdateTime: now}).Error).To(BeNil())
	Expect(db.Create(&launch.Launch{ID: 2, OwnerID: 10, Title: "Done", Slug: "done-2",
		ApprovalStatus: launch.ApprovalApproved, Status: launch.StatusCompleted,
		SubmitTime: now, CreateTime: now, UpdateTime: now}).Error).To(BeNil())

	t.Run("only the owner may cancel", func(t *testing.T) {
		record, err := launch.CancelLaunch(1, testinfra.BuildSession(20, authority.RoleVibeCoder))
		Expect(record).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("only active launches can be cancelled", func(t *testing.T) {
		record, err := launch.CancelLaunch(2, testinfra.BuildSession(10, authority.RoleVibeCoder))
		Expect(record).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrLaunchNotOpen))
	})

	t.Run("cancel an open launch", func(t *testing.T) {
		record, err := launch.CancelLaunch(1, testinfra.BuildSession(10, authority.RoleVibeCoder))
		Expect(err).To(BeNil())
		Expect(record.Status).To(Equal(launch.StatusCancelled))

		// second cancel sees the state conflict
		record, err = launch.CancelLaunch(1, testinfra.BuildSession(10, authority.RoleVibeCoder))
		Expect(record).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrLaunchNotOpen))
	})
}
