package main

import (
	"log"

	"launchpad/account"
	"launchpad/authority"
	_ "launchpad/common"
	"launchpad/domain/launch"
	"launchpad/domain/message"
	"launchpad/domain/proposal"
	"launchpad/event"
	"launchpad/flags"
	"launchpad/idgen"
	"launchpad/misc"
	"launchpad/persistence"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

// seed fills an empty database with a demo marketplace: accounts of every
// role, launches in every moderation state, proposals and a conversation.
// Running it twice is safe, existing rows are left alone.
func main() {
	log.Println("seeding demo data")

	dbConfig, err := persistence.ParseDatabaseConfigFromEnv()
	if err != nil {
		log.Fatalf("parse database config failed %v\n", err)
	}
	if dbConfig.DriverType == "mysql" {
		if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
			log.Fatalf("failed to prepare database %v\n", err)
		}
	}
	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		log.Fatalf("database connection failed %v\n", err)
	}
	defer ds.Stop()
	persistence.ActiveDataSourceManager = ds

	db := ds.GormDB(nil)
	err = db.AutoMigrate(
		&account.User{}, &account.DeveloperProfile{},
		&launch.Launch{}, &proposal.Proposal{},
		&message.Conversation{}, &message.Message{},
		&flags.FeatureFlag{}, &event.EventRecord{},
	).Error
	if err != nil {
		log.Fatalf("database migration failed %v\n", err)
	}

	s := seeder{db: db, idWorker: sonyflake.NewSonyflake(sonyflake.Settings{})}

	admin := s.user("admin", "admin123", "Admin", authority.RoleAdmin)
	ada := s.user("ada", "secret123", "Ada", authority.RoleVibeCoder)
	bella := s.user("bella", "secret123", "Bella", authority.RoleVibeCoder)
	carl := s.user("carl", "secret123", "Carl", authority.RoleDeveloper)
	dana := s.user("dana", "secret123", "Dana", authority.RoleDeveloper)
	s.user("evan", "secret123", "Evan", authority.RoleBoth)

	s.developerProfile(carl, misc.Strings{"go", "react", "postgres"}, 85, "part_time")
	s.developerProfile(dana, misc.Strings{"python", "terraform", "aws"}, 110, "full_time")

	taskpilot := s.launch(ada, "TaskPilot", launch.ApprovalApproved, launch.StatusOpen, admin, "")
	shipmate := s.launch(ada, "ShipMate", launch.ApprovalApproved, launch.StatusInProgress, admin, "")
	s.launch(bella, "PromptDesk", launch.ApprovalPending, launch.StatusPendingReview, 0, "")
	s.launch(bella, "CloneHub", launch.ApprovalRejected, launch.StatusRejected, admin,
		"verification photo does not show the required code")

	s.proposal(taskpilot, carl, proposal.StatusPending)
	s.proposal(shipmate, dana, proposal.StatusAccepted)

	conversation := s.conversation(taskpilot, ada, carl)
	s.message(conversation, carl, "Hi, I looked through the repo and I can take the stabilization work.")
	s.message(conversation, ada, "Great, what does your availability look like next week?")

	s.flag(flags.FlagProposals, true)
	s.flag(flags.FlagMessaging, true)
	s.flag(flags.FlagPayments, false)
	s.flag(flags.FlagEscrow, false)

	log.Println("seeding finished")
}

type seeder struct {
	db       *gorm.DB
	idWorker *sonyflake.Sonyflake
}

func (s *seeder) user(name, secret, nickname string, role authority.Role) types.ID {
	existed := account.User{}
	err := s.db.Where(&account.User{Name: name}).First(&existed).Error
	if err == nil {
		return existed.ID
	}
	if err != gorm.ErrRecordNotFound {
		log.Fatalf("seed user %s failed %v\n", name, err)
	}

	record := account.User{
		ID:         idgen.NextID(s.idWorker),
		Name:       name,
		Secret:     account.HashSha256(secret),
		Nickname:   nickname,
		Role:       role,
		CreateTime: types.CurrentTimestamp(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		log.Fatalf("seed user %s failed %v\n", name, err)
	}
	return record.ID
}

func (s *seeder) developerProfile(userId types.ID, skills misc.Strings, hourlyRate uint32, availability string) {
	existed := account.DeveloperProfile{}
	err := s.db.Where(&account.DeveloperProfile{UserID: userId}).First(&existed).Error
	if err == nil {
		return
	}
	if err != gorm.ErrRecordNotFound {
		log.Fatalf("seed developer profile failed %v\n", err)
	}

	now := types.CurrentTimestamp()
	record := account.DeveloperProfile{
		ID:     idgen.NextID(s.idWorker),
		UserID: userId,

		Skills:       skills,
		HourlyRate:   hourlyRate,
		Availability: availability,

		CreateTime: now,
		UpdateTime: now,
	}
	if err := s.db.Create(&record).Error; err != nil {
		log.Fatalf("seed developer profile failed %v\n", err)
	}
}

func (s *seeder) launch(ownerId types.ID, title string, approval launch.ApprovalStatus,
	status launch.Status, reviewedBy types.ID, rejectionReason string) types.ID {

	existed := launch.Launch{}
	err := s.db.Where(&launch.Launch{OwnerID: ownerId, Title: title}).First(&existed).Error
	if err == nil {
		return existed.ID
	}
	if err != gorm.ErrRecordNotFound {
		log.Fatalf("seed launch %s failed %v\n", title, err)
	}

	id := idgen.NextID(s.idWorker)
	now := types.CurrentTimestamp()
	record := launch.Launch{
		ID:      id,
		OwnerID: ownerId,

		Title: title,
		Slug:  seedSlug(title, id),
		Description: "A vibe-coded prototype that found its first users and now needs a professional " +
			"pass: hardening, tests, deployment automation and a code review before it can grow further.",
		ShortDescription: "Prototype with real users looking for production hardening.",

		Screenshots: misc.Strings{
			"https://launchpad.oss.example.com/seed/" + seedSlug(title, id) + "/shot-1.png",
			"https://launchpad.oss.example.com/seed/" + seedSlug(title, id) + "/shot-2.png",
			"https://launchpad.oss.example.com/seed/" + seedSlug(title, id) + "/shot-3.png",
		},
		TechStack: misc.Strings{"go", "react", "mysql"},
		Services:  misc.Strings{launch.ServiceDevelopment, launch.ServiceDeployment},
		DealTypes: misc.Strings{launch.DealFixedPrice, launch.DealHourly},

		BudgetMin:    2000,
		BudgetMax:    8000,
		TimelineDays: 30,

		Status:         status,
		ApprovalStatus: approval,

		RejectionReason: rejectionReason,
		ReviewedBy:      reviewedBy,

		VerificationCode: launch.GenerateVerificationCode(),
		VerificationPhotoURL: "https://launchpad.oss.example.com/seed/" +
			seedSlug(title, id) + "/verification.png",

		SubmitTime: now,
		CreateTime: now,
		UpdateTime: now,
	}
	if approval != launch.ApprovalPending {
		record.ReviewedAt = now
	}
	if err := s.db.Create(&record).Error; err != nil {
		log.Fatalf("seed launch %s failed %v\n", title, err)
	}
	return record.ID
}

func (s *seeder) proposal(launchId, developerId types.ID, status proposal.Status) {
	existed := proposal.Proposal{}
	err := s.db.Where(&proposal.Proposal{LaunchID: launchId, DeveloperID: developerId}).First(&existed).Error
	if err == nil {
		return
	}
	if err != gorm.ErrRecordNotFound {
		log.Fatalf("seed proposal failed %v\n", err)
	}

	now := types.CurrentTimestamp()
	record := proposal.Proposal{
		ID:          idgen.NextID(s.idWorker),
		LaunchID:    launchId,
		DeveloperID: developerId,
		Status:      status,

		CoverNote: "I have shipped several projects with this stack and can start within a week.",

		PriceFixed: 4500,
		Milestones: proposal.Milestones{
			{Title: "Stabilize", Description: "Tests and bug fixes", Amount: 2000, DueInDays: 10},
			{Title: "Deploy", Description: "CI/CD and production rollout", Amount: 2500, DueInDays: 20},
		},

		CreateTime: now,
		UpdateTime: now,
	}
	if err := s.db.Create(&record).Error; err != nil {
		log.Fatalf("seed proposal failed %v\n", err)
	}
	if err := s.db.Model(&launch.Launch{}).Where(&launch.Launch{ID: launchId}).
		UpdateColumn("proposal_count", gorm.Expr("proposal_count + 1")).Error; err != nil {
		log.Fatalf("seed proposal count failed %v\n", err)
	}
}

func (s *seeder) conversation(launchId, ownerId, developerId types.ID) types.ID {
	existed := message.Conversation{}
	err := s.db.Where(&message.Conversation{LaunchID: launchId, DeveloperID: developerId}).First(&existed).Error
	if err == nil {
		return existed.ID
	}
	if err != gorm.ErrRecordNotFound {
		log.Fatalf("seed conversation failed %v\n", err)
	}

	now := types.CurrentTimestamp()
	record := message.Conversation{
		ID:          idgen.NextID(s.idWorker),
		LaunchID:    launchId,
		OwnerID:     ownerId,
		DeveloperID: developerId,

		LastMessageAt: now,
		CreateTime:    now,
	}
	if err := s.db.Create(&record).Error; err != nil {
		log.Fatalf("seed conversation failed %v\n", err)
	}
	return record.ID
}

func (s *seeder) message(conversationId, senderId types.ID, body string) {
	existed := message.Message{}
	err := s.db.Where(&message.Message{ConversationID: conversationId, SenderID: senderId}).First(&existed).Error
	if err == nil {
		return
	}
	if err != gorm.ErrRecordNotFound {
		log.Fatalf("seed message failed %v\n", err)
	}

	record := message.Message{
		ID:             idgen.NextID(s.idWorker),
		ConversationID: conversationId,
		SenderID:       senderId,
		Body:           body,
		CreateTime:     types.CurrentTimestamp(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		log.Fatalf("seed message failed %v\n", err)
	}
}

func (s *seeder) flag(name string, enabled bool) {
	existed := flags.FeatureFlag{}
	err := s.db.Where(&flags.FeatureFlag{Name: name}).First(&existed).Error
	if err == nil {
		return
	}
	if err != gorm.ErrRecordNotFound {
		log.Fatalf("seed flag %s failed %v\n", name, err)
	}

	record := flags.FeatureFlag{
		ID:         idgen.NextID(s.idWorker),
		Name:       name,
		Enabled:    enabled,
		UpdateTime: types.CurrentTimestamp(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		log.Fatalf("seed flag %s failed %v\n", name, err)
	}
}

func seedSlug(title string, id types.ID) string {
	slug := ""
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			slug += string(r)
		case r >= 'A' && r <= 'Z':
			slug += string(r + ('a' - 'A'))
		}
	}
	idStr := id.String()
	if len(idStr) > 6 {
		idStr = idStr[len(idStr)-6:]
	}
	return slug + "-" + idStr
}
