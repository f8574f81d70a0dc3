package message

import (
	"launchpad/bizerror"
	"launchpad/domain/launch"
	"launchpad/flags"
	"launchpad/idgen"
	"launchpad/persistence"
	"launchpad/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	conversationIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})
	messageIdWorker      = sonyflake.NewSonyflake(sonyflake.Settings{})

	OpenConversationFunc  = OpenConversation
	ListConversationsFunc = ListConversations
	SendMessageFunc       = SendMessage
	ListMessagesFunc      = ListMessages
)

// OpenConversation finds or creates the thread between the caller, acting as
// developer, and the owner of the given launch.
func OpenConversation(creation *ConversationCreation, s *session.Session) (*Conversation, error) {
	if !flags.IsEnabledFunc(s.Context, flags.FlagMessaging) {
		return nil, bizerror.ErrFeatureDisabled
	}
	if !s.Identity.Role.CanSubmitProposals() {
		return nil, bizerror.ErrForbidden
	}

	record := Conversation{}
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		target := launch.Launch{}
		if err := tx.Where(&launch.Launch{ID: creation.LaunchID}).First(&target).Error; err != nil {
			return err
		}
		if target.ApprovalStatus != launch.ApprovalApproved {
			return bizerror.ErrNotFound
		}
		if target.OwnerID == s.Identity.ID {
			return bizerror.ErrForbidden
		}

		err := tx.Where(&Conversation{LaunchID: target.ID, DeveloperID: s.Identity.ID}).First(&record).Error
		if err == nil {
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		now := types.CurrentTimestamp()
		record = Conversation{
			ID:          idgen.NextID(conversationIdWorker),
			LaunchID:    target.ID,
			OwnerID:     target.OwnerID,
			DeveloperID: s.Identity.ID,

			LastMessageAt: now,
			CreateTime:    now,
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListConversations returns the caller's threads, most recently active first.
func ListConversations(s *session.Session) ([]Conversation, error) {
	if s.Token == "" {
		return nil, bizerror.ErrUnauthenticated
	}
	records := []Conversation{}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Where("owner_id = ? OR developer_id = ?", s.Identity.ID, s.Identity.ID).
		Order("last_message_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// SendMessage appends to a thread the caller participates in and refreshes
// the thread's activity timestamp.
func SendMessage(conversationId types.ID, creation *MessageCreation, s *session.Session) (*Message, error) {
	if !flags.IsEnabledFunc(s.Context, flags.FlagMessaging) {
		return nil, bizerror.ErrFeatureDisabled
	}

	record := Message{}
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		conversation := Conversation{}
		if err := tx.Where(&Conversation{ID: conversationId}).First(&conversation).Error; err != nil {
			return err
		}
		if conversation.OwnerID != s.Identity.ID && conversation.DeveloperID != s.Identity.ID {
			return bizerror.ErrNotParticipant
		}

		now := types.CurrentTimestamp()
		record = Message{
			ID:             idgen.NextID(messageIdWorker),
			ConversationID: conversation.ID,
			SenderID:       s.Identity.ID,
			Body:           creation.Body,
			CreateTime:     now,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		return tx.Model(&Conversation{}).Where(&Conversation{ID: conversation.ID}).
			UpdateColumn("last_message_at", now).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListMessages returns a thread's messages in sending order.
func ListMessages(conversationId types.ID, s *session.Session) ([]Message, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)

	conversation := Conversation{}
	if err := db.Where(&Conversation{ID: conversationId}).First(&conversation).Error; err != nil {
		return nil, err
	}
	if conversation.OwnerID != s.Identity.ID && conversation.DeveloperID != s.Identity.ID {
		return nil, bizerror.ErrNotParticipant
	}

	records := []Message{}
	if err := db.Where(&Message{ConversationID: conversationId}).
		Order("create_time ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
