package message

import (
	"github.com/fundwit/go-commons/types"
)

// Conversation is a private thread between a launch owner and one developer.
// The (launch, developer) pair is unique, so reopening returns the existing
// thread.
type Conversation struct {
	ID          types.ID `json:"id"`
	LaunchID    types.ID `json:"launchId" gorm:"unique_index:uni_launch_developer"`
	OwnerID     types.ID `json:"ownerId"`
	DeveloperID types.ID `json:"developerId" gorm:"unique_index:uni_launch_developer"`

	LastMessageAt types.Timestamp `json:"lastMessageAt" sql:"type:DATETIME(6) NOT NULL"`
	CreateTime    types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

type Message struct {
	ID             types.ID `json:"id"`
	ConversationID types.ID `json:"conversationId" gorm:"index:idx_conversation"`
	SenderID       types.ID `json:"senderId"`

	Body string `json:"body" sql:"type:TEXT"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

type ConversationCreation struct {
	LaunchID types.ID `json:"launchId" binding:"required"`
}

type MessageCreation struct {
	Body string `json:"body" binding:"required,lte=4000"`
}
