package proposal

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/fundwit/go-commons/types"
)

// Status is the lifecycle state of a proposal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusWithdrawn Status = "withdrawn"
	StatusCompleted Status = "completed"
)

type Milestone struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Amount      uint64 `json:"amount"`
	DueInDays   uint32 `json:"dueInDays"`
}

type Milestones []Milestone

func (m Milestones) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *Milestones) Scan(v interface{}) error {
	switch value := v.(type) {
	case string:
		return json.Unmarshal([]byte(value), m)
	case []byte:
		return json.Unmarshal(value, m)
	default:
		return errors.New("unsupported type of source data for milestones")
	}
}

type Proposal struct {
	ID          types.ID `json:"id"`
	LaunchID    types.ID `json:"launchId" gorm:"unique_index:uni_launch_developer"`
	DeveloperID types.ID `json:"developerId" gorm:"unique_index:uni_launch_developer"`

	Status Status `json:"status" sql:"type:VARCHAR(16) NOT NULL"`

	CoverNote string `json:"coverNote" sql:"type:TEXT"`

	PriceFixed     uint64  `json:"priceFixed"`
	HourlyRate     uint64  `json:"hourlyRate"`
	EstimatedHours uint32  `json:"estimatedHours"`
	EquityPercent  float32 `json:"equityPercent"`

	Milestones Milestones `json:"milestones" sql:"type:TEXT"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
	UpdateTime types.Timestamp `json:"updateTime" sql:"type:DATETIME(6) NOT NULL"`
}

type ProposalCreation struct {
	LaunchID types.ID `json:"launchId" binding:"required"`

	CoverNote string `json:"coverNote" binding:"required,gte=20,lte=2000"`

	PriceFixed     uint64  `json:"priceFixed" binding:"omitempty"`
	HourlyRate     uint64  `json:"hourlyRate" binding:"omitempty"`
	EstimatedHours uint32  `json:"estimatedHours" binding:"omitempty"`
	EquityPercent  float32 `json:"equityPercent" binding:"omitempty,gt=0,lte=100"`

	Milestones Milestones `json:"milestones" binding:"omitempty,lte=20"`
}

type ProposalQuery struct {
	LaunchID types.ID `json:"launchId" form:"launchId"`
}

// Decision is the launch owner's verdict on a pending proposal.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

type DecideRequest struct {
	Decision Decision `json:"decision" binding:"required,oneof=accept reject"`
}
