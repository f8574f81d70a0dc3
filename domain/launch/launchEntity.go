package launch

import (
	"launchpad/misc"

	"github.com/fundwit/go-commons/types"
)

// ApprovalStatus is the moderation state of a launch.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Status is the operational state of a launch.
type Status string

const (
	StatusPendingReview Status = "pending_review"
	StatusOpen          Status = "open"
	StatusInProgress    Status = "in_progress"
	StatusCompleted     Status = "completed"
	StatusCancelled     Status = "cancelled"
	StatusRejected      Status = "rejected"
)

// IsOperational reports whether the status is a publicly visible one, the
// only statuses an approved launch may carry.
func (s Status) IsOperational() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

const (
	ServiceDevelopment    = "development"
	ServiceDebugging      = "debugging"
	ServiceDeployment     = "deployment"
	ServiceMaintenance    = "maintenance"
	ServiceSecurityReview = "security_review"

	DealFixedPrice = "fixed_price"
	DealHourly     = "hourly"
	DealEquity     = "equity"
	DealHybrid     = "hybrid"
)

const (
	MinScreenshots = 3
	MaxScreenshots = 6
)

type Launch struct {
	ID      types.ID `json:"id"`
	OwnerID types.ID `json:"ownerId"`

	Title            string `json:"title"`
	Slug             string `json:"slug" gorm:"unique_index:uni_launch_slug"`
	Description      string `json:"description" sql:"type:TEXT"`
	ShortDescription string `json:"shortDescription"`

	Screenshots misc.Strings `json:"screenshots" sql:"type:TEXT"`
	TechStack   misc.Strings `json:"techStack" sql:"type:TEXT"`
	Services    misc.Strings `json:"services" sql:"type:TEXT"`
	DealTypes   misc.Strings `json:"dealTypes" sql:"type:TEXT"`

	BudgetMin     uint64  `json:"budgetMin"`
	BudgetMax     uint64  `json:"budgetMax"`
	EquityPercent float32 `json:"equityPercent"`
	TimelineDays  uint32  `json:"timelineDays"`

	RepoURL string `json:"repoUrl"`
	DemoURL string `json:"demoUrl"`

	Status         Status         `json:"status" sql:"type:VARCHAR(32) NOT NULL"`
	ApprovalStatus ApprovalStatus `json:"approvalStatus" sql:"type:VARCHAR(16) NOT NULL"`

	RejectionReason string          `json:"rejectionReason"`
	ReviewedBy      types.ID        `json:"reviewedBy"`
	ReviewedAt      types.Timestamp `json:"reviewedAt" sql:"type:DATETIME(6)"`

	VerificationCode     string `json:"verificationCode"`
	VerificationPhotoURL string `json:"verificationPhotoUrl"`

	ViewCount     uint64 `json:"viewCount"`
	ProposalCount uint32 `json:"proposalCount"`

	// SubmitTime is refreshed on resubmission, CreateTime never changes
	SubmitTime types.Timestamp `json:"submitTime" sql:"type:DATETIME(6) NOT NULL"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
	UpdateTime types.Timestamp `json:"updateTime" sql:"type:DATETIME(6) NOT NULL"`
}

type LaunchCreation struct {
	Title            string `json:"title" binding:"required,lte=80"`
	Description      string `json:"description" binding:"required,gte=100"`
	ShortDescription string `json:"shortDescription" binding:"required,gte=20,lte=200"`

	TechStack misc.Strings `json:"techStack" binding:"required,gt=0,dive,required,lte=40"`
	Services  misc.Strings `json:"services" binding:"required,gt=0,dive,oneof=development debugging deployment maintenance security_review"`
	DealTypes misc.Strings `json:"dealTypes" binding:"required,gt=0,dive,oneof=fixed_price hourly equity hybrid"`

	BudgetMin     uint64  `json:"budgetMin" binding:"omitempty"`
	BudgetMax     uint64  `json:"budgetMax" binding:"omitempty,gtefield=BudgetMin"`
	EquityPercent float32 `json:"equityPercent" binding:"omitempty,gt=0,lte=100"`
	TimelineDays  uint32  `json:"timelineDays" binding:"omitempty"`

	RepoURL string `json:"repoUrl" binding:"omitempty,url"`
	DemoURL string `json:"demoUrl" binding:"omitempty,url"`

	// generated client-side before upload and immutable afterwards
	VerificationCode string `json:"verificationCode" binding:"required"`
}

type LaunchQuery struct {
	Tag      string `json:"tag" form:"tag"`
	Service  string `json:"service" form:"service"`
	DealType string `json:"dealType" form:"dealType"`
	Text     string `json:"text" form:"text"`

	Page int `json:"page" form:"page"`
	Size int `json:"size" form:"size"`
}
