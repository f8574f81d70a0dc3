package account

import (
	"launchpad/authority"
	"launchpad/misc"

	"github.com/fundwit/go-commons/types"
)

type User struct {
	ID     types.ID `json:"id"`
	Name   string   `json:"name" gorm:"unique_index:uni_user_name"`
	Secret string   `json:"secret"`

	Nickname   string          `json:"nickname"`
	Role       authority.Role  `json:"role" sql:"type:VARCHAR(16) NOT NULL"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

type UserInfo struct {
	ID       types.ID       `json:"id"`
	Name     string         `json:"name"`
	Nickname string         `json:"nickname"`
	Role     authority.Role `json:"role"`
}

type BasicAuthUpdating struct {
	OriginalSecret string `json:"originalSecret"`
	NewSecret      string `json:"newSecret" binding:"required,gte=6,lte=32"`
}

type UserCreation struct {
	Name     string         `json:"name" binding:"required,lte=32"`
	Secret   string         `json:"secret" binding:"required,gte=6,lte=32"`
	Nickname string         `json:"nickname" binding:"omitempty,gte=1,lte=32"`
	Role     authority.Role `json:"role" binding:"required,oneof=vibe_coder developer both admin"`
}

type UserUpdation struct {
	Nickname string `json:"nickname" binding:"required,lte=32"`
}

func (u User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Name
}

func (u UserInfo) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Name
}

// DeveloperProfile is the extended profile of accounts which may submit
// proposals. At most one per user.
type DeveloperProfile struct {
	ID     types.ID `json:"id"`
	UserID types.ID `json:"userId" gorm:"unique_index:uni_developer_user"`

	Skills       misc.Strings `json:"skills" sql:"type:TEXT"`
	HourlyRate   uint32       `json:"hourlyRate"`
	Availability string       `json:"availability"`
	Rating       float32      `json:"rating"`
	Verified     bool         `json:"verified"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
	UpdateTime types.Timestamp `json:"updateTime" sql:"type:DATETIME(6) NOT NULL"`
}

type DeveloperProfileSaving struct {
	Skills       misc.Strings `json:"skills" binding:"required,gt=0"`
	HourlyRate   uint32       `json:"hourlyRate"`
	Availability string       `json:"availability" binding:"omitempty,lte=64"`
}
