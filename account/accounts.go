package account

import (
	"crypto/sha256"
	"encoding/hex"
	"launchpad/bizerror"
	"launchpad/idgen"
	"launchpad/persistence"
	"launchpad/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	userIdWorker    = sonyflake.NewSonyflake(sonyflake.Settings{})
	profileIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	RegisterUserFunc           = RegisterUser
	CreateUserFunc             = CreateUser
	QueryUsersFunc             = QueryUsers
	UpdateUserFunc             = UpdateUser
	UpdateBasicAuthSecretFunc  = UpdateBasicAuthSecret
	SaveDeveloperProfileFunc   = SaveDeveloperProfile
	DetailDeveloperProfileFunc = DetailDeveloperProfile
)

func HashSha256(raw string) string {
	h := sha256.New()
	h.Write([]byte(raw))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)
}

// RegisterUser is the public self-service registration. The admin role can
// only be granted through CreateUser.
func RegisterUser(c *UserCreation, s *session.Session) (*UserInfo, error) {
	if c.Role.IsAdmin() {
		return nil, bizerror.ErrForbidden
	}
	return persistUser(c, s)
}

func CreateUser(c *UserCreation, s *session.Session) (*UserInfo, error) {
	if !s.Identity.Role.IsAdmin() {
		return nil, bizerror.ErrForbidden
	}
	return persistUser(c, s)
}

func persistUser(c *UserCreation, s *session.Session) (*UserInfo, error) {
	if !c.Role.IsValid() {
		return nil, &bizerror.ErrBadParam{}
	}
	user := User{ID: idgen.NextID(userIdWorker), Name: c.Name, Nickname: c.Nickname,
		Secret: HashSha256(c.Secret), Role: c.Role, CreateTime: types.CurrentTimestamp()}
	if err := persistence.ActiveDataSourceManager.GormDB(s.Context).Create(&user).Error; err != nil {
		return nil, err
	}
	return &UserInfo{ID: user.ID, Name: user.Name, Nickname: user.Nickname, Role: user.Role}, nil
}

func QueryUsers(s *session.Session) (*[]UserInfo, error) {
	if !s.Identity.Role.IsAdmin() {
		return nil, bizerror.ErrForbidden
	}
	var users []UserInfo
	if err := persistence.ActiveDataSourceManager.GormDB(s.Context).Model(&User{}).Scan(&users).Error; err != nil {
		return nil, err
	}
	return &users, nil
}

func UpdateUser(userId types.ID, c *UserUpdation, s *session.Session) error {
	if !s.Identity.Role.IsAdmin() && userId != s.Identity.ID {
		return bizerror.ErrForbidden
	}

	return persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		user := User{ID: userId}
		if err := tx.Where(&user).First(&user).Error; err != nil {
			return err
		}
		if err := tx.Model(&user).Update(&User{Nickname: c.Nickname}).Error; err != nil {
			return err
		}
		return nil
	})
}

func UpdateBasicAuthSecret(u *BasicAuthUpdating, s *session.Session) error {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	user := User{}
	if err := db.Model(&User{}).Where(&User{ID: s.Identity.ID, Secret: HashSha256(u.OriginalSecret)}).Scan(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return bizerror.ErrInvalidPassword
		}
		return err
	}

	return db.Model(&User{}).Where(&User{ID: s.Identity.ID, Secret: HashSha256(u.OriginalSecret)}).
		Update(&User{Secret: HashSha256(u.NewSecret)}).Error
}

// SaveDeveloperProfile creates or updates the caller's developer profile.
// Rating and verified flag are never writable by the owner.
func SaveDeveloperProfile(c *DeveloperProfileSaving, s *session.Session) (*DeveloperProfile, error) {
	if !s.Identity.Role.CanSubmitProposals() {
		return nil, bizerror.ErrForbidden
	}

	var saved DeveloperProfile
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		now := types.CurrentTimestamp()
		existed := DeveloperProfile{}
		err := tx.Where(&DeveloperProfile{UserID: s.Identity.ID}).First(&existed).Error
		if err == gorm.ErrRecordNotFound {
			saved = DeveloperProfile{ID: idgen.NextID(profileIdWorker), UserID: s.Identity.ID,
				Skills: c.Skills, HourlyRate: c.HourlyRate, Availability: c.Availability,
				CreateTime: now, UpdateTime: now}
			return tx.Create(&saved).Error
		}
		if err != nil {
			return err
		}
		if err := tx.Model(&DeveloperProfile{}).Where(&DeveloperProfile{ID: existed.ID}).
			Updates(map[string]interface{}{"skills": c.Skills, "hourly_rate": c.HourlyRate,
				"availability": c.Availability, "update_time": now}).Error; err != nil {
			return err
		}
		return tx.Where(&DeveloperProfile{ID: existed.ID}).First(&saved).Error
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func DetailDeveloperProfile(userId types.ID, s *session.Session) (*DeveloperProfile, error) {
	profile := DeveloperProfile{}
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).
		Where(&DeveloperProfile{UserID: userId}).First(&profile).Error
	if err == gorm.ErrRecordNotFound {
		return nil, bizerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func QueryAccountNames(ids []types.ID, s *session.Session) (map[types.ID]string, error) {
	if len(ids) == 0 {
		return map[types.ID]string{}, nil
	}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	var records []UserInfo
	if err := db.Model(&User{}).Where("id IN (?)", ids).Scan(&records).Error; err != nil {
		return nil, err
	}
	result := map[types.ID]string{}
	for _, r := range records {
		result[r.ID] = r.DisplayName()
	}
	return result, nil
}
