package db_models

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Account struct {
	BaseModel
	Username     string `gorm:"size:150;uniqueIndex"`
	Email        string `gorm:"size:254;uniqueIndex"`
	PasswordHash string
	Role         string `gorm:"size:16;default:user"`
	Plans        []Plan `gorm:"foreignKey:AccountID"`
}
