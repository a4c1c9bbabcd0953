// shared/models/user.go
package models

// Role is the only authorization attribute of a User.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleTL    Role = "tl"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleTL
}

// User is an admin or a team leader.
type User struct {
	ID           string `bson:"_id" json:"id"`
	Name         string `bson:"name" json:"name"`
	Email        string `bson:"email" json:"email"`
	PasswordHash string `bson:"password_hash" json:"-"`
	Role         Role   `bson:"role" json:"role"`
	TeamID       string `bson:"team_id,omitempty" json:"teamId,omitempty"`
	AvatarURL    string `bson:"avatar_url,omitempty" json:"avatarUrl,omitempty"`
}
