// Package profile defines user profiles and the profile directory.
package profile

// Role is the closed set of privileges a profile can hold.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
	RoleOwner     Role = "owner"
)

// Valid reports whether r belongs to the known role set.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin, RoleOwner:
		return true
	default:
		return false
	}
}

// CanModerate reports whether the role may open the admin dashboard.
func (r Role) CanModerate() bool {
	return r == RoleModerator || r == RoleAdmin || r == RoleOwner
}

// Profile captures the public identity of a VYNE member.
type Profile struct {
	ID         string   `json:"id" yaml:"id"`
	Username   string   `json:"username" yaml:"username"`
	FriendCode string   `json:"friendCode" yaml:"friendCode"`
	AvatarURL  string   `json:"avatarUrl" yaml:"avatarUrl"`
	Bio        string   `json:"bio" yaml:"bio"`
	Country    string   `json:"country" yaml:"country"`
	Language   string   `json:"language" yaml:"language"`
	Role       Role     `json:"role" yaml:"role"`
	Interests  []string `json:"interests" yaml:"interests"`
}

// Seed provides the demo directory the app boots with.
func Seed() []Profile {
	return []Profile{
		{
			ID:         "u1",
			Username:   "NeoVyne",
			FriendCode: "VN-001",
			AvatarURL:  "https://picsum.photos/seed/neo/200",
			Bio:        "Founder of VYNE. Let's build the future.",
			Country:    "USA",
			Language:   "English",
			Role:       RoleOwner,
			Interests:  []string{"coding", "music", "AI"},
		},
		{
			ID:         "u2",
			Username:   "Astra_Girl",
			FriendCode: "VN-882",
			AvatarURL:  "https://picsum.photos/seed/astra/200",
			Bio:        "Gamer and space enthusiast.",
			Country:    "Canada",
			Language:   "English",
			Role:       RoleUser,
			Interests:  []string{"gaming", "astronomy", "music"},
		},
		{
			ID:         "u3",
			Username:   "Dev_Hiro",
			FriendCode: "VN-331",
			AvatarURL:  "https://picsum.photos/seed/hiro/200",
			Bio:        "Coffee and code.",
			Country:    "Japan",
			Language:   "Japanese",
			Role:       RoleAdmin,
			Interests:  []string{"coding", "coffee", "anime"},
		},
		{
			ID:         "u4",
			Username:   "LunaCloud",
			FriendCode: "VN-991",
			AvatarURL:  "https://picsum.photos/seed/luna/200",
			Bio:        "Art is life.",
			Country:    "France",
			Language:   "French",
			Role:       RoleUser,
			Interests:  []string{"art", "photography", "travel"},
		},
	}
}
