package models

import "time"

// User represents a registered account as stored in users.json.
type User struct {
	Username       string    `json:"username"`
	HashedPassword string    `json:"password"`
	CreatedAt      time.Time `json:"created_at"`
}

// DefaultStyle is the assistant speaking style used when a profile does not
// specify one.
const DefaultStyle = "温馨治愈"

// Profile holds the questionnaire answers collected at registration. They are
// folded into the system prompt so the assistant can address its owner
// properly.
type Profile struct {
	Nickname   string `json:"nickname,omitempty"`
	Age        string `json:"age,omitempty"`
	Gender     string `json:"gender,omitempty"`
	Occupation string `json:"occupation,omitempty"`
	Hobbies    string `json:"hobbies,omitempty"`
	Style      string `json:"style,omitempty"`
}
