package models

// --- Request Structs ---

// RegisterRequest defines the expected body for the register endpoint. The
// profile fields are optional; Style falls back to DefaultStyle.
type RegisterRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Nickname   string `json:"nickname,omitempty"`
	Age        string `json:"age,omitempty"`
	Gender     string `json:"gender,omitempty"`
	Occupation string `json:"occupation,omitempty"`
	Hobbies    string `json:"hobbies,omitempty"`
	Style      string `json:"style,omitempty"`
}

// LoginRequest defines the expected body for the login endpoint.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ChatRequest defines the body for the direct (API-key) chat endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}

// RelayMessageRequest defines the body for appending a user message for the
// relay worker to pick up. ImageBase64 optionally attaches a captured image,
// stored in the user's private image directory.
type RelayMessageRequest struct {
	Message     string `json:"message"`
	ImageBase64 string `json:"image_base64,omitempty"`
}

// UpdateProfileRequest defines the body for updating the user profile.
type UpdateProfileRequest struct {
	Profile
}

// --- Response Structs ---

// UserResponse defines the user information returned by the API.
// Never includes the password hash.
type UserResponse struct {
	Username string `json:"username"`
}

// AuthResponse defines the response body for successful authentication.
type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

// ChatResponse defines the response of the direct chat endpoint. AudioPath
// is set when text-to-speech synthesis is enabled and succeeded.
type ChatResponse struct {
	Reply     string `json:"reply"`
	AudioPath string `json:"audio_path,omitempty"`
}

// HistoryResponse returns the full conversation log for rendering.
type HistoryResponse struct {
	Messages []Message `json:"messages"`
}

// WaitResponse is returned by the relay wait endpoint once a model reply
// lands, or with TimedOut set when the polling window is exhausted. A
// timeout leaves the pending user message in place, so a late answer is
// still delivered on the next refresh.
type WaitResponse struct {
	Reply    *Message `json:"reply,omitempty"`
	TimedOut bool     `json:"timed_out,omitempty"`
}

// ErrorResponse defines the standard structure for API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// --- Bridge DTOs ---

// BridgeFetchResponse is the payload embedded in the BRIDGE_DATA marker for
// action=get. Content is only present when HasNew is true.
type BridgeFetchResponse struct {
	HasNew  bool   `json:"has_new"`
	Content string `json:"content,omitempty"`
}

// BridgeSubmitResponse is the payload embedded in the BRIDGE_DATA marker for
// an accepted action=put. A rejected put produces a page with no marker at
// all; the absence of the marker is the signal.
type BridgeSubmitResponse struct {
	Status string `json:"status"`
}
