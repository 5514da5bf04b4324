package types

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register and login on success.
type AuthResponse struct {
	Token  string `json:"token"`
	UserID uint   `json:"userId"`
}

// ProfileUpdateRequest is the body of PUT /api/user/profile.
type ProfileUpdateRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// PasswordUpdateRequest is the body of PUT /api/user/password.
type PasswordUpdateRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
