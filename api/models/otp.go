package models

type SendOTPRequest struct {
	Identifier string `json:"identifier"`
	Method     string `json:"method"` // email | sms
}

type VerifyOTPRequest struct {
	Identifier string `json:"identifier"`
	Code       string `json:"code"`
	Method     string `json:"method"`
}

type SendOTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type VerifyOTPResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message,omitempty"`
	Token        string `json:"token,omitempty"`
	AttemptsLeft *int   `json:"attemptsLeft,omitempty"`
}
