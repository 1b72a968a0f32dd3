package dto

type RegisterRequestDTO struct {
	Phone    string `json:"phone" example:"+254712345678"`
	Password string `json:"password" example:"s3cret-pass"`
	FullName string `json:"fullName" example:"Jane Wanjiru"`
	Role     string `json:"role" example:"SERVICE_RECEIVER" enums:"SERVICE_RECEIVER,SERVICE_PROVIDER"`
}

type LoginRequestDTO struct {
	Phone    string `json:"phone" example:"+254712345678"`
	Password string `json:"password" example:"s3cret-pass"`
}

type AuthResponseDTO struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	UserID  string `json:"userId"`
	Role    string `json:"role"`
}
