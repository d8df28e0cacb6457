package user

type UpdateAccountRequest struct {
	FullName string `json:"fullName" form:"fullName" validate:"omitempty,max=255"`
	Email    string `json:"email" form:"email" validate:"omitempty,email"`
}
