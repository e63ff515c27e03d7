package request

type SetSeatActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}
