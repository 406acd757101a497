package model

// Department groups doctors by specialty.
type Department struct {
	Base
	Name string `json:"name" db:"name"`
}

type CreateDepartmentRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}
