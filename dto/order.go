package dto

// OrderItemInput is one requested line of a customer order. DimensionName
// selects which priced size of the product the customer wants.
type OrderItemInput struct {
	ProductID     string `json:"productId" binding:"required"`
	DimensionName string `json:"dimensionName" binding:"required"`
	Quantity      int    `json:"quantity" binding:"required,min=1"`
}

// CreateOrderInput is the body of POST /orders. Orders are relayed by mail
// to the sales inbox and are not persisted.
type CreateOrderInput struct {
	FullName string           `json:"fullName" binding:"required"`
	Email    string           `json:"email" binding:"required,email"`
	Phone    string           `json:"phone"`
	Hospital string           `json:"hospital"`
	City     string           `json:"city"`
	Message  string           `json:"message"`
	Items    []OrderItemInput `json:"items" binding:"required,min=1,dive"`
}

// CreateInquiryInput is the body of POST /inquiries.
type CreateInquiryInput struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Subject  string `json:"subject"`
	Message  string `json:"message" binding:"required"`
}
