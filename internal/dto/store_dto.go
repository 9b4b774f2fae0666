package dto

type CreateStoreRequest struct {
	Name    string  `json:"name" validate:"required,min=2"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
}

type StoreResponse struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Active  bool    `json:"active"`
}
