package dto

type CreateFavoriteDTO struct {
	Name           string  `json:"name" binding:"required" validate:"max=100"`
	Ounces         float64 `json:"ounces" binding:"required" validate:"gt=0,lte=1000"`
	Classification string  `json:"classification" binding:"required" validate:"classification"`
	LiquidType     string  `json:"liquidType" validate:"omitempty,max=64"`
	Servings       int     `json:"servings" validate:"omitempty,min=1,max=20"`
	ImageURL       *string `json:"imageUrl" validate:"omitempty,url,max=512"`
}
