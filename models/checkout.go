package models

// DefaultCountry 結帳表單預設國家
const DefaultCountry = "USA"

// ShippingDetails 配送資訊
type ShippingDetails struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
}

// PaymentDetails 付款資訊，只做格式檢查
type PaymentDetails struct {
	CardNumber string `json:"card_number"`
	CardName   string `json:"card_name"`
	ExpiryDate string `json:"expiry_date"`
	CVV        string `json:"cvv"`
}

// CheckoutForm 代表結帳流程的表單資料，僅屬於結帳流程
type CheckoutForm struct {
	Shipping ShippingDetails `json:"shipping"`
	Payment  PaymentDetails  `json:"payment"`
}

func NewCheckoutForm() CheckoutForm {
	return CheckoutForm{
		Shipping: ShippingDetails{Country: DefaultCountry},
	}
}
