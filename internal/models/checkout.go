package models

// PointPackage: пакет JackPoints, который можно купить через платёжный сервис.
type PointPackage struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Points     int64  `json:"points"`
	PriceCents int64  `json:"priceCents"`
}

type CheckoutSession struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	Metadata      map[string]string `json:"metadata"`
}
