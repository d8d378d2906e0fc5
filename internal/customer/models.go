package customer

// Customer is the read-only profile projection fetched per request.
type Customer struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// Money is an amount with its currency code, as returned by the platform.
type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

// Image is a product variant image attached to a line item.
type Image struct {
	URL     string `json:"url"`
	AltText string `json:"altText,omitempty"`
}

// LineItem is a purchased item within an order.
type LineItem struct {
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Image    *Image `json:"image,omitempty"`
}

// Order is a read-only order projection fetched per request.
type Order struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	ProcessedAt       string     `json:"processedAt"`
	TotalPrice        Money      `json:"totalPrice"`
	FulfillmentStatus string     `json:"fulfillmentStatus"`
	LineItems         []LineItem `json:"lineItems"`
}
