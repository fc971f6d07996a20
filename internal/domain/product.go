package domain

import "time"

type Store struct {
	ID       int64
	Slug     string
	Name     string
	Currency string
	Domain   string
}

type ProductImage struct {
	ID       int64  `json:"id"`
	Src      string `json:"src"`
	Alt      string `json:"alt"`
	Position int    `json:"position"`
}

type Variant struct {
	ID                int64    `json:"id"`
	ProductID         int64    `json:"product_id"`
	Title             string   `json:"title"`
	Price             float64  `json:"price"`
	CompareAtPrice    *float64 `json:"compare_at_price"`
	SKU               string   `json:"sku"`
	Barcode           string   `json:"barcode"`
	InventoryQuantity int      `json:"inventory_quantity"`
	Weight            *float64 `json:"weight"`
	WeightUnit        string   `json:"weight_unit"`
	Option1           string   `json:"option1"`
	Option2           string   `json:"option2"`
	Option3           string   `json:"option3"`
	Position          int      `json:"position"`
}

type Product struct {
	ID          int64
	StoreID     int64
	Title       string
	Description string
	Handle      string
	Vendor      string
	ProductType string
	Status      string
	Tags        string
	Images      []ProductImage
	Variants    []Variant
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
