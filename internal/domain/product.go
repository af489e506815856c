package domain

import "time"

type Category string

const (
	CategoryComputer  Category = "computer"
	CategoryPrinter   Category = "printer"
	CategoryProjector Category = "projector"
	CategoryPOS       Category = "pos"
	CategoryOther     Category = "other"
)

// subcategories fixes the allowed subcategory list per category. An empty
// subcategory is always allowed.
var subcategories = map[Category][]string{
	CategoryComputer: {
		"All-in-One PC", "Monitor", "CPU", "Refurbished", "Laptop", "Cooling Fan",
		"Graphic Card", "Processor", "Power Supply Unit", "RAM", "Motherboard",
		"Keyboards", "Mouse", "SSD",
	},
	CategoryPrinter: {
		"Dot-Matrix", "ID Card", "Inkjet", "Laser", "Photo", "Ink Cartridge",
		"Ribbon Cartridge", "Other Printer Components",
	},
	CategoryProjector: {},
	CategoryPOS: {
		"Barcode Label Printer", "Barcode Label Sticker", "Barcode Scanner",
		"Cash Drawer", "POS Printer", "POS Terminal", "Paper Roll", "Ribbon",
	},
	CategoryOther: {
		"CCTV", "HDD", "Headphones", "ID Card", "Power Strip", "Speaker", "Bag",
		"Web Cam", "Miscellaneous",
	},
}

// Valid reports whether c is one of the closed category set.
func (c Category) Valid() bool {
	_, ok := subcategories[c]
	return ok
}

// ValidSubcategory reports whether sub belongs to category c. Empty is valid.
func ValidSubcategory(c Category, sub string) bool {
	if sub == "" {
		return true
	}
	for _, s := range subcategories[c] {
		if s == sub {
			return true
		}
	}
	return false
}

// Product is a catalog entry. Price is in minor units. Stock never goes below
// zero: it is decremented only by a successful reservation and incremented
// only by a release.
type Product struct {
	ID          ProductID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       int64     `json:"price"`
	Stock       int       `json:"stock"`
	Category    Category  `json:"category"`
	Subcategory string    `json:"subcategory,omitempty"`
	Image       string    `json:"image,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
