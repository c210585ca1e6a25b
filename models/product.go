package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Dimension is one priced size option of a product, e.g. {"2.5mm×40mm", 450}.
type Dimension struct {
	DimensionName string  `bson:"dimensionName" json:"dimensionName"`
	BasePrice     float64 `bson:"basePrice" json:"basePrice"`
}

// Product is a storefront listing. Every persisted product carries at least
// one dimension. Image URLs point at objects in the configured bucket and
// are owned by the product that references them.
type Product struct {
	Id                  bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name                string        `bson:"name" json:"name"`
	Description         string        `bson:"description" json:"description"`
	ProductType         string        `bson:"productType" json:"productType"`
	BaseImageURL        string        `bson:"baseImageUrl,omitempty" json:"baseImageUrl,omitempty"`
	AdditionalImageURLs []string      `bson:"additionalImageUrls" json:"additionalImageUrls"`
	Dimensions          []Dimension   `bson:"dimensions" json:"dimensions"`
	GSTRate             float64       `bson:"gstRate" json:"gstRate"`
	IsActive            bool          `bson:"isActive" json:"isActive"`
	CreatedAt           time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// ProductUpdate carries the fields of a partial update. A nil pointer means
// "leave unchanged". A non-nil empty BaseImageURL clears the field; a non-nil
// empty AdditionalImageURLs slice clears the list.
type ProductUpdate struct {
	Name                *string
	Description         *string
	ProductType         *string
	BaseImageURL        *string
	AdditionalImageURLs *[]string
	Dimensions          *[]Dimension
	GSTRate             *float64
	IsActive            *bool
}
