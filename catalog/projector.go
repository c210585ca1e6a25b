package catalog

import (
	"context"

	"github.com/satyam-chhatrala/gamma-ortho/models"
)

// PublicProduct is the reduced product shape served to the storefront.
// Admin-only fields (isActive, timestamps) never leave the admin surface;
// gstRate stays in because clients compute tax-inclusive prices from it.
type PublicProduct struct {
	ID                  string             `json:"id"`
	Name                string             `json:"name"`
	Description         string             `json:"description"`
	ProductType         string             `json:"productType"`
	BaseImageURL        string             `json:"baseImageUrl,omitempty"`
	AdditionalImageURLs []string           `json:"additionalImageUrls"`
	Dimensions          []models.Dimension `json:"dimensions"`
	GSTRate             float64            `json:"gstRate"`
}

// Projector serves the public, read-only view of the catalog.
type Projector struct {
	repo Repository
}

func NewProjector(repo Repository) *Projector {
	return &Projector{repo: repo}
}

// ListActive returns every active product in name order, projected to the
// public shape.
func (p *Projector) ListActive(ctx context.Context) ([]PublicProduct, error) {
	products, err := p.repo.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]PublicProduct, len(products))
	for i, product := range products {
		out[i] = Project(product)
	}
	return out, nil
}

// Project maps one stored product to its public shape.
func Project(p models.Product) PublicProduct {
	urls := p.AdditionalImageURLs
	if urls == nil {
		urls = []string{}
	}
	return PublicProduct{
		ID:                  p.Id.Hex(),
		Name:                p.Name,
		Description:         p.Description,
		ProductType:         p.ProductType,
		BaseImageURL:        p.BaseImageURL,
		AdditionalImageURLs: urls,
		Dimensions:          p.Dimensions,
		GSTRate:             p.GSTRate,
	}
}
