package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/satyam-chhatrala/gamma-ortho/dto"
	"github.com/satyam-chhatrala/gamma-ortho/models"
	"github.com/satyam-chhatrala/gamma-ortho/storage"
	"github.com/satyam-chhatrala/gamma-ortho/utils"
)

// productImageFolder is the destination folder for every product image.
const productImageFolder = "products/"

// otherProductType is the sentinel an admin selects to submit a free-text
// type instead of one of the known ones.
const otherProductType = "other"

// defaultGSTRate applies when a create request does not set gstRate.
const defaultGSTRate = 0.12

// Coordinator runs the product write path: validation, image uploads,
// persistence and image cleanup, in that order. Uploads happen before the
// document write so a failed upload never leaves a product pointing at
// missing objects; old objects are reclaimed only after the new state is
// stored.
type Coordinator struct {
	repo  Repository
	store storage.Gateway
}

func NewCoordinator(repo Repository, store storage.Gateway) *Coordinator {
	return &Coordinator{repo: repo, store: store}
}

// Create validates the input, uploads any images and inserts the product.
// If the insert fails after the uploads, the fresh objects are reclaimed.
func (co *Coordinator) Create(ctx context.Context, in dto.CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, newValidationError("name", "name is required")
	}

	productType, err := resolveProductType(in.ProductType, in.NewProductType)
	if err != nil {
		return nil, err
	}

	dims, err := ParseDimensions(in.Dimensions)
	if err != nil {
		return nil, err
	}

	gstRate := defaultGSTRate
	if in.GSTRate != nil {
		gstRate = *in.GSTRate
	}
	if err := validateGSTRate(gstRate); err != nil {
		return nil, err
	}

	isActive := true
	if in.IsActive != nil {
		isActive = *in.IsActive
	}

	baseURL, additionalURLs, err := co.uploadImages(ctx, in.BaseImage, in.AdditionalImages)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:                name,
		Description:         strings.TrimSpace(in.Description),
		ProductType:         productType,
		BaseImageURL:        baseURL,
		AdditionalImageURLs: additionalURLs,
		Dimensions:          dims,
		GSTRate:             gstRate,
		IsActive:            isActive,
	}

	if err := co.repo.Insert(ctx, product); err != nil {
		co.cleanupImages(ctx, collectURLs(baseURL, additionalURLs))
		return nil, err
	}
	return product, nil
}

// Update applies a partial update. Only submitted fields change; dimensions
// are replaced wholesale, never merged. New images are uploaded before the
// document write, and the objects they displace are reclaimed afterwards.
func (co *Coordinator) Update(ctx context.Context, id string, in dto.UpdateProductInput) (*models.Product, error) {
	existing, err := co.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var upd models.ProductUpdate
	dirty := false

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, newValidationError("name", "name cannot be empty")
		}
		upd.Name = &name
		dirty = true
	}
	if in.Description != nil {
		description := strings.TrimSpace(*in.Description)
		upd.Description = &description
		dirty = true
	}
	if in.ProductType != nil {
		productType, err := resolveProductType(*in.ProductType, in.NewProductType)
		if err != nil {
			return nil, err
		}
		upd.ProductType = &productType
		dirty = true
	}
	if in.GSTRate != nil {
		if err := validateGSTRate(*in.GSTRate); err != nil {
			return nil, err
		}
		upd.GSTRate = in.GSTRate
		dirty = true
	}
	if in.IsActive != nil {
		upd.IsActive = in.IsActive
		dirty = true
	}
	if in.Dimensions != nil {
		dims, err := ParseDimensions(in.Dimensions)
		if err != nil {
			return nil, err
		}
		upd.Dimensions = &dims
		dirty = true
	}

	// orphaned collects the objects the update displaces. They are touched
	// only after the new document state is persisted.
	var orphaned []string

	if in.BaseImage != nil || len(in.AdditionalImages) > 0 {
		baseURL, additionalURLs, err := co.uploadImages(ctx, in.BaseImage, in.AdditionalImages)
		if err != nil {
			return nil, err
		}
		if in.BaseImage != nil {
			upd.BaseImageURL = &baseURL
			if existing.BaseImageURL != "" {
				orphaned = append(orphaned, existing.BaseImageURL)
			}
			dirty = true
		}
		if len(in.AdditionalImages) > 0 {
			upd.AdditionalImageURLs = &additionalURLs
			orphaned = append(orphaned, existing.AdditionalImageURLs...)
			dirty = true
		}
	}

	if in.BaseImage == nil && in.ClearBaseImage {
		empty := ""
		upd.BaseImageURL = &empty
		if existing.BaseImageURL != "" {
			orphaned = append(orphaned, existing.BaseImageURL)
		}
		dirty = true
	}
	if len(in.AdditionalImages) == 0 && in.ClearAdditionalImages {
		empty := []string{}
		upd.AdditionalImageURLs = &empty
		orphaned = append(orphaned, existing.AdditionalImageURLs...)
		dirty = true
	}

	if !dirty {
		return nil, newValidationError("", "no update data provided")
	}

	updated, err := co.repo.Update(ctx, id, upd)
	if err != nil {
		co.cleanupImages(ctx, freshUploadURLs(in, upd))
		return nil, err
	}

	co.cleanupImages(ctx, orphaned)
	return updated, nil
}

// Delete removes a product's images best-effort and then its document. A
// failed or unavailable image delete never blocks the document delete.
func (co *Coordinator) Delete(ctx context.Context, id string) error {
	product, err := co.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	co.cleanupImages(ctx, collectURLs(product.BaseImageURL, product.AdditionalImageURLs))

	return co.repo.Delete(ctx, id)
}

// uploadImages pushes the base image and every additional image concurrently
// and waits for all of them; a failed upload does not cancel its siblings.
// On any failure the uploads that did succeed are reclaimed and the first
// error is returned.
func (co *Coordinator) uploadImages(ctx context.Context, base *dto.FileUpload, additional []dto.FileUpload) (string, []string, error) {
	total := len(additional)
	if base != nil {
		total++
	}
	if total == 0 {
		return "", []string{}, nil
	}
	if !co.store.Available() {
		return "", nil, storage.ErrUnavailable
	}

	var baseURL string
	additionalURLs := make([]string, len(additional))

	var g errgroup.Group
	if base != nil {
		g.Go(func() error {
			url, err := co.uploadOne(ctx, *base)
			if err != nil {
				return err
			}
			baseURL = url
			return nil
		})
	}
	for i := range additional {
		g.Go(func() error {
			url, err := co.uploadOne(ctx, additional[i])
			if err != nil {
				return err
			}
			additionalURLs[i] = url
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		co.cleanupImages(ctx, collectURLs(baseURL, additionalURLs))
		return "", nil, err
	}
	return baseURL, additionalURLs, nil
}

func (co *Coordinator) uploadOne(ctx context.Context, f dto.FileUpload) (string, error) {
	r, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", f.Filename, err)
	}
	defer r.Close()

	return co.store.Upload(ctx, r, f.ContentType, f.Filename, productImageFolder)
}

// cleanupImages issues one delete per URL concurrently and waits for every
// outcome. Failures are logged, never propagated.
func (co *Coordinator) cleanupImages(ctx context.Context, urls []string) {
	if len(urls) == 0 {
		return
	}
	if !co.store.Available() {
		zap.S().Warnw("object storage unavailable, skipping image cleanup", "count", len(urls))
		return
	}

	results := make([]error, len(urls))
	var wg sync.WaitGroup
	for i := range urls {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = co.store.Delete(ctx, urls[i])
		}()
	}
	wg.Wait()

	for i, err := range results {
		if err != nil {
			zap.S().Warnw("image cleanup failed", "url", urls[i], "error", err)
		}
	}
}

// resolveProductType resolves the submitted type selection. The sentinel
// "other" switches to the slugified free-text companion field; anything else
// is lowercased and trimmed.
func resolveProductType(selected, freeText string) (string, error) {
	t := strings.ToLower(strings.TrimSpace(selected))
	if t == otherProductType {
		slug := utils.GenerateSlug(freeText)
		if slug == "" {
			return "", newValidationError("newProductType", "a type name is required when \"other\" is selected")
		}
		return slug, nil
	}
	if t == "" {
		return "", newValidationError("productType", "productType is required")
	}
	return t, nil
}

func validateGSTRate(rate float64) error {
	if rate < 0 || rate > 1 {
		return newValidationError("gstRate", "gstRate must be a fraction between 0 and 1")
	}
	return nil
}

// collectURLs gathers the non-empty URLs of one base image and a list of
// additional images.
func collectURLs(base string, additional []string) []string {
	urls := make([]string, 0, len(additional)+1)
	if base != "" {
		urls = append(urls, base)
	}
	for _, u := range additional {
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// freshUploadURLs lists the objects a failed update write leaves
// unreferenced: everything the request uploaded in this attempt.
func freshUploadURLs(in dto.UpdateProductInput, upd models.ProductUpdate) []string {
	var urls []string
	if in.BaseImage != nil && upd.BaseImageURL != nil && *upd.BaseImageURL != "" {
		urls = append(urls, *upd.BaseImageURL)
	}
	if len(in.AdditionalImages) > 0 && upd.AdditionalImageURLs != nil {
		urls = append(urls, *upd.AdditionalImageURLs...)
	}
	return urls
}
