package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/satyam-chhatrala/gamma-ortho/dto"
	"github.com/satyam-chhatrala/gamma-ortho/models"
	"github.com/satyam-chhatrala/gamma-ortho/storage"
)

type fakeRepo struct {
	mu        sync.Mutex
	products  map[string]models.Product
	inserted  []models.Product
	updates   []models.ProductUpdate
	deleted   []string
	insertErr error
	updateErr error
	deleteErr error
	findErr   error
}

func (r *fakeRepo) Insert(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	if p.Id.IsZero() {
		p.Id = bson.NewObjectID()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.AdditionalImageURLs == nil {
		p.AdditionalImageURLs = []string{}
	}
	r.products[p.Id.Hex()] = *p
	r.inserted = append(r.inserted, *p)
	return nil
}

func (r *fakeRepo) FindByID(_ context.Context, id string) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	p, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	out := p
	return &out, nil
}

func (r *fakeRepo) FindAll(_ context.Context) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeRepo) FindActive(_ context.Context) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	out := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if p.IsActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeRepo) Search(_ context.Context, query string) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := strings.ToLower(query)
	out := make([]models.Product, 0)
	for _, p := range r.products {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Description), q) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) Update(_ context.Context, id string, upd models.ProductUpdate) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, upd)
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	p, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.ProductType != nil {
		p.ProductType = *upd.ProductType
	}
	if upd.BaseImageURL != nil {
		p.BaseImageURL = *upd.BaseImageURL
	}
	if upd.AdditionalImageURLs != nil {
		p.AdditionalImageURLs = *upd.AdditionalImageURLs
	}
	if upd.Dimensions != nil {
		p.Dimensions = *upd.Dimensions
	}
	if upd.GSTRate != nil {
		p.GSTRate = *upd.GSTRate
	}
	if upd.IsActive != nil {
		p.IsActive = *upd.IsActive
	}
	p.UpdatedAt = time.Now().UTC()
	r.products[id] = p
	out := p
	return &out, nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, id)
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

type fakeGateway struct {
	mu        sync.Mutex
	available bool
	uploaded  []string
	deleted   []string
	uploadErr map[string]error
	deleteErr map[string]error
}

func (g *fakeGateway) Available() bool { return g.available }

func (g *fakeGateway) Upload(_ context.Context, _ io.Reader, _, filename, folder string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.uploaded = append(g.uploaded, filename)
	if err := g.uploadErr[filename]; err != nil {
		return "", err
	}
	return "https://cdn.test/gamma/" + folder + filename, nil
}

func (g *fakeGateway) Delete(_ context.Context, publicURL string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleted = append(g.deleted, publicURL)
	if err := g.deleteErr[publicURL]; err != nil {
		return err
	}
	return nil
}

func newFakes() (*fakeRepo, *fakeGateway) {
	repo := &fakeRepo{products: map[string]models.Product{}}
	gw := &fakeGateway{
		available: true,
		uploadErr: map[string]error{},
		deleteErr: map[string]error{},
	}
	return repo, gw
}

func seedProduct(r *fakeRepo, p models.Product) string {
	if p.Id.IsZero() {
		p.Id = bson.NewObjectID()
	}
	if p.AdditionalImageURLs == nil {
		p.AdditionalImageURLs = []string{}
	}
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	r.products[p.Id.Hex()] = p
	return p.Id.Hex()
}

func fileUpload(name string) *dto.FileUpload {
	return &dto.FileUpload{
		Filename:    name,
		ContentType: "image/jpeg",
		Size:        1024,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("image bytes")), nil
		},
	}
}

func strptr(s string) *string { return &s }

func f64ptr(f float64) *float64 { return &f }

func boolptr(b bool) *bool { return &b }

func validCreateInput() dto.CreateProductInput {
	return dto.CreateProductInput{
		Name:        "Wire Pin",
		Description: "Stainless steel wire pin",
		ProductType: "wire-pin",
		Dimensions: []dto.RawDimensionEntry{
			{DimensionName: "2.5mm x 40mm", BasePrice: "450"},
		},
	}
}

func TestCreateProduct(t *testing.T) {
	repo, gw := newFakes()
	co := NewCoordinator(repo, gw)

	in := validCreateInput()
	in.BaseImage = fileUpload("front.jpg")
	in.AdditionalImages = []dto.FileUpload{*fileUpload("side.jpg"), *fileUpload("detail.jpg")}

	p, err := co.Create(context.Background(), in)
	require.NoError(t, err)

	assert.False(t, p.Id.IsZero())
	assert.Equal(t, "Wire Pin", p.Name)
	assert.Equal(t, "wire-pin", p.ProductType)
	assert.Equal(t, "https://cdn.test/gamma/products/front.jpg", p.BaseImageURL)
	assert.Equal(t, []string{
		"https://cdn.test/gamma/products/side.jpg",
		"https://cdn.test/gamma/products/detail.jpg",
	}, p.AdditionalImageURLs)
	assert.Equal(t, []models.Dimension{{DimensionName: "2.5mm x 40mm", BasePrice: 450}}, p.Dimensions)

	// Defaults when the form omitted gstRate and isActive.
	assert.Equal(t, 0.12, p.GSTRate)
	assert.True(t, p.IsActive)

	require.Len(t, repo.inserted, 1)
	assert.ElementsMatch(t, []string{"front.jpg", "side.jpg", "detail.jpg"}, gw.uploaded)
	assert.Empty(t, gw.deleted)
}

func TestCreateProductExplicitFlags(t *testing.T) {
	repo, gw := newFakes()
	co := NewCoordinator(repo, gw)

	in := validCreateInput()
	in.GSTRate = f64ptr(0.05)
	in.IsActive = boolptr(false)

	p, err := co.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 0.05, p.GSTRate)
	assert.False(t, p.IsActive)
}

func TestCreateProductOtherType(t *testing.T) {
	repo, gw := newFakes()
	co := NewCoordinator(repo, gw)

	in := validCreateInput()
	in.ProductType = "Other"
	in.NewProductType = "Locking Bone Plate"

	p, err := co.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "locking-bone-plate", p.ProductType)
}

func TestCreateProductValidation(t *testing.T) {
	testCases := []struct {
		name      string
		mutate    func(*dto.CreateProductInput)
		wantField string
	}{
		{
			name:      "missing name",
			mutate:    func(in *dto.CreateProductInput) { in.Name = "  " },
			wantField: "name",
		},
		{
			name:      "missing type",
			mutate:    func(in *dto.CreateProductInput) { in.ProductType = "" },
			wantField: "productType",
		},
		{
			name: "other type without companion text",
			mutate: func(in *dto.CreateProductInput) {
				in.ProductType = "other"
				in.NewProductType = "   "
			},
			wantField: "newProductType",
		},
		{
			name: "partial dimension row",
			mutate: func(in *dto.CreateProductInput) {
				in.Dimensions = []dto.RawDimensionEntry{{DimensionName: "2.5mm x 40mm", BasePrice: ""}}
			},
			wantField: "dimensions[0].basePrice",
		},
		{
			name:      "no dimensions",
			mutate:    func(in *dto.CreateProductInput) { in.Dimensions = nil },
			wantField: "dimensions",
		},
		{
			name:      "gst rate out of range",
			mutate:    func(in *dto.CreateProductInput) { in.GSTRate = f64ptr(18) },
			wantField: "gstRate",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo, gw := newFakes()
			co := NewCoordinator(repo, gw)

			in := validCreateInput()
			in.BaseImage = fileUpload("front.jpg")
			tc.mutate(&in)

			_, err := co.Create(context.Background(), in)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tc.wantField, ve.Field)

			// Validation precedes every side effect.
			assert.Empty(t, repo.inserted)
			assert.Empty(t, gw.uploaded)
		})
	}
}

func TestCreateUploadFailureAttemptsAllAndReclaims(t *testing.T) {
	repo, gw := newFakes()
	gw.uploadErr["side.jpg"] = &storage.OperationError{Op: "upload", Key: "products/side.jpg", Err: fmt.Errorf("connection reset")}
	co := NewCoordinator(repo, gw)

	in := validCreateInput()
	in.AdditionalImages = []dto.FileUpload{
		*fileUpload("front.jpg"),
		*fileUpload("side.jpg"),
		*fileUpload("detail.jpg"),
	}

	_, err := co.Create(context.Background(), in)
	require.Error(t, err)

	var oe *storage.OperationError
	assert.True(t, errors.As(err, &oe))

	// Every sibling upload was still attempted.
	assert.ElementsMatch(t, []string{"front.jpg", "side.jpg", "detail.jpg"}, gw.uploaded)

	// The two that landed were reclaimed; nothing was persisted.
	assert.ElementsMatch(t, []string{
		"https://cdn.test/gamma/products/front.jpg",
		"https://cdn.test/gamma/products/detail.jpg",
	}, gw.deleted)
	assert.Empty(t, repo.inserted)
}

func TestCreateInsertFailureReclaimsUploads(t *testing.T) {
	repo, gw := newFakes()
	repo.insertErr = fmt.Errorf("insert product: write timeout")
	co := NewCoordinator(repo, gw)

	in := validCreateInput()
	in.BaseImage = fileUpload("front.jpg")

	_, err := co.Create(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, []string{"https://cdn.test/gamma/products/front.jpg"}, gw.deleted)
}

func TestCreateStorageUnavailable(t *testing.T) {
	t.Run("text-only create succeeds", func(t *testing.T) {
		repo, gw := newFakes()
		gw.available = false
		co := NewCoordinator(repo, gw)

		p, err := co.Create(context.Background(), validCreateInput())
		require.NoError(t, err)
		assert.Empty(t, p.BaseImageURL)
		assert.Empty(t, p.AdditionalImageURLs)
	})

	t.Run("create with images is rejected", func(t *testing.T) {
		repo, gw := newFakes()
		gw.available = false
		co := NewCoordinator(repo, gw)

		in := validCreateInput()
		in.BaseImage = fileUpload("front.jpg")

		_, err := co.Create(context.Background(), in)
		assert.ErrorIs(t, err, storage.ErrUnavailable)
		assert.Empty(t, repo.inserted)
	})
}

func TestUpdateSingleFieldPreservesTheRest(t *testing.T) {
	repo, gw := newFakes()
	co := NewCoordinator(repo, gw)

	id := seedProduct(repo, models.Product{
		Name:                "Wire Pin",
		ProductType:         "wire-pin",
		BaseImageURL:        "https://cdn.test/gamma/products/front.jpg",
		AdditionalImageURLs: []string{"https://cdn.test/gamma/products/side.jpg"},
		Dimensions:          []models.Dimension{{DimensionName: "2.5mm x 40mm", BasePrice: 450}},
		GSTRate:             0.12,
		IsActive:            true,
	})

	p, err := co.Update(context.Background(), id, dto.UpdateProductInput{IsActive: boolptr(false)})
	require.NoError(t, err)

	assert.False(t, p.IsActive)
	assert.Equal(t, "Wire Pin", p.Name)
	assert.Equal(t, "https://cdn.test/gamma/products/front.jpg", p.BaseImageURL)
	assert.Equal(t, []string{"https://cdn.test/gamma/products/side.jpg"}, p.AdditionalImageURLs)
	assert.Len(t, p.Dimensions, 1)

	// No image traffic for a flag flip.
	assert.Empty(t, gw.uploaded)
	assert.Empty(t, gw.deleted)

	// Exactly one field travelled in the update.
	require.Len(t, repo.updates, 1)
	upd := repo.updates[0]
	assert.Nil(t, upd.Name)
	assert.Nil(t, upd.BaseImageURL)
	assert.Nil(t, upd.AdditionalImageURLs)
	assert.Nil(t, upd.Dimensions)
	require.NotNil(t, upd.IsActive)
	assert.False(t, *upd.IsActive)
}

func TestUpdateDimensionsReplacedWholesale(t *testing.T) {
	repo, gw := newFakes()
	co := NewCoordinator(repo, gw)

	id := seedProduct(repo, models.Product{
		Name:        "Bone Plate",
		ProductType: "bone-plate",
		Dimensions: []models.Dimension{
			{DimensionName: "3.5mm x 110mm", BasePrice: 780},
			{DimensionName: "4.5mm x 110mm", BasePrice: 815},
		},
		IsActive: true,
	})

	p, err := co.Update(context.Background(), id, dto.UpdateProductInput{
		Dimensions: []dto.RawDimensionEntry{{DimensionName: "5.5mm x 120mm", BasePrice: "900"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []models.Dimension{{DimensionName: "5.5mm x 120mm", BasePrice: 900}}, p.Dimensions)
}

func TestUpdateDimensionsAllInvalidRejected(t *testing.T) {
	repo, gw := newFakes()
	co := NewCoordinator(repo, gw)

	id := seedProduct(repo, models.Product{
		Name:        "Bone Plate",
		ProductType: "bone-plate",
		Dimensions:  []models.Dimension{{DimensionName: "3.5mm x 110mm", BasePrice: 780}},
		IsActive:    true,
	})

	_, err := co.Update(context.Background(), id, dto.UpdateProductInput{
		Dimensions: []dto.RawDimensionEntry{{DimensionName: "", BasePrice: ""}},
	})

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "dimensions", ve.Field)

	// The stored list is untouched rather than silently kept by accident.
	stored := repo.products[id]
	assert.Len(t, stored.Dimensions, 1)
	assert.Empty(t, repo.updates)
}

func TestUpdateNoData(t *testing.T) {
	repo, gw := newFakes()
	co := NewCoordinator(repo, gw)

	id := seedProduct(repo, models.Product{Name: "Wire Pin", ProductType: "wire-pin", IsActive: true})

	_, err := co.Update(context.Background(), id, dto.UpdateProductInput{})

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "no update data provided", ve.Message)
}

func TestUpdateNotFound(t *testing.T) {
	repo, gw := newFakes()
	co := NewCoordinator(repo, gw)

	_, err := co.Update(context.Background(), bson.NewObjectID().Hex(), dto.UpdateProductInput{
		Name: strptr("Renamed"),
	})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestUpdateReplaceBaseImage(t *testing.T) {
	repo, gw := newFakes()
	co := NewCoordinator(repo, gw)

	oldURL := "https://cdn.test/gamma/products/old-front.jpg"
	id := seedProduct(repo, models.Product{
		Name:         "Wire Pin",
		ProductType:  "wire-pin",
		BaseImageURL: oldURL,
		IsActive:     true,
	})

	p, err := co.Update(context.Background(), id, dto.UpdateProductInput{
		BaseImage: fileUpload("new-front.jpg"),
	})
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.test/gamma/products/new-front.jpg", p.BaseImageURL)
	assert.Equal(t, []string{oldURL}, gw.deleted)
}

func TestUpdateClearBaseImage(t *testing.T) {
	repo, gw := newFakes()
	co := NewCoordinator(repo, gw)

	oldURL := "https://cdn.test/gamma/products/front.jpg"
	// The old object may already be gone; clearing must still succeed.
	gw.deleteErr[oldURL] = &storage.OperationError{Op: "delete", Key: "products/front.jpg", Err: fmt.Errorf("permission denied")}

	id := seedProduct(repo, models.Product{
		Name:         "Wire Pin",
		ProductType:  "wire-pin",
		BaseImageURL: oldURL,
		IsActive:     true,
	})

	p, err := co.Update(context.Background(), id, dto.UpdateProductInput{ClearBaseImage: true})
	require.NoError(t, err)

	assert.Empty(t, p.BaseImageURL)
	assert.Equal(t, []string{oldURL}, gw.deleted)

	require.Len(t, repo.updates, 1)
	require.NotNil(t, repo.updates[0].BaseImageURL)
	assert.Empty(t, *repo.updates[0].BaseImageURL)
}

func TestUpdateReplaceAdditionalImages(t *testing.T) {
	repo, gw := newFakes()
	co := NewCoordinator(repo, gw)

	oldURLs := []string{
		"https://cdn.test/gamma/products/a.jpg",
		"https://cdn.test/gamma/products/b.jpg",
	}
	id := seedProduct(repo, models.Product{
		Name:                "Wire Pin",
		ProductType:         "wire-pin",
		AdditionalImageURLs: oldURLs,
		IsActive:            true,
	})

	p, err := co.Update(context.Background(), id, dto.UpdateProductInput{
		AdditionalImages: []dto.FileUpload{*fileUpload("c.jpg")},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"https://cdn.test/gamma/products/c.jpg"}, p.AdditionalImageURLs)
	assert.ElementsMatch(t, oldURLs, gw.deleted)
}

func TestUpdateClearAdditionalImages(t *testing.T) {
	repo, gw := newFakes()
	co := NewCoordinator(repo, gw)

	oldURLs := []string{"https://cdn.test/gamma/products/a.jpg"}
	id := seedProduct(repo, models.Product{
		Name:                "Wire Pin",
		ProductType:         "wire-pin",
		AdditionalImageURLs: oldURLs,
		IsActive:            true,
	})

	p, err := co.Update(context.Background(), id, dto.UpdateProductInput{ClearAdditionalImages: true})
	require.NoError(t, err)

	assert.Empty(t, p.AdditionalImageURLs)
	assert.ElementsMatch(t, oldURLs, gw.deleted)
}

func TestUpdatePersistFailureReclaimsOnlyFreshUploads(t *testing.T) {
	repo, gw := newFakes()
	co := NewCoordinator(repo, gw)

	oldURL := "https://cdn.test/gamma/products/old-front.jpg"
	id := seedProduct(repo, models.Product{
		Name:         "Wire Pin",
		ProductType:  "wire-pin",
		BaseImageURL: oldURL,
		IsActive:     true,
	})
	repo.updateErr = fmt.Errorf("update product: write timeout")

	_, err := co.Update(context.Background(), id, dto.UpdateProductInput{
		BaseImage: fileUpload("new-front.jpg"),
	})
	require.Error(t, err)

	// The fresh upload is reclaimed; the still-referenced old object is not.
	assert.Equal(t, []string{"https://cdn.test/gamma/products/new-front.jpg"}, gw.deleted)
}

func TestDeleteProduct(t *testing.T) {
	repo, gw := newFakes()
	co := NewCoordinator(repo, gw)

	baseURL := "https://cdn.test/gamma/products/front.jpg"
	sideURL := "https://cdn.test/gamma/products/side.jpg"
	// One image delete failing must not block the document delete.
	gw.deleteErr[sideURL] = &storage.OperationError{Op: "delete", Key: "products/side.jpg", Err: fmt.Errorf("permission denied")}

	id := seedProduct(repo, models.Product{
		Name:                "Wire Pin",
		ProductType:         "wire-pin",
		BaseImageURL:        baseURL,
		AdditionalImageURLs: []string{sideURL},
		IsActive:            true,
	})

	err := co.Delete(context.Background(), id)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{baseURL, sideURL}, gw.deleted)
	assert.Equal(t, []string{id}, repo.deleted)
	assert.NotContains(t, repo.products, id)
}

func TestDeleteProductNotFound(t *testing.T) {
	repo, gw := newFakes()
	co := NewCoordinator(repo, gw)

	err := co.Delete(context.Background(), bson.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Empty(t, gw.deleted)
}

func TestDeleteProductStorageUnavailable(t *testing.T) {
	repo, gw := newFakes()
	gw.available = false
	co := NewCoordinator(repo, gw)

	id := seedProduct(repo, models.Product{
		Name:         "Wire Pin",
		ProductType:  "wire-pin",
		BaseImageURL: "https://cdn.test/gamma/products/front.jpg",
		IsActive:     true,
	})

	err := co.Delete(context.Background(), id)
	require.NoError(t, err)
	assert.NotContains(t, repo.products, id)
}
