package controllers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"github.com/satyam-chhatrala/gamma-ortho/catalog"
	"github.com/satyam-chhatrala/gamma-ortho/dto"
	"github.com/satyam-chhatrala/gamma-ortho/models"
	"github.com/satyam-chhatrala/gamma-ortho/storage"
	"github.com/satyam-chhatrala/gamma-ortho/utils"
)

// dimensionField matches the bracket notation dimension rows arrive in,
// e.g. dimensions[0][dimensionName] and dimensions[0][basePrice].
var dimensionField = regexp.MustCompile(`^dimensions\[(\d+)\]\[(dimensionName|basePrice)\]$`)

// collectDimensionEntries normalizes bracket-indexed form fields into ordered
// rows. Row order follows the submitted index and index gaps are tolerated.
// submitted is false when no dimension field appeared at all, which an update
// must treat differently from an empty list.
func collectDimensionEntries(values map[string][]string) (entries []dto.RawDimensionEntry, submitted bool) {
	rows := map[int]*dto.RawDimensionEntry{}
	indexes := make([]int, 0)

	for key, vals := range values {
		m := dimensionField.FindStringSubmatch(key)
		if m == nil || len(vals) == 0 {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		row := rows[idx]
		if row == nil {
			row = &dto.RawDimensionEntry{}
			rows[idx] = row
			indexes = append(indexes, idx)
		}
		if m[2] == "dimensionName" {
			row.DimensionName = vals[0]
		} else {
			row.BasePrice = vals[0]
		}
	}

	if len(rows) == 0 {
		return nil, false
	}

	sort.Ints(indexes)
	entries = make([]dto.RawDimensionEntry, 0, len(indexes))
	for _, idx := range indexes {
		entries = append(entries, *rows[idx])
	}
	return entries, true
}

// acceptUpload screens one file. Files that are not images or exceed the
// size cap are dropped with a warning rather than failing the request.
func acceptUpload(filter *utils.ImageFilter, fh *multipart.FileHeader) *dto.FileUpload {
	contentType, err := filter.Accept(fh)
	if err != nil {
		zap.S().Warnw("upload rejected", "file", fh.Filename, "reason", err.Error())
		return nil
	}
	return &dto.FileUpload{
		Filename:    fh.Filename,
		ContentType: contentType,
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// collectFiles reads the baseImage and additionalImages slots. Extra files
// in the baseImage slot are ignored; too many additional images fail the
// request because silently dropping some would surprise the admin.
func collectFiles(form *multipart.Form, filter *utils.ImageFilter) (*dto.FileUpload, []dto.FileUpload, error) {
	var base *dto.FileUpload
	if headers := form.File["baseImage"]; len(headers) > 0 {
		base = acceptUpload(filter, headers[0])
	}

	headers := form.File["additionalImages"]
	maxImages := utils.EnvInt("MAX_ADDITIONAL_IMAGES", 5)
	if len(headers) > maxImages {
		return nil, nil, &catalog.ValidationError{
			Field:   "additionalImages",
			Message: "at most " + strconv.Itoa(maxImages) + " additional images are allowed",
		}
	}

	additional := make([]dto.FileUpload, 0, len(headers))
	for _, fh := range headers {
		if up := acceptUpload(filter, fh); up != nil {
			additional = append(additional, *up)
		}
	}
	return base, additional, nil
}

// isClearValue reports whether a submitted image field value asks for the
// stored value to be cleared. Admin clients send the key with an empty value
// (or an explicit "null") to drop the image.
func isClearValue(v string) bool {
	t := strings.TrimSpace(v)
	return t == "" || strings.EqualFold(t, "null")
}

// respondError maps write-path errors onto HTTP statuses: invalid input 400,
// unknown id 404, storage not configured 503, failed remote storage call
// 502, anything else 500.
func respondError(c *gin.Context, err error) {
	var ve *catalog.ValidationError
	var oe *storage.OperationError

	switch {
	case errors.As(err, &ve):
		body := gin.H{"error": ve.Message}
		if ve.Field != "" {
			body["field"] = ve.Field
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, catalog.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
	case errors.Is(err, storage.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "object storage is not configured"})
	case errors.As(err, &oe):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func AddProduct(coordinator *catalog.Coordinator, filter *utils.ImageFilter) gin.HandlerFunc {
	return func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
			return
		}

		input := dto.CreateProductInput{
			Name:           c.PostForm("name"),
			Description:    c.PostForm("description"),
			ProductType:    c.PostForm("productType"),
			NewProductType: c.PostForm("newProductType"),
		}

		if v, ok := c.GetPostForm("gstRate"); ok && strings.TrimSpace(v) != "" {
			rate, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "gstRate must be a number", "field": "gstRate"})
				return
			}
			input.GSTRate = &rate
		}
		if v, ok := c.GetPostForm("isActive"); ok && strings.TrimSpace(v) != "" {
			active, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "isActive must be a boolean", "field": "isActive"})
				return
			}
			input.IsActive = &active
		}

		input.Dimensions, _ = collectDimensionEntries(form.Value)

		base, additional, err := collectFiles(form, filter)
		if err != nil {
			respondError(c, err)
			return
		}
		input.BaseImage = base
		input.AdditionalImages = additional

		product, err := coordinator.Create(c.Request.Context(), input)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, product)
	}
}

func UpdateProduct(coordinator *catalog.Coordinator, filter *utils.ImageFilter) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if _, err := bson.ObjectIDFromHex(id); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
			return
		}

		var input dto.UpdateProductInput

		if v, ok := c.GetPostForm("name"); ok {
			input.Name = &v
		}
		if v, ok := c.GetPostForm("description"); ok {
			input.Description = &v
		}
		if v, ok := c.GetPostForm("productType"); ok {
			input.ProductType = &v
			input.NewProductType = c.PostForm("newProductType")
		}
		if v, ok := c.GetPostForm("gstRate"); ok && strings.TrimSpace(v) != "" {
			rate, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "gstRate must be a number", "field": "gstRate"})
				return
			}
			input.GSTRate = &rate
		}
		if v, ok := c.GetPostForm("isActive"); ok && strings.TrimSpace(v) != "" {
			active, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "isActive must be a boolean", "field": "isActive"})
				return
			}
			input.IsActive = &active
		}

		if entries, ok := collectDimensionEntries(c.Request.PostForm); ok {
			input.Dimensions = entries
		}

		// Submitting an image field with an empty value clears it.
		if v, ok := c.GetPostForm("baseImageUrl"); ok && isClearValue(v) {
			input.ClearBaseImage = true
		}
		if v, ok := c.GetPostForm("additionalImageUrls"); ok && isClearValue(v) {
			input.ClearAdditionalImages = true
		}

		if form, err := c.MultipartForm(); err == nil && form != nil {
			base, additional, err := collectFiles(form, filter)
			if err != nil {
				respondError(c, err)
				return
			}
			input.BaseImage = base
			input.AdditionalImages = additional
		}

		product, err := coordinator.Update(c.Request.Context(), id, input)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, product)
	}
}

func DeleteProduct(coordinator *catalog.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if _, err := bson.ObjectIDFromHex(id); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
			return
		}

		if err := coordinator.Delete(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
	}
}

// GetProducts lists every product for the admin surface, newest first. An
// optional q parameter switches to a text search over names and
// descriptions.
func GetProducts(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var (
			products []models.Product
			err      error
		)
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			products, err = repo.Search(ctx, q)
		} else {
			products, err = repo.FindAll(ctx)
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"items": products,
			"total": len(products),
		})
	}
}

func GetProduct(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if _, err := bson.ObjectIDFromHex(id); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
			return
		}

		product, err := repo.FindByID(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, product)
	}
}
