package dto

import "io"

// RawDimensionEntry is one submitted dimension row exactly as it arrived on
// the wire. Both values are untrimmed form strings; validation and numeric
// parsing happen later in one place.
type RawDimensionEntry struct {
	DimensionName string
	BasePrice     string
}

// FileUpload is an accepted multipart file handed to the write path.
// Open returns a fresh reader over the file contents and may be called from
// another goroutine.
type FileUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// CreateProductInput collects everything a create request submitted. GSTRate
// and IsActive are nil when the form omitted them and defaults apply.
type CreateProductInput struct {
	Name             string
	Description      string
	ProductType      string
	NewProductType   string
	GSTRate          *float64
	IsActive         *bool
	Dimensions       []RawDimensionEntry
	BaseImage        *FileUpload
	AdditionalImages []FileUpload
}

// UpdateProductInput collects the fields an update request actually
// submitted. Nil means the field was absent and keeps its stored value.
// A nil Dimensions slice means "not submitted"; a non-nil one replaces the
// stored list wholesale. ClearBaseImage and ClearAdditionalImages are set
// when the request submitted the matching field with an empty value.
type UpdateProductInput struct {
	Name                  *string
	Description           *string
	ProductType           *string
	NewProductType        string
	GSTRate               *float64
	IsActive              *bool
	Dimensions            []RawDimensionEntry
	BaseImage             *FileUpload
	AdditionalImages      []FileUpload
	ClearBaseImage        bool
	ClearAdditionalImages bool
}
