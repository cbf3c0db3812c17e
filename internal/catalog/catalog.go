// Package catalog provides the client for the external field-inference
// service: given detected text boxes from a scanned form, it returns the
// ordered list of fillable fields.
//
// The core treats the returned catalog as already validated and ordered;
// the ad hoc scanning of raw recognizer output lives entirely behind this
// boundary and is never re-implemented elsewhere.
package catalog

import (
	"context"

	"github.com/speak2fill/speak2fill/internal/form"
)

// TextBox is one detected text region from the external recognizer.
type TextBox struct {
	Text  string    `json:"text"`
	BBox  form.BBox `json:"bbox"`
	Score float64   `json:"score"`
}

// Builder turns detected text boxes into an ordered field catalog.
type Builder interface {
	// BuildCatalog returns the ordered, validated field list for one form
	// image. Field ids are assigned here and are stable for the catalog's
	// lifetime.
	BuildCatalog(ctx context.Context, boxes []TextBox, imageWidth, imageHeight int) ([]form.FormField, error)

	// Warmup issues a minimal request so the first real call does not pay
	// cold-start latency. Best-effort: callers log failures and move on.
	Warmup(ctx context.Context) error
}
