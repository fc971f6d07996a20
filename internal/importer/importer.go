// Package importer updates inventory levels from merchant-uploaded CSV
// files, row at a time. Rows are independent: one bad row never aborts the
// rest of the file.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/itadmit/quickshop3-sub006/internal/domain"
	r "github.com/itadmit/quickshop3-sub006/internal/repository"
)

type UpdateMode string

const (
	ModeReplace UpdateMode = "replace"
	ModeAdd     UpdateMode = "add"
)

// InventoryStore is what the importer needs from persistence.
type InventoryStore interface {
	ResolveVariantByID(ctx context.Context, storeID, variantID int64) (*r.ResolvedVariant, error)
	ResolveVariantBySKU(ctx context.Context, storeID int64, sku string) (*r.ResolvedVariant, error)
	ResolveVariantByBarcode(ctx context.Context, storeID int64, barcode string) (*r.ResolvedVariant, error)
	ResolveVariantByProductID(ctx context.Context, storeID, productID int64) (*r.ResolvedVariant, error)
	SetVariantQuantity(ctx context.Context, variantID int64, quantity int) error
	UpsertVariantInventory(ctx context.Context, variantID int64, available int, committed *int, locationID *int64) (bool, error)
	InsertSystemLog(ctx context.Context, storeID int64, level, source, message string, contextJSON []byte) error
	EnqueueEvent(ctx context.Context, eventType, aggregateID string, payload []byte) error
}

type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

type RowSkip struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

type UpdatedItem struct {
	VariantID    int64  `json:"variant_id"`
	ProductTitle string `json:"product_title"`
	OldAvailable int    `json:"old_available"`
	NewAvailable int    `json:"new_available"`
}

type CreatedItem struct {
	VariantID    int64  `json:"variant_id"`
	ProductTitle string `json:"product_title"`
	Available    int    `json:"available"`
}

type Summary struct {
	TotalProcessed int `json:"total_processed"`
	Successful     int `json:"successful"`
	Failed         int `json:"failed"`
	Skipped        int `json:"skipped"`
}

// Result mirrors the structured response the dashboard import dialog shows.
type Result struct {
	Updated        int           `json:"updated"`
	Created        int           `json:"created"`
	Errors         int           `json:"errors"`
	Skipped        int           `json:"skipped"`
	ErrorDetails   []RowError    `json:"errorDetails"`
	SkippedDetails []RowSkip     `json:"skippedDetails"`
	Summary        Summary       `json:"summary"`
	UpdatedItems   []UpdatedItem `json:"updated_items"`
	CreatedItems   []CreatedItem `json:"created_items"`
}

type Importer struct {
	store  InventoryStore
	logger *slog.Logger
}

func New(store InventoryStore, logger *slog.Logger) *Importer {
	return &Importer{store: store, logger: logger}
}

// Run processes the whole file. The returned error covers only file-level
// problems (bad header, too few lines); row-level failures land in the
// result.
func (im *Importer) Run(ctx context.Context, storeID, userID int64, csvText string, mode UpdateMode) (*Result, error) {
	if mode != ModeAdd {
		mode = ModeReplace
	}

	rows, rowErrors, err := parseCSV(csvText)
	if err != nil {
		return nil, err
	}

	result := &Result{ErrorDetails: rowErrors}
	for _, rw := range rows {
		im.processRow(ctx, storeID, userID, rw, mode, result)
	}

	result.Updated = len(result.UpdatedItems)
	result.Created = len(result.CreatedItems)
	result.Errors = len(result.ErrorDetails)
	result.Skipped = len(result.SkippedDetails)
	result.Summary = Summary{
		TotalProcessed: result.Updated + result.Created + result.Errors + result.Skipped,
		Successful:     result.Updated + result.Created,
		Failed:         result.Errors,
		Skipped:        result.Skipped,
	}
	return result, nil
}

func (im *Importer) processRow(ctx context.Context, storeID, userID int64, rw row, mode UpdateMode, result *Result) {
	variant, rowErr, identifier := im.resolve(ctx, storeID, rw)
	if rowErr != nil {
		result.ErrorDetails = append(result.ErrorDetails, *rowErr)
		return
	}
	if variant == nil {
		result.SkippedDetails = append(result.SkippedDetails, RowSkip{
			Row:    rw.Line,
			Reason: fmt.Sprintf("Variant not found (%s)", identifier),
		})
		return
	}

	availableStr := rw.Fields["available"]
	if availableStr == "" {
		result.ErrorDetails = append(result.ErrorDetails, RowError{Row: rw.Line, Error: "Available quantity is required"})
		return
	}
	available, err := strconv.Atoi(availableStr)
	if err != nil || available < 0 {
		result.ErrorDetails = append(result.ErrorDetails, RowError{
			Row:   rw.Line,
			Error: fmt.Sprintf("Invalid available quantity: %s", availableStr),
		})
		return
	}

	var committed *int
	if s := rw.Fields["committed"]; s != "" {
		c, err := strconv.Atoi(s)
		if err != nil || c < 0 {
			result.ErrorDetails = append(result.ErrorDetails, RowError{
				Row:   rw.Line,
				Error: fmt.Sprintf("Invalid committed quantity: %s", s),
			})
			return
		}
		committed = &c
	}

	var locationID *int64
	if s := rw.Fields["location_id"]; s != "" {
		if id, err := strconv.ParseInt(s, 10, 64); err == nil {
			locationID = &id
		}
	}

	newAvailable := available
	if mode == ModeAdd {
		newAvailable = variant.Available + available
	}

	if err := im.store.SetVariantQuantity(ctx, variant.VariantID, newAvailable); err != nil {
		result.ErrorDetails = append(result.ErrorDetails, RowError{
			Row:   rw.Line,
			Error: fmt.Sprintf("Failed to update variant %d", variant.VariantID),
		})
		return
	}

	im.logHistory(ctx, storeID, userID, variant, newAvailable)
	im.emitUpdated(ctx, storeID, variant, newAvailable)

	created, err := im.store.UpsertVariantInventory(ctx, variant.VariantID, newAvailable, committed, locationID)
	if err != nil {
		result.ErrorDetails = append(result.ErrorDetails, RowError{Row: rw.Line, Error: err.Error()})
		return
	}

	if created {
		result.CreatedItems = append(result.CreatedItems, CreatedItem{
			VariantID:    variant.VariantID,
			ProductTitle: variant.ProductTitle,
			Available:    newAvailable,
		})
	} else {
		result.UpdatedItems = append(result.UpdatedItems, UpdatedItem{
			VariantID:    variant.VariantID,
			ProductTitle: variant.ProductTitle,
			OldAvailable: variant.Available,
			NewAvailable: newAvailable,
		})
	}
}

// resolve finds the variant by identifier priority:
// variant_id > sku > barcode > product_id.
func (im *Importer) resolve(ctx context.Context, storeID int64, rw row) (*r.ResolvedVariant, *RowError, string) {
	switch {
	case rw.Fields["variant_id"] != "":
		raw := rw.Fields["variant_id"]
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, &RowError{Row: rw.Line, Error: fmt.Sprintf("Invalid variant_id: %s", raw)}, ""
		}
		return im.lookup(ctx, rw, "Variant ID: "+raw, func() (*r.ResolvedVariant, error) {
			return im.store.ResolveVariantByID(ctx, storeID, id)
		})

	case rw.Fields["sku"] != "":
		sku := rw.Fields["sku"]
		return im.lookup(ctx, rw, "SKU: "+sku, func() (*r.ResolvedVariant, error) {
			return im.store.ResolveVariantBySKU(ctx, storeID, sku)
		})

	case rw.Fields["barcode"] != "":
		barcode := rw.Fields["barcode"]
		return im.lookup(ctx, rw, "Barcode: "+barcode, func() (*r.ResolvedVariant, error) {
			return im.store.ResolveVariantByBarcode(ctx, storeID, barcode)
		})

	case rw.Fields["product_id"] != "":
		raw := rw.Fields["product_id"]
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, &RowError{Row: rw.Line, Error: fmt.Sprintf("Invalid product_id: %s", raw)}, ""
		}
		return im.lookup(ctx, rw, "Product ID: "+raw, func() (*r.ResolvedVariant, error) {
			return im.store.ResolveVariantByProductID(ctx, storeID, id)
		})

	default:
		return nil, nil, "no identifier"
	}
}

func (im *Importer) lookup(_ context.Context, rw row, identifier string, fn func() (*r.ResolvedVariant, error)) (*r.ResolvedVariant, *RowError, string) {
	v, err := fn()
	if errors.Is(err, r.ErrVariantNotFound) {
		return nil, nil, identifier
	}
	if err != nil {
		return nil, &RowError{Row: rw.Line, Error: err.Error()}, ""
	}
	return v, nil, identifier
}

// logHistory records the import in system_logs. History rows are written even
// when the quantity did not change, so imports stay auditable.
func (im *Importer) logHistory(ctx context.Context, storeID, userID int64, variant *r.ResolvedVariant, newAvailable int) {
	change := newAvailable - variant.Available
	contextData, err := json.Marshal(map[string]any{
		"variant_id":   variant.VariantID,
		"old_quantity": variant.Available,
		"new_quantity": newAvailable,
		"change":       change,
		"reason":       "csv_import",
		"user_id":      userID,
	})
	if err != nil {
		im.logger.Warn("marshal inventory history", "error", err)
		return
	}

	sign := ""
	if change > 0 {
		sign = "+"
	}
	message := fmt.Sprintf("ייבוא מלאי: %s%d יחידות (%d → %d)", sign, change, variant.Available, newAvailable)
	if err := im.store.InsertSystemLog(ctx, storeID, "info", "inventory", message, contextData); err != nil {
		im.logger.Warn("insert inventory history", "variant_id", variant.VariantID, "error", err)
	}
}

func (im *Importer) emitUpdated(ctx context.Context, storeID int64, variant *r.ResolvedVariant, newAvailable int) {
	ev := domain.InventoryUpdatedEvent{
		VariantID:   variant.VariantID,
		StoreID:     storeID,
		Quantity:    newAvailable,
		OldQuantity: variant.Available,
		Change:      newAvailable - variant.Available,
		Reason:      "csv_import",
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		im.logger.Warn("marshal inventory event", "error", err)
		return
	}
	if err := im.store.EnqueueEvent(ctx, domain.EventInventoryUpdated, strconv.FormatInt(variant.VariantID, 10), payload); err != nil {
		im.logger.Warn("enqueue inventory event", "variant_id", variant.VariantID, "error", err)
	}
}

func errColumnMismatch(expected, got int) string {
	return fmt.Sprintf("Column count mismatch (expected %d, got %d)", expected, got)
}
