package http

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/itadmit/quickshop3-sub006/internal/importer"
)

// maxImportSize caps uploaded CSV files at 10MB.
const maxImportSize = 10 << 20

type InventoryHandler struct {
	importer *importer.Importer
	logger   *slog.Logger
}

func NewInventoryHandler(imp *importer.Importer, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{importer: imp, logger: logger}
}

// Import accepts a multipart CSV upload under the "file" field and an
// optional "update_mode" of replace (default) or add.
func (h *InventoryHandler) Import(w http.ResponseWriter, req *http.Request) {
	user := userFrom(req)

	if err := req.ParseMultipartForm(maxImportSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_upload", "expected multipart form data")
		return
	}

	file, _, err := req.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing_file", "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImportSize))
	if err != nil {
		respondError(w, http.StatusBadRequest, "unreadable_file", "could not read uploaded file")
		return
	}

	mode := importer.UpdateMode(req.FormValue("update_mode"))

	result, err := h.importer.Run(req.Context(), user.StoreID, user.ID, string(data), mode)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_csv", err.Error())
		return
	}

	h.logger.Info("inventory import finished",
		"store_id", user.StoreID,
		"updated", result.Updated,
		"created", result.Created,
		"errors", result.Errors,
		"skipped", result.Skipped)
	respondJSON(w, http.StatusOK, result)
}
