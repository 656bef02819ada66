package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"escpos-print/internal/discovery"
	"escpos-print/internal/printer"
)

// errorKinds is checked in order; the first match names the response.
// Transport failures wrap several kinds, so the specific ones come first.
var errorKinds = []struct {
	err    error
	status int
	kind   string
}{
	{printer.ErrMissingArguments, http.StatusBadRequest, "MISSING_ARGUMENTS"},
	{printer.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{printer.ErrEncoding, http.StatusUnprocessableEntity, "ENCODING_ERROR"},
	{printer.ErrBarcodeSize, http.StatusUnprocessableEntity, "BARCODE_SIZE_ERROR"},
	{printer.ErrBarcodeContent, http.StatusUnprocessableEntity, "BARCODE_CONTENT_ERROR"},
	{printer.ErrQRCode, http.StatusUnprocessableEntity, "QR_CODE_ERROR"},
	{printer.ErrTimeout, http.StatusGatewayTimeout, "TIMEOUT"},
	{printer.ErrConnectionFailed, http.StatusBadGateway, "CONNECTION_FAILED"},
	{printer.ErrIO, http.StatusInternalServerError, "IO_ERROR"},
	{discovery.ErrScanInProgress, http.StatusConflict, "SCAN_IN_PROGRESS"},
	{discovery.ErrNotSupported, http.StatusNotImplemented, "NOT_SUPPORTED"},
	{printer.ErrNotSupported, http.StatusNotImplemented, "NOT_SUPPORTED"},
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func classify(err error) (int, string) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.status, k.kind
		}
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// respondError writes err as an ErrorResponse and records it on the context
func respondError(c *gin.Context, err error) {
	status, kind := classify(err)
	_ = c.Error(err)
	if status >= http.StatusInternalServerError {
		requestLogger(c).Error("request failed", zap.String("kind", kind), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Success: false, Error: kind, Message: err.Error()})
}

func respondOK(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}
