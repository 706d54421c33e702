package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	scandomain "github.com/smallbiznis/scanverify/internal/scan/domain"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{name: "nil", err: nil, wantStatus: http.StatusInternalServerError, wantType: "internal_error"},
		{name: "barcode1", err: scandomain.ErrInvalidBarcode1, wantStatus: http.StatusBadRequest, wantType: "validation_error"},
		{name: "wrapped barcode2", err: fmt.Errorf("x: %w", scandomain.ErrInvalidBarcode2), wantStatus: http.StatusBadRequest, wantType: "validation_error"},
		{name: "bad body", err: invalidRequestError(), wantStatus: http.StatusBadRequest, wantType: "validation_error"},
		{name: "storage", err: scandomain.NewStorageError("op", errors.New("boom"), false), wantStatus: http.StatusInternalServerError, wantType: "internal_error"},
		{name: "storage unavailable", err: unavailableStorageError(), wantStatus: http.StatusInternalServerError, wantType: "internal_error"},
		{name: "rate limited", err: ErrRateLimited, wantStatus: http.StatusTooManyRequests, wantType: "rate_limited"},
		{name: "unavailable", err: ErrServiceUnavailable, wantStatus: http.StatusServiceUnavailable, wantType: "service_unavailable"},
		{name: "unknown", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantType: "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(tc.err)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantType, payload.Type)
		})
	}
}

func TestMapErrorBarcodeField(t *testing.T) {
	_, payload := mapError(scandomain.ErrInvalidBarcode2)
	if assert.Len(t, payload.Errors, 1) {
		assert.Equal(t, "barcode2", payload.Errors[0].Field)
		assert.Equal(t, "invalid_barcode2", payload.Errors[0].Code)
		assert.Equal(t, "barcode2 is required", payload.Errors[0].Message)
	}
	assert.Equal(t, "Both barcodes must be provided.", payload.Message)
}

func TestClassifyErrorForLog(t *testing.T) {
	cases := []struct {
		err      error
		wantType string
		wantCode string
	}{
		{scandomain.ErrInvalidBarcode1, "validation_error", "invalid_barcode1"},
		{invalidRequestError(), "validation_error", "invalid_request"},
		{scandomain.NewStorageError("op", context.DeadlineExceeded, true), "storage_error", "storage_timeout"},
		{scandomain.NewStorageError("op", errors.New("x"), false), "storage_error", "storage_error"},
		{unavailableStorageError(), "storage_error", "storage_unavailable"},
		{ErrRateLimited, "rate_limited", "rate_limited"},
		{errors.New("x"), "internal_error", "internal_error"},
	}

	for _, tc := range cases {
		errType, errCode := classifyErrorForLog(tc.err)
		assert.Equal(t, tc.wantType, errType, tc.err.Error())
		assert.Equal(t, tc.wantCode, errCode, tc.err.Error())
	}
}

func unavailableStorageError() error {
	err := scandomain.NewStorageError("record_scan", errors.New("sql: database is closed"), false)
	err.Unavailable = true
	return err
}
