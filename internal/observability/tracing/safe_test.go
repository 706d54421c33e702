package tracing

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesDropsBarcodes(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/scan"),
		attribute.String("barcode1", "ABC123"),
		attribute.String("barcode2", "XYZ789"),
	)
	assert.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("http.route"), attrs[0].Key)
}

func TestSafeError(t *testing.T) {
	assert.Nil(t, SafeError(nil))
	assert.EqualError(t, SafeError(errors.New("first\nsecond")), "first")
	assert.Len(t, SafeError(errors.New(strings.Repeat("x", 1000))).Error(), 256)
}
