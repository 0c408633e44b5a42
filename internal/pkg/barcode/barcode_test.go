package barcode

import (
	"Hydro/internal/api/config"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidChecksum(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidChecksum("012000001314"))
	assert.True(t, ValidChecksum("5449000000996"))
	assert.True(t, ValidChecksum("96385074"))
	assert.False(t, ValidChecksum("012000001315"))
	assert.False(t, ValidChecksum("12345"))
	assert.False(t, ValidChecksum("01200000131a"))
}

func TestExtractCode(t *testing.T) {
	t.Parallel()

	code, ok := ExtractCode("NET 16.9 FL OZ\n0 12000 00131 4\nPepsiCo")
	require.True(t, ok)
	assert.Equal(t, "012000001314", code)

	_, ok = ExtractCode("NUTRITION FACTS 110 CALORIES")
	assert.False(t, ok)
}

func TestDetector_Detect(t *testing.T) {
	t.Parallel()

	var gotKey string
	var gotBody annotateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"responses":[{"textAnnotations":[{"description":"Coca-Cola\n5449000000996"}]}]}`))
	}))
	defer srv.Close()

	d := NewDetector(config.VisionConfig{Endpoint: srv.URL, ApiKey: "k", TimeoutSec: 2})
	code, err := d.Detect(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "5449000000996", code)
	assert.Equal(t, "k", gotKey)
	require.Len(t, gotBody.Requests, 1)
	assert.Equal(t, "TEXT_DETECTION", gotBody.Requests[0].Features[0].Type)
	assert.Equal(t, "aW1n", gotBody.Requests[0].Image.Content)
}

func TestDetector_NotFoundAndUnconfigured(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"responses":[{"textAnnotations":[{"description":"SPRING WATER"}]}]}`))
	}))
	defer srv.Close()

	_, err := NewDetector(config.VisionConfig{Endpoint: srv.URL}).Detect(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = NewDetector(config.VisionConfig{}).Detect(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestProductLookup(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/v2/product/075720000814.json" {
			_, _ = w.Write([]byte(`{"status":1,"product":{"product_name":"Natural Spring Water","brands":"Poland Spring","quantity":"24 x 16.9 fl oz"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":0}`))
	}))
	defer srv.Close()

	p := NewProductLookup(config.OpenFoodFactsConfig{Enable: true, BaseURL: srv.URL, TimeoutSec: 2})
	hint, ok := p.Lookup(context.Background(), "075720000814")
	require.True(t, ok)
	assert.Equal(t, "Poland Spring Natural Spring Water 24 x 16.9 fl oz", hint)

	_, ok = p.Lookup(context.Background(), "000000000000")
	assert.False(t, ok)

	disabled := NewProductLookup(config.OpenFoodFactsConfig{Enable: false, BaseURL: srv.URL})
	_, ok = disabled.Lookup(context.Background(), "075720000814")
	assert.False(t, ok)
}
