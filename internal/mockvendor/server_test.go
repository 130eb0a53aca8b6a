package mockvendor

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestMockRoutesServeVendorPayloads(t *testing.T) {
	srv := New(Options{SlowVendorDelay: time.Millisecond}, zerolog.Nop())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	cases := []struct {
		path string
		keys []string
	}{
		{"/mock/vendor-a/sku-1", []string{"price", "availability", "stock"}},
		{"/mock/vendor-b/sku-1", []string{"amount", "inStock", "stock"}},
		{"/mock/vendor-c/sku-1", []string{"cost", "available", "quantity"}},
	}

	for _, tc := range cases {
		resp, err := ts.Client().Get(ts.URL + tc.path)
		if err != nil {
			t.Fatalf("%s: %v", tc.path, err)
		}
		if resp.StatusCode != 200 {
			t.Fatalf("%s: status %d", tc.path, resp.StatusCode)
		}
		var body map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("%s: decode: %v", tc.path, err)
		}
		resp.Body.Close()
		for _, key := range tc.keys {
			if _, ok := body[key]; !ok {
				t.Fatalf("%s: missing key %q in %#v", tc.path, key, body)
			}
		}
	}
}

func TestMockFailureRateAlwaysFails(t *testing.T) {
	srv := New(Options{SlowVendorDelay: time.Millisecond, FailureRate: 1}, zerolog.Nop())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/mock/vendor-a/sku-1")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 500 {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}
