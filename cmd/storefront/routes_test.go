package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	etagcache "github.com/tranhuy105/KTPM-20242-sub001"
	"github.com/tranhuy105/KTPM-20242-sub001/catalog"
	"github.com/tranhuy105/KTPM-20242-sub001/pkg/fingerprint"

	"github.com/rs/zerolog"
)

const mugID = "c94a8e17-2d6b-4f3a-8e05-1a9b7c6d5e33"

func newTestServer(t *testing.T, config etagcache.Config) http.Handler {
	t.Helper()
	products, err := catalog.NewSQLiteCatalog(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { products.Close() })
	if err := products.Seed(context.Background(), seedProducts); err != nil {
		t.Fatal(err)
	}
	logger := zerolog.Nop()
	hasher := fingerprint.Default()
	config.Logger = &logger
	config.Fingerprinter = hasher
	if config.Rules == nil {
		config.Rules = defaultRules
	}
	return newRouter(products, etagcache.New(config), hasher, logger)
}

func do(h http.Handler, method, target, body string, header ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestProductRevalidation(t *testing.T) {
	h := newTestServer(t, etagcache.Config{})

	first := do(h, "GET", "/products/"+mugID, "")
	if first.Code != http.StatusOK {
		t.Fatalf("Status code is %d", first.Code)
	}
	h1 := first.Header().Get("ETag")
	if h1 == "" {
		t.Fatal("No ETag")
	}
	if cc := first.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Fatalf("Cache-Control is %s", cc)
	}
	var p catalog.Product
	if err := json.Unmarshal(first.Body.Bytes(), &p); err != nil || p.Name != "Travel mug" {
		t.Fatalf("Body is %s", first.Body.String())
	}

	// unchanged
	if again := do(h, "GET", "/products/"+mugID, ""); again.Header().Get("ETag") != h1 || again.Body.String() != first.Body.String() {
		t.Fatalf("Second response differs: %s", again.Body.String())
	}
	rec := do(h, "GET", "/products/"+mugID, "", "If-None-Match", h1)
	if rec.Code != http.StatusNotModified || rec.Body.Len() != 0 {
		t.Fatalf("Response is %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("ETag") != h1 || rec.Header().Get("Cache-Control") != "no-cache" {
		t.Fatalf("304 headers are %v", rec.Header())
	}
	if rec.Header().Get("Content-Type") != "" || rec.Header().Get("Content-Length") != "" {
		t.Fatalf("304 carries content headers %v", rec.Header())
	}

	// changed
	if rec := do(h, "PUT", "/admin/products/"+mugID, `{"name":"Travel mug","priceCents":1900,"stock":25}`); rec.Code != http.StatusOK {
		t.Fatalf("Update status code is %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(h, "GET", "/products/"+mugID, "", "If-None-Match", h1)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"priceCents":1900`) {
		t.Fatalf("Response is %d %s", rec.Code, rec.Body.String())
	}
	if h2 := rec.Header().Get("ETag"); h2 == "" || h2 == h1 {
		t.Fatalf("ETag is %s after change from %s", h2, h1)
	}
}

func TestListRevalidation(t *testing.T) {
	h := newTestServer(t, etagcache.Config{})
	h1 := do(h, "GET", "/products", "").Header().Get("ETag")

	if rec := do(h, "GET", "/products", "", "If-None-Match", h1); rec.Code != http.StatusNotModified {
		t.Fatalf("Status code is %d", rec.Code)
	}
	created := do(h, "POST", "/admin/products", `{"name":"Milk jug","priceCents":1500,"stock":7}`)
	if created.Code != http.StatusCreated || !strings.HasPrefix(created.Header().Get("Location"), "/products/") {
		t.Fatalf("Create response is %d %v", created.Code, created.Header())
	}
	if created.Header().Get("ETag") != "" {
		t.Fatal("POST response carries ETag")
	}
	rec := do(h, "GET", "/products", "", "If-None-Match", h1)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Milk jug") {
		t.Fatalf("Response is %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(h, "GET", "/products/", "", "If-None-Match", rec.Header().Get("ETag")); rec.Code != http.StatusNotModified {
		t.Fatalf("Trailing slash status code is %d", rec.Code)
	}
}

func TestNotFoundUntagged(t *testing.T) {
	h := newTestServer(t, etagcache.Config{})
	rec := do(h, "GET", "/products/missing", "", "If-None-Match", "*")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Status code is %d", rec.Code)
	}
	if etag := rec.Header().Get("ETag"); etag != "" {
		t.Fatalf("404 carries ETag %s", etag)
	}
}

func TestWildcardOnProduct(t *testing.T) {
	h := newTestServer(t, etagcache.Config{})
	if rec := do(h, "GET", "/products/"+mugID, "", "If-None-Match", "*"); rec.Code != http.StatusNotModified {
		t.Fatalf("Status code is %d", rec.Code)
	}
}

func TestHeadProduct(t *testing.T) {
	h := newTestServer(t, etagcache.Config{})
	h1 := do(h, "GET", "/products/"+mugID, "").Header().Get("ETag")
	rec := do(h, "HEAD", "/products/"+mugID, "")
	if rec.Code != http.StatusOK || rec.Header().Get("ETag") != h1 {
		t.Fatalf("HEAD response is %d with ETag %s", rec.Code, rec.Header().Get("ETag"))
	}
}

func TestLostUpdate(t *testing.T) {
	h := newTestServer(t, etagcache.Config{})
	h1 := do(h, "GET", "/products/"+mugID, "").Header().Get("ETag")
	update := `{"name":"Travel mug","priceCents":2100,"stock":20}`

	if rec := do(h, "PUT", "/admin/products/"+mugID, update, "If-Match", h1); rec.Code != http.StatusOK {
		t.Fatalf("Status code is %d: %s", rec.Code, rec.Body.String())
	}
	// h1 is stale now
	if rec := do(h, "PUT", "/admin/products/"+mugID, update, "If-Match", h1); rec.Code != http.StatusPreconditionFailed {
		t.Fatalf("Status code is %d", rec.Code)
	}
	if rec := do(h, "PUT", "/admin/products/missing", update, "If-Match", "*"); rec.Code != http.StatusPreconditionFailed {
		t.Fatalf("Status code is %d", rec.Code)
	}
}

func TestConcurrentLostUpdate(t *testing.T) {
	h := newTestServer(t, etagcache.Config{})
	h1 := do(h, "GET", "/products/"+mugID, "").Header().Get("ETag")

	const admins = 6
	codes := make(chan int, admins)
	var wg sync.WaitGroup
	for i := 0; i < admins; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			update := fmt.Sprintf(`{"name":"Travel mug","priceCents":%d,"stock":20}`, 2000+i)
			codes <- do(h, "PUT", "/admin/products/"+mugID, update, "If-Match", h1).Code
		}()
	}
	wg.Wait()
	close(codes)

	counts := map[int]int{}
	for code := range codes {
		counts[code]++
	}
	if counts[http.StatusOK] != 1 || counts[http.StatusPreconditionFailed] != admins-1 {
		t.Fatalf("Status codes are %v", counts)
	}
}

func TestWeakTagsFailIfMatch(t *testing.T) {
	h := newTestServer(t, etagcache.Config{Weak: true})
	etag := do(h, "GET", "/products/"+mugID, "").Header().Get("ETag")
	if !strings.HasPrefix(etag, "W/") {
		t.Fatalf("ETag is %s", etag)
	}
	update := `{"name":"Travel mug","priceCents":2100,"stock":20}`
	if rec := do(h, "PUT", "/admin/products/"+mugID, update, "If-Match", etag); rec.Code != http.StatusPreconditionFailed {
		t.Fatalf("Status code is %d", rec.Code)
	}
	// the strong form of the same tag still matches
	if rec := do(h, "PUT", "/admin/products/"+mugID, update, "If-Match", strings.TrimPrefix(etag, "W/")); rec.Code != http.StatusOK {
		t.Fatalf("Status code is %d", rec.Code)
	}
}

func TestWeakIfMatchWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	warnWeakIfMatch(Config{Weak: true}, &logger)
	if !strings.Contains(buf.String(), "If-Match") {
		t.Fatalf("Log is %q", buf.String())
	}
	buf.Reset()
	warnWeakIfMatch(Config{}, &logger)
	if buf.Len() != 0 {
		t.Fatalf("Log is %q", buf.String())
	}
}

func TestInvalidProduct(t *testing.T) {
	h := newTestServer(t, etagcache.Config{})
	for _, body := range []string{`{"name":`, `{"priceCents":100}`} {
		if rec := do(h, "POST", "/admin/products", body); rec.Code != http.StatusBadRequest {
			t.Fatalf("Status code for %s is %d", body, rec.Code)
		}
	}
}

func TestDeleteProduct(t *testing.T) {
	h := newTestServer(t, etagcache.Config{})
	if rec := do(h, "DELETE", "/admin/products/"+mugID, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("Status code is %d", rec.Code)
	}
	if rec := do(h, "GET", "/products/"+mugID, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("Status code is %d", rec.Code)
	}
	if rec := do(h, "DELETE", "/admin/products/"+mugID, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("Status code is %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, etagcache.Config{})
	etag := do(h, "GET", "/products", "").Header().Get("ETag")
	do(h, "GET", "/products", "", "If-None-Match", etag)

	rec := do(h, "GET", "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Status code is %d", rec.Code)
	}
	if rec.Header().Get("ETag") != "" {
		t.Fatal("Metrics response carries ETag")
	}
	for _, want := range []string{
		`etag_validator_responses_total{outcome="not_modified"}`,
		`etag_validator_responses_total{outcome="tagged"}`,
		"etag_validator_hashed_bytes_total",
	} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Fatalf("Metrics lack %s", want)
		}
	}
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t, etagcache.Config{})
	rec := do(h, "GET", "/healthz", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" || rec.Header().Get("ETag") != "" {
		t.Fatalf("Response is %d %s", rec.Code, rec.Body.String())
	}
}

func TestDisabledValidator(t *testing.T) {
	h := newTestServer(t, etagcache.Config{Disabled: true})
	if rec := do(h, "GET", "/products", "", "If-None-Match", "*"); rec.Code != http.StatusOK || rec.Header().Get("ETag") != "" {
		t.Fatalf("Response is %d with ETag %s", rec.Code, rec.Header().Get("ETag"))
	}
}
