package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/emiliovps/ventia/internal/catalog"
	"github.com/emiliovps/ventia/internal/httpapi"
	"github.com/emiliovps/ventia/internal/interpret"
	"github.com/emiliovps/ventia/internal/sales"
	"github.com/emiliovps/ventia/pkg/provider/stt"
	sttmock "github.com/emiliovps/ventia/pkg/provider/stt/mock"
	"github.com/emiliovps/ventia/pkg/provider/tts"
	ttsmock "github.com/emiliovps/ventia/pkg/provider/tts/mock"
)

// env bundles the stores behind a test server so assertions can reach
// around the HTTP layer.
type env struct {
	ts       *httptest.Server
	products *catalog.MemStore
	sales    *sales.Service
}

func newEnv(t *testing.T, opts ...httpapi.Option) *env {
	t.Helper()

	products := catalog.NewMemStore()
	ctx := context.Background()
	for _, p := range []catalog.Product{
		{ID: "p-onigiri", Name: "Onigiri", Price: 5},
		{ID: "p-inca", Name: "Inca Kola 500ml", Price: 3.5},
		{ID: "p-empanada", Name: "Empanada de carne", Price: 2.5},
	} {
		if _, err := products.Create(ctx, p); err != nil {
			t.Fatalf("seed product %q: %v", p.Name, err)
		}
	}

	resolver := interpret.NewResolver(catalog.NewLookup(products))
	interpreter := interpret.New(resolver)

	salesSvc := sales.NewService(sales.NewMemStore(), products)

	srv := httpapi.New(interpreter, products, salesSvc, opts...)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)

	return &env{ts: ts, products: products, sales: salesSvc}
}

// postJSON posts body as JSON and decodes the response into out (when
// non-nil), returning the status code.
func (e *env) postJSON(t *testing.T, path string, body, out any) int {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(e.ts.URL+path, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func (e *env) getJSON(t *testing.T, path string, out any) int {
	t.Helper()
	resp, err := http.Get(e.ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

// ─── /nlp/interpret ──────────────────────────────────────────────────────────

func TestInterpret_AutoBindsExactProduct(t *testing.T) {
	e := newEnv(t)

	var res interpret.Result
	status := e.postJSON(t, "/nlp/interpret", map[string]any{
		"text": "vende dos onigiri con yape",
	}, &res)

	if status != http.StatusOK {
		t.Fatalf("status = %d, want %d", status, http.StatusOK)
	}
	if res.Intent != interpret.IntentCreateSale {
		t.Errorf("intent = %q, want %q", res.Intent, interpret.IntentCreateSale)
	}
	if res.NeedsConfirmation {
		t.Errorf("needs_confirmation = true, want false; notes: %v", res.Notes)
	}
	if got := res.Entities["product_id"]; got != "p-onigiri" {
		t.Errorf("product_id = %v, want p-onigiri", got)
	}
	if got := res.Entities["quantity"]; got != float64(2) {
		t.Errorf("quantity = %v (%T), want 2", got, got)
	}
	if got := res.Entities["payment_method"]; got != "Yape" {
		t.Errorf("payment_method = %v, want Yape", got)
	}
}

func TestInterpret_EmptyText(t *testing.T) {
	e := newEnv(t)
	status := e.postJSON(t, "/nlp/interpret", map[string]any{"text": ""}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", status, http.StatusBadRequest)
	}
}

func TestInterpret_CandidateShapes(t *testing.T) {
	e := newEnv(t)

	// All three accepted shapes in one request.
	var res interpret.Result
	status := e.postJSON(t, "/nlp/interpret", map[string]any{
		"text": "vende una torta de chocolate",
		"candidates": []any{
			"Torta de chocolate",
			map[string]string{"id": "c-2", "name": "Torta helada"},
			[]string{"c-3", "Tortilla"},
		},
	}, &res)

	if status != http.StatusOK {
		t.Fatalf("status = %d, want %d", status, http.StatusOK)
	}
	if len(res.Candidates) == 0 {
		t.Fatal("no candidates returned")
	}
	if res.Candidates[0].Name != "Torta de chocolate" {
		t.Errorf("top candidate = %q, want the exact local match", res.Candidates[0].Name)
	}
}

func TestInterpret_MalformedCandidate(t *testing.T) {
	e := newEnv(t)
	status := e.postJSON(t, "/nlp/interpret", map[string]any{
		"text":       "vende algo",
		"candidates": []any{42},
	}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", status, http.StatusBadRequest)
	}
}

func TestInterpret_UnknownFieldRejected(t *testing.T) {
	e := newEnv(t)
	status := e.postJSON(t, "/nlp/interpret", map[string]any{
		"text":   "vende dos onigiri",
		"extras": true,
	}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", status, http.StatusBadRequest)
	}
}

// ─── /nlp/sale ───────────────────────────────────────────────────────────────

func TestVoiceSale_RecordsAutoBoundSale(t *testing.T) {
	e := newEnv(t)

	var out struct {
		Sale   sales.Sale       `json:"sale"`
		Result interpret.Result `json:"result"`
	}
	status := e.postJSON(t, "/nlp/sale", map[string]any{
		"text": "vende dos onigiri con yape",
	}, &out)

	if status != http.StatusCreated {
		t.Fatalf("status = %d, want %d", status, http.StatusCreated)
	}
	if out.Sale.ProductID != "p-onigiri" {
		t.Errorf("product_id = %q, want p-onigiri", out.Sale.ProductID)
	}
	if out.Sale.Quantity != 2 {
		t.Errorf("quantity = %d, want 2", out.Sale.Quantity)
	}
	if out.Sale.Total != 10 {
		t.Errorf("total = %v, want 10 (2 x catalog price 5)", out.Sale.Total)
	}
	if out.Sale.PaymentMethod != "Yape" {
		t.Errorf("payment_method = %q, want Yape", out.Sale.PaymentMethod)
	}

	// The sale must be queryable afterwards.
	got, err := e.sales.Get(context.Background(), out.Sale.ID)
	if err != nil {
		t.Fatalf("Get recorded sale: %v", err)
	}
	if got.ProductName != "Onigiri" {
		t.Errorf("product_name = %q, want Onigiri", got.ProductName)
	}
}

func TestVoiceSale_AmbiguousReturnsConflict(t *testing.T) {
	e := newEnv(t)

	var out struct {
		Error  string           `json:"error"`
		Result interpret.Result `json:"result"`
	}
	status := e.postJSON(t, "/nlp/sale", map[string]any{
		"text": "vende tres gaseosa",
	}, &out)

	if status != http.StatusConflict {
		t.Fatalf("status = %d, want %d", status, http.StatusConflict)
	}
	if !out.Result.NeedsConfirmation {
		t.Error("result.needs_confirmation = false, want true")
	}
}

func TestVoiceSale_NonSaleIntent(t *testing.T) {
	e := newEnv(t)
	status := e.postJSON(t, "/nlp/sale", map[string]any{
		"text": "que puedes hacer",
	}, nil)
	if status != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", status, http.StatusUnprocessableEntity)
	}
}

// ─── /nlp/tts ────────────────────────────────────────────────────────────────

func TestTTS_SynthesizesWithDefaultVoice(t *testing.T) {
	mock := &ttsmock.Provider{Audio: []byte("RIFF-fake-wav")}
	e := newEnv(t, httpapi.WithTTS(mock, tts.Voice{Name: "es_MX-ald-medium", Language: "es"}))

	resp, err := http.Post(e.ts.URL+"/nlp/tts", "application/json",
		strings.NewReader(`{"text":"vendiste dos onigiri"}`))
	if err != nil {
		t.Fatalf("POST /nlp/tts: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "audio/wav" {
		t.Errorf("Content-Type = %q, want audio/wav", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.Equal(body, mock.Audio) {
		t.Errorf("body = %q, want mock audio", body)
	}

	if len(mock.SynthesizeCalls) != 1 {
		t.Fatalf("synthesize calls = %d, want 1", len(mock.SynthesizeCalls))
	}
	if got := mock.SynthesizeCalls[0].Voice.Name; got != "es_MX-ald-medium" {
		t.Errorf("voice = %q, want the configured default", got)
	}
}

func TestTTS_RequestVoiceOverridesDefault(t *testing.T) {
	mock := &ttsmock.Provider{Audio: []byte("x")}
	e := newEnv(t, httpapi.WithTTS(mock, tts.Voice{Name: "default-voice"}))

	status := e.postJSON(t, "/nlp/tts", map[string]any{
		"text":  "hola",
		"voice": map[string]any{"name": "otra-voz", "speed": 1.5},
	}, nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want %d", status, http.StatusOK)
	}

	call := mock.SynthesizeCalls[0]
	if call.Voice.Name != "otra-voz" {
		t.Errorf("voice = %q, want otra-voz", call.Voice.Name)
	}
	if call.Voice.Speed != 1.5 {
		t.Errorf("speed = %v, want 1.5", call.Voice.Speed)
	}
}

func TestTTS_NotConfigured(t *testing.T) {
	e := newEnv(t)
	status := e.postJSON(t, "/nlp/tts", map[string]any{"text": "hola"}, nil)
	if status != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", status, http.StatusServiceUnavailable)
	}
}

// ─── /api/transcribe ─────────────────────────────────────────────────────────

func TestTranscribe_ReturnsTranscript(t *testing.T) {
	mock := &sttmock.Provider{
		TranscribeResult: stt.Transcript{
			Text:       "vende dos empanadas",
			IsFinal:    true,
			Confidence: 0.93,
			Language:   "es",
		},
	}
	e := newEnv(t, httpapi.WithSTT(mock))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("fake-pcm-bytes"))
	mw.WriteField("language", "es")
	mw.Close()

	resp, err := http.Post(e.ts.URL+"/api/transcribe", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("POST /api/transcribe: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, want %d (body: %s)", resp.StatusCode, http.StatusOK, body)
	}

	var out struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
		Language   string  `json:"language"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Text != "vende dos empanadas" {
		t.Errorf("text = %q, want the mock transcript", out.Text)
	}
	if out.Confidence != 0.93 {
		t.Errorf("confidence = %v, want 0.93", out.Confidence)
	}

	if len(mock.TranscribeCalls) != 1 {
		t.Fatalf("transcribe calls = %d, want 1", len(mock.TranscribeCalls))
	}
	if got := mock.TranscribeCalls[0].Cfg.Language; got != "es" {
		t.Errorf("language forwarded = %q, want es", got)
	}
}

func TestTranscribe_MissingFile(t *testing.T) {
	e := newEnv(t, httpapi.WithSTT(&sttmock.Provider{}))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("language", "es")
	mw.Close()

	resp, err := http.Post(e.ts.URL+"/api/transcribe", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestTranscribe_NotConfigured(t *testing.T) {
	e := newEnv(t)
	resp, err := http.Post(e.ts.URL+"/api/transcribe", "multipart/form-data", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}
}

// ─── Products CRUD ───────────────────────────────────────────────────────────

func TestProducts_CRUD(t *testing.T) {
	e := newEnv(t)

	var created catalog.Product
	status := e.postJSON(t, "/api/products", map[string]any{
		"name":  "Chicha morada 1L",
		"price": 6.5,
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("create status = %d, want %d", status, http.StatusCreated)
	}
	if created.ID == "" {
		t.Fatal("created product has no ID")
	}
	if created.Status != catalog.StatusActive {
		t.Errorf("status = %q, want default active", created.Status)
	}

	var got catalog.Product
	if s := e.getJSON(t, "/api/products/"+created.ID, &got); s != http.StatusOK {
		t.Fatalf("get status = %d, want %d", s, http.StatusOK)
	}
	if got.Name != "Chicha morada 1L" {
		t.Errorf("name = %q", got.Name)
	}

	// Update the price.
	req, _ := http.NewRequest(http.MethodPut, e.ts.URL+"/api/products/"+created.ID,
		strings.NewReader(`{"name":"Chicha morada 1L","price":7}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	var updated catalog.Product
	json.NewDecoder(resp.Body).Decode(&updated)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if updated.Price != 7 {
		t.Errorf("price after update = %v, want 7", updated.Price)
	}

	// Delete it.
	req, _ = http.NewRequest(http.MethodDelete, e.ts.URL+"/api/products/"+created.ID, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}

	if s := e.getJSON(t, "/api/products/"+created.ID, nil); s != http.StatusNotFound {
		t.Errorf("get after delete = %d, want %d", s, http.StatusNotFound)
	}
}

func TestProducts_ListWithLimit(t *testing.T) {
	e := newEnv(t)

	var list []catalog.Product
	if s := e.getJSON(t, "/api/products?limit=2", &list); s != http.StatusOK {
		t.Fatalf("status = %d, want %d", s, http.StatusOK)
	}
	if len(list) != 2 {
		t.Errorf("len(list) = %d, want 2", len(list))
	}
}

func TestProducts_InvalidStatusFilter(t *testing.T) {
	e := newEnv(t)
	if s := e.getJSON(t, "/api/products?status=bogus", nil); s != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", s, http.StatusBadRequest)
	}
}

// ─── Sales ───────────────────────────────────────────────────────────────────

func TestSales_CreateListSummary(t *testing.T) {
	e := newEnv(t)

	var first sales.Sale
	status := e.postJSON(t, "/api/sales", map[string]any{
		"product_id":     "p-inca",
		"quantity":       3,
		"payment_method": "Cash",
	}, &first)
	if status != http.StatusCreated {
		t.Fatalf("create status = %d, want %d", status, http.StatusCreated)
	}
	if first.Total != 10.5 {
		t.Errorf("total = %v, want 10.5 (3 x 3.5)", first.Total)
	}

	price := 4.0
	var second sales.Sale
	status = e.postJSON(t, "/api/sales", map[string]any{
		"product_id":     "p-empanada",
		"quantity":       2,
		"unit_price":     price,
		"payment_method": "Yape",
	}, &second)
	if status != http.StatusCreated {
		t.Fatalf("create status = %d, want %d", status, http.StatusCreated)
	}
	if second.UnitPrice != price {
		t.Errorf("unit_price = %v, want the explicit %v over the catalog price", second.UnitPrice, price)
	}

	var list []sales.Sale
	if s := e.getJSON(t, "/api/sales", &list); s != http.StatusOK {
		t.Fatalf("list status = %d", s)
	}
	if len(list) != 2 {
		t.Errorf("len(list) = %d, want 2", len(list))
	}

	var filtered []sales.Sale
	if s := e.getJSON(t, "/api/sales?product_id=p-inca", &filtered); s != http.StatusOK {
		t.Fatalf("filtered list status = %d", s)
	}
	if len(filtered) != 1 {
		t.Errorf("len(filtered) = %d, want 1", len(filtered))
	}

	var sum sales.Summary
	if s := e.getJSON(t, "/api/sales/summary", &sum); s != http.StatusOK {
		t.Fatalf("summary status = %d", s)
	}
	if sum.Count != 2 || sum.Units != 5 {
		t.Errorf("summary = %+v, want count 2, units 5", sum)
	}
	if sum.Revenue != 18.5 {
		t.Errorf("revenue = %v, want 18.5", sum.Revenue)
	}
}

func TestSales_UnknownProduct(t *testing.T) {
	e := newEnv(t)
	status := e.postJSON(t, "/api/sales", map[string]any{
		"product_id":     "nope",
		"quantity":       1,
		"payment_method": "Cash",
	}, nil)
	if status != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", status, http.StatusUnprocessableEntity)
	}
}

func TestSales_BadDateFilter(t *testing.T) {
	e := newEnv(t)
	if s := e.getJSON(t, "/api/sales?from=yesterday", nil); s != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", s, http.StatusBadRequest)
	}
}

func TestSales_DeleteNotFound(t *testing.T) {
	e := newEnv(t)
	req, _ := http.NewRequest(http.MethodDelete, e.ts.URL+"/api/sales/missing", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

// ─── Routing ─────────────────────────────────────────────────────────────────

func TestRoutes_MethodNotAllowed(t *testing.T) {
	e := newEnv(t)
	resp, err := http.Get(e.ts.URL + "/nlp/interpret")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
}

func TestRoutes_MetricsExposed(t *testing.T) {
	e := newEnv(t)
	resp, err := http.Get(e.ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}
