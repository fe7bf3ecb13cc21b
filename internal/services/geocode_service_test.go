package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lunaria/gallery-backend/internal/config"
)

func geocodeConfig(endpoint string) *config.Config {
	return &config.Config{
		GeocodeEndpoint:  endpoint,
		GeocodeTimeout:   2 * time.Second,
		GeocodeLanguage:  "zh-CN",
		GeocodeUserAgent: "gallery-backend-test/1.0",
	}
}

func TestReverseGeocode(t *testing.T) {
	var gotQuery map[string]string
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"name": "外滩",
			"display_name": "外滩, 黄浦区, 上海市, 中国",
			"address": {"city": "上海市", "country": "中国"}
		}`))
	}))
	defer server.Close()

	g := NewGeocodeService(geocodeConfig(server.URL))
	result := g.Reverse(context.Background(), 31.2304, 121.4737)

	if result == nil {
		t.Fatal("expected a result, got nil")
	}
	if result.City == nil || *result.City != "上海市" {
		t.Errorf("City = %v, want 上海市", result.City)
	}
	if result.Country == nil || *result.Country != "中国" {
		t.Errorf("Country = %v, want 中国", result.Country)
	}
	if result.LocationName == nil || *result.LocationName != "外滩" {
		t.Errorf("LocationName = %v, want 外滩", result.LocationName)
	}

	if gotQuery["format"] != "jsonv2" {
		t.Errorf("format = %q, want jsonv2", gotQuery["format"])
	}
	if gotQuery["accept-language"] != "zh-CN" {
		t.Errorf("accept-language = %q, want zh-CN", gotQuery["accept-language"])
	}
	if gotUA != "gallery-backend-test/1.0" {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestReverseGeocodeCityFallsBackToTown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"address": {"town": "乌镇", "country": "中国"}}`))
	}))
	defer server.Close()

	g := NewGeocodeService(geocodeConfig(server.URL))
	result := g.Reverse(context.Background(), 30.7451, 120.4906)

	if result == nil || result.City == nil || *result.City != "乌镇" {
		t.Fatalf("result = %+v, want City 乌镇", result)
	}
}

func TestReverseGeocodeServerErrorReturnsNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	g := NewGeocodeService(geocodeConfig(server.URL))
	if result := g.Reverse(context.Background(), 1, 1); result != nil {
		t.Errorf("expected nil on server error, got %+v", result)
	}
}

func TestReverseGeocodeTimeoutReturnsNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	cfg := geocodeConfig(server.URL)
	cfg.GeocodeTimeout = 20 * time.Millisecond
	g := NewGeocodeService(cfg)

	if result := g.Reverse(context.Background(), 1, 1); result != nil {
		t.Errorf("expected nil on timeout, got %+v", result)
	}
}

func TestReverseGeocodeEmptyResponseReturnsNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"address": {}}`))
	}))
	defer server.Close()

	g := NewGeocodeService(geocodeConfig(server.URL))
	if result := g.Reverse(context.Background(), 1, 1); result != nil {
		t.Errorf("expected nil for empty payload, got %+v", result)
	}
}
