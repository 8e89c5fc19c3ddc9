package fortnite

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetShopFlattensEntries(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/shop/br", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"entries":[
			{"finalPrice":1500,"layout":{"name":"Featured"},"items":[
				{"id":"CID_001","name":"Raven","type":{"displayValue":"Outfit"},"rarity":{"displayValue":"Legendary"}},
				{"id":"BID_002","name":"Iron Cage","type":{"displayValue":"Back Bling"},"rarity":{"displayValue":"Legendary"}}
			]},
			{"finalPrice":800,"layout":{"name":"Daily"},"items":[
				{"id":"CID_001","name":"Raven","type":{"displayValue":"Outfit"},"rarity":{"displayValue":"Legendary"}}
			]}
		]}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := NewService()
	s.apiBase = srv.URL

	entries, err := s.GetShop()
	if err != nil {
		t.Fatalf("GetShop: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 unique items, got %d", len(entries))
	}
	if entries[0].ItemID != "CID_001" || entries[0].VbucksPrice != 1500 || entries[0].Section != "Featured" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Type != "Back Bling" {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
}

func TestGetShopUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewService()
	s.apiBase = srv.URL

	if _, err := s.GetShop(); err == nil {
		t.Fatal("expected error for 503 response")
	}
}
