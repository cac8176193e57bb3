package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Pagination
	}{
		{"defaults", "", Pagination{Page: 1, Limit: 20, Offset: 0}},
		{"explicit window", "page=3&limit=10", Pagination{Page: 3, Limit: 10, Offset: 20}},
		{"zero page falls back", "page=0&limit=10", Pagination{Page: 1, Limit: 10, Offset: 0}},
		{"negative limit falls back", "limit=-5", Pagination{Page: 1, Limit: 20, Offset: 0}},
		{"oversized limit falls back", "limit=500", Pagination{Page: 1, Limit: 20, Offset: 0}},
		{"garbage falls back", "page=abc&limit=xyz", Pagination{Page: 1, Limit: 20, Offset: 0}},
	}

	app := fiber.New()
	var got Pagination
	app.Get("/items", func(c *fiber.Ctx) error {
		got = ParsePagination(c)
		return nil
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/items?"+tt.query, nil)
			if _, err := app.Test(req, -1); err != nil {
				t.Fatalf("request: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParsePagination(%q) = %+v, want %+v", tt.query, got, tt.want)
			}
		})
	}
}
