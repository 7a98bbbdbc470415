package pagination

import "testing"

func TestDefaults(t *testing.T) {
	tests := []struct {
		name         string
		in           PageRequest
		wantPage     int
		wantPageSize int
	}{
		{"zero_values", PageRequest{}, 1, DefaultPageSize},
		{"kept", PageRequest{Page: 3, PageSize: 50}, 3, 50},
		{"oversized", PageRequest{Page: 1, PageSize: 1000}, 1, MaxPageSize},
		{"negative_page", PageRequest{Page: -2, PageSize: 10}, 1, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.in
			req.Defaults()
			if req.Page != tt.wantPage || req.PageSize != tt.wantPageSize {
				t.Errorf("expected page=%d size=%d, got page=%d size=%d", tt.wantPage, tt.wantPageSize, req.Page, req.PageSize)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	req := PageRequest{Page: 3, PageSize: 20}
	if got := req.Offset(); got != 40 {
		t.Errorf("expected offset 40, got %d", got)
	}
}

func TestNewPageResponse(t *testing.T) {
	resp := NewPageResponse([]string{"a", "b"}, 1, 2, 5)
	if resp.TotalPages != 3 {
		t.Errorf("expected 3 pages, got %d", resp.TotalPages)
	}

	empty := Empty[int](PageRequest{Page: 1, PageSize: 20})
	if empty.Data == nil || len(empty.Data) != 0 || empty.TotalPages != 0 {
		t.Errorf("unexpected empty page %+v", empty)
	}
}
