package kernel_test

import (
	"testing"

	"github.com/konnected/identity/pkg/kernel"
)

func TestPaginationOptions_Normalize(t *testing.T) {
	cases := []struct {
		in   kernel.PaginationOptions
		want kernel.PaginationOptions
	}{
		{kernel.PaginationOptions{}, kernel.PaginationOptions{Page: 1, PageSize: 50}},
		{kernel.PaginationOptions{Page: -3, PageSize: 0}, kernel.PaginationOptions{Page: 1, PageSize: 50}},
		{kernel.PaginationOptions{Page: 2, PageSize: 25}, kernel.PaginationOptions{Page: 2, PageSize: 25}},
		{kernel.PaginationOptions{Page: 1, PageSize: 1000}, kernel.PaginationOptions{Page: 1, PageSize: 200}},
	}
	for _, tc := range cases {
		if got := tc.in.Normalize(); got != tc.want {
			t.Errorf("Normalize(%+v) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestPaginationOptions_Offset(t *testing.T) {
	opts := kernel.PaginationOptions{Page: 3, PageSize: 20}
	if got := opts.Offset(); got != 40 {
		t.Fatalf("Offset() = %d, want 40", got)
	}
}

func TestNewPaginated(t *testing.T) {
	page := kernel.NewPaginated([]string{"a", "b"}, 1, 2, 5)
	if page.Page.Pages != 3 {
		t.Fatalf("expected 3 pages, got %d", page.Page.Pages)
	}
	if page.Page.Total != 5 || page.Page.Number != 1 || page.Page.Size != 2 {
		t.Fatalf("unexpected page meta: %+v", page.Page)
	}
	if len(page.Items) != 2 {
		t.Fatalf("unexpected items: %v", page.Items)
	}
}
