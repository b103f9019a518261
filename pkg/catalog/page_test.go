package catalog

import "testing"

func TestPage_HasNext(t *testing.T) {
	tests := []struct {
		name string
		page *Page
		want bool
	}{
		{name: "nil page", page: nil, want: false},
		{name: "first of three", page: &Page{Number: 1, TotalPages: 3}, want: true},
		{name: "last of three", page: &Page{Number: 3, TotalPages: 3}, want: false},
		{name: "single page", page: &Page{Number: 1, TotalPages: 1}, want: false},
		{name: "no results", page: &Page{Number: 1, TotalPages: 0}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.page.HasNext(); got != tt.want {
				t.Errorf("HasNext() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPage_NextNumber(t *testing.T) {
	p := &Page{Number: 2, TotalPages: 5}
	if got := p.NextNumber(); got != 3 {
		t.Errorf("NextNumber() = %d, want 3", got)
	}
}
