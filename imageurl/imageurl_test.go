package imageurl

import (
	"errors"
	"testing"
)

func TestSanityCDNURL(t *testing.T) {
	b := SanityCDN{ProjectID: "abc123", Dataset: "production"}
	tests := []struct {
		name string
		ref  Ref
		want string
	}{
		{
			name: "matching aspect ratio needs no rect",
			ref:  Ref{Asset: "image-Tb9Ew8CXIwaY6R1kjMvI0uRR-1200x800-png"},
			want: "https://cdn.sanity.io/images/abc123/production/Tb9Ew8CXIwaY6R1kjMvI0uRR-1200x800.png?w=600&h=400",
		},
		{
			name: "portrait source is cut top and bottom around the centre",
			ref:  Ref{Asset: "image-Tb9Ew8CXIwaY6R1kjMvI0uRR-2000x3000-jpg"},
			want: "https://cdn.sanity.io/images/abc123/production/Tb9Ew8CXIwaY6R1kjMvI0uRR-2000x3000.jpg?rect=0,834,2000,1333&w=600&h=400",
		},
		{
			name: "wide source is cut from the sides",
			ref:  Ref{Asset: "image-wide-3000x1000-webp"},
			want: "https://cdn.sanity.io/images/abc123/production/wide-3000x1000.webp?rect=750,0,1500,1000&w=600&h=400",
		},
		{
			name: "hotspot on the left edge pins the rect left",
			ref: Ref{
				Asset:   "image-wide-3000x1000-webp",
				Hotspot: &Hotspot{X: 0.1, Y: 0.5, Width: 0.2, Height: 1},
			},
			want: "https://cdn.sanity.io/images/abc123/production/wide-3000x1000.webp?rect=0,0,1500,1000&w=600&h=400",
		},
		{
			name: "crop is respected",
			ref: Ref{
				Asset: "image-crop-1200x800-jpg",
				Crop:  &Crop{Left: 0.5},
			},
			want: "https://cdn.sanity.io/images/abc123/production/crop-1200x800.jpg?rect=600,200,600,400&w=600&h=400",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.URL(tt.ref, 600, 400)
			if err != nil {
				t.Fatalf("URL: %v", err)
			}
			if got != tt.want {
				t.Errorf("URL =\n  %s\nwant\n  %s", got, tt.want)
			}
		})
	}
}

func TestSanityCDNURLInvalidRef(t *testing.T) {
	b := SanityCDN{ProjectID: "abc123", Dataset: "production"}
	for _, asset := range []string{"", "file-abc-pdf", "image-abc-12x-jpg", "image-abc-0x10-jpg"} {
		if _, err := b.URL(Ref{Asset: asset}, 600, 400); !errors.Is(err, ErrInvalidRef) {
			t.Errorf("URL(%q) err = %v, want ErrInvalidRef", asset, err)
		}
	}
}

func TestSanityCDNCustomBase(t *testing.T) {
	b := SanityCDN{ProjectID: "p", Dataset: "staging", BaseURL: "https://img.example.com/"}
	got, err := b.URL(Ref{Asset: "image-x-600x400-png"}, 600, 400)
	if err != nil {
		t.Fatal(err)
	}
	want := "https://img.example.com/images/p/staging/x-600x400.png?w=600&h=400"
	if got != want {
		t.Errorf("URL = %s, want %s", got, want)
	}
}
