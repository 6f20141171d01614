package s3blob

import "testing"

func TestWithScheme(t *testing.T) {
	tests := []struct {
		endpoint string
		useSSL   bool
		want     string
	}{
		{"http://localhost:9000", true, "http://localhost:9000"},
		{"https://e2.example.com", false, "https://e2.example.com"},
		{"minio:9000", false, "http://minio:9000"},
		{"localhost:9000", true, "https://localhost:9000"},
		{"s3.example.com", true, "https://s3.example.com"},
	}
	for _, tt := range tests {
		if got := withScheme(tt.endpoint, tt.useSSL); got != tt.want {
			t.Errorf("withScheme(%q, %v) = %q, want %q", tt.endpoint, tt.useSSL, got, tt.want)
		}
	}
}
