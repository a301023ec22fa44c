package main

import "testing"

func TestIsLocalAPIURL(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"http://127.0.0.1:7400", true},
		{"http://localhost:7400", true},
		{"http://[::1]:7400", true},
		{"https://abc123.execute-api.us-east-1.amazonaws.com/prod", false},
		{"http://10.0.0.5:7400", false},
		{"127.0.0.1:7400", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isLocalAPIURL(tt.raw); got != tt.want {
			t.Fatalf("isLocalAPIURL(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
