package server

import "testing"

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"pending", "pending", false},
		{"PENDING", "pending", false},
		{" in-progress ", "in-progress", false},
		{"completed", "completed", false},
		{"in_progress", "", true},
		{"done", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := normalizeStatus(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("normalizeStatus(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("normalizeStatus(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizePriority(t *testing.T) {
	if got, err := normalizePriority("High"); err != nil || got != "high" {
		t.Fatalf("normalizePriority(High) = %q, %v", got, err)
	}
	_, err := normalizePriority("urgent")
	if err == nil {
		t.Fatal("expected error for urgent")
	}
	if kind, code := classifyError(err); kind != kindValidation || code != ErrCodeInvalidPriority {
		t.Fatalf("unexpected classification: %s %d", kind, code)
	}
}

func TestNormalizeDueDate(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"2024-12-31", "2024-12-31", false},
		{"2024-12-31T10:00:00Z", "2024-12-31T10:00:00Z", false},
		{" 2024-01-02 ", "2024-01-02", false},
		{"", "", false},
		{"tomorrow", "", true},
		{"2024-13-01", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := normalizeDueDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("normalizeDueDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("normalizeDueDate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestAttachmentKey(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"a.txt", "tasks/t1/f1.txt"},
		{"archive.tar.gz", "tasks/t1/f1.gz"},
		{"README", "tasks/t1/f1"},
		{"trailing.", "tasks/t1/f1"},
		{"weird.t/xt", "tasks/t1/f1"},
		{"photo.JPG", "tasks/t1/f1.JPG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := attachmentKey("t1", "f1", tt.name); got != tt.want {
				t.Fatalf("attachmentKey(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}
