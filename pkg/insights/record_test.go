package insights

import (
	"testing"
	"time"
)

func TestRecordGetPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		record   Record
		key      string
		expected any
	}{
		{
			name: "Top level wins over metrics",
			record: Record{
				"followers": float64(10),
				"metrics":   map[string]any{"followers": float64(20)},
			},
			key:      "followers",
			expected: float64(10),
		},
		{
			name: "Metrics wins over dimensions",
			record: Record{
				"metrics":    map[string]any{"followers": float64(20)},
				"dimensions": map[string]any{"followers": float64(30)},
			},
			key:      "followers",
			expected: float64(20),
		},
		{
			name: "Dimensions wins over post",
			record: Record{
				"dimensions": map[string]any{"gender": "F"},
				"post":       map[string]any{"gender": "M"},
			},
			key:      "gender",
			expected: "F",
		},
		{
			name: "Post wins over profile",
			record: Record{
				"post":    map[string]any{"permalink": "https://a"},
				"profile": map[string]any{"permalink": "https://b"},
			},
			key:      "permalink",
			expected: "https://a",
		},
		{
			name:     "Profile sub-object as last resort",
			record:   Record{"profile": map[string]any{"username": "acme"}},
			key:      "username",
			expected: "acme",
		},
		{
			name:     "Absent everywhere yields nil",
			record:   Record{"metrics": map[string]any{}},
			key:      "followers",
			expected: nil,
		},
		{
			name:     "Non-object sub-key is skipped",
			record:   Record{"post": "not-a-map"},
			key:      "post_id",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.record.Get(tt.key)
			if got != tt.expected {
				t.Errorf("Get(%q) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

func TestRecordFirst(t *testing.T) {
	rec := Record{"reach_total": float64(5)}
	if got := rec.First("reach", "reach_total"); got != float64(5) {
		t.Errorf("First() = %v, want 5", got)
	}
	if got := rec.First("missing", "also_missing"); got != nil {
		t.Errorf("First() = %v, want nil", got)
	}
}

func TestAsInt(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected *int64
	}{
		{name: "JSON number", input: float64(12), expected: int64Ptr(12)},
		{name: "Numeric string", input: "12", expected: int64Ptr(12)},
		{name: "Padded numeric string", input: " 12 ", expected: int64Ptr(12)},
		{name: "Float truncates", input: float64(12.9), expected: int64Ptr(12)},
		{name: "Non-numeric string", input: "abc", expected: nil},
		{name: "Decimal string", input: "12.5", expected: nil},
		{name: "Nil", input: nil, expected: nil},
		{name: "Object", input: map[string]any{"x": 1}, expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AsInt(tt.input)
			if (got == nil) != (tt.expected == nil) {
				t.Fatalf("AsInt(%v) = %v, want %v", tt.input, got, tt.expected)
			}
			if got != nil && *got != *tt.expected {
				t.Errorf("AsInt(%v) = %d, want %d", tt.input, *got, *tt.expected)
			}
		})
	}
}

func TestAsTime(t *testing.T) {
	got := AsTime("2025-03-01T10:30:00Z")
	if got == nil {
		t.Fatal("expected parsed time, got nil")
	}
	want := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("AsTime() = %v, want %v", got, want)
	}

	if AsTime("not a date") != nil {
		t.Error("expected nil for unparseable input")
	}
	if AsTime(nil) != nil {
		t.Error("expected nil for nil input")
	}
	if AsTime("") != nil {
		t.Error("expected nil for empty string")
	}

	passthrough := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if got := AsTime(passthrough); got == nil || !got.Equal(passthrough) {
		t.Errorf("AsTime(time.Time) = %v, want %v", got, passthrough)
	}
}

func TestAsString(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{name: "String passthrough", input: "abc", expected: "abc"},
		{name: "Nil yields empty", input: nil, expected: ""},
		{name: "Whole number keeps integer form", input: float64(12345678901), expected: "12345678901"},
		{name: "Int", input: 7, expected: "7"},
		{name: "Object yields empty", input: map[string]any{"id": "x"}, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AsString(tt.input); got != tt.expected {
				t.Errorf("AsString(%v) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestProfileDescriptorFallbacks(t *testing.T) {
	tests := []struct {
		name         string
		profile      Record
		wantID       string
		wantUsername string
		wantPlatform string
	}{
		{
			name:         "Canonical keys",
			profile:      Record{"id": "p1", "username": "acme", "platform": "instagram"},
			wantID:       "p1",
			wantUsername: "acme",
			wantPlatform: "instagram",
		},
		{
			name:         "Alternate keys",
			profile:      Record{"uid": "p2", "handle": "beta", "platform_type": "instagram"},
			wantID:       "p2",
			wantUsername: "beta",
			wantPlatform: "instagram",
		},
		{
			name:         "Numeric id",
			profile:      Record{"profile_id": float64(42), "name": "gamma"},
			wantID:       "42",
			wantUsername: "gamma",
			wantPlatform: "",
		},
		{
			name:         "Missing id",
			profile:      Record{"username": "nobody"},
			wantID:       "",
			wantUsername: "nobody",
			wantPlatform: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ProfileID(tt.profile); got != tt.wantID {
				t.Errorf("ProfileID() = %q, want %q", got, tt.wantID)
			}
			if got := ProfileUsername(tt.profile); got != tt.wantUsername {
				t.Errorf("ProfileUsername() = %q, want %q", got, tt.wantUsername)
			}
			if got := ProfilePlatform(tt.profile); got != tt.wantPlatform {
				t.Errorf("ProfilePlatform() = %q, want %q", got, tt.wantPlatform)
			}
		})
	}
}

func int64Ptr(n int64) *int64 {
	return &n
}
