package handler

import (
	"testing"

	"github.com/google/uuid"

	"fieldops_backend/platform/apperr"
)

func TestValidateEvidenceKey(t *testing.T) {
	visitID := uuid.New()
	otherID := uuid.New()

	tests := []struct {
		name    string
		fileKey string
		wantOK  bool
	}{
		{"key under the visit folder", visitID.String() + "/photo_ab12cd34.jpg", true},
		{"nested key under the visit folder", visitID.String() + "/before/panel_ab12cd34.png", true},
		{"empty key", "", false},
		{"key for another visit", otherID.String() + "/photo.jpg", false},
		{"bare file name", "photo.jpg", false},
		{"path traversal", visitID.String() + "/../" + otherID.String() + "/photo.jpg", false},
		{"absolute path", "/" + visitID.String() + "/photo.jpg", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateEvidenceKey(visitID, tt.fileKey)
			if tt.wantOK {
				if err != nil {
					t.Fatalf("validateEvidenceKey(%q) = %v, want nil", tt.fileKey, err)
				}
				return
			}
			if err == nil {
				t.Fatalf("validateEvidenceKey(%q) = nil, want error", tt.fileKey)
			}
			if !apperr.Is(err, apperr.KindBadRequest) {
				t.Fatalf("validateEvidenceKey(%q) kind = %v, want bad request", tt.fileKey, err)
			}
		})
	}
}
