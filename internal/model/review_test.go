package model

import "testing"

func TestTemplateReviewEntry_Validate(t *testing.T) {
	tests := []struct {
		name    string
		errMsg  string
		entry   TemplateReviewEntry
		wantErr bool
	}{
		{
			name: "valid pending entry",
			entry: TemplateReviewEntry{
				TemplateID: "ut-lease-v3",
				SourceKind: SourceBill,
				ExternalID: "HB 204",
				Status:     ReviewPending,
				Priority:   10,
			},
			wantErr: false,
		},
		{
			name: "missing template id",
			entry: TemplateReviewEntry{
				SourceKind: SourceBill,
				ExternalID: "HB 204",
				Status:     ReviewPending,
			},
			wantErr: true,
			errMsg:  "template id is required",
		},
		{
			name: "invalid source kind",
			entry: TemplateReviewEntry{
				TemplateID: "ut-lease-v3",
				SourceKind: "statute",
				ExternalID: "HB 204",
				Status:     ReviewPending,
			},
			wantErr: true,
			errMsg:  `invalid source kind: "statute"`,
		},
		{
			name: "missing external id",
			entry: TemplateReviewEntry{
				TemplateID: "ut-lease-v3",
				SourceKind: SourceCase,
				Status:     ReviewPending,
			},
			wantErr: true,
			errMsg:  "external id is required",
		},
		{
			name: "invalid status",
			entry: TemplateReviewEntry{
				TemplateID: "ut-lease-v3",
				SourceKind: SourceCase,
				ExternalID: "cluster-99",
				Status:     "done",
			},
			wantErr: true,
			errMsg:  `invalid review status: "done"`,
		},
		{
			name: "negative priority",
			entry: TemplateReviewEntry{
				TemplateID: "ut-lease-v3",
				SourceKind: SourceBill,
				ExternalID: "HB 204",
				Status:     ReviewPending,
				Priority:   -1,
			},
			wantErr: true,
			errMsg:  "priority must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if err.Error() != tt.errMsg {
					t.Errorf("error = %q, want %q", err.Error(), tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestReviewStatus_Terminal(t *testing.T) {
	if ReviewPending.Terminal() {
		t.Error("pending must not be terminal")
	}
	if !ReviewApproved.Terminal() || !ReviewRejected.Terminal() {
		t.Error("approved and rejected must be terminal")
	}
}
