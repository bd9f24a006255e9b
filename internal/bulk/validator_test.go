package bulk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ledgerlens/ledgerlens/internal/common"
	"github.com/ledgerlens/ledgerlens/internal/llm"
	"github.com/ledgerlens/ledgerlens/internal/model"
)

func validResponse() llm.BatchResponse {
	return llm.BatchResponse{
		Classifications: []llm.BatchClassification{
			{TransactionID: "a", Category: "Groceries", Subcategory: "Supermarket", Confidence: 0.9},
			{TransactionID: "b", Category: "Dining", Confidence: 0.85},
		},
	}
}

func TestValidateBatch(t *testing.T) {
	taxonomy := model.DefaultTaxonomy()
	expected := []string{"a", "b"}

	tests := []struct {
		name    string
		mutate  func(*llm.BatchResponse)
		detail  string
		wantErr bool
	}{
		{
			name:   "valid response",
			mutate: func(*llm.BatchResponse) {},
		},
		{
			name: "missing id",
			mutate: func(r *llm.BatchResponse) {
				r.Classifications = r.Classifications[:1]
			},
			wantErr: true,
			detail:  "missing",
		},
		{
			name: "foreign id",
			mutate: func(r *llm.BatchResponse) {
				r.Classifications[1].TransactionID = "z"
			},
			wantErr: true,
			detail:  "foreign",
		},
		{
			name: "duplicated id",
			mutate: func(r *llm.BatchResponse) {
				r.Classifications[1].TransactionID = "a"
			},
			wantErr: true,
			detail:  "more than once",
		},
		{
			name: "unknown category",
			mutate: func(r *llm.BatchResponse) {
				r.Classifications[0].Category = "Cryptocurrency"
			},
			wantErr: true,
			detail:  "not in taxonomy",
		},
		{
			name: "subcategory from wrong category",
			mutate: func(r *llm.BatchResponse) {
				r.Classifications[0].Subcategory = "Rideshare"
			},
			wantErr: true,
			detail:  "not in taxonomy",
		},
		{
			name: "confidence out of range",
			mutate: func(r *llm.BatchResponse) {
				r.Classifications[0].Confidence = 1.3
			},
			wantErr: true,
			detail:  "outside",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := validResponse()
			tt.mutate(&resp)

			err := validateBatch(resp, expected, taxonomy)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrValidation), "validation failures must wrap ErrValidation")
			assert.Contains(t, err.Error(), tt.detail)
		})
	}
}
