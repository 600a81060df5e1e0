// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-feed/pkg/types"
)

func ptr(f float64) *float64 { return &f }

func TestProfile(t *testing.T) {
	tests := []struct {
		name    string
		profile types.UserProfile
		wantErr string
	}{
		{
			name:    "empty profile is valid",
			profile: types.UserProfile{},
		},
		{
			name: "full profile is valid",
			profile: types.UserProfile{
				PrimaryField:     "economics",
				Interests:        []string{"Inequality", "Labor"},
				Methods:          []string{"Difference-in-differences"},
				Approach:         types.ApproachQuantitative,
				Breadth:          types.BreadthSpecialist,
				ExplorationLevel: ptr(0.2),
			},
		},
		{
			name:    "unknown approach",
			profile: types.UserProfile{Approach: "vibes"},
			wantErr: "profile.Approach: vibes is not one of",
		},
		{
			name:    "exploration above one",
			profile: types.UserProfile{ExplorationLevel: ptr(1.5)},
			wantErr: "profile.ExplorationLevel: 1.5 is above the maximum 1",
		},
		{
			name:    "blank interest",
			profile: types.UserProfile{Interests: []string{"Inequality", ""}},
			wantErr: "profile.Interests[1]: is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Profile(tt.profile)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidProfile))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPapers(t *testing.T) {
	t.Run("nil list rejected", func(t *testing.T) {
		err := Papers(nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidPapers))
	})

	t.Run("empty list accepted", func(t *testing.T) {
		assert.NoError(t, Papers([]types.Paper{}))
	})

	t.Run("collects every problem", func(t *testing.T) {
		err := Papers([]types.Paper{
			{ID: "W1", Title: "ok"},
			{ID: "", Title: "no id"},
			{ID: "W1", Title: "duplicate"},
			{ID: "W3", Title: "bad tier", JournalTier: 7},
			{ID: "W4", Title: "bad concept", Concepts: []types.Concept{{Name: "x", Confidence: 2}}},
			{ID: "W5", Title: "negative cites", CitedByCount: -1},
		})
		require.Error(t, err)

		var verr *Error
		require.True(t, errors.As(err, &verr))
		msg := strings.Join(verr.Problems(), "\n")
		assert.Contains(t, msg, "papers[1].ID: is required")
		assert.Contains(t, msg, `papers[2]: duplicate id "W1"`)
		assert.Contains(t, msg, "papers[3].JournalTier: 7 is above the maximum 4")
		assert.Contains(t, msg, "papers[4].Concepts[0].Confidence")
		assert.Contains(t, msg, "papers[5].CitedByCount")
	})
}
