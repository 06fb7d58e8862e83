package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
)

func TestAccessLevel_PermitsComments(t *testing.T) {
	tests := []struct {
		level domain.AccessLevel
		want  bool
	}{
		{domain.AccessLevelView, false},
		{domain.AccessLevelViewAndComment, true},
		{domain.AccessLevelEdit, true},
		{domain.AccessLevelFull, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.level.PermitsComments())
		})
	}
}

func TestDocumentAccess_IsCurrentlyActive(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	t.Run("active grant without expiry", func(t *testing.T) {
		a := &domain.DocumentAccess{IsActive: true}
		assert.True(t, a.IsCurrentlyActive(now))
	})

	t.Run("active grant before expiry", func(t *testing.T) {
		a := &domain.DocumentAccess{IsActive: true, ExpiresAt: &future}
		assert.True(t, a.IsCurrentlyActive(now))
	})

	t.Run("expired grant", func(t *testing.T) {
		a := &domain.DocumentAccess{IsActive: true, ExpiresAt: &past}
		assert.False(t, a.IsCurrentlyActive(now))
	})

	t.Run("revoked grant", func(t *testing.T) {
		a := &domain.DocumentAccess{IsActive: false}
		assert.False(t, a.IsCurrentlyActive(now))
	})
}

func TestBlockType_GatesApproval(t *testing.T) {
	tests := []struct {
		blockType domain.BlockType
		want      bool
	}{
		{domain.BlockTypeApproval, true},
		{domain.BlockTypeFull, true},
		{domain.BlockTypeLegalReview, true},
		{domain.BlockTypeComplianceReview, true},
		{domain.BlockTypeEdit, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.blockType), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.blockType.GatesApproval())
		})
	}
}

func TestBlockType_GatesEditing(t *testing.T) {
	tests := []struct {
		blockType domain.BlockType
		want      bool
	}{
		{domain.BlockTypeEdit, true},
		{domain.BlockTypeFull, true},
		{domain.BlockTypeApproval, false},
		{domain.BlockTypeLegalReview, false},
		{domain.BlockTypeComplianceReview, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.blockType), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.blockType.GatesEditing())
		})
	}
}
