package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/docflow/docflow-backend/internal/docflow/domain"
)

func TestRequestStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status domain.RequestStatus
		want   bool
	}{
		{domain.RequestStatusApproved, true},
		{domain.RequestStatusRejected, true},
		{domain.RequestStatusCancelled, true},
		{domain.RequestStatusPending, false},
		{domain.RequestStatusRevision, false},
		{domain.RequestStatusLegalReview, false},
		{domain.RequestStatusUnderReview, false},
		{domain.RequestStatusDelegated, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.IsTerminal())
		})
	}
}

func TestApprovalRequest_IsActionable(t *testing.T) {
	tests := []struct {
		status domain.RequestStatus
		want   bool
	}{
		{domain.RequestStatusPending, true},
		{domain.RequestStatusDelegated, true},
		{domain.RequestStatusUnderReview, true},
		{domain.RequestStatusLegalReview, true},
		{domain.RequestStatusApproved, false},
		{domain.RequestStatusRejected, false},
		{domain.RequestStatusCancelled, false},
		{domain.RequestStatusRevision, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			req := &domain.ApprovalRequest{Status: tt.status}
			assert.Equal(t, tt.want, req.IsActionable())
		})
	}
}

func TestApprovalRequest_IsOverdue(t *testing.T) {
	now := time.Now()
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	t.Run("no due date is never overdue", func(t *testing.T) {
		req := &domain.ApprovalRequest{Status: domain.RequestStatusPending}
		assert.False(t, req.IsOverdue(now))
	})

	t.Run("pending past due date is overdue", func(t *testing.T) {
		req := &domain.ApprovalRequest{Status: domain.RequestStatusPending, DueDate: &yesterday}
		assert.True(t, req.IsOverdue(now))
	})

	t.Run("pending before due date is not overdue", func(t *testing.T) {
		req := &domain.ApprovalRequest{Status: domain.RequestStatusPending, DueDate: &tomorrow}
		assert.False(t, req.IsOverdue(now))
	})

	t.Run("processed request is not overdue", func(t *testing.T) {
		req := &domain.ApprovalRequest{Status: domain.RequestStatusApproved, DueDate: &yesterday}
		assert.False(t, req.IsOverdue(now))
	})
}
