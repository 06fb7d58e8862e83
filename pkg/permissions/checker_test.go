package permissions_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/docflow/docflow-backend/pkg/permissions"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name     string
		perms    []string
		required string
		want     bool
	}{
		{"empty requirement always passes", []string{}, "", true},
		{"full wildcard grants everything", []string{"*"}, "admin.audit.read", true},
		{"exact match", []string{"documents.read"}, "documents.read", true},
		{"resource wildcard covers actions", []string{"documents.*"}, "documents.delete", true},
		{"resource wildcard covers nested actions", []string{"documents.*"}, "documents.versions.restore", true},
		{"wildcard does not leak across resources", []string{"documents.*"}, "approvals.decide", false},
		{"missing permission", []string{"documents.read"}, "documents.write", false},
		{"no permissions", nil, "documents.read", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, permissions.HasPermission(tt.perms, tt.required))
		})
	}
}

func TestHasAnyPermission(t *testing.T) {
	perms := []string{"approvals.decide"}

	assert.True(t, permissions.HasAnyPermission(perms, []string{"documents.read", "approvals.decide"}))
	assert.False(t, permissions.HasAnyPermission(perms, []string{"documents.read", "documents.write"}))
}

func TestHasAllPermissions(t *testing.T) {
	perms := []string{"documents.*", "approvals.decide"}

	assert.True(t, permissions.HasAllPermissions(perms, []string{"documents.read", "approvals.decide"}))
	assert.False(t, permissions.HasAllPermissions(perms, []string{"documents.read", "blocks.lift"}))
}

func TestMergePermissions(t *testing.T) {
	merged := permissions.MergePermissions(
		[]string{"documents.read", "documents.write"},
		[]string{"documents.read", "approvals.decide"},
	)

	assert.Equal(t, []string{"documents.read", "documents.write", "approvals.decide"}, merged)
}

func TestRemovePermissions(t *testing.T) {
	remaining := permissions.RemovePermissions(
		[]string{"documents.read", "documents.write", "approvals.decide"},
		[]string{"documents.write"},
	)

	assert.Equal(t, []string{"documents.read", "approvals.decide"}, remaining)
}
