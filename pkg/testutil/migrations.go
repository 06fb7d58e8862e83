package testutil

// Migrations returns the DDL statements for the DocFlow schema,
// in dependency order. Integration tests apply these against a
// fresh container database.
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS user_cache (
			user_id UUID PRIMARY KEY,
			first_name VARCHAR(255) NOT NULL DEFAULT '',
			last_name VARCHAR(255) NOT NULL DEFAULT '',
			email VARCHAR(255) NOT NULL DEFAULT '',
			role_name VARCHAR(100) NOT NULL DEFAULT '',
			department VARCHAR(255) NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS documents (
			id UUID PRIMARY KEY,
			registration_number VARCHAR(50) UNIQUE NOT NULL,
			title VARCHAR(500) NOT NULL,
			description TEXT,
			document_type VARCHAR(100) NOT NULL,
			status VARCHAR(50) NOT NULL DEFAULT 'draft',
			confidentiality VARCHAR(50) NOT NULL DEFAULT 'internal',
			requires_legal_review BOOLEAN NOT NULL DEFAULT FALSE,
			current_version INTEGER NOT NULL DEFAULT 1,
			author_id UUID NOT NULL,
			owner_id UUID,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS document_versions (
			id UUID PRIMARY KEY,
			document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			version_number INTEGER NOT NULL,
			content TEXT,
			file_digest VARCHAR(128),
			file_name VARCHAR(500),
			file_size BIGINT,
			change_description TEXT,
			is_current BOOLEAN NOT NULL DEFAULT FALSE,
			created_by UUID NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (document_id, version_number)
		)`,

		`CREATE TABLE IF NOT EXISTS approval_requests (
			id UUID PRIMARY KEY,
			document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			approver_id UUID NOT NULL,
			requester_id UUID NOT NULL,
			status VARCHAR(50) NOT NULL DEFAULT 'pending',
			approver_type VARCHAR(50) NOT NULL,
			round INTEGER NOT NULL DEFAULT 1,
			approval_order INTEGER NOT NULL DEFAULT 1,
			is_required BOOLEAN NOT NULL DEFAULT TRUE,
			can_block BOOLEAN NOT NULL DEFAULT FALSE,
			comment TEXT,
			suggested_changes TEXT,
			delegated_to_id UUID,
			delegated_at TIMESTAMPTZ,
			delegation_reason TEXT,
			due_date TIMESTAMPTZ,
			processed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS user_delegations (
			id UUID PRIMARY KEY,
			from_user_id UUID NOT NULL,
			to_user_id UUID NOT NULL,
			delegation_type VARCHAR(50) NOT NULL,
			start_date TIMESTAMPTZ NOT NULL,
			end_date TIMESTAMPTZ NOT NULL,
			reason TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			revoked_at TIMESTAMPTZ,
			revoked_by UUID
		)`,

		`CREATE TABLE IF NOT EXISTS document_access (
			id UUID PRIMARY KEY,
			document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			user_id UUID NOT NULL,
			access_level VARCHAR(50) NOT NULL DEFAULT 'view',
			can_download BOOLEAN NOT NULL DEFAULT FALSE,
			can_print BOOLEAN NOT NULL DEFAULT FALSE,
			can_export BOOLEAN NOT NULL DEFAULT FALSE,
			expires_at TIMESTAMPTZ,
			granted_by UUID NOT NULL,
			comment TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (document_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS document_blocks (
			id UUID PRIMARY KEY,
			document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			block_type VARCHAR(50) NOT NULL,
			reason TEXT NOT NULL,
			blocked_by UUID NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			unblocked_at TIMESTAMPTZ,
			unblocked_by UUID,
			unblock_comment TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			kind VARCHAR(50) NOT NULL,
			title VARCHAR(500) NOT NULL,
			message TEXT NOT NULL,
			document_id UUID REFERENCES documents(id) ON DELETE SET NULL,
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			read_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS audit_logs (
			id UUID PRIMARY KEY,
			user_id UUID,
			user_name VARCHAR(500) NOT NULL DEFAULT '',
			action VARCHAR(100) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			document_id UUID REFERENCES documents(id) ON DELETE SET NULL,
			entity_name VARCHAR(100),
			entity_id UUID,
			old_values JSONB,
			new_values JSONB,
			ip_address VARCHAR(100),
			user_agent TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS document_comments (
			id UUID PRIMARY KEY,
			document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			author_id UUID NOT NULL,
			parent_id UUID REFERENCES document_comments(id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			edited_at TIMESTAMPTZ
		)`,

		`CREATE INDEX IF NOT EXISTS idx_documents_author ON documents(author_id)`,
		`CREATE INDEX IF NOT EXISTS idx_approval_requests_document ON approval_requests(document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_approval_requests_approver ON approval_requests(approver_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, is_read)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_document ON audit_logs(document_id)`,
	}
}

// Tables lists the DocFlow tables in reverse dependency order,
// suitable for TRUNCATE between tests.
func Tables() []string {
	return []string{
		"document_comments",
		"audit_logs",
		"notifications",
		"document_blocks",
		"document_access",
		"user_delegations",
		"approval_requests",
		"document_versions",
		"documents",
		"user_cache",
	}
}
