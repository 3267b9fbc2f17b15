package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflows (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				category VARCHAR(100) NOT NULL DEFAULT '',
				status VARCHAR(20) NOT NULL CHECK (status IN ('draft', 'active', 'paused', 'archived')),
				steps JSONB NOT NULL DEFAULT '[]',
				triggers JSONB NOT NULL DEFAULT '[]',
				created_by VARCHAR(255) NOT NULL DEFAULT '',
				created_date TIMESTAMP WITH TIME ZONE NOT NULL,
				last_modified TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflows_status ON workflows(status);
			CREATE INDEX idx_workflows_category ON workflows(category);
			CREATE INDEX idx_workflows_created_by ON workflows(created_by);
			CREATE INDEX idx_workflows_created_date ON workflows(created_date);
			CREATE INDEX idx_workflows_deleted_at ON workflows(deleted_at);
		`,
		2: `
			-- Execution statistics reported by the runtime
			ALTER TABLE workflows
				ADD COLUMN execution_count BIGINT NOT NULL DEFAULT 0,
				ADD COLUMN average_execution_time DOUBLE PRECISION NOT NULL DEFAULT 0,
				ADD COLUMN success_rate DOUBLE PRECISION NOT NULL DEFAULT 0;
		`,
	}
}
