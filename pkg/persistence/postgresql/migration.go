package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflows (
				id TEXT PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				version VARCHAR(50) NOT NULL DEFAULT '1.0',
				nodes JSONB NOT NULL DEFAULT '[]',
				edges JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflows_created_at ON workflows(created_at);
			CREATE INDEX idx_workflows_updated_at ON workflows(updated_at);
			CREATE INDEX idx_workflows_name ON workflows(name);
		`,
		2: `
			-- Containment lookups such as nodes @> '[{"type": "agentNode"}]'
			CREATE INDEX idx_workflows_nodes ON workflows USING GIN (nodes jsonb_path_ops);
		`,
	}
}
