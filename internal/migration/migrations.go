package migration

// getAllMigrations retorna todas as migrações disponíveis
func getAllMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_estimates_table",
			Up: `
				-- Estimativa corrente por item (substituição integral, sem histórico)
				CREATE TABLE estimates (
					item_id VARCHAR(50) PRIMARY KEY,
					remaining_hours DOUBLE PRECISION,
					target_time TIMESTAMPTZ,
					recorded_at TIMESTAMPTZ NOT NULL,
					CONSTRAINT remaining_hours_non_negative
						CHECK (remaining_hours IS NULL OR remaining_hours >= 0)
				);
			`,
			Down: `
				DROP TABLE IF EXISTS estimates;
			`,
		},
	}
}
