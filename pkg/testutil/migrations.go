package testutil

// Migrations returns the pharmacy schema in execution order. Constraint
// names are significant: pkg/database maps them to API error messages.
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS roles (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			CONSTRAINT roles_name_key UNIQUE (name)
		)`,

		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username VARCHAR(100) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role_id BIGINT REFERENCES roles(id) ON DELETE SET NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT users_username_key UNIQUE (username)
		)`,

		`CREATE TABLE IF NOT EXISTS categories (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT categories_name_key UNIQUE (name)
		)`,

		`CREATE TABLE IF NOT EXISTS units (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT units_name_key UNIQUE (name)
		)`,

		`CREATE TABLE IF NOT EXISTS medicines (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			price NUMERIC(10,2) NOT NULL DEFAULT 0,
			supplier VARCHAR(255),
			image_url TEXT,
			category_id BIGINT REFERENCES categories(id) ON DELETE SET NULL,
			unit_id BIGINT REFERENCES units(id) ON DELETE SET NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT medicines_name_key UNIQUE (name),
			CONSTRAINT medicines_price_non_negative CHECK (price >= 0)
		)`,

		`CREATE TABLE IF NOT EXISTS batches (
			id BIGSERIAL PRIMARY KEY,
			medicine_id BIGINT NOT NULL REFERENCES medicines(id) ON DELETE CASCADE,
			batch_no VARCHAR(100) NOT NULL,
			quantity INTEGER NOT NULL DEFAULT 0,
			expiry_date DATE NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT batches_quantity_non_negative CHECK (quantity >= 0),
			CONSTRAINT batches_medicine_batch_no_key UNIQUE (medicine_id, batch_no)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_batches_medicine_expiry
			ON batches (medicine_id, expiry_date)`,

		`CREATE TABLE IF NOT EXISTS stock_logs (
			id BIGSERIAL PRIMARY KEY,
			batch_id BIGINT REFERENCES batches(id) ON DELETE SET NULL,
			action VARCHAR(10) NOT NULL,
			sub_action VARCHAR(10),
			quantity_change INTEGER NOT NULL,
			note TEXT,
			created_by BIGINT REFERENCES users(id) ON DELETE SET NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT stock_logs_action_valid CHECK (action IN ('IN', 'OUT')),
			CONSTRAINT stock_logs_sub_action_valid CHECK (sub_action IS NULL OR sub_action = 'ADJUST')
		)`,

		`CREATE TABLE IF NOT EXISTS receipts (
			id BIGSERIAL PRIMARY KEY,
			patient_name VARCHAR(255) NOT NULL,
			total_items INTEGER NOT NULL DEFAULT 0,
			created_by BIGINT REFERENCES users(id) ON DELETE SET NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS receipt_items (
			id BIGSERIAL PRIMARY KEY,
			receipt_id BIGINT NOT NULL REFERENCES receipts(id) ON DELETE CASCADE,
			batch_id BIGINT NOT NULL REFERENCES batches(id) ON DELETE RESTRICT,
			quantity INTEGER NOT NULL,
			price NUMERIC(10,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT receipt_items_quantity_positive CHECK (quantity > 0)
		)`,
	}
}
