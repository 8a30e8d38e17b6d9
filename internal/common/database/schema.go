// internal/common/database/schema.go
package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements bootstraps the tables this service reads and writes. The
// hosted database normally owns them; auto_migrate is for local and CI stacks.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS auto_apply_logs (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID,
		job_listing_id TEXT NOT NULL,
		application_date TIMESTAMPTZ NOT NULL DEFAULT now(),
		status TEXT NOT NULL DEFAULT 'pending',
		screenshot_url TEXT,
		error_message TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS payment_transactions (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL,
		plan_id TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		amount BIGINT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'INR',
		coupon_code TEXT,
		discount_amount BIGINT NOT NULL DEFAULT 0,
		final_amount BIGINT NOT NULL,
		purchase_type TEXT NOT NULL,
		metadata JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS payment_transactions_user_coupon_active
		ON payment_transactions (user_id, lower(coupon_code))
		WHERE coupon_code IS NOT NULL AND status IN ('pending', 'success')`,
	`CREATE TABLE IF NOT EXISTS blog_posts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		title TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		excerpt TEXT,
		body_content TEXT NOT NULL,
		featured_image_url TEXT,
		author_id UUID,
		author_name TEXT,
		status TEXT NOT NULL DEFAULT 'draft',
		published_at TIMESTAMPTZ,
		meta_title TEXT,
		meta_description TEXT,
		view_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS blog_categories (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		description TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS blog_tags (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS blog_post_categories (
		blog_post_id UUID REFERENCES blog_posts(id) ON DELETE CASCADE,
		blog_category_id UUID REFERENCES blog_categories(id) ON DELETE CASCADE,
		PRIMARY KEY (blog_post_id, blog_category_id)
	)`,
	`CREATE TABLE IF NOT EXISTS blog_post_tags (
		blog_post_id UUID REFERENCES blog_posts(id) ON DELETE CASCADE,
		blog_tag_id UUID REFERENCES blog_tags(id) ON DELETE CASCADE,
		PRIMARY KEY (blog_post_id, blog_tag_id)
	)`,
	`CREATE TABLE IF NOT EXISTS webinar_updates (
		id UUID PRIMARY KEY,
		webinar_id UUID NOT NULL,
		update_type TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		link_url TEXT,
		attachment_url TEXT,
		is_published BOOLEAN NOT NULL DEFAULT false,
		publish_at TIMESTAMPTZ,
		created_by UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS webinar_update_views (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		update_id UUID NOT NULL REFERENCES webinar_updates(id) ON DELETE CASCADE,
		user_id UUID NOT NULL,
		viewed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (update_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS user_job_preferences (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL UNIQUE,
		resume_text TEXT,
		resume_url TEXT,
		passout_year INTEGER,
		role_type TEXT CHECK (role_type IN ('internship', 'fulltime', 'both')),
		tech_interests TEXT[],
		preferred_modes TEXT[],
		skills_extracted JSONB,
		onboarding_completed BOOLEAN NOT NULL DEFAULT false,
		last_updated TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate creates missing tables and indexes. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
