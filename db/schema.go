package database

import (
	"context"
	"fmt"
)

var constraints = []string{
	"CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE",
	"CREATE CONSTRAINT user_username_unique IF NOT EXISTS FOR (u:User) REQUIRE u.username IS UNIQUE",
	"CREATE CONSTRAINT tweet_id_unique IF NOT EXISTS FOR (t:Tweet) REQUIRE t.id IS UNIQUE",
	"CREATE CONSTRAINT comment_id_unique IF NOT EXISTS FOR (c:Comment) REQUIRE c.id IS UNIQUE",
}

// EnsureSchema creates the uniqueness constraints the repositories rely on.
// It is idempotent.
func EnsureSchema(ctx context.Context, runner Runner) error {
	for _, stmt := range constraints {
		if _, err := runner.Write(ctx, stmt, nil); err != nil {
			return fmt.Errorf("failed to apply schema constraint: %w", err)
		}
	}
	return nil
}
