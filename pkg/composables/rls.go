package composables

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/harborpeak/coverdesk/pkg/configuration"
)

func ApplyOrgRLS(ctx context.Context, tx pgx.Tx) error {
	if configuration.Use().RLSEnforce != "enforce" {
		return nil
	}
	orgID, err := UseOrgID(ctx)
	if err != nil {
		return fmt.Errorf("rls requires org in context: %w", err)
	}
	_, err = tx.Exec(ctx, "SELECT set_config('app.current_org', $1, true)", orgID.String())
	if err != nil {
		return fmt.Errorf("failed to set rls org context: %w", err)
	}
	return nil
}
