package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jask/artview/internal/database"
)

// MaintenanceService houses destructive/ops actions surfaced through the TUI.
type MaintenanceService struct {
	DB *sql.DB
}

// ClearCache wipes every cached page response. The schema stays so the app
// can continue running.
func (s *MaintenanceService) ClearCache(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("maintenance: db not configured")
	}
	if err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM page_cache"); err != nil {
			return fmt.Errorf("clear page cache: %w", err)
		}
		return nil
	}); err != nil {
		return err
	}
	_, _ = s.DB.ExecContext(ctx, "VACUUM")
	return nil
}
