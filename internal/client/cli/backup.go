package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/cardkeeper/internal/client/models"
	"github.com/dmitrijs2005/cardkeeper/internal/filex"
)

// Export writes a plaintext backup of the wallet to the named file.
func (a *App) Export(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: export <file>", errUsage)
	}

	raw, err := a.wallet.ExportBackup(ctx)
	if err != nil {
		return err
	}
	if err := filex.EnsureParentDir(args[0]); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	if err := os.WriteFile(args[0], raw, 0o600); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	fmt.Fprintf(a.out, "Backup written to %s (not encrypted, keep it safe)\n", args[0])
	return nil
}

// Import merges a backup file into the wallet. Append is the default mode.
func (a *App) Import(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("%w: import <file> [append|replace]", errUsage)
	}
	mode := models.ImportAppend
	if len(args) == 2 {
		switch m := models.ImportMode(args[1]); m {
		case models.ImportAppend, models.ImportReplace:
			mode = m
		default:
			return fmt.Errorf("%w: import <file> [append|replace]", errUsage)
		}
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	n, err := a.wallet.ImportBackup(ctx, raw, mode)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Imported %d card(s)\n", n)
	return nil
}
