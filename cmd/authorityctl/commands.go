package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/civic-desk/complaint-service/internal/config"
	"github.com/civic-desk/complaint-service/internal/domain"
	"github.com/civic-desk/complaint-service/internal/observability"
	"github.com/civic-desk/complaint-service/internal/persistence"
	"github.com/civic-desk/complaint-service/internal/repository"
	"github.com/civic-desk/complaint-service/internal/service"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "authorityctl",
		Short:         "Manage authority staff accounts",
		Long:          "authorityctl creates staff accounts and moves them between departments.\nIt reads the same environment as the API server and requires POSTGRES_DSN.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newCreateStaffCmd(), newSetDepartmentCmd(), newRevokeStaffCmd())
	return root
}

func newCreateStaffCmd() *cobra.Command {
	var in service.StaffInput
	cmd := &cobra.Command{
		Use:   "create-staff [username]",
		Short: "Create an active staff account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Username = args[0]
			return withStaffService(cmd.Context(), func(ctx context.Context, staff *service.StaffService) error {
				account, err := staff.CreateStaff(ctx, in)
				if err != nil {
					return err
				}
				printAccount(cmd, account)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "full name")
	cmd.Flags().StringVar(&in.Password, "password", "", "initial password")
	cmd.Flags().StringVar(&in.Department, "department", "", "department code (admin, power, health, works)")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newSetDepartmentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-department [username] [department]",
		Short: "Promote an account to staff and set its department",
		Long:  "Promote an account to staff and set its department. Pass \"\" to clear the department.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStaffService(cmd.Context(), func(ctx context.Context, staff *service.StaffService) error {
				account, err := staff.SetDepartment(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				printAccount(cmd, account)
				return nil
			})
		},
	}
}

func newRevokeStaffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke-staff [username]",
		Short: "Remove staff access and department",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStaffService(cmd.Context(), func(ctx context.Context, staff *service.StaffService) error {
				account, err := staff.RevokeStaff(ctx, args[0])
				if err != nil {
					return err
				}
				printAccount(cmd, account)
				return nil
			})
		},
	}
}

// withStaffService loads config, connects to Postgres and hands fn a ready service.
func withStaffService(ctx context.Context, fn func(context.Context, *service.StaffService) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("POSTGRES_DSN is required")
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	return fn(ctx, service.NewStaffService(cfg.Auth, repository.NewAccountRepository(pg.PoolHandle()), logger))
}

func printAccount(cmd *cobra.Command, account *domain.Account) {
	cmd.Printf("id=%d username=%s staff=%t active=%t department=%s\n",
		account.ID, account.Username, account.IsStaff, account.IsActive, account.Department)
}
