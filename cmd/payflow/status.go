package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"tenantpay/internal/timeutil"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Resume watching the pending payment, if any",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := buildEngine()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pending, err := eng.store.GetPending(ctx)
			if err != nil {
				return err
			}
			if pending == nil {
				fmt.Println("No pending payment.")
				return nil
			}

			fmt.Printf("Pending order %s (%s), total %.2f, started %s\n",
				pending.MerchantOrderID, pending.PaymentType,
				pending.Breakup.TotalAmount, timeutil.FormatIST(pending.CreatedAt, timeutil.DisplayLayout))

			return watchOrder(ctx, eng, pending.MerchantOrderID, pending.Breakup, pending.PaymentType)
		},
	}
}
