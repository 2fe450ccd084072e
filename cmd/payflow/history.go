package main

import (
	"fmt"
	"os"

	"tenantpay/internal/fees"
	"tenantpay/internal/receipts"
	"tenantpay/internal/timeutil"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List retained payment history, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := buildEngine()

			entries, err := eng.store.History(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No payments recorded.")
				return nil
			}

			fmt.Printf("%-14s %-10s %10s %8s %10s  %s\n", "MONTH", "TYPE", "AMOUNT", "FEE", "TOTAL", "ORDER")
			for _, e := range entries {
				fmt.Printf("%-14s %-10s %10.2f %8.2f %10.2f  %s\n",
					e.Month, e.PaymentType, e.Amount, e.FeeAmount, e.TotalAmount, e.MerchantOrderID)
			}
			return nil
		},
	}
}

func newFeesCmd() *cobra.Command {
	var amount float64

	cmd := &cobra.Command{
		Use:   "fees",
		Short: "Show the fee schedule, or preview the breakup for an amount",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := buildEngine()

			if amount > 0 {
				b := eng.initiator.Preview(amount)
				fmt.Printf("Base:  %10.2f\nRate:  %9.1f%%\nFee:   %10.2f\nTotal: %10.2f\n",
					b.BaseAmount, b.FeeRate, b.FeeAmount, b.TotalAmount)
				return nil
			}

			tiers := make([]fees.Tier, 0, len(eng.cfg.Payment.FeeTiers))
			for _, t := range eng.cfg.Payment.FeeTiers {
				tiers = append(tiers, fees.Tier{UpTo: t.UpTo, Percent: t.Percent})
			}
			for _, t := range fees.NewCalculator(tiers).Tiers() {
				if t.UpTo > 0 {
					fmt.Printf("up to %10.2f: %.1f%%\n", t.UpTo, t.Percent)
				} else {
					fmt.Printf("above that:      %.1f%%\n", t.Percent)
				}
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&amount, "amount", 0, "Preview the breakup for this base amount")
	return cmd
}

func newReceiptCmd() *cobra.Command {
	var (
		orderID string
		out     string
		tenant  string
		unit    string
	)

	cmd := &cobra.Command{
		Use:   "receipt",
		Short: "Render a PDF receipt for a completed payment",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := buildEngine()

			entries, err := eng.store.History(cmd.Context())
			if err != nil {
				return err
			}

			for _, e := range entries {
				if e.MerchantOrderID != orderID {
					continue
				}

				gen := &receipts.Generator{TenantName: tenant, PropertyLabel: unit}
				pdf, err := gen.Render(e)
				if err != nil {
					return err
				}

				if out == "" {
					out = fmt.Sprintf("receipt-%s.pdf", timeutil.FormatIST(e.PaymentDate, timeutil.DateLayout))
				}
				if err := os.WriteFile(out, pdf, 0o644); err != nil {
					return fmt.Errorf("failed to write receipt: %w", err)
				}
				fmt.Println("Receipt written to", out)
				return nil
			}

			return fmt.Errorf("no completed payment with order id %s", orderID)
		},
	}

	cmd.Flags().StringVar(&orderID, "order", "", "Merchant order id of the completed payment")
	cmd.Flags().StringVar(&out, "out", "", "Output file (default receipt-<date>.pdf)")
	cmd.Flags().StringVar(&tenant, "tenant", "", "Tenant name printed on the receipt")
	cmd.Flags().StringVar(&unit, "unit", "", "Property/unit label printed on the receipt")
	cmd.MarkFlagRequired("order")

	return cmd
}
