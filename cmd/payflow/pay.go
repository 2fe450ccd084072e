package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"tenantpay/internal/models"
	"tenantpay/internal/payments"

	"github.com/spf13/cobra"
)

func newPayCmd() *cobra.Command {
	var (
		amount      float64
		paymentType string
		noWatch     bool
	)

	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Initiate a payment and follow it to a terminal state",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := buildEngine()

			pt := models.PaymentType(paymentType)
			switch pt {
			case models.PaymentTypeRent, models.PaymentTypeSubscription, models.PaymentTypeMaintenance:
			default:
				return fmt.Errorf("unknown payment type %q (rent, subscription, maintenance)", paymentType)
			}

			preview := eng.initiator.Preview(amount)
			fmt.Printf("Amount:    %10.2f\n", preview.BaseAmount)
			fmt.Printf("Fee (%.1f%%): %8.2f\n", preview.FeeRate, preview.FeeAmount)
			fmt.Printf("Total:     %10.2f\n", preview.TotalAmount)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pending, err := eng.initiator.Initiate(ctx, amount, pt)
			if err != nil {
				var fe *payments.FlowError
				if errors.As(err, &fe) && fe.Kind == payments.KindDuplicatePayment {
					fmt.Println("Already paid:", fe.Message)
					return nil
				}
				return err
			}

			fmt.Printf("Initiated order %s; complete the payment in your browser.\n", pending.MerchantOrderID)
			if noWatch {
				fmt.Println("Run 'payflow status' to check the outcome later.")
				return nil
			}

			return watchOrder(ctx, eng, pending.MerchantOrderID, pending.Breakup, pending.PaymentType)
		},
	}

	cmd.Flags().Float64Var(&amount, "amount", 0, "Base amount to pay, before gateway fees")
	cmd.Flags().StringVar(&paymentType, "type", "rent", "Payment type: rent, subscription or maintenance")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not wait for the gateway outcome")
	cmd.MarkFlagRequired("amount")

	return cmd
}

// watchOrder follows the poll stream until a terminal state or Ctrl-C
func watchOrder(ctx context.Context, eng *engine, orderID string, breakup models.PaymentBreakup, pt models.PaymentType) error {
	handle, err := eng.poller.Poll(ctx, orderID, breakup, pt)
	if err != nil {
		return err
	}
	defer handle.Cancel()

	for ev := range handle.Events() {
		switch ev.Type {
		case payments.EventProcessing:
			if ev.Attempt > 0 {
				fmt.Printf("Still processing (attempt %d)...\n", ev.Attempt)
			} else {
				fmt.Println("Waiting for gateway confirmation...")
			}
		case payments.EventCompleted:
			fmt.Printf("Payment completed. Total paid: %.2f\n", ev.Breakup.TotalAmount)
			return nil
		case payments.EventFailed:
			return fmt.Errorf("payment failed: %s", ev.Reason)
		case payments.EventTimeout:
			fmt.Println("Status still unknown after polling; the payment may settle later. Check again in a while.")
			return nil
		}
	}

	// Channel closed without a terminal event: cancelled
	fmt.Println("Stopped watching; the payment may still settle.")
	return nil
}
