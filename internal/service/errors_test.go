package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"ridehail/internal/repository"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "sentinel", err: ErrInsufficientFunds, want: KindFailedPrecondition},
		{name: "wrapped sentinel", err: fmt.Errorf("%w: processing", ErrPaymentNotCompleted), want: KindFailedPrecondition},
		{name: "unauthenticated", err: ErrUnauthenticated, want: KindUnauthenticated},
		{name: "retries exhausted", err: fmt.Errorf("%w: 5 attempts", repository.ErrTxAborted), want: KindAborted},
		{name: "deadline", err: context.DeadlineExceeded, want: KindAborted},
		{name: "repository not found", err: repository.ErrNotFound, want: KindNotFound},
		{name: "unknown", err: errors.New("connection reset"), want: KindInternal},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Errorf("KindOf(%v) = %s, want %s", tc.err, got, tc.want)
			}
		})
	}
}

func TestWrappedSentinelKeepsReason(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("%w: requires_payment_method", ErrPaymentNotCompleted)
	if !errors.Is(err, ErrPaymentNotCompleted) {
		t.Fatal("expected wrapped error to match sentinel")
	}
	if err.Error() != "payment not completed: requires_payment_method" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestOutcomeString(t *testing.T) {
	t.Parallel()

	if Applied.String() != "applied" || AlreadyApplied.String() != "already_applied" {
		t.Errorf("unexpected outcome strings %q %q", Applied, AlreadyApplied)
	}
}
