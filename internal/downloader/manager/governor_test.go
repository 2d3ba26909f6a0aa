package manager

import (
	"context"
	"errors"
	"testing"
	"time"

	"telegram-fetch-bot/internal/testutils"
	"telegram-fetch-bot/internal/utils"
)

func newTestGovernor(t *testing.T) *Governor {
	t.Helper()
	cfg := testutils.NewTestConfig(t)
	return NewGovernor(cfg, testutils.NewTestDatabase(t))
}

func TestAdmitPerUserCap(t *testing.T) {
	gov := newTestGovernor(t)
	ctx := context.Background()

	permit, err := gov.Admit(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := gov.Admit(ctx, 1); !errors.Is(err, utils.ErrUserBusy) {
		t.Fatalf("second admit for same user: got %v, want ErrUserBusy", err)
	}

	// Another user still fits under the global cap of 2.
	other, err := gov.Admit(ctx, 2)
	if err != nil {
		t.Fatalf("other user rejected: %v", err)
	}
	other.Release()

	permit.Release()
	permit.Release() // double release must be harmless

	again, err := gov.Admit(ctx, 1)
	if err != nil {
		t.Fatalf("admit after release: %v", err)
	}
	again.Release()
}

func TestAdmitGlobalCapBlocks(t *testing.T) {
	gov := newTestGovernor(t) // global cap 2
	ctx := context.Background()

	p1, err := gov.Admit(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := gov.Admit(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}

	// Third user blocks on the global semaphore until a slot frees.
	admitted := make(chan error, 1)
	go func() {
		p, err := gov.Admit(ctx, 3)
		if p != nil {
			p.Release()
		}
		admitted <- err
	}()

	select {
	case <-admitted:
		t.Fatal("third admit should have blocked")
	case <-time.After(50 * time.Millisecond):
	}

	p1.Release()
	select {
	case err := <-admitted:
		if err != nil {
			t.Fatalf("blocked admit failed after release: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("blocked admit never unblocked")
	}
	p2.Release()
}

func TestAdmitCancelledContext(t *testing.T) {
	gov := newTestGovernor(t)
	ctx := context.Background()

	p1, _ := gov.Admit(ctx, 1)
	p2, _ := gov.Admit(ctx, 2)
	defer p1.Release()
	defer p2.Release()

	cancelCtx, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := gov.Admit(cancelCtx, 3); err == nil {
		t.Fatal("admit with cancelled context should fail")
	}
	if gov.ActiveFor(3) != 0 {
		t.Error("failed admit leaked a per-user slot")
	}
}

func TestQuotaEnforcement(t *testing.T) {
	gov := newTestGovernor(t) // 5 jobs, 100 MB per day
	ctx := context.Background()

	if err := gov.CheckQuota(ctx, 7); err != nil {
		t.Fatalf("fresh user over quota: %v", err)
	}

	for i := 0; i < 5; i++ {
		gov.RecordUsage(ctx, 7, 1024)
	}
	if err := gov.CheckQuota(ctx, 7); !errors.Is(err, utils.ErrQuotaExceeded) {
		t.Errorf("job quota not enforced: %v", err)
	}

	// Byte quota trips independently of the job count.
	gov.RecordUsage(ctx, 8, 200*1024*1024)
	if err := gov.CheckQuota(ctx, 8); !errors.Is(err, utils.ErrQuotaExceeded) {
		t.Errorf("byte quota not enforced: %v", err)
	}

	// Other users are unaffected.
	if err := gov.CheckQuota(ctx, 9); err != nil {
		t.Errorf("unrelated user blocked: %v", err)
	}
}

func TestUsageReporting(t *testing.T) {
	gov := newTestGovernor(t)
	ctx := context.Background()

	gov.RecordUsage(ctx, 5, 1000)
	gov.RecordUsage(ctx, 5, 2000)
	jobs, bytes := gov.Usage(ctx, 5)
	if jobs != 2 || bytes != 3000 {
		t.Errorf("usage = (%d, %d), want (2, 3000)", jobs, bytes)
	}
}
