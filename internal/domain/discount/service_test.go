package discount

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
	"github.com/your-org/storefront-backend/internal/testutil"
)

func newLedger(t *testing.T, opts Options) *Service {
	db := testutil.NewDB(t, &Discount{}, &Usage{}, &Conflict{})
	return NewService(db, logger.Discard(), opts)
}

func mustCreate(t *testing.T, s *Service, req *CreateDiscountRequest) *Discount {
	d, err := s.Create(context.Background(), req)
	require.NoError(t, err)
	return d
}

func TestCreate_NormalizesCode(t *testing.T) {
	s := newLedger(t, Options{})

	d := mustCreate(t, s, &CreateDiscountRequest{Code: "  save10 ", Percentage: 10, MaxUses: 3})

	assert.Equal(t, "SAVE10", d.Code)
	assert.Equal(t, 0, d.UsedCount)

	got, err := s.Validate(context.Background(), "save10", "u1")
	require.NoError(t, err)
	assert.Equal(t, 10, got.Percentage)
}

func TestCreate_RejectsInvalidInput(t *testing.T) {
	s := newLedger(t, Options{})

	tests := []struct {
		name string
		req  CreateDiscountRequest
	}{
		{"empty code", CreateDiscountRequest{Code: "  ", Percentage: 10, MaxUses: 1}},
		{"zero percent", CreateDiscountRequest{Code: "A", Percentage: 0, MaxUses: 1}},
		{"over hundred percent", CreateDiscountRequest{Code: "B", Percentage: 101, MaxUses: 1}},
		{"zero max uses", CreateDiscountRequest{Code: "C", Percentage: 10, MaxUses: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(context.Background(), &tt.req)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestCreate_DuplicateCode(t *testing.T) {
	s := newLedger(t, Options{})
	mustCreate(t, s, &CreateDiscountRequest{Code: "WELCOME", Percentage: 10, MaxUses: 1})

	_, err := s.Create(context.Background(), &CreateDiscountRequest{Code: "welcome", Percentage: 20, MaxUses: 5})
	assert.ErrorIs(t, err, apperror.ErrDuplicateCode)
}

func TestValidate_UnknownCode(t *testing.T) {
	s := newLedger(t, Options{})

	_, err := s.Validate(context.Background(), "NOPE", "u1")
	assert.ErrorIs(t, err, apperror.ErrInvalidDiscount)
}

func TestValidate_ExpiredCode(t *testing.T) {
	s := newLedger(t, Options{})
	past := time.Now().Add(-time.Hour)
	mustCreate(t, s, &CreateDiscountRequest{Code: "OLD", Percentage: 10, MaxUses: 5, ExpiresAt: &past})

	_, err := s.Validate(context.Background(), "OLD", "u1")
	assert.ErrorIs(t, err, apperror.ErrInvalidDiscount)

	_, err = s.Consume(context.Background(), "OLD", "u1", "order-1")
	assert.ErrorIs(t, err, apperror.ErrDiscountRejected)
}

func TestValidate_DoesNotReserve(t *testing.T) {
	s := newLedger(t, Options{})
	mustCreate(t, s, &CreateDiscountRequest{Code: "ONCE", Percentage: 10, MaxUses: 1})

	for i := 0; i < 3; i++ {
		_, err := s.Validate(context.Background(), "ONCE", "u1")
		require.NoError(t, err)
	}

	d, err := s.Get(context.Background(), "ONCE")
	require.NoError(t, err)
	assert.Equal(t, 0, d.UsedCount)
}

func TestConsume_SingleUseAcrossUsers(t *testing.T) {
	s := newLedger(t, Options{})
	ctx := context.Background()
	mustCreate(t, s, &CreateDiscountRequest{Code: "ONCE", Percentage: 10, MaxUses: 1})

	d, err := s.Consume(ctx, "ONCE", "u1", "order-1")
	require.NoError(t, err)
	assert.Equal(t, 1, d.UsedCount)

	_, err = s.Consume(ctx, "ONCE", "u2", "order-2")
	assert.ErrorIs(t, err, apperror.ErrDiscountRejected)

	_, err = s.Validate(ctx, "ONCE", "u2")
	assert.ErrorIs(t, err, apperror.ErrInvalidDiscount)

	got, err := s.Get(ctx, "ONCE")
	require.NoError(t, err)
	assert.Equal(t, 1, got.UsedCount)
	require.Len(t, got.UsageHistory, 1)
	assert.Equal(t, "u1", got.UsageHistory[0].UserID)
	assert.Equal(t, "order-1", got.UsageHistory[0].OrderID)
}

func TestConsume_ConcurrentCallersNeverOverdraw(t *testing.T) {
	s := newLedger(t, Options{})
	ctx := context.Background()
	mustCreate(t, s, &CreateDiscountRequest{Code: "RACE", Percentage: 15, MaxUses: 3})

	const callers = 12
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Consume(ctx, "RACE", fmt.Sprintf("u%d", i), fmt.Sprintf("order-%d", i))
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, apperror.ErrDiscountRejected)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, successes)

	d, err := s.Get(ctx, "RACE")
	require.NoError(t, err)
	assert.Equal(t, 3, d.UsedCount)
	assert.Len(t, d.UsageHistory, 3)
}

func TestConsume_OnePerUser(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled allows repeat use", func(t *testing.T) {
		s := newLedger(t, Options{})
		mustCreate(t, s, &CreateDiscountRequest{Code: "MULTI", Percentage: 10, MaxUses: 5})

		_, err := s.Consume(ctx, "MULTI", "u1", "order-1")
		require.NoError(t, err)
		_, err = s.Consume(ctx, "MULTI", "u1", "order-2")
		require.NoError(t, err)
	})

	t.Run("enabled rejects repeat use", func(t *testing.T) {
		s := newLedger(t, Options{OnePerUser: true})
		mustCreate(t, s, &CreateDiscountRequest{Code: "MULTI", Percentage: 10, MaxUses: 5})

		_, err := s.Consume(ctx, "MULTI", "u1", "order-1")
		require.NoError(t, err)

		_, err = s.Validate(ctx, "MULTI", "u1")
		assert.ErrorIs(t, err, apperror.ErrInvalidDiscount)
		_, err = s.Consume(ctx, "MULTI", "u1", "order-2")
		assert.ErrorIs(t, err, apperror.ErrDiscountRejected)

		d, err := s.Consume(ctx, "MULTI", "u2", "order-3")
		require.NoError(t, err)
		assert.Equal(t, 2, d.UsedCount)
	})
}

func TestListPublicActive(t *testing.T) {
	s := newLedger(t, Options{})
	ctx := context.Background()
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	mustCreate(t, s, &CreateDiscountRequest{Code: "PUBLIC1", Percentage: 5, MaxUses: 10, IsPublic: true})
	mustCreate(t, s, &CreateDiscountRequest{Code: "PRIVATE", Percentage: 5, MaxUses: 10})
	mustCreate(t, s, &CreateDiscountRequest{Code: "EXPIRED", Percentage: 5, MaxUses: 10, IsPublic: true, ExpiresAt: &past})
	mustCreate(t, s, &CreateDiscountRequest{Code: "USEDUP", Percentage: 5, MaxUses: 1, IsPublic: true})
	mustCreate(t, s, &CreateDiscountRequest{Code: "PUBLIC2", Percentage: 5, MaxUses: 10, IsPublic: true, ExpiresAt: &future})

	_, err := s.Consume(ctx, "USEDUP", "u1", "order-1")
	require.NoError(t, err)

	active, err := s.ListPublicActive(ctx)
	require.NoError(t, err)

	codes := make([]string, len(active))
	for i, d := range active {
		codes[i] = d.Code
	}
	assert.ElementsMatch(t, []string{"PUBLIC1", "PUBLIC2"}, codes)

	count, err := s.CountActivePublic(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestConflicts(t *testing.T) {
	s := newLedger(t, Options{})
	ctx := context.Background()

	require.NoError(t, s.RecordConflict(ctx, "once", "u2", "order-2", "exhausted"))

	conflicts, err := s.ListConflicts(ctx)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "ONCE", conflicts[0].DiscountCode)
	assert.Equal(t, "order-2", conflicts[0].OrderID)
}

func TestGet_NotFound(t *testing.T) {
	s := newLedger(t, Options{})

	_, err := s.Get(context.Background(), "MISSING")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestAmountFor(t *testing.T) {
	d := &Discount{Percentage: 15}

	assert.True(t, decimal.RequireFromString("3.00").Equal(d.AmountFor(decimal.NewFromInt(20))))
	assert.True(t, decimal.RequireFromString("1.50").Equal(d.AmountFor(decimal.RequireFromString("9.99"))))
}
