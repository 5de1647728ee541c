package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/modcore/shop-backend/internal/cache"
	"github.com/modcore/shop-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type promoFixture struct {
	profiles *fakeProfileStore
	promos   *fakePromoStore
	snaps    cache.Store
	svc      *PromoService
	user     *models.Profile
}

func newPromoFixture(t *testing.T, balance string, codes ...*models.PromoCode) *promoFixture {
	t.Helper()

	user := testProfile(balance)
	profiles := newFakeProfileStore(user)
	promos := newFakePromoStore(codes...)
	snaps := cache.NewMemoryStore()
	reconciler := NewReconciler(profiles, snaps, time.Hour)
	svc := NewPromoService(profiles, promos, &fakeOutbox{}, snaps, reconciler, "shop.redemptions")

	return &promoFixture{
		profiles: profiles,
		promos:   promos,
		snaps:    snaps,
		svc:      svc,
		user:     user,
	}
}

func welcomeCode(current int) *models.PromoCode {
	return &models.PromoCode{
		ID:                 uuid.New(),
		Code:               "WELCOME50",
		Amount:             dec("5.00"),
		MaxRedemptions:     100,
		CurrentRedemptions: current,
		Active:             true,
	}
}

func TestRedeem(t *testing.T) {
	ctx := context.Background()

	t.Run("credits the balance and bumps the counter", func(t *testing.T) {
		code := welcomeCode(45)
		f := newPromoFixture(t, "200.00", code)

		res, err := f.svc.Redeem(ctx, f.user.ID, "WELCOME50")
		require.NoError(t, err)

		assert.True(t, res.Amount.Equal(dec("5.00")))
		assert.True(t, res.NewBalance.Equal(dec("205.00")), "new balance = %s", res.NewBalance)
		assert.True(t, f.profiles.balance(f.user.ID).Equal(dec("205.00")))

		updated := f.promos.code(code.ID)
		assert.Equal(t, 46, updated.CurrentRedemptions)
		assert.True(t, updated.Active, "well under the cap")
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		f := newPromoFixture(t, "10.00", welcomeCode(0))

		res, err := f.svc.Redeem(ctx, f.user.ID, "  WELCOME50 ")
		require.NoError(t, err)
		assert.Equal(t, "WELCOME50", res.Code)
	})

	t.Run("unknown code", func(t *testing.T) {
		f := newPromoFixture(t, "10.00")

		_, err := f.svc.Redeem(ctx, f.user.ID, "NOPE")
		require.ErrorIs(t, err, ErrInvalidCode)
		assert.Equal(t, 0, f.profiles.updateCount())
	})

	t.Run("empty code", func(t *testing.T) {
		f := newPromoFixture(t, "10.00")

		_, err := f.svc.Redeem(ctx, f.user.ID, "   ")
		require.ErrorIs(t, err, ErrInvalidCode)
	})

	t.Run("inactive code", func(t *testing.T) {
		code := welcomeCode(0)
		code.Active = false
		f := newPromoFixture(t, "10.00", code)

		_, err := f.svc.Redeem(ctx, f.user.ID, "WELCOME50")
		require.ErrorIs(t, err, ErrInvalidCode)
	})

	t.Run("second redeem by the same user is rejected", func(t *testing.T) {
		code := welcomeCode(0)
		f := newPromoFixture(t, "100.00", code)

		_, err := f.svc.Redeem(ctx, f.user.ID, "WELCOME50")
		require.NoError(t, err)

		_, err = f.svc.Redeem(ctx, f.user.ID, "WELCOME50")
		require.ErrorIs(t, err, ErrAlreadyRedeemed)

		assert.True(t, f.profiles.balance(f.user.ID).Equal(dec("105.00")), "credited exactly once")
		assert.Equal(t, 1, f.promos.code(code.ID).CurrentRedemptions)
	})

	t.Run("credit is computed from the fresh remote balance", func(t *testing.T) {
		f := newPromoFixture(t, "100.00", welcomeCode(0))

		// Stale optimistic snapshot. The redemption must ignore it.
		stale := cache.NewSnapshot(f.user)
		stale.Balance = dec("20.00")
		require.NoError(t, f.snaps.PutSnapshot(ctx, stale))

		res, err := f.svc.Redeem(ctx, f.user.ID, "WELCOME50")
		require.NoError(t, err)
		assert.True(t, res.NewBalance.Equal(dec("105.00")))
	})

	t.Run("reaching the cap deactivates the code in the same update", func(t *testing.T) {
		code := welcomeCode(0)
		code.MaxRedemptions = 2
		code.CurrentRedemptions = 1
		f := newPromoFixture(t, "50.00", code)

		_, err := f.svc.Redeem(ctx, f.user.ID, "WELCOME50")
		require.NoError(t, err)

		updated := f.promos.code(code.ID)
		assert.Equal(t, 2, updated.CurrentRedemptions)
		assert.False(t, updated.Active, "count hit the cap")
	})

	t.Run("exhausted but still active code is repaired and rejected", func(t *testing.T) {
		code := welcomeCode(0)
		code.MaxRedemptions = 2
		code.CurrentRedemptions = 2
		f := newPromoFixture(t, "50.00", code)

		_, err := f.svc.Redeem(ctx, f.user.ID, "WELCOME50")
		require.ErrorIs(t, err, ErrCodeExhausted)

		assert.False(t, f.promos.code(code.ID).Active)
		assert.True(t, f.profiles.balance(f.user.ID).Equal(dec("50.00")))
	})

	t.Run("uncapped code never deactivates", func(t *testing.T) {
		code := welcomeCode(0)
		code.MaxRedemptions = 0
		code.CurrentRedemptions = 99999
		f := newPromoFixture(t, "0.00", code)

		_, err := f.svc.Redeem(ctx, f.user.ID, "WELCOME50")
		require.NoError(t, err)
		assert.True(t, f.promos.code(code.ID).Active)
	})

	t.Run("failed credit fails the redemption", func(t *testing.T) {
		code := welcomeCode(0)
		f := newPromoFixture(t, "50.00", code)
		f.profiles.updateErr = errors.New("connection reset")

		_, err := f.svc.Redeem(ctx, f.user.ID, "WELCOME50")
		require.ErrorIs(t, err, ErrTransactionFailed)

		_, err = f.promos.GetRedemption(ctx, f.user.ID, code.ID)
		assert.Error(t, err, "no redemption row without a credit")
		assert.Equal(t, 0, f.promos.code(code.ID).CurrentRedemptions)
	})

	t.Run("failed redemption record keeps the credit", func(t *testing.T) {
		code := welcomeCode(0)
		f := newPromoFixture(t, "50.00", code)
		f.promos.insertRedemptionErr = errors.New("insert rejected")

		res, err := f.svc.Redeem(ctx, f.user.ID, "WELCOME50")
		require.NoError(t, err, "the credit already committed")
		assert.True(t, res.NewBalance.Equal(dec("55.00")))
		assert.True(t, f.profiles.balance(f.user.ID).Equal(dec("55.00")))
	})

	t.Run("failed counter update keeps the credit", func(t *testing.T) {
		code := welcomeCode(10)
		f := newPromoFixture(t, "50.00", code)
		f.promos.updateErr = errors.New("update rejected")

		res, err := f.svc.Redeem(ctx, f.user.ID, "WELCOME50")
		require.NoError(t, err)
		assert.True(t, res.NewBalance.Equal(dec("55.00")))
		assert.Equal(t, 10, f.promos.code(code.ID).CurrentRedemptions, "counter stayed behind")
	})
}

func TestRedeemedCodes(t *testing.T) {
	ctx := context.Background()
	f := newPromoFixture(t, "100.00", welcomeCode(0))

	assert.Empty(t, f.svc.RedeemedCodes(ctx, f.user.ID))

	_, err := f.svc.Redeem(ctx, f.user.ID, "WELCOME50")
	require.NoError(t, err)

	assert.Equal(t, []string{"WELCOME50"}, f.svc.RedeemedCodes(ctx, f.user.ID))
}
