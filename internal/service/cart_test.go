package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dukerupert/dynamite/internal/domain"
	"github.com/dukerupert/dynamite/internal/repository"
	"github.com/dukerupert/dynamite/internal/repository/repotest"
	"github.com/dukerupert/dynamite/internal/session"
)

func TestCartService_Add(t *testing.T) {
	store := repotest.New()
	svc := NewCartService(store, discardLogger())
	ctx := context.Background()

	tee := store.AddVariant(repotest.Variant{ProductName: "Tee", Label: "L", Price: 1500, StripePriceID: "price_tee", Stock: repotest.Stock(5)})
	hat := store.AddVariant(repotest.Variant{ProductName: "Cap", Price: 800, StripePriceID: "price_cap"})
	off := store.AddVariant(repotest.Variant{ProductName: "Old", Price: 100, Inactive: true})

	sess := &session.Session{Ref: "r"}

	view, err := svc.Add(ctx, sess, tee, 0)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 1, view.Items[0].Quantity)
	assert.Equal(t, "Tee", view.Items[0].Name)
	assert.Equal(t, "L", view.Items[0].VariantLabel)
	assert.Equal(t, int64(1500), view.Items[0].UnitPrice)
	assert.Equal(t, "price_tee", view.Items[0].StripePriceID)

	view, err = svc.Add(ctx, sess, tee, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Items[0].Quantity, "adding again increments")

	_, err = svc.Add(ctx, sess, tee, 3)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 3, sess.State.Cart.Items[0].Quantity, "failed add leaves cart unchanged")

	_, err = svc.Add(ctx, sess, hat, 99)
	require.NoError(t, err)
	view, err = svc.Add(ctx, sess, hat, 5)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxItemQuantity, view.Items[1].Quantity, "capped")
	assert.Equal(t, int64(3*1500+99*800), view.Total)
	assert.Equal(t, 102, view.ItemCount)

	_, err = svc.Add(ctx, sess, off, 1)
	assert.ErrorIs(t, err, ErrVariantNotFound)

	_, err = svc.Add(ctx, sess, uuid.New(), 1)
	assert.ErrorIs(t, err, ErrVariantNotFound)

	for _, qty := range []int{-1, 100} {
		_, err = svc.Add(ctx, sess, tee, qty)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}

	_, err = svc.Add(ctx, nil, tee, 1)
	assert.ErrorIs(t, err, ErrSessionMissing)
}

func TestCartService_UpdateRemoveClear(t *testing.T) {
	store := repotest.New()
	svc := NewCartService(store, discardLogger())
	ctx := context.Background()

	tee := store.AddVariant(repotest.Variant{Price: 1500, StripePriceID: "price_tee", Stock: repotest.Stock(4)})
	mug := store.AddVariant(repotest.Variant{Price: 900, StripePriceID: "price_mug"})
	sess := &session.Session{Ref: "r"}

	_, err := svc.Add(ctx, sess, tee, 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, sess, mug, 1)
	require.NoError(t, err)

	view, err := svc.Update(ctx, sess, tee, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, view.Items[0].Quantity)

	_, err = svc.Update(ctx, sess, tee, 5)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	view, err = svc.Update(ctx, sess, tee, 0)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, mug, view.Items[0].VariantID)

	_, err = svc.Update(ctx, sess, tee, 1)
	assert.ErrorIs(t, err, ErrCartItemNotFound)

	_, err = svc.Remove(sess, tee)
	assert.ErrorIs(t, err, ErrCartItemNotFound)

	view, err = svc.Remove(sess, mug)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.NotNil(t, view.Items)

	_, err = svc.Add(ctx, sess, mug, 2)
	require.NoError(t, err)
	view = svc.Clear(sess)
	assert.Empty(t, view.Items)
	assert.True(t, sess.State.Cart.IsEmpty())
}

func TestCartService_Get(t *testing.T) {
	svc := NewCartService(repotest.New(), discardLogger())

	view, err := svc.Get(&session.Session{Ref: "r"})
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, int64(0), view.Total)

	_, err = svc.Get(nil)
	assert.ErrorIs(t, err, ErrSessionMissing)
}

func TestCartService_DatabaseErrorIsInternal(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := repository.NewMockStore(ctrl)
	id := uuid.New()

	store.EXPECT().GetActiveVariant(gomock.Any(), repository.UUID(id)).Return(repository.GetActiveVariantRow{}, errors.New("pool closed"))

	svc := NewCartService(store, discardLogger())
	_, err := svc.Add(context.Background(), &session.Session{Ref: "r"}, id, 1)

	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
}
