package handlers

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/wishfund/internal/models"
	"github.com/Kerhoff/wishfund/pkg/apperrors"
)

type fakeBrowser struct {
	wishes map[int64]*models.Wish
	top    []*models.Wish
	last   []*models.Wish
	err    error
}

func (f *fakeBrowser) FindOne(_ context.Context, id int64) (*models.Wish, error) {
	if f.err != nil {
		return nil, f.err
	}
	w, ok := f.wishes[id]
	if !ok {
		return nil, apperrors.NotFound("wish not found")
	}
	return w, nil
}

func (f *fakeBrowser) FindLast(context.Context) ([]*models.Wish, error) { return f.last, f.err }
func (f *fakeBrowser) FindTop(context.Context) ([]*models.Wish, error)  { return f.top, f.err }

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func sampleWish() *models.Wish {
	return &models.Wish{
		ID:     7,
		Name:   "Camera_bag",
		Price:  decimal.NewFromInt(100),
		Raised: decimal.NewFromInt(60),
		Owner:  &models.User{ID: 1, Username: "alice"},
		Offers: []*models.Offer{
			{ID: 1, Amount: decimal.NewFromInt(40), UserID: 2, User: &models.User{ID: 2, Username: "bob"}},
			{ID: 2, Amount: decimal.NewFromInt(20), Hidden: true, UserID: 3, User: &models.User{ID: 3, Username: "carol"}},
		},
	}
}

func TestFormatWish(t *testing.T) {
	text := formatWish(sampleWish())

	assert.Contains(t, text, `Camera\_bag`)
	assert.Contains(t, text, "for alice")
	assert.Contains(t, text, "Price: 100.00")
	assert.Contains(t, text, "Raised: 60.00")
	assert.Contains(t, text, "Remaining: 40.00")
	assert.Contains(t, text, "bob: 40.00")
	assert.Contains(t, text, "anonymous: 20.00")
	assert.NotContains(t, text, "carol")
}

func TestFormatWish_Funded(t *testing.T) {
	w := sampleWish()
	w.Raised = w.Price

	text := formatWish(w)
	assert.Contains(t, text, "Fully funded")
	assert.NotContains(t, text, "Remaining")
}

func TestFormatWishList(t *testing.T) {
	assert.Contains(t, formatWishList("Top", nil), "No wishes yet")

	text := formatWishList("Top", []*models.Wish{sampleWish()})
	assert.Contains(t, text, "#7 Camera\\_bag: 60.00 / 100.00")
	assert.Contains(t, text, "/wish <id>")
}

func TestWishHandler_Reply(t *testing.T) {
	browser := &fakeBrowser{wishes: map[int64]*models.Wish{7: sampleWish()}}
	h := NewWishHandler(browser, quietLogger())
	ctx := context.Background()

	text, err := h.reply(ctx, nil)
	require.NoError(t, err)
	assert.Contains(t, text, "Usage")

	text, err = h.reply(ctx, []string{"abc"})
	require.NoError(t, err)
	assert.Contains(t, text, "Invalid wish id")

	text, err = h.reply(ctx, []string{"99"})
	require.NoError(t, err)
	assert.Contains(t, text, "#99 not found")

	text, err = h.reply(ctx, []string{"7"})
	require.NoError(t, err)
	assert.Contains(t, text, "Raised: 60.00")
}

func TestWishHandler_ReplyStoreError(t *testing.T) {
	browser := &fakeBrowser{err: errors.New("connection refused")}
	h := NewWishHandler(browser, quietLogger())

	_, err := h.reply(context.Background(), []string{"7"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestListHandlers_Reply(t *testing.T) {
	w := sampleWish()
	browser := &fakeBrowser{top: []*models.Wish{w}, last: []*models.Wish{w}}
	ctx := context.Background()

	top, err := NewTopHandler(browser, quietLogger()).reply(ctx)
	require.NoError(t, err)
	assert.Contains(t, top, "Most copied")

	last, err := NewLastHandler(browser, quietLogger()).reply(ctx)
	require.NoError(t, err)
	assert.Contains(t, last, "Newest")
	assert.Contains(t, last, "#7")
}
