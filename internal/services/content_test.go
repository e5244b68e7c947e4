package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/api"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/models"
)

func newContentService(t *testing.T) (*ContentService, *fakeDocstore) {
	t.Helper()
	fake, store := newFakeDocstore(t)
	mailer := NewMailer(store, api.NewEmailClient("", ""), "", "", "", "", testLogger())
	return NewContent(store, mailer, testLogger()), fake
}

func TestCreateNewsStampsThaiDate(t *testing.T) {
	svc, _ := newContentService(t)

	item, err := svc.CreateNews(context.Background(), models.NewsItem{
		Category:    "blog",
		Title:       "กฎหมายแรงงานฉบับใหม่",
		Description: "สาระสำคัญ <b>ที่ควรรู้</b>",
	}, false)
	require.NoError(t, err)
	require.NotEmpty(t, item.ID)

	now := time.Now()
	require.Equal(t, fmt.Sprintf("%d/%d/%d", now.Day(), int(now.Month()), now.Year()+543), item.Date)
	require.Contains(t, item.Description, "&lt;b&gt;")
}

func TestCreateNewsRequiresTitle(t *testing.T) {
	svc, fake := newContentService(t)

	_, err := svc.CreateNews(context.Background(), models.NewsItem{Description: "no title"}, false)
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Zero(t, fake.count("news"))
}

func TestCreateNewsRejectsNonWebImage(t *testing.T) {
	svc, fake := newContentService(t)

	_, err := svc.CreateNews(context.Background(), models.NewsItem{
		Title: "ประกาศ",
		Image: "javascript:alert(1)",
	}, false)
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Zero(t, fake.count("news"))

	_, err = svc.CreateNews(context.Background(), models.NewsItem{
		Title: "ประกาศ",
		Image: "https://cdn.example.com/cover.webp",
	}, false)
	require.NoError(t, err)
}

func TestBroadcastRecordsMailPerSubscriber(t *testing.T) {
	svc, fake := newContentService(t)
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, "a@example.com"))
	require.NoError(t, svc.Subscribe(ctx, "b@example.com"))

	_, err := svc.CreateNews(ctx, models.NewsItem{Title: "ประกาศ"}, true)
	require.NoError(t, err)
	require.Equal(t, 2, fake.count("sent_emails"))
}

func TestSubscribeDeduplicates(t *testing.T) {
	svc, fake := newContentService(t)
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, "a@example.com"))
	require.NoError(t, svc.Subscribe(ctx, "a@example.com"))
	require.Equal(t, 1, fake.count("subscribers"))

	require.ErrorIs(t, svc.Subscribe(ctx, "not-an-email"), ErrInvalidInput)
}

func TestCaseStudyLifecycle(t *testing.T) {
	svc, fake := newContentService(t)
	ctx := context.Background()

	cs, err := svc.CreateCase(ctx, models.CaseStudy{
		Category: "corporate",
		Title:    "คดีควบรวมกิจการ",
		Year:     "2567",
	})
	require.NoError(t, err)

	cases, err := svc.AllCases(ctx)
	require.NoError(t, err)
	require.Len(t, cases, 1)

	require.NoError(t, svc.DeleteCase(ctx, cs.ID))
	require.Zero(t, fake.count("cases"))
}
