package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/models"
)

var billingActor = models.AdminUser{UID: "admin-1", Email: "lawyer@thanathep.example"}

func newBillingService(t *testing.T) (*BillingService, *fakeDocstore) {
	t.Helper()
	fake, store := newFakeDocstore(t)
	return NewBilling(store, NewActivity(store, testLogger()), testLogger()), fake
}

func TestCreateInvoiceTotalsLineItems(t *testing.T) {
	svc, fake := newBillingService(t)

	inv, err := svc.Create(context.Background(), billingActor, models.Invoice{
		LeadID:     "lead-1",
		ClientName: "สมชาย ใจดี",
		Amount:     1, // ignored, recomputed
		Items: []models.InvoiceItem{
			{Description: "ค่าที่ปรึกษา", Price: 15000},
			{Description: "ค่าธรรมเนียมศาล", Price: 2500.50},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 17500.50, inv.Amount)
	require.Equal(t, models.InvoiceUnpaid, inv.Status)
	require.NotEmpty(t, inv.Date)
	require.Equal(t, 1, fake.count("invoices"))
	require.Equal(t, 1, fake.count("activity_logs"))
}

func TestCreateInvoiceRejectsBadInput(t *testing.T) {
	svc, _ := newBillingService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, billingActor, models.Invoice{LeadID: "", Items: []models.InvoiceItem{{Description: "x", Price: 1}}})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, billingActor, models.Invoice{LeadID: "lead-1"})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, billingActor, models.Invoice{
		LeadID: "lead-1",
		Items:  []models.InvoiceItem{{Description: "refund", Price: -5}},
	})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestInvoiceStatusLifecycle(t *testing.T) {
	svc, _ := newBillingService(t)
	ctx := context.Background()

	inv, err := svc.Create(ctx, billingActor, models.Invoice{
		LeadID: "lead-1",
		Items:  []models.InvoiceItem{{Description: "ค่าว่าความ", Price: 30000}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(ctx, billingActor, inv.ID, models.InvoicePaid))
	require.ErrorIs(t, svc.UpdateStatus(ctx, billingActor, inv.ID, "void"), ErrInvalidInput)

	all, err := svc.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, models.InvoicePaid, all[0].Status)
}

func TestInvoicesByLead(t *testing.T) {
	svc, _ := newBillingService(t)
	ctx := context.Background()

	for _, leadID := range []string{"lead-1", "lead-1", "lead-2"} {
		_, err := svc.Create(ctx, billingActor, models.Invoice{
			LeadID: leadID,
			Items:  []models.InvoiceItem{{Description: "งวดแรก", Price: 10000}},
		})
		require.NoError(t, err)
	}

	mine, err := svc.ByLead(ctx, "lead-1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
}
