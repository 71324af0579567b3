package leads

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestInMemoryRepository_UpsertCreatesAndMerges(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	created, err := repo.Upsert(ctx, &UpsertRequest{
		Name:    "Ana",
		Email:   "Ana@Example.com",
		Channel: "webchat",
		Tags:    []string{"first_dive"},
		Message: "quiero reservar",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "ana@example.com", created.Email, "email stored lowercased")
	require.Len(t, created.Interactions, 1)

	// Same email with different casing merges into the existing lead.
	merged, err := repo.Upsert(ctx, &UpsertRequest{
		Name:    "Ana Pérez",
		Email:   "ANA@EXAMPLE.COM",
		Phone:   "628123456",
		Channel: "web_form",
		Message: "segundo contacto",
	})
	require.NoError(t, err)
	require.Equal(t, created.ID, merged.ID)
	require.Equal(t, "Ana Pérez", merged.Name)
	require.Equal(t, "628123456", merged.Phone)
	require.Len(t, merged.Interactions, 2)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestInMemoryRepository_PhoneFallbackMatch(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	created, err := repo.Upsert(ctx, &UpsertRequest{Name: "Luis", Phone: "+34600112233"})
	require.NoError(t, err)

	// No email on either side, phone matches verbatim.
	merged, err := repo.Upsert(ctx, &UpsertRequest{Phone: "+34600112233", Email: "luis@example.com"})
	require.NoError(t, err)
	require.Equal(t, created.ID, merged.ID)
	require.Equal(t, "luis@example.com", merged.Email)
	require.Equal(t, "Luis", merged.Name, "empty name must not overwrite")
}

func TestInMemoryRepository_EmailTakesPriorityOverPhone(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	byEmail, err := repo.Upsert(ctx, &UpsertRequest{Email: "a@example.com"})
	require.NoError(t, err)
	byPhone, err := repo.Upsert(ctx, &UpsertRequest{Phone: "111222333"})
	require.NoError(t, err)
	require.NotEqual(t, byEmail.ID, byPhone.ID)

	// Request carrying both keys matches the email lead, not the phone one.
	merged, err := repo.Upsert(ctx, &UpsertRequest{Email: "a@example.com", Phone: "111222333"})
	require.NoError(t, err)
	require.Equal(t, byEmail.ID, merged.ID)
}

func TestInMemoryRepository_RejectsMissingContact(t *testing.T) {
	repo := NewInMemoryRepository()

	_, err := repo.Upsert(context.Background(), &UpsertRequest{Name: "Ana", Message: "hola"})
	require.ErrorIs(t, err, ErrMissingContact)

	all, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestInMemoryRepository_ConsentOnlyChangesWhenProvided(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	lead, err := repo.Upsert(ctx, &UpsertRequest{Email: "c@example.com", MarketingConsent: boolPtr(true)})
	require.NoError(t, err)
	require.True(t, lead.MarketingConsent)

	// Absent consent leaves the stored value alone.
	lead, err = repo.Upsert(ctx, &UpsertRequest{Email: "c@example.com", Message: "otra vez"})
	require.NoError(t, err)
	require.True(t, lead.MarketingConsent)

	lead, err = repo.Upsert(ctx, &UpsertRequest{Email: "c@example.com", MarketingConsent: boolPtr(false)})
	require.NoError(t, err)
	require.False(t, lead.MarketingConsent)
}

func TestInMemoryRepository_InteractionLogBounded(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	var lead *Lead
	var err error
	for i := 0; i < interactionLimit+10; i++ {
		lead, err = repo.Upsert(ctx, &UpsertRequest{
			Email:   "busy@example.com",
			Message: fmt.Sprintf("mensaje %d", i),
		})
		require.NoError(t, err)
	}

	require.Len(t, lead.Interactions, interactionLimit)
	last, ok := lead.LastInteraction()
	require.True(t, ok)
	require.Equal(t, fmt.Sprintf("mensaje %d", interactionLimit+9), last.Message)
}

func TestInMemoryRepository_CloneIsolation(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	created, err := repo.Upsert(ctx, &UpsertRequest{Email: "iso@example.com", Name: "Iso"})
	require.NoError(t, err)

	created.Name = "mutated"
	created.Interactions = nil

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Equal(t, "Iso", all[0].Name)
	require.Len(t, all[0].Interactions, 1)
}
