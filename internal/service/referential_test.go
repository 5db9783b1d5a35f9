package service

import (
	"testing"
	"time"

	"github.com/practicedesk/billing/internal/config"
	"github.com/practicedesk/billing/internal/domain/client"
	"github.com/practicedesk/billing/internal/domain/installment"
	"github.com/practicedesk/billing/internal/logger"
	"github.com/practicedesk/billing/internal/testutil"
	"github.com/practicedesk/billing/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterByExistingClients(t *testing.T) {
	due := types.NewDate(2024, time.March, 5)
	names := client.NewNameSet([]*client.ClientRecord{
		{ID: "c1", Name: "Ana"},
		{ID: "c2", Name: " Bruno Lima "},
		nil,
		{ID: "c3", Name: "   "},
	})

	tests := []struct {
		name  string
		items []*installment.Installment
		want  []string
	}{
		{
			name:  "empty collection",
			items: nil,
			want:  []string{},
		},
		{
			name: "orphans are hidden",
			items: []*installment.Installment{
				newInstallment("a-1", "Ana", 1, due, 10),
				newInstallment("d-1", "Daniel", 1, due, 10),
			},
			want: []string{"a-1"},
		},
		{
			name: "names compare trimmed and case insensitive",
			items: []*installment.Installment{
				newInstallment("a-1", "ANA", 1, due, 10),
				newInstallment("b-1", "bruno lima", 1, due, 10),
				newInstallment("b-2", "Bruno  Lima", 2, due, 10),
			},
			want: []string{"a-1", "b-1"},
		},
		{
			name: "first occurrence of an id wins",
			items: []*installment.Installment{
				newInstallment("x-1", "Daniel", 1, due, 10),
				newInstallment("x-1", "Ana", 1, due, 10),
				nil,
			},
			want: []string{},
		},
		{
			name: "blank client names never match",
			items: []*installment.Installment{
				newInstallment("e-1", "", 1, due, 10),
			},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterByExistingClients(tt.items, names)
			assert.Equal(t, tt.want, lo.Map(got, func(item *installment.Installment, _ int) string { return item.ID }))
		})
	}
}

func TestClientDirectorySeesDeletedClientsImmediately(t *testing.T) {
	ctx := testutil.SetupContext()
	cfg := config.GetDefaultConfig()
	require.True(t, cfg.Cache.Enabled)

	clients := testutil.NewInMemoryClientStore()
	_, err := clients.AddClient(ctx, "Ana")
	require.NoError(t, err)

	dir := NewClientDirectory(ServiceParams{
		Logger:     logger.NewNoopLogger(),
		Config:     cfg,
		ClientRepo: clients,
	})

	assert.True(t, dir.Names(ctx).Has("ana"))

	require.NoError(t, clients.RemoveClient(ctx, "Ana"))
	assert.False(t, dir.Names(ctx).Has("ana"))

	_, err = clients.AddClient(ctx, "Bruno")
	require.NoError(t, err)
	assert.True(t, dir.Names(ctx).Has("Bruno"))
}

func TestClientDirectoryHidesEverythingOnFailure(t *testing.T) {
	ctx := testutil.SetupContext()
	cfg := config.GetDefaultConfig()

	clients := testutil.NewInMemoryClientStore()
	_, err := clients.AddClient(ctx, "Ana")
	require.NoError(t, err)

	dir := NewClientDirectory(ServiceParams{
		Logger:     logger.NewNoopLogger(),
		Config:     cfg,
		ClientRepo: clients,
	})

	clients.FailWith(assert.AnError)
	assert.Empty(t, dir.Names(ctx))

	clients.FailWith(nil)
	assert.True(t, dir.Names(ctx).Has("Ana"))
}
