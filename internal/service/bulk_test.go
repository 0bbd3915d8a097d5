package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itemByID(t *testing.T, result *BulkResult, id string) BulkItemResult {
	t.Helper()
	for _, item := range result.Items {
		if item.ID == id {
			return item
		}
	}
	t.Fatalf("no item result for id %q", id)
	return BulkItemResult{}
}

func assertCounts(t *testing.T, result *BulkResult, success, failed int) {
	t.Helper()
	assert.Equal(t, success, result.SuccessCount)
	assert.Equal(t, failed, result.FailedCount)
	assert.Equal(t, success+failed, len(result.Items))
}

func TestBulkService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id1 := env.mustCreate(t, "tenant-a", "One", nil).ID
	id2 := env.mustCreate(t, "tenant-a", "Two", nil).ID

	result, err := env.bulk.Apply(ctx, "tenant-a", BulkRequest{
		Kind: BulkDelete,
		IDs:  []string{id1, id2, "missing-id"},
	})
	require.NoError(t, err)
	assertCounts(t, result, 2, 1)
	assert.Equal(t, ReasonNotFound, itemByID(t, result, "missing-id").Reason)
	assert.True(t, itemByID(t, result, id1).OK)
}

func TestBulkService_DeleteDistinguishesFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	chain := env.mustChain(t, "tenant-a", "Parent", "Child")
	leaf := env.mustCreate(t, "tenant-a", "Leaf", nil)

	result, err := env.bulk.Apply(ctx, "tenant-a", BulkRequest{
		Kind: BulkDelete,
		IDs:  []string{chain[0].ID, leaf.ID, "missing-id"},
	})
	require.NoError(t, err)
	assertCounts(t, result, 1, 2)

	// "has children" and "not found" stay distinguishable per item.
	assert.Equal(t, RuleHasChildren, itemByID(t, result, chain[0].ID).Reason)
	assert.Equal(t, ReasonNotFound, itemByID(t, result, "missing-id").Reason)
	assert.True(t, itemByID(t, result, leaf.ID).OK)

	// The parent survived the batch.
	_, err = env.accounts.Get(ctx, "tenant-a", chain[0].ID)
	assert.NoError(t, err)
}

func TestBulkService_PartialFailureIsolation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// A failing first item must not abort the rest.
	a := env.mustCreate(t, "tenant-a", "A", nil)
	b := env.mustCreate(t, "tenant-a", "B", nil)

	result, err := env.bulk.Apply(ctx, "tenant-a", BulkRequest{
		Kind:   BulkSetStatus,
		IDs:    []string{"missing-id", a.ID, b.ID},
		Status: "suspended",
	})
	require.NoError(t, err)
	assertCounts(t, result, 2, 1)

	for _, id := range []string{a.ID, b.ID} {
		reloaded, err := env.accounts.Get(ctx, "tenant-a", id)
		require.NoError(t, err)
		assert.Equal(t, "suspended", reloaded.Status)
	}
}

func TestBulkService_Tags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.mustCreate(t, "tenant-a", "A", nil)
	b := env.mustCreate(t, "tenant-a", "B", nil)

	add, err := env.bulk.Apply(ctx, "tenant-a", BulkRequest{
		Kind: BulkAddTags,
		IDs:  []string{a.ID, b.ID},
		Tags: []string{"priority", "reviewed"},
	})
	require.NoError(t, err)
	assertCounts(t, add, 2, 0)

	reloaded, err := env.accounts.Get(ctx, "tenant-a", a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"priority", "reviewed"}, reloaded.Tags)

	remove, err := env.bulk.Apply(ctx, "tenant-a", BulkRequest{
		Kind: BulkRemoveTags,
		IDs:  []string{a.ID, b.ID},
		Tags: []string{"priority", "reviewed"},
	})
	require.NoError(t, err)
	assertCounts(t, remove, 2, 0)

	reloaded, err = env.accounts.Get(ctx, "tenant-a", a.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Tags)
}

func TestBulkService_UpdateFieldsAndOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.mustCreate(t, "tenant-a", "A", nil)

	t.Run("update-fields applies the shared field set", func(t *testing.T) {
		result, err := env.bulk.Apply(ctx, "tenant-a", BulkRequest{
			Kind:   BulkUpdateFields,
			IDs:    []string{a.ID},
			Fields: UpdateAccountInput{Status: strptr("archived")},
		})
		require.NoError(t, err)
		assertCounts(t, result, 1, 0)
	})

	t.Run("reassign-owner applies to every id", func(t *testing.T) {
		result, err := env.bulk.Apply(ctx, "tenant-a", BulkRequest{
			Kind:    BulkReassignOwner,
			IDs:     []string{a.ID, "missing-id"},
			OwnerID: "owner-9",
		})
		require.NoError(t, err)
		assertCounts(t, result, 1, 1)

		reloaded, err := env.accounts.Get(ctx, "tenant-a", a.ID)
		require.NoError(t, err)
		assert.Equal(t, "owner-9", reloaded.OwnerID)
	})
}

func TestBulkService_BatchPreconditions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.mustCreate(t, "tenant-a", "A", nil)

	cases := []struct {
		name string
		req  BulkRequest
	}{
		{"empty ids", BulkRequest{Kind: BulkDelete}},
		{"reassign without owner", BulkRequest{Kind: BulkReassignOwner, IDs: []string{a.ID}}},
		{"set-status without status", BulkRequest{Kind: BulkSetStatus, IDs: []string{a.ID}}},
		{"add-tags without tags", BulkRequest{Kind: BulkAddTags, IDs: []string{a.ID}}},
		{"remove-tags without tags", BulkRequest{Kind: BulkRemoveTags, IDs: []string{a.ID}}},
		{"update-fields without fields", BulkRequest{Kind: BulkUpdateFields, IDs: []string{a.ID}}},
		{"unknown kind", BulkRequest{Kind: "explode", IDs: []string{a.ID}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := env.bulk.Apply(ctx, "tenant-a", tc.req)
			// Precondition failures reject the whole batch before fan-out.
			assert.Nil(t, result)
			requireRule(t, err, RuleMissingField)
		})
	}
}

func TestBulkService_CancelledContext(t *testing.T) {
	env := newTestEnv(t)

	a := env.mustCreate(t, "tenant-a", "A", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := env.bulk.Apply(ctx, "tenant-a", BulkRequest{
		Kind:   BulkSetStatus,
		IDs:    []string{a.ID},
		Status: "suspended",
	})
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBulkService_CountInvariant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ids := []string{
		env.mustCreate(t, "tenant-a", "A", nil).ID,
		"missing-1",
		env.mustCreate(t, "tenant-a", "B", nil).ID,
		"missing-2",
		"missing-3",
	}

	result, err := env.bulk.Apply(ctx, "tenant-a", BulkRequest{
		Kind:   BulkSetStatus,
		IDs:    ids,
		Status: "suspended",
	})
	require.NoError(t, err)
	assert.Equal(t, len(ids), result.SuccessCount+result.FailedCount)
	assert.Len(t, result.Items, len(ids))
}
