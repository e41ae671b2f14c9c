package repository

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"jndata/internal/domain"
	"jndata/internal/models"
	"jndata/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "short", truncateRunes("short", 10))
	assert.Equal(t, "ab", truncateRunes("abc", 2))
	// "é" is two bytes; cutting at 3 would split it.
	assert.Equal(t, "ab", truncateRunes("abé", 3))
	assert.Equal(t, "abé", truncateRunes("abé", 4))
}

func TestMarkFailedKeepsReasonValidUTF8(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewTransactionRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &models.PaymentTransaction{
		Reference: "jn-utf8",
		Amount:    testutil.Dec("10"),
		Status:    domain.TxStatusPending,
	}))

	reason := "payment status is " + strings.Repeat("é", 200)
	marked, err := repo.MarkFailed(ctx, "jn-utf8", reason)
	require.NoError(t, err)
	require.True(t, marked)

	tx, err := repo.GetByReference(ctx, "jn-utf8")
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusFailed, tx.Status)
	assert.LessOrEqual(t, len(tx.FailureReason), 255)
	assert.True(t, utf8.ValidString(tx.FailureReason))
	assert.True(t, strings.HasPrefix(reason, tx.FailureReason))
}
