package users

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/dbtest"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/models"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/enums"
)

func TestUpsertByEmailReturnsFirstUser(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	first := time.Now().UTC().Add(-time.Hour)

	created, err := repo.UpsertByEmail(ctx, UpsertParams{Email: "Asha@Example.com", Name: "Asha", Role: enums.UserRoleBuyer, LoginAt: first})
	require.NoError(t, err)
	require.Equal(t, "asha@example.com", created.Email)

	again, err := repo.UpsertByEmail(ctx, UpsertParams{Email: "asha@example.com", Name: "Someone Else", Role: enums.UserRoleAdmin, LoginAt: time.Now().UTC()})
	require.NoError(t, err)
	require.Equal(t, created.ID, again.ID)
	require.Equal(t, "Asha", again.Name)
	require.Equal(t, enums.UserRoleAdmin, again.Role)
	require.True(t, again.LastLoginAt.After(first))

	var count int64
	require.NoError(t, conn.Model(&models.User{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestUpsertByEmailConcurrentFirstLogin(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	const workers = 8
	ids := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			user, err := repo.UpsertByEmail(ctx, UpsertParams{Email: "race@example.com", Name: "Race", Role: enums.UserRoleBuyer, LoginAt: time.Now()})
			if err == nil {
				ids <- user.ID.String()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]struct{}{}
	for id := range ids {
		seen[id] = struct{}{}
	}
	require.Len(t, seen, 1)

	var count int64
	require.NoError(t, conn.Model(&models.User{}).Where("email = ?", "race@example.com").Count(&count).Error)
	require.Equal(t, int64(1), count)
}
