package memorystorage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RussellAbraham/tinyapp/internal/models"
	"github.com/RussellAbraham/tinyapp/internal/user"
)

func Test(t *testing.T) {
	t.Run("The base memorystorage package test", func(t *testing.T) {
		theStorage, err := New()
		require.NoError(t, err, "The memorystorage.New() should not return error")

		ctx := context.Background()

		err = theStorage.CreateUser(ctx, &user.User{ID: "u1", Email: "a@x.com"}, nil)
		assert.NoError(t, err, "The `theStorage.CreateUser()` should not return error")

		usr, found, err := theStorage.FindUserByEmail(ctx, "a@x.com", nil)
		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "u1", usr.ID)

		err = theStorage.InsertURL(ctx, models.URLRecord{ShortCode: "abcdef", LongURL: "http://www.example.com", OwnerID: "u1"}, nil)
		assert.NoError(t, err, "The `theStorage.InsertURL()` should not return error")

		record, found, err := theStorage.FindURLByShort(ctx, "abcdef")
		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "http://www.example.com", record.LongURL)

		err = theStorage.Ping(ctx)
		assert.NoError(t, err, "The memorystorage.Ping() should not return error")

		err = theStorage.Close()
		assert.NoError(t, err, "The memorystorage.Close() should not return error")
	})
}
