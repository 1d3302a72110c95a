package channel

import (
	"context"
	"testing"

	"shiny/service/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := storage.OpenSQLite(storage.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := NewSQLStore(db)
	require.NoError(t, err)
	return s
}

func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStoreWithClient(rdb, "test:")
}

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"sqlite": func(t *testing.T) Store { return newSQLStore(t) },
		"redis":  func(t *testing.T) Store { return newRedisStore(t) },
	}

	for name, factory := range stores {
		t.Run(name, func(t *testing.T) {
			t.Run("get missing", func(t *testing.T) {
				s := factory(t)
				c, err := s.Get(context.Background(), "nope")
				require.NoError(t, err)
				assert.Nil(t, c)
			})

			t.Run("set and get", func(t *testing.T) {
				s := factory(t)
				ctx := context.Background()
				in := Channel{
					Identifier:  "alerts",
					Description: "Alerts",
					Actions: []Action{
						{Identifier: "reply", Title: "Reply", ActionType: ActionTextReply},
						{Identifier: "open", Title: "Open", ActionType: ActionOpenApp},
					},
				}
				require.NoError(t, s.Set(ctx, in.Identifier, in))

				got, err := s.Get(ctx, "alerts")
				require.NoError(t, err)
				require.NotNil(t, got)
				assert.Equal(t, in, *got)
			})

			t.Run("set overwrites", func(t *testing.T) {
				s := factory(t)
				ctx := context.Background()
				require.NoError(t, s.Set(ctx, "a", Channel{Identifier: "a", Actions: []Action{{Identifier: "x", ActionType: ActionNone}}}))
				require.NoError(t, s.Set(ctx, "a", Channel{Identifier: "a", Description: "second", Actions: []Action{}}))

				all, err := s.GetAll(ctx)
				require.NoError(t, err)
				require.Len(t, all, 1)
				assert.Equal(t, "second", all[0].Description)
				assert.Empty(t, all[0].Actions)
			})

			t.Run("get all ordered", func(t *testing.T) {
				s := factory(t)
				ctx := context.Background()
				for _, id := range []string{"c", "a", "b"} {
					require.NoError(t, s.Set(ctx, id, Channel{Identifier: id}))
				}

				all, err := s.GetAll(ctx)
				require.NoError(t, err)
				ids := make([]string, 0, len(all))
				for _, c := range all {
					ids = append(ids, c.Identifier)
					assert.NotNil(t, c.Actions)
				}
				assert.Equal(t, []string{"a", "b", "c"}, ids)
			})

			t.Run("remove and clear", func(t *testing.T) {
				s := factory(t)
				ctx := context.Background()
				require.NoError(t, s.Set(ctx, "a", Channel{Identifier: "a"}))
				require.NoError(t, s.Set(ctx, "b", Channel{Identifier: "b"}))

				require.NoError(t, s.Remove(ctx, "a"))
				require.NoError(t, s.Remove(ctx, "missing"))
				all, err := s.GetAll(ctx)
				require.NoError(t, err)
				require.Len(t, all, 1)

				require.NoError(t, s.Clear(ctx))
				require.NoError(t, s.Clear(ctx))
				all, err = s.GetAll(ctx)
				require.NoError(t, err)
				assert.Empty(t, all)
			})
		})
	}
}

func TestNewRedisStoreBadURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "not-a-url", "x:")
	assert.Error(t, err)
}

func TestNewRedisStorePings(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := NewRedisStore(context.Background(), "redis://"+mr.Addr()+"/0", "shiny:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(context.Background(), "a", Channel{Identifier: "a"}))
	assert.True(t, mr.Exists("shiny:channels"))
}
