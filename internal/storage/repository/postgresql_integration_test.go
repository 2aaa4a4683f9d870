package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/healthlife-backend/internal/models"
)

func TestStorage_UpsertUnverifiedAccount(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	expires := time.Now().Add(10 * time.Minute)

	t.Run("creates unverified account", func(t *testing.T) {
		uid, err := storage.UpsertUnverifiedAccount(ctx, models.Account{
			Kind:         models.KindUser,
			Name:         "Alice",
			Email:        "alice@example.com",
			PasswordHash: "hash-1",
			OTPHash:      "otp-hash-1",
			OTPExpiresAt: &expires,
		})
		require.NoError(t, err)
		require.NotEmpty(t, uid)

		acc, err := storage.GetAccount(ctx, uid)
		require.NoError(t, err)
		assert.False(t, acc.Verified)
		assert.Equal(t, "otp-hash-1", acc.OTPHash)
	})

	t.Run("second request overwrites the same record", func(t *testing.T) {
		first, err := storage.UpsertUnverifiedAccount(ctx, models.Account{
			Kind: models.KindUser, Name: "Bob", Email: "bob@example.com",
			PasswordHash: "hash-1", OTPHash: "otp-hash-1", OTPExpiresAt: &expires,
		})
		require.NoError(t, err)

		second, err := storage.UpsertUnverifiedAccount(ctx, models.Account{
			Kind: models.KindUser, Name: "Bobby", Email: "bob@example.com",
			PasswordHash: "hash-2", OTPHash: "otp-hash-2", OTPExpiresAt: &expires,
		})
		require.NoError(t, err)
		assert.Equal(t, first, second)

		acc, err := storage.GetAccount(ctx, second)
		require.NoError(t, err)
		assert.Equal(t, "Bobby", acc.Name)
		assert.Equal(t, "hash-2", acc.PasswordHash)
		assert.Equal(t, "otp-hash-2", acc.OTPHash)
	})

	t.Run("verified and unverified records coexist", func(t *testing.T) {
		factory := NewTestDataFactory(storage)
		factory.CreateAccount(t, models.KindUser, "Carol", "carol@example.com", "old-hash", true)

		uid, err := storage.UpsertUnverifiedAccount(ctx, models.Account{
			Kind: models.KindUser, Name: "Carol", Email: "carol@example.com",
			PasswordHash: "new-hash", OTPHash: "otp-hash", OTPExpiresAt: &expires,
		})
		require.NoError(t, err)

		acc, err := storage.GetAccount(ctx, uid)
		require.NoError(t, err)
		assert.False(t, acc.Verified)
	})

	t.Run("same email with another kind is independent", func(t *testing.T) {
		userUID, err := storage.UpsertUnverifiedAccount(ctx, models.Account{
			Kind: models.KindUser, Name: "Dave", Email: "dave@example.com",
			PasswordHash: "hash", OTPHash: "otp-a", OTPExpiresAt: &expires,
		})
		require.NoError(t, err)

		doctorUID, err := storage.UpsertUnverifiedAccount(ctx, models.Account{
			Kind: models.KindDoctor, Name: "Dr. Dave", Email: "dave@example.com",
			PasswordHash: "hash", OTPHash: "otp-b", OTPExpiresAt: &expires,
		})
		require.NoError(t, err)
		assert.NotEqual(t, userUID, doctorUID)
	})
}

func TestStorage_GetAccountByEmail(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)

	t.Run("prefers verified record", func(t *testing.T) {
		verifiedUID := factory.CreateAccount(t, models.KindUser, "Alice", "alice@example.com", "verified-hash", true)
		factory.CreateAccount(t, models.KindUser, "Alice", "alice@example.com", "pending-hash", false)

		acc, err := storage.GetAccountByEmail(ctx, models.KindUser, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, verifiedUID, acc.UID)
		assert.True(t, acc.Verified)
	})

	t.Run("scoped by kind", func(t *testing.T) {
		factory.CreateAccount(t, models.KindDoctor, "Dr. Bob", "bob@example.com", "hash", true)

		_, err := storage.GetAccountByEmail(ctx, models.KindUser, "bob@example.com")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := storage.GetAccountByEmail(ctx, models.KindUser, "nobody@example.com")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStorage_MarkVerified(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)

	t.Run("one-shot transition clears challenge", func(t *testing.T) {
		uid := factory.CreateAccountWithChallenge(t, models.KindUser, "alice@example.com", "otp-hash", time.Now().Add(10*time.Minute))

		require.NoError(t, storage.MarkVerified(ctx, uid, "otp-hash"))

		acc, err := storage.GetAccount(ctx, uid)
		require.NoError(t, err)
		assert.True(t, acc.Verified)
		assert.Empty(t, acc.OTPHash)
		assert.Nil(t, acc.OTPExpiresAt)

		// Повторный переход с тем же челленджем не проходит.
		require.ErrorIs(t, storage.MarkVerified(ctx, uid, "otp-hash"), ErrNotFound)
	})

	t.Run("stale challenge hash is rejected", func(t *testing.T) {
		uid := factory.CreateAccountWithChallenge(t, models.KindUser, "bob@example.com", "current-otp", time.Now().Add(10*time.Minute))

		require.ErrorIs(t, storage.MarkVerified(ctx, uid, "previous-otp"), ErrNotFound)

		acc, err := storage.GetAccount(ctx, uid)
		require.NoError(t, err)
		assert.False(t, acc.Verified)
	})

	t.Run("unknown uid", func(t *testing.T) {
		require.ErrorIs(t, storage.MarkVerified(ctx, uuid.New().String(), "otp-hash"), ErrNotFound)
	})
}

func TestStorage_SetChallenge(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)

	t.Run("stores challenge without touching verified", func(t *testing.T) {
		uid := factory.CreateAccount(t, models.KindUser, "Alice", "alice@example.com", "hash", true)
		expires := time.Now().Add(10 * time.Minute)

		require.NoError(t, storage.SetChallenge(ctx, uid, "reset-otp", expires))

		acc, err := storage.GetAccount(ctx, uid)
		require.NoError(t, err)
		assert.True(t, acc.Verified)
		assert.Equal(t, "reset-otp", acc.OTPHash)
		require.NotNil(t, acc.OTPExpiresAt)
		assert.WithinDuration(t, expires, *acc.OTPExpiresAt, time.Second)
	})

	t.Run("unknown uid", func(t *testing.T) {
		err := storage.SetChallenge(ctx, uuid.New().String(), "reset-otp", time.Now().Add(10*time.Minute))
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStorage_UpdatePassword(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)

	t.Run("replaces hash and clears challenge", func(t *testing.T) {
		uid := factory.CreateAccount(t, models.KindUser, "Alice", "alice@example.com", "old-hash", true)
		require.NoError(t, storage.SetChallenge(ctx, uid, "reset-otp", time.Now().Add(10*time.Minute)))

		require.NoError(t, storage.UpdatePassword(ctx, uid, "new-hash", "reset-otp"))

		acc, err := storage.GetAccount(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, "new-hash", acc.PasswordHash)
		assert.Empty(t, acc.OTPHash)

		// Челлендж уже израсходован, вторая смена не проходит.
		require.ErrorIs(t, storage.UpdatePassword(ctx, uid, "another-hash", "reset-otp"), ErrNotFound)
	})

	t.Run("stale challenge hash is rejected", func(t *testing.T) {
		uid := factory.CreateAccount(t, models.KindUser, "Bob", "bob@example.com", "old-hash", true)
		require.NoError(t, storage.SetChallenge(ctx, uid, "current-otp", time.Now().Add(10*time.Minute)))

		require.ErrorIs(t, storage.UpdatePassword(ctx, uid, "new-hash", "previous-otp"), ErrNotFound)

		acc, err := storage.GetAccount(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, "old-hash", acc.PasswordHash)
	})
}

func TestStorage_UpdateUserProfile(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)

	t.Run("updates profile fields", func(t *testing.T) {
		uid := factory.CreateAccount(t, models.KindUser, "Alice", "alice@example.com", "hash", true)

		err := storage.UpdateUserProfile(ctx, uid, models.Account{
			Name: "Alice Smith", Phone: "+1234567890", DOB: "1990-05-01",
			Gender: "female", Address: "1 Main St", ImageURL: "https://cdn.example.com/a.png",
		})
		require.NoError(t, err)

		acc, err := storage.GetAccount(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, "Alice Smith", acc.Name)
		assert.Equal(t, "+1234567890", acc.Phone)
		assert.Equal(t, "https://cdn.example.com/a.png", acc.ImageURL)
	})

	t.Run("empty image keeps previous one", func(t *testing.T) {
		uid := factory.CreateAccount(t, models.KindUser, "Bob", "bob@example.com", "hash", true)
		require.NoError(t, storage.UpdateUserProfile(ctx, uid, models.Account{
			Name: "Bob", ImageURL: "https://cdn.example.com/b.png",
		}))

		require.NoError(t, storage.UpdateUserProfile(ctx, uid, models.Account{Name: "Bob"}))

		acc, err := storage.GetAccount(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/b.png", acc.ImageURL)
	})

	t.Run("doctor account is not touched", func(t *testing.T) {
		uid := factory.CreateAccount(t, models.KindDoctor, "Dr. Carol", "carol@example.com", "hash", true)
		err := storage.UpdateUserProfile(ctx, uid, models.Account{Name: "Carol"})
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStorage_UpdateDoctorProfile(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)

	t.Run("updates fields and marks profile complete", func(t *testing.T) {
		uid := factory.CreateAccount(t, models.KindDoctor, "Dr. Alice", "alice@example.com", "hash", true)

		err := storage.UpdateDoctorProfile(ctx, uid, models.Account{
			Speciality: "Cardiology", Degree: "MD", Experience: "10 years",
			About: "Heart specialist", Available: true,
		})
		require.NoError(t, err)

		acc, err := storage.GetAccount(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, "Cardiology", acc.Speciality)
		assert.True(t, acc.ProfileComplete)
	})

	t.Run("user account is not touched", func(t *testing.T) {
		uid := factory.CreateAccount(t, models.KindUser, "Bob", "bob@example.com", "hash", true)
		err := storage.UpdateDoctorProfile(ctx, uid, models.Account{Speciality: "Cardiology"})
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStorage_ToggleAvailability(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)

	uid := factory.CreateAccount(t, models.KindDoctor, "Dr. Alice", "alice@example.com", "hash", true)

	available, err := storage.ToggleAvailability(ctx, uid)
	require.NoError(t, err)
	assert.False(t, available)

	available, err = storage.ToggleAvailability(ctx, uid)
	require.NoError(t, err)
	assert.True(t, available)

	t.Run("user account", func(t *testing.T) {
		userUID := factory.CreateAccount(t, models.KindUser, "Bob", "bob@example.com", "hash", true)
		_, err := storage.ToggleAvailability(ctx, userUID)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStorage_ListDoctors(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)

	factory.CreateAccount(t, models.KindDoctor, "Dr. Zeta", "zeta@example.com", "hash", true)
	factory.CreateAccount(t, models.KindDoctor, "Dr. Alpha", "alpha@example.com", "hash", true)
	factory.CreateAccount(t, models.KindDoctor, "Dr. Pending", "pending@example.com", "hash", false)
	factory.CreateAccount(t, models.KindUser, "Patient", "patient@example.com", "hash", true)

	doctors, err := storage.ListDoctors(ctx)
	require.NoError(t, err)
	require.Len(t, doctors, 2)
	assert.Equal(t, "Dr. Alpha", doctors[0].Name)
	assert.Equal(t, "Dr. Zeta", doctors[1].Name)
}

func TestStorage_CreateChat(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)

	userUID := factory.CreateAccount(t, models.KindUser, "Alice", "alice@example.com", "hash", true)
	doctorUID := factory.CreateAccount(t, models.KindDoctor, "Dr. Bob", "bob@example.com", "hash", true)

	chat, err := storage.CreateChat(ctx, userUID, doctorUID)
	require.NoError(t, err)
	assert.NotEmpty(t, chat.UID)
	assert.True(t, chat.AccessGranted)
	assert.Empty(t, chat.Messages)
	assert.WithinDuration(t, chat.CreatedAt.Add(models.ChatAccessTTL), chat.ExpiresAt, time.Second)
}

func TestStorage_GetChatForParty(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)

	userUID := factory.CreateAccount(t, models.KindUser, "Alice", "alice@example.com", "hash", true)
	doctorUID := factory.CreateAccount(t, models.KindDoctor, "Dr. Bob", "bob@example.com", "hash", true)
	chat, err := storage.CreateChat(ctx, userUID, doctorUID)
	require.NoError(t, err)

	require.NoError(t, storage.AppendMessage(ctx, chat.UID, userUID, models.KindUser, "hello"))
	require.NoError(t, storage.AppendMessage(ctx, chat.UID, doctorUID, models.KindDoctor, "hi, how can I help?"))

	t.Run("messages in insertion order for both parties", func(t *testing.T) {
		got, err := storage.GetChatForParty(ctx, chat.UID, userUID, models.KindUser)
		require.NoError(t, err)
		require.Len(t, got.Messages, 2)
		assert.Equal(t, "hello", got.Messages[0].Text)
		assert.Equal(t, "user", got.Messages[0].Sender)
		assert.Equal(t, "hi, how can I help?", got.Messages[1].Text)

		got, err = storage.GetChatForParty(ctx, chat.UID, doctorUID, models.KindDoctor)
		require.NoError(t, err)
		require.Len(t, got.Messages, 2)
	})

	t.Run("stranger is denied", func(t *testing.T) {
		strangerUID := factory.CreateAccount(t, models.KindUser, "Eve", "eve@example.com", "hash", true)
		_, err := storage.GetChatForParty(ctx, chat.UID, strangerUID, models.KindUser)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("party of wrong kind is denied", func(t *testing.T) {
		_, err := storage.GetChatForParty(ctx, chat.UID, userUID, models.KindDoctor)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("expired chat stays readable", func(t *testing.T) {
		factory.ExpireChat(t, chat.UID)

		got, err := storage.GetChatForParty(ctx, chat.UID, userUID, models.KindUser)
		require.NoError(t, err)
		assert.Len(t, got.Messages, 2)
	})
}

func TestStorage_ListChatsForParty(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)

	userUID := factory.CreateAccount(t, models.KindUser, "Alice", "alice@example.com", "hash", true)
	doctorA := factory.CreateAccount(t, models.KindDoctor, "Dr. A", "a@example.com", "hash", true)
	doctorB := factory.CreateAccount(t, models.KindDoctor, "Dr. B", "b@example.com", "hash", true)

	chatA, err := storage.CreateChat(ctx, userUID, doctorA)
	require.NoError(t, err)
	chatB, err := storage.CreateChat(ctx, userUID, doctorB)
	require.NoError(t, err)

	// Сообщение в первом чате делает его самым свежим.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, storage.AppendMessage(ctx, chatA.UID, userUID, models.KindUser, "hello"))

	chats, err := storage.ListChatsForParty(ctx, userUID, models.KindUser)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, chatA.UID, chats[0].UID)
	assert.Equal(t, chatB.UID, chats[1].UID)

	t.Run("doctor sees only own chats", func(t *testing.T) {
		chats, err := storage.ListChatsForParty(ctx, doctorA, models.KindDoctor)
		require.NoError(t, err)
		require.Len(t, chats, 1)
		assert.Equal(t, chatA.UID, chats[0].UID)
	})

	t.Run("party without chats", func(t *testing.T) {
		strangerUID := factory.CreateAccount(t, models.KindUser, "Eve", "eve@example.com", "hash", true)
		chats, err := storage.ListChatsForParty(ctx, strangerUID, models.KindUser)
		require.NoError(t, err)
		assert.Empty(t, chats)
	})
}

func TestStorage_AppendMessage(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)

	userUID := factory.CreateAccount(t, models.KindUser, "Alice", "alice@example.com", "hash", true)
	doctorUID := factory.CreateAccount(t, models.KindDoctor, "Dr. Bob", "bob@example.com", "hash", true)

	t.Run("touches chat activity", func(t *testing.T) {
		chat, err := storage.CreateChat(ctx, userUID, doctorUID)
		require.NoError(t, err)

		time.Sleep(50 * time.Millisecond)
		require.NoError(t, storage.AppendMessage(ctx, chat.UID, userUID, models.KindUser, "hello"))

		got, err := storage.GetChatForParty(ctx, chat.UID, userUID, models.KindUser)
		require.NoError(t, err)
		assert.True(t, got.UpdatedAt.After(chat.UpdatedAt))
	})

	t.Run("stranger is denied", func(t *testing.T) {
		chat, err := storage.CreateChat(ctx, userUID, doctorUID)
		require.NoError(t, err)

		strangerUID := factory.CreateAccount(t, models.KindUser, "Eve", "eve2@example.com", "hash", true)
		err = storage.AppendMessage(ctx, chat.UID, strangerUID, models.KindUser, "let me in")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("expired window rejects both parties", func(t *testing.T) {
		chat, err := storage.CreateChat(ctx, userUID, doctorUID)
		require.NoError(t, err)
		factory.ExpireChat(t, chat.UID)

		require.ErrorIs(t, storage.AppendMessage(ctx, chat.UID, userUID, models.KindUser, "too late"), ErrNotFound)
		require.ErrorIs(t, storage.AppendMessage(ctx, chat.UID, doctorUID, models.KindDoctor, "too late"), ErrNotFound)

		got, err := storage.GetChatForParty(ctx, chat.UID, userUID, models.KindUser)
		require.NoError(t, err)
		assert.Empty(t, got.Messages)
	})
}
