package db

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/parley-chat/parley/domain"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	t.Helper()

	tempFile, err := os.CreateTemp(t.TempDir(), "test_*.db")
	if err != nil {
		t.Fatalf("os.CreateTemp() failed: %v", err)
	}
	tempFile.Close()

	dbConn, err := New(tempFile.Name())
	if err != nil {
		t.Fatalf("db.New() failed: %v", err)
	}

	repo := NewChatRepo(dbConn)

	teardown := func() {
		repo.Close()
		os.Remove(tempFile.Name())
	}

	return repo, teardown
}

var testTime = time.Date(2025, 10, 20, 12, 0, 0, 0, time.UTC)

func testUser(t *testing.T, repo *Repository, username string) *domain.User {
	t.Helper()

	id, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("creating uuid: %v", err)
	}

	user := &domain.User{
		ID:           id,
		Username:     username,
		Email:        fmt.Sprintf("%s@parley.chat", username),
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: []byte("$2a$10$fakehashfortesting"),
		LastSeen:     testTime,
		CreatedAt:    testTime,
	}

	err = repo.CreateUser(user)
	if err != nil {
		t.Fatalf("inserting user %s: %v", username, err)
	}
	return user
}

func testGroup(t *testing.T, repo *Repository, name string, creator *domain.User, members ...*domain.User) *domain.Group {
	t.Helper()

	id, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("creating uuid: %v", err)
	}

	group := &domain.Group{
		ID:        id,
		Name:      name,
		CreatorID: creator.ID,
		CreatedAt: testTime,
		UpdatedAt: testTime,
	}

	memberIDs := []uuid.UUID{creator.ID}
	for _, member := range members {
		memberIDs = append(memberIDs, member.ID)
	}

	err = repo.CreateGroup(group, memberIDs)
	if err != nil {
		t.Fatalf("inserting group %s: %v", name, err)
	}
	return group
}

// testGroupStruct builds an unsaved group for tests that drive CreateGroup directly.
func testGroupStruct(id uuid.UUID, name string, creatorID uuid.UUID) *domain.Group {
	return &domain.Group{
		ID:        id,
		Name:      name,
		CreatorID: creatorID,
		CreatedAt: testTime,
		UpdatedAt: testTime,
	}
}

func testDirectMessage(t *testing.T, repo *Repository, sender, receiver *domain.User, body string, at time.Time) *domain.DirectMessage {
	t.Helper()

	id, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("creating uuid: %v", err)
	}

	msg := &domain.DirectMessage{
		ID:         id,
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Body:       body,
		CreatedAt:  at,
	}

	err = repo.InsertDirectMessage(msg)
	if err != nil {
		t.Fatalf("inserting direct message: %v", err)
	}
	return msg
}

func testGroupMessage(t *testing.T, repo *Repository, group *domain.Group, sender *domain.User, body string, at time.Time) *domain.GroupMessage {
	t.Helper()

	id, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("creating uuid: %v", err)
	}

	msg := &domain.GroupMessage{
		ID:        id,
		GroupID:   group.ID,
		SenderID:  sender.ID,
		Body:      body,
		CreatedAt: at,
	}

	err = repo.InsertGroupMessage(msg)
	if err != nil {
		t.Fatalf("inserting group message: %v", err)
	}
	return msg
}

func testExtension(t *testing.T, repo *Repository, name string) *domain.Extension {
	t.Helper()

	id, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("creating uuid: %v", err)
	}

	ext := &domain.Extension{
		ID:          id,
		Name:        name,
		SourceURL:   "https://example.com/" + name,
		Author:      "tester",
		LuaContent:  "function on_message(msg) return msg end",
		Enabled:     true,
		Description: "test extension",
		Settings:    make(map[string]any),
		UpdatedAt:   testTime,
	}

	err = repo.CreateExtension(ext)
	if err != nil {
		t.Fatalf("inserting extension %s: %v", name, err)
	}
	return ext
}
