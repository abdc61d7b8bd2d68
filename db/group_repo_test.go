package db

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGroupRepo_CreateGroup(t *testing.T) {
	t.Run("should create the group with all member rows", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		creator := testUser(t, repo, "amira")
		member := testUser(t, repo, "bashir")

		group := testGroup(t, repo, "weekend plans", creator, member)

		got, err := repo.GetGroup(group.ID)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if got.Name != "weekend plans" || got.CreatorID != creator.ID {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", group, got)
		}

		if len(got.Members) != 2 {
			t.Fatalf("\nwanted:\n2 members\ngot:\n%d", len(got.Members))
		}
	})

	t.Run("should deduplicate member IDs", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		creator := testUser(t, repo, "amira")
		member := testUser(t, repo, "bashir")

		id, err := uuid.NewV7()
		if err != nil {
			t.Fatalf("creating uuid: %v", err)
		}

		group := testGroupStruct(id, "plans", creator.ID)
		err = repo.CreateGroup(group, []uuid.UUID{creator.ID, member.ID, creator.ID})
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		got, err := repo.GetGroup(group.ID)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if len(got.Members) != 2 {
			t.Fatalf("\nwanted:\n2 members\ngot:\n%d", len(got.Members))
		}
	})

	t.Run("should fail when a member user doesn't exist", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		creator := testUser(t, repo, "amira")
		ghost := uuid.MustParse("00000000-0000-0000-0000-000000000099")

		id, err := uuid.NewV7()
		if err != nil {
			t.Fatalf("creating uuid: %v", err)
		}

		group := testGroupStruct(id, "plans", creator.ID)
		err = repo.CreateGroup(group, []uuid.UUID{creator.ID, ghost})
		if err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}

		// the transaction must have rolled the group row back too
		_, err = repo.GetGroup(group.ID)
		if err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})
}

func TestGroupRepo_Membership(t *testing.T) {
	t.Run("should add and remove members", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		creator := testUser(t, repo, "amira")
		member := testUser(t, repo, "bashir")
		late := testUser(t, repo, "karim")

		group := testGroup(t, repo, "plans", creator, member)

		if err := repo.AddMember(group.ID, late.ID); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		isMember, err := repo.IsMember(group.ID, late.ID)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if !isMember {
			t.Fatalf("\nwanted:\nmember\ngot:\nnot a member")
		}

		if err := repo.RemoveMember(group.ID, late.ID); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		isMember, err = repo.IsMember(group.ID, late.ID)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if isMember {
			t.Fatalf("\nwanted:\nnot a member\ngot:\nmember")
		}
	})

	t.Run("should reject adding an existing member", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		creator := testUser(t, repo, "amira")
		member := testUser(t, repo, "bashir")
		group := testGroup(t, repo, "plans", creator, member)

		err := repo.AddMember(group.ID, member.ID)
		if err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})

	t.Run("should fail to remove a non-member", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		creator := testUser(t, repo, "amira")
		member := testUser(t, repo, "bashir")
		outsider := testUser(t, repo, "karim")
		group := testGroup(t, repo, "plans", creator, member)

		err := repo.RemoveMember(group.ID, outsider.ID)
		if err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})
}

func TestGroupRepo_GetGroupsForUser(t *testing.T) {
	t.Run("should only return groups the user belongs to", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		amira := testUser(t, repo, "amira")
		bashir := testUser(t, repo, "bashir")
		karim := testUser(t, repo, "karim")

		shared := testGroup(t, repo, "shared", amira, bashir)
		testGroup(t, repo, "private", bashir, karim)

		got, err := repo.GetGroupsForUser(amira.ID)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if len(got) != 1 {
			t.Fatalf("\nwanted:\n1 group\ngot:\n%d", len(got))
		}

		if got[0].ID != shared.ID {
			t.Fatalf("\nwanted:\n%s\ngot:\n%s", shared.ID, got[0].ID)
		}
	})

	t.Run("should order groups by latest activity", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		amira := testUser(t, repo, "amira")
		bashir := testUser(t, repo, "bashir")

		older := testGroup(t, repo, "older", amira, bashir)
		newer := testGroup(t, repo, "newer", amira, bashir)

		// a message in the older group bumps it above the newer one
		testGroupMessage(t, repo, older, amira, "ping", testTime.Add(time.Hour))

		got, err := repo.GetGroupsForUser(amira.ID)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if len(got) != 2 {
			t.Fatalf("\nwanted:\n2 groups\ngot:\n%d", len(got))
		}

		if got[0].ID != older.ID || got[1].ID != newer.ID {
			t.Fatalf("\nwanted:\n[%s %s]\ngot:\n[%s %s]", older.ID, newer.ID, got[0].ID, got[1].ID)
		}
	})
}
