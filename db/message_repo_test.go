package db

import (
	"testing"
	"time"
)

func TestMessageRepo_GetConversation(t *testing.T) {
	t.Run("should return 0 messages when none were exchanged", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		amira := testUser(t, repo, "amira")
		bashir := testUser(t, repo, "bashir")

		got, err := repo.GetConversation(amira.ID, bashir.ID)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if len(got) != 0 {
			t.Fatalf("\nwanted:\n0\ngot:\n%d", len(got))
		}
	})

	t.Run("should return both directions in chronological order", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		amira := testUser(t, repo, "amira")
		bashir := testUser(t, repo, "bashir")
		karim := testUser(t, repo, "karim")

		first := testDirectMessage(t, repo, amira, bashir, "hey", testTime)
		second := testDirectMessage(t, repo, bashir, amira, "hi!", testTime.Add(time.Minute))
		testDirectMessage(t, repo, amira, karim, "unrelated", testTime.Add(2*time.Minute))

		got, err := repo.GetConversation(amira.ID, bashir.ID)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if len(got) != 2 {
			t.Fatalf("\nwanted:\n2\ngot:\n%d", len(got))
		}

		if got[0].ID != first.ID || got[1].ID != second.ID {
			t.Fatalf("\nwanted:\n[%s %s]\ngot:\n[%s %s]", first.ID, second.ID, got[0].ID, got[1].ID)
		}
	})
}

func TestMessageRepo_GetConversationSummaries(t *testing.T) {
	t.Run("should return one summary per partner with the latest message", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		amira := testUser(t, repo, "amira")
		bashir := testUser(t, repo, "bashir")
		karim := testUser(t, repo, "karim")

		testDirectMessage(t, repo, amira, bashir, "hey", testTime)
		latestBashir := testDirectMessage(t, repo, bashir, amira, "hi!", testTime.Add(time.Minute))
		latestKarim := testDirectMessage(t, repo, karim, amira, "yo", testTime.Add(2*time.Minute))

		got, err := repo.GetConversationSummaries(amira.ID)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if len(got) != 2 {
			t.Fatalf("\nwanted:\n2 summaries\ngot:\n%d", len(got))
		}

		// newest thread first
		if got[0].OtherUserID != karim.ID || got[0].LastMessage.ID != latestKarim.ID {
			t.Fatalf("\nwanted:\n%s/%s\ngot:\n%s/%s", karim.ID, latestKarim.ID, got[0].OtherUserID, got[0].LastMessage.ID)
		}

		if got[1].OtherUserID != bashir.ID || got[1].LastMessage.ID != latestBashir.ID {
			t.Fatalf("\nwanted:\n%s/%s\ngot:\n%s/%s", bashir.ID, latestBashir.ID, got[1].OtherUserID, got[1].LastMessage.ID)
		}
	})
}

func TestMessageRepo_GetGroupMessages(t *testing.T) {
	t.Run("should return the most recent messages in chronological order", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		amira := testUser(t, repo, "amira")
		bashir := testUser(t, repo, "bashir")
		group := testGroup(t, repo, "plans", amira, bashir)

		testGroupMessage(t, repo, group, amira, "0", testTime)
		second := testGroupMessage(t, repo, group, bashir, "1", testTime.Add(time.Minute))
		third := testGroupMessage(t, repo, group, amira, "2", testTime.Add(2*time.Minute))

		got, err := repo.GetGroupMessages(group.ID, 2)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if len(got) != 2 {
			t.Fatalf("\nwanted:\n2\ngot:\n%d", len(got))
		}

		// the oldest message falls off, the rest come back oldest first
		if got[0].ID != second.ID || got[1].ID != third.ID {
			t.Fatalf("\nwanted:\n[%s %s]\ngot:\n[%s %s]", second.ID, third.ID, got[0].ID, got[1].ID)
		}
	})
}

func TestMessageRepo_MarkConversationRead(t *testing.T) {
	t.Run("should only flag messages in the given direction", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		amira := testUser(t, repo, "amira")
		bashir := testUser(t, repo, "bashir")

		testDirectMessage(t, repo, amira, bashir, "hey", testTime)
		testDirectMessage(t, repo, bashir, amira, "hi!", testTime.Add(time.Minute))

		err := repo.MarkConversationRead(amira.ID, bashir.ID)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		got, err := repo.GetConversation(amira.ID, bashir.ID)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if !got[0].IsRead {
			t.Fatalf("\nwanted:\nread\ngot:\nunread")
		}

		if got[1].IsRead {
			t.Fatalf("\nwanted:\nunread\ngot:\nread")
		}
	})
}
