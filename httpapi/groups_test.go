package httpapi

import (
	"net/http"
	"testing"
)

func TestCreateGroup(t *testing.T) {
	h, router := setupTestHandler(t)
	creator := createTestUser(t, h, "amira")
	other := createTestUser(t, h, "kaladin")
	token := tokenFor(t, creator)

	t.Run("creates a group with the caller as a member", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/groups", token, map[string]any{
			"name":    "bridge four",
			"members": []string{other.ID.String()},
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d\nbody: %s", http.StatusCreated, rec.Code, rec.Body.String())
		}

		payload := decodeBody(t, rec)
		if payload["name"] != "bridge four" {
			t.Errorf("\nwanted:\nbridge four\ngot:\n%v", payload["name"])
		}
		if payload["creator_id"] != creator.ID.String() {
			t.Errorf("\nwanted:\n%v\ngot:\n%v", creator.ID, payload["creator_id"])
		}
		members := payload["members"].([]any)
		if len(members) != 2 {
			t.Fatalf("\nwanted:\n2 members\ngot:\n%d", len(members))
		}
	})

	t.Run("rejects a group with no other members", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/groups", token, map[string]any{
			"name":    "just me",
			"members": []string{creator.ID.String()},
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusBadRequest, rec.Code)
		}
	})

	t.Run("rejects an invalid member id", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/groups", token, map[string]any{
			"name":    "broken",
			"members": []string{"not-a-uuid"},
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusBadRequest, rec.Code)
		}
	})
}

func TestGroupMembership(t *testing.T) {
	h, router := setupTestHandler(t)
	creator := createTestUser(t, h, "amira")
	member := createTestUser(t, h, "kaladin")
	outsider := createTestUser(t, h, "sadeas")
	creatorToken := tokenFor(t, creator)
	memberToken := tokenFor(t, member)
	outsiderToken := tokenFor(t, outsider)

	rec := doJSON(t, router, http.MethodPost, "/api/groups", creatorToken, map[string]any{
		"name":    "bridge four",
		"members": []string{member.ID.String()},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("creating group: status %d body %s", rec.Code, rec.Body.String())
	}
	groupID := decodeBody(t, rec)["id"].(string)

	t.Run("non-members cannot see the group", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/groups/"+groupID, outsiderToken, nil)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusForbidden, rec.Code)
		}
	})

	t.Run("only the creator can add members", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/groups/"+groupID+"/members", memberToken, map[string]any{
			"user_id": outsider.ID.String(),
		})
		if rec.Code != http.StatusForbidden {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusForbidden, rec.Code)
		}

		rec = doJSON(t, router, http.MethodPost, "/api/groups/"+groupID+"/members", creatorToken, map[string]any{
			"user_id": outsider.ID.String(),
		})
		if rec.Code != http.StatusNoContent {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d\nbody: %s", http.StatusNoContent, rec.Code, rec.Body.String())
		}
	})

	t.Run("the creator cannot be removed", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodDelete,
			"/api/groups/"+groupID+"/members/"+creator.ID.String(), creatorToken, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusBadRequest, rec.Code)
		}
	})

	t.Run("members can leave but the creator cannot", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/groups/"+groupID+"/leave", memberToken, nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusNoContent, rec.Code)
		}

		rec = doJSON(t, router, http.MethodPost, "/api/groups/"+groupID+"/leave", creatorToken, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusBadRequest, rec.Code)
		}
	})

	t.Run("left members lose access", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/groups/"+groupID, memberToken, nil)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusForbidden, rec.Code)
		}
	})

	t.Run("the group shows up in member listings", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/groups", creatorToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusOK, rec.Code)
		}
		groups := decodeBody(t, rec)["groups"].([]any)
		if len(groups) != 1 {
			t.Fatalf("\nwanted:\n1 group\ngot:\n%d", len(groups))
		}
	})
}
