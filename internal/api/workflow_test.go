package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"messenger-backend/internal/api"
	"messenger-backend/internal/config"
	"messenger-backend/internal/database"
	"messenger-backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func setupTestServer(t *testing.T) (*gin.Engine, *database.Database) {
	if err := godotenv.Load("../../.env"); err != nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("Could not load .env")
		}
	}

	cfg := config.New()

	db, err := database.NewConnection(cfg)
	if err != nil {
		t.Skipf("Skipping workflow test, no database available: %v", err)
	}

	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	gin.SetMode(gin.TestMode)
	router := gin.Default()
	// No Redis in the test environment: typing indicators and the logout
	// denylist degrade gracefully.
	api.SetupRoutes(router, db, nil, cfg)

	return router, db
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("Failed to encode payload: %v", err)
		}
	}
	req, _ := http.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func registerUser(t *testing.T, router *gin.Engine, username string) (models.User, string) {
	t.Helper()
	email := fmt.Sprintf("%s_%d@test.com", username, time.Now().UnixNano())
	req := models.RegisterRequest{
		Username:             fmt.Sprintf("%s_%d", username, time.Now().UnixNano()),
		Email:                email,
		DisplayName:          "Test " + username,
		Password:             "password123",
		PasswordConfirmation: "password123",
	}

	w := doJSON(t, router, "POST", "/api/v1/auth/register", "", req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to register %s: %d - %s", username, w.Code, w.Body.String())
	}

	var resp models.LoginResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp.User, resp.Token
}

func TestDirectConversationWorkflow(t *testing.T) {
	router, db := setupTestServer(t)
	defer db.Close()

	alice, aliceToken := registerUser(t, router, "alice")
	bob, bobToken := registerUser(t, router, "bob")

	// Alice starts a direct conversation with Bob
	w := doJSON(t, router, "POST", "/api/v1/conversations", aliceToken, models.CreateConversationRequest{
		Type:           models.ConversationDirect,
		ParticipantIDs: []uuid.UUID{bob.ID},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to create conversation: %d - %s", w.Code, w.Body.String())
	}

	var conv models.Conversation
	json.Unmarshal(w.Body.Bytes(), &conv)
	if conv.Type != models.ConversationDirect {
		t.Errorf("Expected direct conversation, got %s", conv.Type)
	}
	if len(conv.Participants) != 2 {
		t.Fatalf("Expected 2 participants, got %d", len(conv.Participants))
	}
	for _, p := range conv.Participants {
		if !p.IsActive {
			t.Errorf("Participant %s should be active", p.UserID)
		}
		if p.LastReadSeq != 0 {
			t.Errorf("Fresh participant should have watermark 0, got %d", p.LastReadSeq)
		}
	}

	// Alice posts a message
	content := "hi"
	w = doJSON(t, router, "POST", fmt.Sprintf("/api/v1/conversations/%s/messages", conv.ID), aliceToken, models.PostMessageRequest{
		MessageType: models.MessageTypeText,
		Content:     &content,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to post message: %d - %s", w.Code, w.Body.String())
	}

	var msg models.Message
	json.Unmarshal(w.Body.Bytes(), &msg)
	if msg.IsDeleted {
		t.Error("New message should not be deleted")
	}
	if msg.Content == nil || *msg.Content != "hi" {
		t.Errorf("Unexpected message content: %v", msg.Content)
	}

	// A message without content or media is rejected
	w = doJSON(t, router, "POST", fmt.Sprintf("/api/v1/conversations/%s/messages", conv.ID), aliceToken, models.PostMessageRequest{
		MessageType: models.MessageTypeText,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty message, got %d - %s", w.Code, w.Body.String())
	}

	// Bob marks the message read
	w = doJSON(t, router, "POST", fmt.Sprintf("/api/v1/conversations/%s/read", conv.ID), bobToken, models.MarkReadRequest{MessageID: msg.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("Failed to mark read: %d - %s", w.Code, w.Body.String())
	}
	var readResp map[string]int64
	json.Unmarshal(w.Body.Bytes(), &readResp)
	if readResp["last_read_seq"] != msg.Seq {
		t.Errorf("Expected watermark %d, got %d", msg.Seq, readResp["last_read_seq"])
	}

	// Marking read twice with the same message is idempotent
	w = doJSON(t, router, "POST", fmt.Sprintf("/api/v1/conversations/%s/read", conv.ID), bobToken, models.MarkReadRequest{MessageID: msg.ID})
	if w.Code != http.StatusOK {
		t.Errorf("Repeated mark read should succeed, got %d - %s", w.Code, w.Body.String())
	}

	// Once the cursor has advanced past a message, marking that message read
	// again is rejected: the watermark never moves backwards
	content2 := "second"
	w = doJSON(t, router, "POST", fmt.Sprintf("/api/v1/conversations/%s/messages", conv.ID), aliceToken, models.PostMessageRequest{
		MessageType: models.MessageTypeText,
		Content:     &content2,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to post second message: %d - %s", w.Code, w.Body.String())
	}
	var msg2 models.Message
	json.Unmarshal(w.Body.Bytes(), &msg2)
	if msg2.Seq <= msg.Seq {
		t.Fatalf("Second message should order after the first, got seq %d <= %d", msg2.Seq, msg.Seq)
	}

	w = doJSON(t, router, "POST", fmt.Sprintf("/api/v1/conversations/%s/read", conv.ID), bobToken, models.MarkReadRequest{MessageID: msg2.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("Failed to advance cursor: %d - %s", w.Code, w.Body.String())
	}
	w = doJSON(t, router, "POST", fmt.Sprintf("/api/v1/conversations/%s/read", conv.ID), bobToken, models.MarkReadRequest{MessageID: msg.ID})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 moving the cursor backwards, got %d - %s", w.Code, w.Body.String())
	}

	// A reply target must live in the same conversation
	carol, _ := registerUser(t, router, "carol")
	w = doJSON(t, router, "POST", "/api/v1/conversations", aliceToken, models.CreateConversationRequest{
		Type:           models.ConversationDirect,
		ParticipantIDs: []uuid.UUID{carol.ID},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to create second conversation: %d - %s", w.Code, w.Body.String())
	}
	var conv2 models.Conversation
	json.Unmarshal(w.Body.Bytes(), &conv2)

	reply := "replying across conversations"
	w = doJSON(t, router, "POST", fmt.Sprintf("/api/v1/conversations/%s/messages", conv2.ID), aliceToken, models.PostMessageRequest{
		MessageType:      models.MessageTypeText,
		Content:          &reply,
		ReplyToMessageID: &msg.ID,
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for cross-conversation reply, got %d - %s", w.Code, w.Body.String())
	}

	// Bob cannot edit Alice's message
	w = doJSON(t, router, "PUT", fmt.Sprintf("/api/v1/messages/%s", msg.ID), bobToken, models.EditMessageRequest{Content: "hijacked"})
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for foreign edit, got %d - %s", w.Code, w.Body.String())
	}

	// Alice edits her message
	w = doJSON(t, router, "PUT", fmt.Sprintf("/api/v1/messages/%s", msg.ID), aliceToken, models.EditMessageRequest{Content: "hi there"})
	if w.Code != http.StatusOK {
		t.Fatalf("Failed to edit message: %d - %s", w.Code, w.Body.String())
	}
	var edited models.Message
	json.Unmarshal(w.Body.Bytes(), &edited)
	if !edited.IsEdited || edited.EditedAt == nil {
		t.Error("Edited message should carry is_edited and edited_at")
	}
	if edited.SenderID != alice.ID || edited.ConversationID != conv.ID {
		t.Error("Edit must preserve sender and conversation")
	}
	if edited.EditedAt != nil && edited.EditedAt.Before(edited.CreatedAt) {
		t.Error("edited_at should not precede created_at")
	}

	// Alice deletes the message
	w = doJSON(t, router, "DELETE", fmt.Sprintf("/api/v1/messages/%s", msg.ID), aliceToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Failed to delete message: %d - %s", w.Code, w.Body.String())
	}

	// Editing a deleted message is an illegal transition
	w = doJSON(t, router, "PUT", fmt.Sprintf("/api/v1/messages/%s", msg.ID), aliceToken, models.EditMessageRequest{Content: "too late"})
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 editing deleted message, got %d - %s", w.Code, w.Body.String())
	}

	// A second delete is a no-op, not an error, and still returns a complete
	// tombstone
	w = doJSON(t, router, "DELETE", fmt.Sprintf("/api/v1/messages/%s", msg.ID), aliceToken, nil)
	if w.Code != http.StatusOK {
		t.Errorf("Second delete should be a no-op, got %d - %s", w.Code, w.Body.String())
	}
	var tombstone models.Message
	json.Unmarshal(w.Body.Bytes(), &tombstone)
	if !tombstone.IsDeleted || tombstone.DeletedAt == nil {
		t.Error("Repeated delete should return the tombstone with its deletion timestamp")
	}
	if tombstone.Content != nil {
		t.Error("Tombstone must not expose content")
	}

	// Bob re-fetches: the message is a tombstone with no content
	w = doJSON(t, router, "GET", fmt.Sprintf("/api/v1/conversations/%s/messages", conv.ID), bobToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Failed to list messages: %d - %s", w.Code, w.Body.String())
	}
	var page []models.Message
	json.Unmarshal(w.Body.Bytes(), &page)
	found := false
	for _, m := range page {
		if m.ID == msg.ID {
			found = true
			if !m.IsDeleted {
				t.Error("Deleted message should be flagged in listing")
			}
			if m.Content != nil || m.MediaURL != nil {
				t.Error("Tombstone must not expose content or media")
			}
		}
	}
	if !found {
		t.Error("Tombstone should keep its position in the listing")
	}

	cleanupUsers(t, db, alice.ID, bob.ID, carol.ID)
}

func TestMediaUploadRequiresMembership(t *testing.T) {
	router, db := setupTestServer(t)
	defer db.Close()

	alice, aliceToken := registerUser(t, router, "uploader")
	bob, _ := registerUser(t, router, "peer")
	mallory, malloryToken := registerUser(t, router, "outsider")

	w := doJSON(t, router, "POST", "/api/v1/conversations", aliceToken, models.CreateConversationRequest{
		Type:           models.ConversationDirect,
		ParticipantIDs: []uuid.UUID{bob.ID},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to create conversation: %d - %s", w.Code, w.Body.String())
	}
	var conv models.Conversation
	json.Unmarshal(w.Body.Bytes(), &conv)

	// A non-participant cannot namespace uploads under the conversation
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="file"; filename="pic.png"`},
		"Content-Type":        {"image/png"},
	})
	part.Write([]byte("png-bytes"))
	mw.Close()

	req, _ := http.NewRequest("POST", fmt.Sprintf("/api/v1/media/upload?conversation_id=%s", conv.ID), &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+malloryToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for non-participant upload, got %d - %s", rec.Code, rec.Body.String())
	}

	cleanupUsers(t, db, alice.ID, bob.ID, mallory.ID)
}

func TestGroupConversationMembership(t *testing.T) {
	router, db := setupTestServer(t)
	defer db.Close()

	owner, ownerToken := registerUser(t, router, "owner")
	m1, _ := registerUser(t, router, "member1")
	m2, m2Token := registerUser(t, router, "member2")
	m3, _ := registerUser(t, router, "member3")

	name := "Team"
	w := doJSON(t, router, "POST", "/api/v1/conversations", ownerToken, models.CreateConversationRequest{
		Type:           models.ConversationGroup,
		Name:           &name,
		ParticipantIDs: []uuid.UUID{m1.ID, m2.ID},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to create group: %d - %s", w.Code, w.Body.String())
	}
	var conv models.Conversation
	json.Unmarshal(w.Body.Bytes(), &conv)
	if len(conv.Participants) != 3 {
		t.Fatalf("Expected 3 participants, got %d", len(conv.Participants))
	}

	// A group without a name is rejected
	w = doJSON(t, router, "POST", "/api/v1/conversations", ownerToken, models.CreateConversationRequest{
		Type:           models.ConversationGroup,
		ParticipantIDs: []uuid.UUID{m1.ID, m2.ID},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unnamed group, got %d - %s", w.Code, w.Body.String())
	}

	// Owner adds a fourth member
	w = doJSON(t, router, "POST", fmt.Sprintf("/api/v1/conversations/%s/participants", conv.ID), ownerToken, models.AddParticipantRequest{UserID: m3.ID})
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to add participant: %d - %s", w.Code, w.Body.String())
	}

	// Adding the same user again conflicts
	w = doJSON(t, router, "POST", fmt.Sprintf("/api/v1/conversations/%s/participants", conv.ID), ownerToken, models.AddParticipantRequest{UserID: m3.ID})
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 adding duplicate participant, got %d - %s", w.Code, w.Body.String())
	}

	// A non-admin cannot remove someone else
	w = doJSON(t, router, "DELETE", fmt.Sprintf("/api/v1/conversations/%s/participants/%s", conv.ID, m1.ID), m2Token, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for non-admin removal, got %d - %s", w.Code, w.Body.String())
	}

	// Members may leave on their own
	w = doJSON(t, router, "DELETE", fmt.Sprintf("/api/v1/conversations/%s/participants/%s", conv.ID, m2.ID), m2Token, nil)
	if w.Code != http.StatusOK {
		t.Errorf("Failed to leave group: %d - %s", w.Code, w.Body.String())
	}

	// Admin removes down to the floor of two, then hits the floor
	w = doJSON(t, router, "DELETE", fmt.Sprintf("/api/v1/conversations/%s/participants/%s", conv.ID, m3.ID), ownerToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Failed to remove participant: %d - %s", w.Code, w.Body.String())
	}
	w = doJSON(t, router, "DELETE", fmt.Sprintf("/api/v1/conversations/%s/participants/%s", conv.ID, m1.ID), ownerToken, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 removing below membership floor, got %d - %s", w.Code, w.Body.String())
	}

	cleanupUsers(t, db, owner.ID, m1.ID, m2.ID, m3.ID)
}

func TestBlockedContactCannotStartDirect(t *testing.T) {
	router, db := setupTestServer(t)
	defer db.Close()

	alice, aliceToken := registerUser(t, router, "blocker")
	bob, bobToken := registerUser(t, router, "blocked")

	// Alice adds Bob as a contact and blocks him
	w := doJSON(t, router, "POST", "/api/v1/contacts", aliceToken, models.AddContactRequest{ContactID: bob.ID})
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to add contact: %d - %s", w.Code, w.Body.String())
	}
	blocked := true
	w = doJSON(t, router, "PUT", fmt.Sprintf("/api/v1/contacts/%s", bob.ID), aliceToken, models.UpdateContactRequest{IsBlocked: &blocked})
	if w.Code != http.StatusOK {
		t.Fatalf("Failed to block contact: %d - %s", w.Code, w.Body.String())
	}

	// Bob cannot start a direct conversation with Alice
	w = doJSON(t, router, "POST", "/api/v1/conversations", bobToken, models.CreateConversationRequest{
		Type:           models.ConversationDirect,
		ParticipantIDs: []uuid.UUID{alice.ID},
	})
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for blocked direct conversation, got %d - %s", w.Code, w.Body.String())
	}

	// Neither can Alice, while the block stands
	w = doJSON(t, router, "POST", "/api/v1/conversations", aliceToken, models.CreateConversationRequest{
		Type:           models.ConversationDirect,
		ParticipantIDs: []uuid.UUID{bob.ID},
	})
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for blocked direct conversation, got %d - %s", w.Code, w.Body.String())
	}

	cleanupUsers(t, db, alice.ID, bob.ID)
}

func cleanupUsers(t *testing.T, db *database.Database, ids ...uuid.UUID) {
	t.Helper()
	for _, id := range ids {
		// Conversations created by the user cascade to participants,
		// messages and attachments.
		db.Pool.Exec(testContext(), "DELETE FROM conversations WHERE creator_id = $1", id)
		db.Pool.Exec(testContext(), "DELETE FROM users WHERE id = $1", id)
	}
}
