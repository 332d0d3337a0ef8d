package main

import (
	"context"
	"log"

	"messenger-backend/internal/auth"
	"messenger-backend/internal/config"
	"messenger-backend/internal/database"

	"github.com/joho/godotenv"
)

// Seeds a couple of demo accounts plus a direct conversation between them,
// for local development.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.New()

	db, err := database.NewConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	ctx := context.Background()

	users := []struct {
		Username    string
		Email       string
		DisplayName string
		Password    string
	}{
		{"alice", "alice@example.com", "Alice Demo", "password123"},
		{"bob", "bob@example.com", "Bob Demo", "password123"},
	}

	ids := make(map[string]string)
	for _, u := range users {
		hash, err := auth.HashPassword(u.Password)
		if err != nil {
			log.Fatal("Failed to hash password:", err)
		}

		var id string
		err = db.QueryRow(ctx, `
			INSERT INTO users (username, email, password_hash, display_name)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (username) DO UPDATE SET updated_at = NOW()
			RETURNING id
		`, u.Username, u.Email, hash, u.DisplayName).Scan(&id)
		if err != nil {
			log.Fatalf("Failed to create user %s: %v", u.Username, err)
		}
		ids[u.Username] = id

		if _, err := db.Exec(ctx, `
			INSERT INTO user_settings (user_id) VALUES ($1)
			ON CONFLICT (user_id) DO NOTHING
		`, id); err != nil {
			log.Fatalf("Failed to create settings for %s: %v", u.Username, err)
		}
		log.Printf("User %s ready (%s)", u.Username, id)
	}

	var convID string
	err = db.QueryRow(ctx, `
		SELECT cp.conversation_id
		FROM conversation_participants cp
		JOIN conversations c ON c.id = cp.conversation_id
		WHERE c.type = 'direct' AND cp.user_id = $1 AND cp.is_active
		  AND EXISTS (
			SELECT 1 FROM conversation_participants other
			WHERE other.conversation_id = cp.conversation_id
			  AND other.user_id = $2 AND other.is_active
		  )
		LIMIT 1
	`, ids["alice"], ids["bob"]).Scan(&convID)
	if err == nil {
		log.Printf("Direct conversation already exists (%s)", convID)
		return
	}

	tx, err := db.BeginTx(ctx)
	if err != nil {
		log.Fatal("Failed to begin transaction:", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO conversations (type, creator_id) VALUES ('direct', $1) RETURNING id
	`, ids["alice"]).Scan(&convID)
	if err != nil {
		log.Fatal("Failed to create conversation:", err)
	}

	for _, username := range []string{"alice", "bob"} {
		role := "member"
		if username == "alice" {
			role = "admin"
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO conversation_participants (conversation_id, user_id, role)
			VALUES ($1, $2, $3)
		`, convID, ids[username], role); err != nil {
			log.Fatalf("Failed to add %s to conversation: %v", username, err)
		}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO messages (conversation_id, sender_id, message_type, content)
		VALUES ($1, $2, 'text', 'Welcome to the demo conversation!')
	`, convID, ids["alice"]); err != nil {
		log.Fatal("Failed to post welcome message:", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatal("Failed to commit:", err)
	}
	log.Printf("Direct conversation created (%s)", convID)
}
