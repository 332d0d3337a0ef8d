package database

import (
	"context"
	"fmt"
	"log"

	"messenger-backend/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Database struct {
	Pool *pgxpool.Pool
}

func NewConnection(cfg *config.Config) (*Database, error) {
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	log.Println("Successfully connected to database")
	return &Database{Pool: pool}, nil
}

func (db *Database) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

func RunMigrations(db *Database) error {
	ctx := context.Background()

	createUsersTable := `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		username VARCHAR(50) UNIQUE NOT NULL,
		email VARCHAR(255) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		display_name VARCHAR(100) NOT NULL,
		first_name VARCHAR(100),
		last_name VARCHAR(100),
		bio VARCHAR(255),
		phone_number VARCHAR(20),
		profile_picture_url TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);`

	createUserSettingsTable := `
	CREATE TABLE IF NOT EXISTS user_settings (
		user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		theme VARCHAR(20) NOT NULL DEFAULT 'system' CHECK (theme IN ('system', 'light', 'dark')),
		language VARCHAR(20) NOT NULL DEFAULT 'en',
		notification_sound BOOLEAN NOT NULL DEFAULT TRUE,
		read_receipts_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		typing_indicators_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		online_status_visible BOOLEAN NOT NULL DEFAULT TRUE,
		two_factor_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);`

	createContactsTable := `
	CREATE TABLE IF NOT EXISTS contacts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		owner_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		contact_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		nickname VARCHAR(100),
		is_blocked BOOLEAN NOT NULL DEFAULT FALSE,
		is_favorite BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE (owner_id, contact_id)
	);`

	createConversationsTable := `
	CREATE TABLE IF NOT EXISTS conversations (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		type VARCHAR(20) NOT NULL CHECK (type IN ('direct', 'group')),
		name VARCHAR(100),
		description TEXT,
		avatar_url TEXT,
		creator_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		last_activity_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);`

	createParticipantsTable := `
	CREATE TABLE IF NOT EXISTS conversation_participants (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		role VARCHAR(20) NOT NULL DEFAULT 'member' CHECK (role IN ('admin', 'member')),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		joined_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		left_at TIMESTAMP WITH TIME ZONE,
		last_read_seq BIGINT NOT NULL DEFAULT 0,
		notifications_enabled BOOLEAN NOT NULL DEFAULT TRUE
	);`

	createMessagesTable := `
	CREATE TABLE IF NOT EXISTS messages (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		seq BIGSERIAL,
		conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		sender_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		message_type VARCHAR(20) NOT NULL DEFAULT 'text' CHECK (message_type IN ('text', 'image', 'video', 'audio', 'file')),
		content TEXT,
		media_url TEXT,
		reply_to_message_id UUID REFERENCES messages(id) ON DELETE SET NULL,
		is_edited BOOLEAN NOT NULL DEFAULT FALSE,
		edited_at TIMESTAMP WITH TIME ZONE,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		deleted_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);`

	createAttachmentsTable := `
	CREATE TABLE IF NOT EXISTS attachments (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		message_id UUID NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
		file_name VARCHAR(255) NOT NULL,
		file_type VARCHAR(100) NOT NULL,
		file_size BIGINT NOT NULL,
		url TEXT NOT NULL,
		thumbnail_url TEXT,
		duration INTEGER,
		width INTEGER,
		height INTEGER,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);`

	// One active membership per (conversation, user); left members keep
	// their historical rows.
	createIndexes := `
	CREATE UNIQUE INDEX IF NOT EXISTS idx_participants_active_unique
		ON conversation_participants(conversation_id, user_id) WHERE is_active;
	CREATE INDEX IF NOT EXISTS idx_participants_user_id ON conversation_participants(user_id);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation_seq ON messages(conversation_id, seq);
	CREATE INDEX IF NOT EXISTS idx_messages_sender_id ON messages(sender_id);
	CREATE INDEX IF NOT EXISTS idx_attachments_message_id ON attachments(message_id);
	CREATE INDEX IF NOT EXISTS idx_contacts_owner_id ON contacts(owner_id);
	CREATE INDEX IF NOT EXISTS idx_conversations_creator_id ON conversations(creator_id);
	CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);`

	migrations := []string{
		createUsersTable,
		createUserSettingsTable,
		createContactsTable,
		createConversationsTable,
		createParticipantsTable,
		createMessagesTable,
		createAttachmentsTable,
		createIndexes,
	}

	for _, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func (db *Database) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return db.Pool.Begin(ctx)
}

func (db *Database) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return db.Pool.QueryRow(ctx, sql, args...)
}

func (db *Database) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return db.Pool.Query(ctx, sql, args...)
}

func (db *Database) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return db.Pool.Exec(ctx, sql, args...)
}
