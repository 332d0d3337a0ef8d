package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTombstoneStripsContent(t *testing.T) {
	content := "secret"
	mediaURL := "https://cdn.example.com/a.png"
	now := time.Now()

	msg := Message{
		Content:     &content,
		MediaURL:    &mediaURL,
		IsDeleted:   true,
		DeletedAt:   &now,
		Attachments: []Attachment{{FileName: "a.png"}},
	}
	msg.Tombstone()

	require.Nil(t, msg.Content)
	require.Nil(t, msg.MediaURL)
	require.Nil(t, msg.Attachments)
	require.True(t, msg.IsDeleted)
	require.NotNil(t, msg.DeletedAt)
}

func TestTombstoneLeavesLiveMessagesAlone(t *testing.T) {
	content := "hello"
	msg := Message{Content: &content}
	msg.Tombstone()
	require.NotNil(t, msg.Content)
	require.Equal(t, "hello", *msg.Content)
}

func TestMessageState(t *testing.T) {
	var msg Message
	require.Equal(t, MessageStateActive, msg.State())

	msg.IsEdited = true
	require.Equal(t, MessageStateEdited, msg.State())

	msg.IsDeleted = true
	require.Equal(t, MessageStateDeleted, msg.State(), "deleted wins over edited")
}

func TestEnumValidity(t *testing.T) {
	require.True(t, ConversationDirect.Valid())
	require.True(t, ConversationGroup.Valid())
	require.False(t, ConversationType("broadcast").Valid())

	require.True(t, RoleAdmin.Valid())
	require.True(t, RoleMember.Valid())
	require.False(t, ParticipantRole("owner").Valid())

	require.True(t, MessageTypeAudio.Valid())
	require.False(t, MessageType("sticker").Valid())

	require.True(t, ThemeDark.Valid())
	require.False(t, Theme("sepia").Valid())
}
