package typing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestKeyLayout(t *testing.T) {
	convID := uuid.New()
	userID := uuid.New()

	key := Key(convID, userID)
	require.Equal(t, "typing:"+convID.String()+":"+userID.String(), key)
}
