package storage

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestUploadReturnsPublicURL(t *testing.T) {
	var gotPath, gotAuth, gotUpsert, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotUpsert = r.Header.Get("x-upsert")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := NewSupabaseStorage(srv.URL, "service-key")
	url, err := store.Upload("avatars", "user-1.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	require.Equal(t, "/storage/v1/object/avatars/user-1.png", gotPath)
	require.Equal(t, "Bearer service-key", gotAuth)
	require.Equal(t, "true", gotUpsert)
	require.Equal(t, "png-bytes", gotBody)
	require.Equal(t, srv.URL+"/storage/v1/object/public/avatars/user-1.png", url)
}

func TestUploadSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"bucket not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	store := NewSupabaseStorage(srv.URL, "service-key")
	_, err := store.Upload("missing", "k", "image/png", strings.NewReader("x"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "404")
}

func TestDeleteByPublicURL(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := NewSupabaseStorage(srv.URL, "service-key")
	err := store.Delete(srv.URL + "/storage/v1/object/public/avatars/user-1.png")
	require.NoError(t, err)
	require.Equal(t, "/storage/v1/object/avatars/user-1.png", gotPath)
}

func TestDeleteRejectsForeignURL(t *testing.T) {
	store := NewSupabaseStorage("https://project.supabase.co", "service-key")

	require.Error(t, store.Delete("https://elsewhere.example.com/storage/v1/object/public/avatars/x.png"))
	require.Error(t, store.Delete("https://project.supabase.co/storage/v1/object/public/onlybucket"))
}

func TestAvatarKeyIsDeterministic(t *testing.T) {
	userID := uuid.New()

	require.Equal(t, userID.String()+".png", AvatarKey(userID, "image/png"))
	require.Equal(t, AvatarKey(userID, "image/jpeg"), AvatarKey(userID, "image/jpeg"))

	_, ok := ImageExtension("application/pdf")
	require.False(t, ok)
}

func TestAttachmentKeyIsNamespacedAndUnique(t *testing.T) {
	convID := uuid.New()

	k1 := AttachmentKey(convID, ".png")
	k2 := AttachmentKey(convID, ".png")
	require.True(t, strings.HasPrefix(k1, convID.String()+"/"))
	require.True(t, strings.HasSuffix(k1, ".png"))
	require.NotEqual(t, k1, k2)
}
