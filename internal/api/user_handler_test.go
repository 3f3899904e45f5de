package api_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oakward/identity/internal/api"
	"github.com/oakward/identity/internal/auth"
	"github.com/oakward/identity/internal/pagination"
	"github.com/oakward/identity/internal/user"
)

func newUserServer(t *testing.T, users *mockUsers, passwords *mockPasswords, sessions *mockSessions) *httptest.Server {
	t.Helper()

	log := discardLogger()
	router := api.Router(
		api.NewAuthHandler(passwords, sessions, new(mockVerifier), new(mockOAuth), log),
		api.NewUserHandler(users, passwords, sessions, log),
		api.NewBadgeHandler(new(mockBadges), sessions, log),
		log,
		nil,
	)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func authedRequest(t *testing.T, method, url, body string) *http.Request {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer tok")
	return req
}

func stubActor(sessions *mockSessions, actor *auth.User) {
	sessions.On("Authenticate", mock.Anything, "tok").Return(actor, &auth.AccessClaims{}, nil)
}

func TestUserHandler_List(t *testing.T) {
	t.Parallel()

	t.Run("paginated envelope", func(t *testing.T) {
		t.Parallel()

		users := new(mockUsers)
		sessions := new(mockSessions)
		srv := newUserServer(t, users, new(mockPasswords), sessions)

		actor := &auth.User{ID: uuid.New(), Role: auth.RoleAdmin, IsActive: true, IsEmailVerified: true}
		stubActor(sessions, actor)
		users.On("List", mock.Anything, actor, pagination.Params{Page: 2, Limit: 5}).
			Return([]auth.User{{Username: "a"}, {Username: "b"}}, int64(12), nil)

		resp, err := http.DefaultClient.Do(authedRequest(t, http.MethodGet, srv.URL+"/users?page=2&limit=5", ""))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		data := decodeBody(t, resp)["data"].(map[string]any)
		assert.Equal(t, float64(12), data["total"])
		assert.Equal(t, float64(2), data["page"])
		assert.Equal(t, float64(5), data["limit"])
		assert.Equal(t, float64(3), data["total_pages"])
		assert.Len(t, data["data"], 2)
	})

	t.Run("non-admin gets 403", func(t *testing.T) {
		t.Parallel()

		users := new(mockUsers)
		sessions := new(mockSessions)
		srv := newUserServer(t, users, new(mockPasswords), sessions)

		actor := &auth.User{ID: uuid.New(), Role: auth.RoleUser, IsActive: true, IsEmailVerified: true}
		stubActor(sessions, actor)
		users.On("List", mock.Anything, actor, mock.Anything).
			Return(nil, int64(0), auth.ErrForbidden)

		resp, err := http.DefaultClient.Do(authedRequest(t, http.MethodGet, srv.URL+"/users", ""))
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestUserHandler_Get(t *testing.T) {
	t.Parallel()

	t.Run("bad uuid is 400", func(t *testing.T) {
		t.Parallel()

		sessions := new(mockSessions)
		srv := newUserServer(t, new(mockUsers), new(mockPasswords), sessions)
		stubActor(sessions, &auth.User{ID: uuid.New(), IsActive: true, IsEmailVerified: true})

		resp, err := http.DefaultClient.Do(authedRequest(t, http.MethodGet, srv.URL+"/users/not-a-uuid", ""))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown user is 404", func(t *testing.T) {
		t.Parallel()

		users := new(mockUsers)
		sessions := new(mockSessions)
		srv := newUserServer(t, users, new(mockPasswords), sessions)
		stubActor(sessions, &auth.User{ID: uuid.New(), IsActive: true, IsEmailVerified: true})

		ghost := uuid.New()
		users.On("Get", mock.Anything, ghost).Return(nil, auth.ErrUserNotFound)

		resp, err := http.DefaultClient.Do(authedRequest(t, http.MethodGet, srv.URL+"/users/"+ghost.String(), ""))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestUserHandler_Update(t *testing.T) {
	t.Parallel()

	users := new(mockUsers)
	sessions := new(mockSessions)
	srv := newUserServer(t, users, new(mockPasswords), sessions)

	actor := &auth.User{ID: uuid.New(), IsActive: true, IsEmailVerified: true}
	stubActor(sessions, actor)

	users.On("Update", mock.Anything, actor, actor.ID, mock.MatchedBy(func(p user.UpdateParams) bool {
		return p.Username != nil && *p.Username == "renamed" && p.Role == nil
	})).Return(&auth.User{ID: actor.ID, Username: "renamed"}, nil)

	resp, err := http.DefaultClient.Do(authedRequest(t, http.MethodPatch,
		srv.URL+"/users/"+actor.ID.String(), `{"username":"renamed"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := decodeBody(t, resp)["data"].(map[string]any)
	assert.Equal(t, "renamed", data["username"])
}

func TestUserHandler_ChangePassword(t *testing.T) {
	t.Parallel()

	passwords := new(mockPasswords)
	sessions := new(mockSessions)
	srv := newUserServer(t, new(mockUsers), passwords, sessions)

	actor := &auth.User{ID: uuid.New(), Role: auth.RoleUser, IsActive: true, IsEmailVerified: true}
	stubActor(sessions, actor)

	passwords.On("ChangePassword", mock.Anything, auth.ChangePasswordParams{
		ActorID:         actor.ID,
		ActorRole:       auth.RoleUser,
		TargetID:        actor.ID,
		CurrentPassword: "old",
		NewPassword:     "Str0ng&Secret!",
	}).Return(nil)

	resp, err := http.DefaultClient.Do(authedRequest(t, http.MethodPut,
		srv.URL+"/users/"+actor.ID.String()+"/password",
		`{"current_password":"old","new_password":"Str0ng&Secret!"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUserHandler_Delete(t *testing.T) {
	t.Parallel()

	users := new(mockUsers)
	sessions := new(mockSessions)
	srv := newUserServer(t, users, new(mockPasswords), sessions)

	actor := &auth.User{ID: uuid.New(), IsActive: true, IsEmailVerified: true}
	stubActor(sessions, actor)
	users.On("Delete", mock.Anything, actor, actor.ID).Return(nil)

	resp, err := http.DefaultClient.Do(authedRequest(t, http.MethodDelete,
		srv.URL+"/users/"+actor.ID.String(), ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	users.AssertCalled(t, "Delete", mock.Anything, actor, actor.ID)
}
