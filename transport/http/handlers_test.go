package http

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/artmint/gatehouse/adapters/store"
	"github.com/artmint/gatehouse/adapters/tokenizer"
	"github.com/artmint/gatehouse/core"
	"github.com/artmint/gatehouse/service"
)

type nopPublisher struct{}

func (nopPublisher) PublishUserCreated(ctx context.Context, user *core.User, method string) error {
	return nil
}

func (nopPublisher) PublishRoleChanged(ctx context.Context, userID string, role core.Role) error {
	return nil
}

type nopNonceLog struct{}

func (nopNonceLog) Record(ctx context.Context, nonce core.Nonce) error { return nil }

type harness struct {
	router *gin.Engine
	store  *store.MemoryStore
	svc    *service.AuthService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemoryStore()
	svc := service.NewAuthService(st, tokenizer.NewJWTTokenizer([]byte("test-secret")), nopPublisher{}, nopNonceLog{}, zap.NewNop())
	return &harness{router: SetupRouter(svc, zap.NewNop()), store: st, svc: svc}
}

func (h *harness) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// signupUser registers an account and returns its id and token.
func (h *harness) signupUser(t *testing.T, email string) (string, string) {
	t.Helper()
	w := h.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{"email": email, "password": "Password123!"})
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	user := body["user"].(map[string]any)
	return user["id"].(string), body["token"].(string)
}

// signupAdmin registers an account and promotes it directly in the
// store. The returned token still carries a USER role claim, which is
// fine: the middleware resolves the live role on every request.
func (h *harness) signupAdmin(t *testing.T, email string) (string, string) {
	t.Helper()
	id, token := h.signupUser(t, email)
	_, err := h.store.UpdateRole(context.Background(), id, core.RoleAdmin)
	require.NoError(t, err)
	return id, token
}

func TestSignupAndDuplicate(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{"email": "a@x.com", "password": "Password123!"})
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "a@x.com", user["email"])
	assert.Equal(t, "USER", user["role"])

	w = h.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{"email": "a@x.com", "password": "Password123!"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email already in use", decode(t, w)["error"])
}

func TestSignupMissingFields(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{"email": "a@x.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"password": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginFailureBodiesIdentical(t *testing.T) {
	h := newHarness(t)
	h.signupUser(t, "a@x.com")

	wrongPassword := h.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "a@x.com", "password": "nope"})
	unknownEmail := h.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "ghost@x.com", "password": "Password123!"})

	require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	require.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

func TestLoginSuccess(t *testing.T) {
	h := newHarness(t)
	id, _ := h.signupUser(t, "a@x.com")

	w := h.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "a@x.com", "password": "Password123!"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, id, body["user"].(map[string]any)["id"])
}

func TestMe(t *testing.T) {
	h := newHarness(t)
	id, token := h.signupUser(t, "a@x.com")

	w := h.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, id, body["id"])
	assert.Equal(t, "a@x.com", body["email"])

	w = h.do(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(t, http.MethodGet, "/api/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeAfterAccountDeleted(t *testing.T) {
	h := newHarness(t)
	id, token := h.signupUser(t, "a@x.com")

	require.NoError(t, h.store.Delete(context.Background(), id))

	w := h.do(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNonce(t *testing.T) {
	h := newHarness(t)
	_, token := h.signupUser(t, "a@x.com")

	w := h.do(t, http.MethodGet, "/api/auth/nonce", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(t, http.MethodGet, "/api/auth/nonce", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["nonce"], 32)
	expiration := int64(body["expiration"].(float64))
	assert.Greater(t, expiration, time.Now().UnixMilli())
}

func signChallenge(t *testing.T, key *ecdsa.PrivateKey, nonce string) string {
	t.Helper()
	hash := accounts.TextHash([]byte(core.ChallengeMessage(nonce)))
	sig, err := ethcrypto.Sign(hash, key)
	require.NoError(t, err)
	return hexutil.Encode(sig)
}

func TestWalletLoginFlow(t *testing.T) {
	h := newHarness(t)

	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	address := ethcrypto.PubkeyToAddress(key.PublicKey).Hex()

	_, token := h.signupUser(t, "a@x.com")
	w := h.do(t, http.MethodGet, "/api/auth/nonce", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	nonce := decode(t, w)["nonce"].(string)

	w = h.do(t, http.MethodPost, "/api/auth/wallet", "", gin.H{
		"walletAddress": address,
		"nonce":         nonce,
		"signature":     signChallenge(t, key, nonce),
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, address, user["walletAddress"])
	assert.Equal(t, "USER", user["role"])
}

func TestWalletLoginWrongSigner(t *testing.T) {
	h := newHarness(t)

	victimKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	attackerKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)

	w := h.do(t, http.MethodPost, "/api/auth/wallet", "", gin.H{
		"walletAddress": ethcrypto.PubkeyToAddress(victimKey.PublicKey).Hex(),
		"nonce":         "deadbeef",
		"signature":     signChallenge(t, attackerKey, "deadbeef"),
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid signature", decode(t, w)["error"])
}

func TestWalletLoginMissingFields(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/api/auth/wallet", "", gin.H{"walletAddress": "0x1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminEndpointsRequireAdminRole(t *testing.T) {
	h := newHarness(t)
	victimID, _ := h.signupUser(t, "victim@x.com")
	_, userToken := h.signupUser(t, "user@x.com")

	// A USER-role token must be denied, and the target left untouched.
	w := h.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/users/%s", victimID), userToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	_, err := h.store.FindByID(context.Background(), victimID)
	assert.NoError(t, err, "resource untouched after 403")

	w = h.do(t, http.MethodGet, "/api/admin/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(t, http.MethodGet, "/api/admin/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminUserManagement(t *testing.T) {
	h := newHarness(t)
	userID, _ := h.signupUser(t, "user@x.com")
	_, adminToken := h.signupAdmin(t, "admin@x.com")

	w := h.do(t, http.MethodGet, "/api/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	assert.Len(t, users, 2)

	w = h.do(t, http.MethodPut, fmt.Sprintf("/api/admin/users/%s/role", userID), adminToken, gin.H{"role": "ADMIN"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ADMIN", decode(t, w)["role"])

	w = h.do(t, http.MethodPut, fmt.Sprintf("/api/admin/users/%s/role", userID), adminToken, gin.H{"role": "OVERLORD"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/users/%s", userID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, err := h.store.FindByID(context.Background(), userID)
	assert.ErrorIs(t, err, core.ErrUserNotFound)
}

func TestRoleDemotionTakesEffectImmediately(t *testing.T) {
	h := newHarness(t)
	adminID, adminToken := h.signupAdmin(t, "admin@x.com")

	w := h.do(t, http.MethodGet, "/api/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Demote behind the token's back; the stale ADMIN claim in the
	// token must not grant access on the next request.
	_, err := h.store.UpdateRole(context.Background(), adminID, core.RoleUser)
	require.NoError(t, err)

	w = h.do(t, http.MethodGet, "/api/admin/users", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteAccountSelfOrAdmin(t *testing.T) {
	h := newHarness(t)
	aliceID, aliceToken := h.signupUser(t, "alice@x.com")
	bobID, bobToken := h.signupUser(t, "bob@x.com")

	// Bob cannot delete Alice's account.
	w := h.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%s", aliceID), bobToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	_, err := h.store.FindByID(context.Background(), aliceID)
	assert.NoError(t, err)

	// Alice can delete her own.
	w = h.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%s", aliceID), aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// An admin can delete anyone's.
	_, adminToken := h.signupAdmin(t, "admin@x.com")
	w = h.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%s", bobID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
