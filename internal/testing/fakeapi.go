package testing

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
)

// FakeUser is an account held by [FakeAPI].
type FakeUser struct {
	ID        int64
	Name      string
	Email     string
	Password  string
	CreatedAt string
}

func (u FakeUser) profile() map[string]any {
	return map[string]any{"id": u.ID, "name": u.Name, "email": u.Email, "created_at": u.CreatedAt}
}

// FakeAPI is an in-process catalogue API serving /login/, /users/ and /users/me.
//
// Credentials are HS256 tokens signed with Secret and verified on /users/me.
type FakeAPI struct {
	Server *httptest.Server
	Secret []byte
	TTL    time.Duration

	mu        sync.Mutex
	users     map[string]FakeUser
	nextID    int64
	revoked   map[string]bool
	meStatus  int
	calls     map[string]int
	auth      map[string]string
	meGate    chan struct{}
	meArrived chan struct{}
}

// NewFakeAPI starts a [FakeAPI] and closes it when the test ends.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	f := &FakeAPI{
		Secret:  []byte("fake-api-secret"),
		TTL:     time.Hour,
		users:   make(map[string]FakeUser),
		revoked: make(map[string]bool),
		calls:   make(map[string]int),
		auth:    make(map[string]string),
	}

	r := mux.NewRouter()
	r.HandleFunc("/login/", f.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/users/", f.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/users/me", f.handleMe).Methods(http.MethodGet)
	r.Use(f.record)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Close)
	return f
}

// URL returns the base URL of the server.
func (f *FakeAPI) URL() string { return f.Server.URL }

// Close shuts the server down; later requests fail with a connection error.
func (f *FakeAPI) Close() {
	f.Release()
	f.Server.Close()
}

// AddUser creates an account directly.
func (f *FakeAPI) AddUser(name, email, password string) FakeUser {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addUserLocked(name, email, password)
}

func (f *FakeAPI) addUserLocked(name, email, password string) FakeUser {
	f.nextID++
	u := FakeUser{
		ID:        f.nextID,
		Name:      name,
		Email:     email,
		Password:  password,
		CreatedAt: "2024-03-15T09:30:00.123456",
	}
	f.users[email] = u
	return u
}

// Users returns the number of accounts.
func (f *FakeAPI) Users() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

// Mint signs a credential for user expiring at exp.
func (f *FakeAPI) Mint(t *testing.T, user FakeUser, exp time.Time) string {
	t.Helper()
	return MintToken(t, f.Secret, strconv.FormatInt(user.ID, 10), exp)
}

// Revoke makes /users/me reject token although it is unexpired.
func (f *FakeAPI) Revoke(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[token] = true
}

// SetMeStatus forces /users/me to answer with code. Zero restores normal behaviour.
func (f *FakeAPI) SetMeStatus(code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meStatus = code
}

// Calls returns how many requests reached path.
func (f *FakeAPI) Calls(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

// LastAuthorization returns the Authorization header of the latest request to path.
func (f *FakeAPI) LastAuthorization(path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.auth[path]
}

// BlockMe holds the next /users/me request until release is called. Later requests are not held.
// arrived is closed once the held request reaches the server.
func (f *FakeAPI) BlockMe() (arrived <-chan struct{}, release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	gate := make(chan struct{})
	f.meGate = gate
	f.meArrived = make(chan struct{})

	var once sync.Once
	return f.meArrived, func() { once.Do(func() { close(gate) }) }
}

// Release cancels a pending [FakeAPI.BlockMe] that no request has claimed yet.
func (f *FakeAPI) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meGate, f.meArrived = nil, nil
}

func (f *FakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls[r.URL.Path]++
		f.auth[r.URL.Path] = r.Header.Get("Authorization")
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail any) {
	writeJSON(w, status, map[string]any{"detail": detail})
}

func fieldRequired(field string) map[string]any {
	return map[string]any{"loc": []string{"body", field}, "msg": "Field required", "type": "missing"}
}

func (f *FakeAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	f.mu.Lock()
	user, ok := f.users[body.Username]
	f.mu.Unlock()

	if !ok || user.Password != body.Password {
		writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(user.ID, 10),
		"exp": time.Now().Add(f.TTL).Unix(),
		"iat": time.Now().Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(f.Secret)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "token signing failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"access_token": signed, "token_type": "bearer"})
}

func (f *FakeAPI) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	var missing []map[string]any
	if body.Name == "" {
		missing = append(missing, fieldRequired("name"))
	}
	if body.Email == "" {
		missing = append(missing, fieldRequired("email"))
	}
	if body.Password == "" {
		missing = append(missing, fieldRequired("password"))
	}
	if len(missing) > 0 {
		writeDetail(w, http.StatusUnprocessableEntity, missing)
		return
	}

	f.mu.Lock()
	if _, exists := f.users[body.Email]; exists {
		f.mu.Unlock()
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	user := f.addUserLocked(body.Name, body.Email, body.Password)
	f.mu.Unlock()

	writeJSON(w, http.StatusCreated, user.profile())
}

func (f *FakeAPI) handleMe(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	gate, arrived := f.meGate, f.meArrived
	f.meGate, f.meArrived = nil, nil
	status := f.meStatus
	f.mu.Unlock()

	if gate != nil {
		close(arrived)
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	if status != 0 {
		writeDetail(w, status, http.StatusText(status))
		return
	}

	user, err := f.authenticate(r)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	writeJSON(w, http.StatusOK, user.profile())
}

func (f *FakeAPI) authenticate(r *http.Request) (FakeUser, error) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return FakeUser{}, errors.New("missing bearer token")
	}

	f.mu.Lock()
	revoked := f.revoked[raw]
	f.mu.Unlock()
	if revoked {
		return FakeUser{}, errors.New("token revoked")
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return f.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return FakeUser{}, err
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return FakeUser{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strconv.FormatInt(u.ID, 10) == sub {
			return u, nil
		}
	}
	return FakeUser{}, errors.New("unknown subject")
}
