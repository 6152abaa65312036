package backendfake

import (
	"sync"
	"time"
)

type account struct {
	ID           int
	Username     string
	Password     string
	Email        string
	AuthProvider string
	PremiumUntil *time.Time
}

type accountRepo struct {
	accounts map[string]*account // keyed by username
	google   map[string]string   // id token to email
	nextID   int
	lock     sync.RWMutex
}

func newAccountRepo() *accountRepo {
	return &accountRepo{
		accounts: make(map[string]*account),
		google:   make(map[string]string),
		nextID:   1,
	}
}

func (r *accountRepo) add(username, password, email, provider string) (*account, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, exists := r.accounts[username]; exists {
		return nil, false
	}
	a := &account{
		ID:           r.nextID,
		Username:     username,
		Password:     password,
		Email:        email,
		AuthProvider: provider,
	}
	r.nextID++
	r.accounts[username] = a
	return a, true
}

func (r *accountRepo) addGoogle(idToken, email string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.google[idToken] = email
}

func (r *accountRepo) googleEmail(idToken string) (string, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	email, ok := r.google[idToken]
	return email, ok
}

func (r *accountRepo) byUsername(username string) (*account, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	a, ok := r.accounts[username]
	return a, ok
}

func (r *accountRepo) byID(id int) (*account, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	for _, a := range r.accounts {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

func (r *accountRepo) byEmail(email string) (*account, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	for _, a := range r.accounts {
		if a.Email == email {
			return a, true
		}
	}
	return nil, false
}

func (r *accountRepo) activatePremium(id int, until time.Time) {
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, a := range r.accounts {
		if a.ID == id {
			a.PremiumUntil = &until
		}
	}
}

// refreshRepo keeps at most one live refresh token per user
type refreshRepo struct {
	tokens  map[string]*storedRefreshToken
	userIDs map[int]string // user ID to token
	lock    sync.RWMutex
}

func newRefreshRepo() *refreshRepo {
	return &refreshRepo{
		tokens:  make(map[string]*storedRefreshToken),
		userIDs: make(map[int]string),
	}
}

func (tr *refreshRepo) Upsert(refreshToken *storedRefreshToken) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	tr.tokens[refreshToken.Token] = refreshToken
	tr.userIDs[refreshToken.UserID] = refreshToken.Token
}

func (tr *refreshRepo) Delete(token string) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	rt, ok := tr.tokens[token]
	if !ok {
		return
	}
	if tr.userIDs[rt.UserID] == token {
		delete(tr.userIDs, rt.UserID)
	}
	delete(tr.tokens, token)
}

func (tr *refreshRepo) Get(token string) (*storedRefreshToken, bool) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	rt, ok := tr.tokens[token]
	return rt, ok
}

func (tr *refreshRepo) GetByUserID(userID int) (*storedRefreshToken, bool) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	token, ok := tr.userIDs[userID]
	if !ok {
		return nil, false
	}
	return tr.tokens[token], true
}
